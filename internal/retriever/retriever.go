package retriever

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/logger"
)

// softFilterBonus scales the ranking boost applied for a low-confidence
// department hint. Sized to roughly one top-rank RRF contribution so the
// hint reorders near-ties without drowning the retrieval signal.
const softFilterBonus = 1.0 / float64(config.RRFConstant+1)

// Filter narrows retrieval to a department. Confidence decides how the
// filter is applied: at or above config.HardFilterConfidence it becomes a
// metadata filter, below that a soft score bonus for matching results.
type Filter struct {
	DepartmentID string
	Department   string
	Confidence   float64
}

// hard reports whether the filter excludes other departments entirely.
func (f *Filter) hard() bool {
	return f != nil && f.DepartmentID != "" && f.Confidence >= config.HardFilterConfidence
}

// ScoredCourse is one course within a retrieval group.
type ScoredCourse struct {
	CourseID string
	Name     string
	Score    float64
	Excerpt  string
}

// CourseGroup is the set of retrieved courses of one department in one
// grade-semester slot, ordered by score.
type CourseGroup struct {
	DepartmentID string
	University   string
	Department   string
	Grade        int
	Semester     int
	Courses      []ScoredCourse
}

// GradeSemester returns the group's grade-semester label, e.g. "2-1".
func (g CourseGroup) GradeSemester() string {
	return fmt.Sprintf("%d-%d", g.Grade, g.Semester)
}

// DepartmentRecommendation is one department ranked by aggregate topical
// similarity of its courses to an interest query.
type DepartmentRecommendation struct {
	DepartmentID string
	University   string
	Department   string
	Score        float64
	Rationale    string // excerpt of the best-matching course
}

// Retriever combines BM25 keyword search and vector semantic search using
// weighted Reciprocal Rank Fusion.
type Retriever struct {
	vectorDB *VectorDB
	bm25     *BM25Index
	logger   *logger.Logger
}

// New creates a hybrid retriever. Either index may be nil; the remaining
// one is then used alone.
func New(vectorDB *VectorDB, bm25 *BM25Index, log *logger.Logger) *Retriever {
	return &Retriever{
		vectorDB: vectorDB,
		bm25:     bm25,
		logger:   log,
	}
}

// Rebuild replaces both indexes with the given documents.
func (r *Retriever) Rebuild(ctx context.Context, docs []Document) error {
	if r == nil {
		return nil
	}

	if r.bm25 != nil {
		if err := r.bm25.Rebuild(docs); err != nil {
			return err
		}
	}
	if r.vectorDB != nil {
		if err := r.vectorDB.Rebuild(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}

// Restore rebuilds the lexical index and reuses the persisted vector
// collection when it already holds one embedding per document; otherwise
// the vector index is rebuilt too. Startup path: the catalog survives
// restarts, so matching embeddings never need re-embedding.
func (r *Retriever) Restore(ctx context.Context, docs []Document) error {
	if r == nil {
		return nil
	}

	if r.bm25 != nil {
		if err := r.bm25.Rebuild(docs); err != nil {
			return err
		}
	}
	if r.vectorDB != nil {
		if err := r.vectorDB.Load(); err != nil {
			return err
		}
		if r.vectorDB.Count() != len(docs) {
			if err := r.vectorDB.Rebuild(ctx, docs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Search performs hybrid search and returns flat fused results.
//
// Both legs run in parallel; a failing leg is logged and the other leg's
// results are used alone. With a hard filter the vector leg filters by
// department metadata and BM25 results are post-filtered; a soft filter
// adds a score bonus to matching results instead.
func (r *Retriever) Search(ctx context.Context, query string, filter *Filter, topN int) ([]HybridResult, error) {
	if r == nil {
		return nil, nil
	}

	vectorEnabled := r.vectorDB.IsEnabled()
	bm25Enabled := r.bm25.IsEnabled()
	if !vectorEnabled && !bm25Enabled {
		return nil, nil
	}

	if topN <= 0 {
		topN = config.MaxRetrievalResults
	}

	// Fetch more than needed so fusion and filtering have material to work with.
	fetchN := topN * 3
	if fetchN < config.MaxRetrievalResults {
		fetchN = config.MaxRetrievalResults
	}

	var where map[string]string
	if filter.hard() {
		where = map[string]string{metaDepartmentID: filter.DepartmentID}
	}

	var (
		lexical   []LexicalResult
		vector    []VectorResult
		bm25Err   error
		vectorErr error
		wg        sync.WaitGroup
	)

	if bm25Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lexical, bm25Err = r.bm25.Search(query, fetchN)
		}()
	}

	if vectorEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vector, vectorErr = r.vectorDB.Search(ctx, query, where, fetchN)
		}()
	}

	wg.Wait()

	if bm25Err != nil {
		r.logger.WithError(bm25Err).Warn("BM25 search failed")
	}
	if vectorErr != nil {
		r.logger.WithError(vectorErr).Warn("Vector search failed")
	}
	if bm25Err != nil && vectorErr != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", vectorErr)
	}

	if filter.hard() {
		filtered := lexical[:0]
		for _, lr := range lexical {
			if lr.Document.DepartmentID == filter.DepartmentID {
				filtered = append(filtered, lr)
			}
		}
		lexical = filtered
	}

	results := fuseRRF(lexical, vector, 0)

	// Soft filter: matching departments get a bonus instead of exclusivity.
	if filter != nil && !filter.hard() && filter.DepartmentID != "" {
		for i := range results {
			if results[i].Document.DepartmentID == filter.DepartmentID {
				results[i].RRFScore += filter.Confidence * softFilterBonus
			}
		}
		sort.Slice(results, func(i, j int) bool {
			return results[i].RRFScore > results[j].RRFScore
		})
	}

	if len(results) > topN {
		results = results[:topN]
	}

	return results, nil
}

// Retrieve performs hybrid search and groups the results by grade-semester.
//
// Groups are ordered by grade then semester ascending; groups in the same
// slot are ordered by their best course score. Duplicate courses (same
// department, grade-semester and name) are collapsed to the best-scoring
// hit, and each group is truncated to limitPerGroup.
func (r *Retriever) Retrieve(ctx context.Context, query string, filter *Filter, limitPerGroup int) ([]CourseGroup, error) {
	results, err := r.Search(ctx, query, filter, config.MaxRetrievalResults)
	if err != nil {
		return nil, err
	}

	return GroupCourses(results, limitPerGroup), nil
}

// GroupCourses groups fused results by (department, grade, semester) with
// per-group deduplication and truncation. Input must be sorted by score
// descending, which Search guarantees.
func GroupCourses(results []HybridResult, limitPerGroup int) []CourseGroup {
	if limitPerGroup <= 0 {
		limitPerGroup = config.GroupLimit
	}

	type groupKey struct {
		departmentID string
		grade        int
		semester     int
	}

	seen := make(map[groupKey]map[string]bool)
	groups := make(map[groupKey]*CourseGroup)
	order := make([]groupKey, 0)

	for _, hr := range results {
		doc := hr.Document
		key := groupKey{doc.DepartmentID, doc.Grade, doc.Semester}

		names, ok := seen[key]
		if !ok {
			names = make(map[string]bool)
			seen[key] = names
			groups[key] = &CourseGroup{
				DepartmentID: doc.DepartmentID,
				University:   doc.University,
				Department:   doc.Department,
				Grade:        doc.Grade,
				Semester:     doc.Semester,
			}
			order = append(order, key)
		}

		// Results arrive score-descending, so the first hit per name wins.
		if names[doc.Name] {
			continue
		}

		group := groups[key]
		if len(group.Courses) >= limitPerGroup {
			continue
		}

		names[doc.Name] = true
		excerpt := hr.Content
		if excerpt == "" {
			excerpt = doc.Text()
		}
		group.Courses = append(group.Courses, ScoredCourse{
			CourseID: doc.CourseID,
			Name:     doc.Name,
			Score:    hr.RRFScore,
			Excerpt:  excerpt,
		})
	}

	result := make([]CourseGroup, 0, len(order))
	for _, key := range order {
		result = append(result, *groups[key])
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Grade != result[j].Grade {
			return result[i].Grade < result[j].Grade
		}
		if result[i].Semester != result[j].Semester {
			return result[i].Semester < result[j].Semester
		}
		// Same slot across departments: better-scoring group first.
		return bestScore(result[i]) > bestScore(result[j])
	})

	return result
}

func bestScore(g CourseGroup) float64 {
	if len(g.Courses) == 0 {
		return 0
	}
	return g.Courses[0].Score
}

// RecommendDepartments ranks departments by aggregate topical similarity of
// their courses to the interest query. The rationale carries the excerpt of
// each department's best-matching course.
func (r *Retriever) RecommendDepartments(ctx context.Context, query string, topK int) ([]DepartmentRecommendation, error) {
	results, err := r.Search(ctx, query, nil, config.MaxRetrievalResults)
	if err != nil {
		return nil, err
	}

	aggregate := make(map[string]*DepartmentRecommendation)
	order := make([]string, 0)

	for _, hr := range results {
		doc := hr.Document
		if doc.DepartmentID == "" {
			continue
		}

		rec, ok := aggregate[doc.DepartmentID]
		if !ok {
			excerpt := hr.Content
			if excerpt == "" {
				excerpt = doc.Text()
			}
			rec = &DepartmentRecommendation{
				DepartmentID: doc.DepartmentID,
				University:   doc.University,
				Department:   doc.Department,
				Rationale:    excerpt,
			}
			aggregate[doc.DepartmentID] = rec
			order = append(order, doc.DepartmentID)
		}
		rec.Score += hr.RRFScore
	}

	recommendations := make([]DepartmentRecommendation, 0, len(order))
	for _, id := range order {
		recommendations = append(recommendations, *aggregate[id])
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Score > recommendations[j].Score
	})

	if topK > 0 && len(recommendations) > topK {
		recommendations = recommendations[:topK]
	}

	return recommendations, nil
}

// IsEnabled returns true if at least one search leg is available.
func (r *Retriever) IsEnabled() bool {
	if r == nil {
		return false
	}
	return r.vectorDB.IsEnabled() || r.bm25.IsEnabled()
}
