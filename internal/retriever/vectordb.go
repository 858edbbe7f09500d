package retriever

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/majormentor/major-mentor-go/internal/config"
	"github.com/majormentor/major-mentor-go/internal/logger"
)

const (
	// CourseCollectionName is the name of the course collection in chromem.
	CourseCollectionName = "courses"

	// embedConcurrency bounds parallel embedding calls during indexing.
	embedConcurrency = 4
)

// Metadata keys stored per document.
const (
	metaCourseID     = "course_id"
	metaDepartmentID = "department_id"
	metaUniversity   = "university"
	metaCollege      = "college"
	metaDepartment   = "department"
	metaGrade        = "grade"
	metaSemester     = "semester"
	metaName         = "name"
)

// VectorDB wraps a chromem-go database for semantic course search.
type VectorDB struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// VectorResult is one semantic search hit.
type VectorResult struct {
	Document   Document
	Content    string
	Similarity float32 // Cosine similarity score (0-1)
}

// NewVectorDB creates a persistent vector database under persistDir.
// Returns nil if embeddingFunc is nil (semantic search disabled).
func NewVectorDB(persistDir string, embeddingFunc chromem.EmbeddingFunc, log *logger.Logger) (*VectorDB, error) {
	if embeddingFunc == nil {
		log.Info("embedding function not configured, semantic search disabled")
		return nil, nil //nolint:nilnil // Intentional: feature disabled
	}

	chromemPath := filepath.Join(persistDir, "chromem", CourseCollectionName)
	db, err := chromem.NewPersistentDB(chromemPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: embeddingFunc,
		logger:        log,
	}, nil
}

// Load opens the existing collection without re-embedding. Call this at
// startup; if the collection is empty a Rebuild is required before search.
func (v *VectorDB) Load() error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(CourseCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to get/create collection: %w", err)
	}
	v.collection = collection
	v.initialized = true

	if count := collection.Count(); count > 0 {
		v.logger.WithField("count", count).Info("Loaded existing course embeddings from disk")
	}
	return nil
}

// Rebuild replaces the collection wholesale with the given documents.
// Documents are immutable, so dataset updates always swap the full index.
func (v *VectorDB) Rebuild(ctx context.Context, docs []Document) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.db.DeleteCollection(CourseCollectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}

	collection, err := v.db.GetOrCreateCollection(CourseCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	v.collection = collection
	v.initialized = true

	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:      doc.CourseID,
			Content: doc.Text(),
			Metadata: map[string]string{
				metaCourseID:     doc.CourseID,
				metaDepartmentID: doc.DepartmentID,
				metaUniversity:   doc.University,
				metaCollege:      doc.College,
				metaDepartment:   doc.Department,
				metaGrade:        strconv.Itoa(doc.Grade),
				metaSemester:     strconv.Itoa(doc.Semester),
				metaName:         doc.Name,
			},
		})
	}

	if err := collection.AddDocuments(ctx, chromemDocs, embedConcurrency); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	v.logger.WithField("count", len(chromemDocs)).Info("Indexed courses for semantic search")
	return nil
}

// Search performs semantic search for courses matching the query.
// A non-nil where map becomes a chromem metadata filter (hard filter).
// Results below the similarity floor are dropped; an empty result set is
// not an error.
func (v *VectorDB) Search(ctx context.Context, query string, where map[string]string, topN int) ([]VectorResult, error) {
	if v == nil {
		return nil, nil
	}

	if query == "" {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.initialized || v.collection == nil {
		return nil, nil
	}

	// chromem-go returns an error when nResults exceeds the document count.
	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > docCount {
		topN = docCount
	}

	results, err := v.collection.Query(ctx, query, topN, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	searchResults := make([]VectorResult, 0, len(results))
	for _, result := range results {
		if result.Similarity < config.MinSimilarity {
			continue
		}

		doc := Document{
			CourseID:     result.Metadata[metaCourseID],
			DepartmentID: result.Metadata[metaDepartmentID],
			University:   result.Metadata[metaUniversity],
			College:      result.Metadata[metaCollege],
			Department:   result.Metadata[metaDepartment],
			Name:         result.Metadata[metaName],
		}
		if doc.CourseID == "" {
			doc.CourseID = result.ID
		}
		doc.Grade, _ = strconv.Atoi(result.Metadata[metaGrade])
		doc.Semester, _ = strconv.Atoi(result.Metadata[metaSemester])

		searchResults = append(searchResults, VectorResult{
			Document:   doc,
			Content:    result.Content,
			Similarity: result.Similarity,
		})
	}

	sort.Slice(searchResults, func(i, j int) bool {
		return searchResults[i].Similarity > searchResults[j].Similarity
	})

	return searchResults, nil
}

// Count returns the number of documents in the collection.
func (v *VectorDB) Count() int {
	if v == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.collection == nil {
		return 0
	}
	return v.collection.Count()
}

// IsEnabled returns true if the vector database is ready for search.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized && v.collection != nil
}
