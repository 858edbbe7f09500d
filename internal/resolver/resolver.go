// Package resolver maps free-form Korean mentions ("컴공", "심리학부") to
// canonical catalog entities. Resolution is two-stage: exact normalized
// match first, then a hybrid score blending embedding cosine similarity
// with lexical token overlap. Near-ties are reported as ambiguous instead
// of silently picking a winner.
package resolver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"golang.org/x/text/width"

	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/retriever"
)

// Kind identifies the entity namespace a mention resolves against.
type Kind string

const (
	// KindDepartment resolves against department names.
	KindDepartment Kind = "department"
	// KindUniversity resolves against university names.
	KindUniversity Kind = "university"
)

// Entity is one canonical entry of the resolver index.
type Entity struct {
	ID   string
	Name string
	Kind Kind

	// UniversityID scopes a department entity to the university offering
	// it. Same-named departments at different universities are separate
	// entities. Empty for university entities.
	UniversityID string

	// University is the offering university's display name, used to
	// qualify otherwise identical candidate names in clarifications.
	University string
}

// ResolvedEntity is a successful resolution.
type ResolvedEntity struct {
	ID         string
	Name       string // canonical form, to be used verbatim downstream
	Kind       Kind
	Confidence float64

	// UniversityID is set for department entities.
	UniversityID string
}

// Candidate is one scored alternative, surfaced on ambiguity.
type Candidate struct {
	ID         string
	Name       string
	University string
	Score      float64
}

// Context restricts resolution using facts already established in the turn.
type Context struct {
	// UniversityID restricts department candidates to that university's
	// offerings. Ignored for university mentions.
	UniversityID string
}

// entry is one indexed entity with precomputed matching material.
type entry struct {
	entity     Entity
	normalized string
	tokens     map[string]bool
	vector     []float32
}

// Resolver resolves mentions against an in-memory canonical index.
// Canonical-name embeddings are computed once at index build and cached;
// only the mention itself is embedded per call.
type Resolver struct {
	mu      sync.RWMutex
	entries map[Kind][]entry
	embed   chromem.EmbeddingFunc
	logger  *logger.Logger
}

// New creates a resolver. embed may be nil, which disables the embedding
// signal; scoring then falls back to lexical overlap alone.
func New(embed chromem.EmbeddingFunc, log *logger.Logger) *Resolver {
	return &Resolver{
		entries: make(map[Kind][]entry),
		embed:   embed,
		logger:  log,
	}
}

// Rebuild replaces the resolver index with the given entities, embedding
// each canonical name once.
func (r *Resolver) Rebuild(ctx context.Context, entities []Entity) error {
	if r == nil {
		return nil
	}

	byKind := make(map[Kind][]entry)
	vectors := make(map[string][]float32) // same-named entities share one embedding
	for _, ent := range entities {
		normalized := Normalize(ent.Name)
		if normalized == "" {
			continue
		}

		e := entry{
			entity:     ent,
			normalized: normalized,
			tokens:     tokenSet(ent.Name),
		}

		if r.embed != nil {
			vector, ok := vectors[normalized]
			if !ok {
				var err error
				vector, err = r.embed(ctx, ent.Name)
				if err != nil {
					return fmt.Errorf("embed canonical name %q: %w", ent.Name, err)
				}
				vectors[normalized] = vector
			}
			e.vector = vector
		}

		byKind[ent.Kind] = append(byKind[ent.Kind], e)
	}

	r.mu.Lock()
	r.entries = byKind
	r.mu.Unlock()

	total := 0
	for _, entries := range byKind {
		total += len(entries)
	}
	r.logger.WithField("entities", total).Info("Resolver index rebuilt")
	return nil
}

// Resolve maps a mention to at most one canonical entity.
//
// Acceptance: the best candidate wins only when its score clears the
// accept threshold AND leads the runner-up by the ambiguity margin.
// Scores under the resolution floor report not-found; a lead inside the
// margin reports ambiguity with the ranked candidate set. Identical
// mentions always produce identical outcomes for an unchanged index.
func (r *Resolver) Resolve(ctx context.Context, mention string, kind Kind, rctx *Context) (*ResolvedEntity, error) {
	if r == nil {
		return nil, domerrors.ErrResolutionFailed
	}

	normalized := Normalize(mention)
	if normalized == "" {
		return nil, domerrors.NewValidationError("mention", "empty mention")
	}

	r.mu.RLock()
	pool := r.entries[kind]
	r.mu.RUnlock()

	candidates := restrict(pool, kind, rctx)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s %q: %w", kind, mention, domerrors.ErrNotFound)
	}

	// Stage 1: exact normalized match short-circuits scoring. Several
	// universities can carry the same department name; without a pinned
	// university that is a genuine ambiguity, not a winner.
	var exact []entry
	for _, e := range candidates {
		if e.normalized == normalized {
			exact = append(exact, e)
		}
	}
	if len(exact) == 1 {
		e := exact[0]
		return &ResolvedEntity{
			ID:           e.entity.ID,
			Name:         e.entity.Name,
			Kind:         kind,
			Confidence:   1.0,
			UniversityID: e.entity.UniversityID,
		}, nil
	}
	if len(exact) > 1 {
		names := make([]string, 0, len(exact))
		for _, e := range exact {
			names = append(names, qualifiedName(e.entity.Name, e.entity.University, true))
		}
		return nil, domerrors.NewAmbiguityError(string(kind), mention, names)
	}

	// Stage 2: hybrid scoring.
	var mentionVec []float32
	if r.embed != nil {
		vector, err := r.embed(ctx, mention)
		if err != nil {
			r.logger.WithError(err).Warn("mention embedding failed, lexical scoring only")
		} else {
			mentionVec = vector
		}
	}

	mentionTokens := tokenSet(mention)
	scored := make([]Candidate, 0, len(candidates))
	for _, e := range candidates {
		score := hybridScore(mentionVec, mentionTokens, e)
		scored = append(scored, Candidate{
			ID:         e.entity.ID,
			Name:       e.entity.Name,
			University: e.entity.University,
			Score:      score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	top := scored[0]
	if top.Score < config.ResolutionFloor {
		return nil, fmt.Errorf("%s %q: %w", kind, mention, domerrors.ErrNotFound)
	}

	lead := top.Score
	if len(scored) > 1 {
		lead = top.Score - scored[1].Score
	}

	if top.Score >= config.AcceptThreshold && lead >= config.AmbiguityMargin {
		var universityID string
		for _, e := range candidates {
			if e.entity.ID == top.ID {
				universityID = e.entity.UniversityID
				break
			}
		}
		return &ResolvedEntity{
			ID:           top.ID,
			Name:         top.Name,
			Kind:         kind,
			Confidence:   top.Score,
			UniversityID: universityID,
		}, nil
	}

	limit := min(len(scored), config.MaxResolverCandidates)
	dupes := duplicateNames(scored[:limit])
	names := make([]string, 0, limit)
	for _, c := range scored[:limit] {
		if c.Score < config.ResolutionFloor {
			break
		}
		names = append(names, qualifiedName(c.Name, c.University, dupes[c.Name]))
	}

	return nil, domerrors.NewAmbiguityError(string(kind), mention, names)
}

// duplicateNames reports which candidate names appear more than once.
func duplicateNames(candidates []Candidate) map[string]bool {
	counts := make(map[string]int, len(candidates))
	for _, c := range candidates {
		counts[c.Name]++
	}
	dupes := make(map[string]bool, len(counts))
	for name, n := range counts {
		dupes[name] = n > 1
	}
	return dupes
}

// qualifiedName appends the university to a candidate name when the bare
// name alone would not identify the entity.
func qualifiedName(name, university string, qualify bool) string {
	if !qualify || university == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, university)
}

// Candidates scores every entity of the kind against the mention and
// returns those at or above the resolution floor, best first. An exact
// normalized match scores 1.0. Unlike Resolve it never reports ambiguity;
// callers that want a ranked neighborhood (near-synonym department
// lookups) read the whole list.
func (r *Resolver) Candidates(ctx context.Context, mention string, kind Kind, limit int) ([]Candidate, error) {
	if r == nil {
		return nil, domerrors.ErrResolutionFailed
	}

	normalized := Normalize(mention)
	if normalized == "" {
		return nil, domerrors.NewValidationError("mention", "empty mention")
	}

	r.mu.RLock()
	pool := r.entries[kind]
	r.mu.RUnlock()

	var mentionVec []float32
	if r.embed != nil {
		vector, err := r.embed(ctx, mention)
		if err != nil {
			r.logger.WithError(err).Warn("mention embedding failed, lexical scoring only")
		} else {
			mentionVec = vector
		}
	}

	mentionTokens := tokenSet(mention)
	scored := make([]Candidate, 0, len(pool))
	for _, e := range pool {
		score := hybridScore(mentionVec, mentionTokens, e)
		if e.normalized == normalized {
			score = 1.0
		}
		if score < config.ResolutionFloor {
			continue
		}
		scored = append(scored, Candidate{
			ID:         e.entity.ID,
			Name:       e.entity.Name,
			University: e.entity.University,
			Score:      score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// restrict filters department candidates to a pinned university.
func restrict(pool []entry, kind Kind, rctx *Context) []entry {
	if kind != KindDepartment || rctx == nil || rctx.UniversityID == "" {
		return pool
	}

	restricted := make([]entry, 0, len(pool))
	for _, e := range pool {
		if e.entity.UniversityID == rctx.UniversityID {
			restricted = append(restricted, e)
		}
	}
	return restricted
}

// hybridScore blends embedding cosine similarity with lexical overlap.
// Without embeddings the lexical signal carries the full weight, keeping
// the score in the same 0-1 range the thresholds expect.
func hybridScore(mentionVec []float32, mentionTokens map[string]bool, e entry) float64 {
	lexical := diceOverlap(mentionTokens, e.tokens)

	if mentionVec == nil || e.vector == nil {
		return lexical
	}

	cos := cosineSimilarity(mentionVec, e.vector)
	if cos < 0 {
		cos = 0
	}
	return config.EmbeddingWeight*cos + config.LexicalWeight*lexical
}

// diceOverlap computes the Sørensen-Dice coefficient of two token sets.
func diceOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shared := 0
	for token := range a {
		if b[token] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}

// cosineSimilarity computes cosine similarity of two vectors.
// Returns 0 for mismatched or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenSet builds the lexical token set for a name.
func tokenSet(text string) map[string]bool {
	tokens := retriever.Tokenize(Normalize(text))
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Normalize canonicalizes a mention for matching: full-width characters are
// folded to their half-width forms, case is folded, and whitespace runs
// collapse to single spaces.
func Normalize(s string) string {
	folded := width.Fold.String(s)
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}
