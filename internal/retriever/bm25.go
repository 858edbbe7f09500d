package retriever

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	bm25 "github.com/iwilltry42/bm25-go/bm25"

	"github.com/majormentor/major-mentor-go/internal/logger"
)

// BM25Index provides keyword-based course search using the BM25 algorithm.
// The index is rebuilt wholesale on dataset replacement; BM25 IDF statistics
// require the full corpus anyway.
type BM25Index struct {
	bm25Okapi   *bm25.BM25Okapi
	docs        []Document
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// LexicalResult is one BM25 search hit.
type LexicalResult struct {
	Document Document
	Score    float64 // BM25 score (higher is better)
	Rank     int     // 1-indexed rank position
}

// NewBM25Index creates an empty BM25 index.
func NewBM25Index(log *logger.Logger) *BM25Index {
	return &BM25Index{logger: log}
}

// Rebuild replaces the index contents with the given documents.
// k1=1.5, b=0.75 are standard BM25 parameters.
func (idx *BM25Index) Rebuild(docs []Document) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	corpus := make([]string, 0, len(docs))
	kept := make([]Document, 0, len(docs))
	for _, doc := range docs {
		text := doc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		corpus = append(corpus, text)
		kept = append(kept, doc)
	}

	if len(corpus) == 0 {
		idx.bm25Okapi = nil
		idx.docs = nil
		idx.initialized = true
		return nil
	}

	bm25Okapi, err := bm25.NewBM25Okapi(corpus, Tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to build BM25 index: %w", err)
	}

	idx.bm25Okapi = bm25Okapi
	idx.docs = kept
	idx.initialized = true

	idx.logger.WithField("docs", len(corpus)).Info("BM25 index rebuilt")
	return nil
}

// Search performs BM25 keyword search.
// Returns results sorted by BM25 score (descending). Zero-score documents
// are omitted; an empty result set is not an error.
func (idx *BM25Index) Search(query string, topN int) ([]LexicalResult, error) {
	if idx == nil {
		return nil, nil
	}

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.bm25Okapi == nil {
		return nil, nil
	}

	tokenizedQuery := Tokenize(query)
	if len(tokenizedQuery) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokenizedQuery)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	results := make([]LexicalResult, 0, len(scores))
	for docID, score := range scores {
		if score <= 0 || docID >= len(idx.docs) {
			continue
		}
		results = append(results, LexicalResult{
			Document: idx.docs[docID],
			Score:    score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	for i := range results {
		results[i].Rank = i + 1
	}

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	return results, nil
}

// IsEnabled returns true if the index has been built.
func (idx *BM25Index) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.bm25Okapi != nil
}

// Count returns the number of documents in the index.
func (idx *BM25Index) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}
