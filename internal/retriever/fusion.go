package retriever

import (
	"sort"

	"github.com/majormentor/major-mentor-go/internal/config"
)

// HybridResult is one fused result from BM25 and vector search.
type HybridResult struct {
	Document   Document
	Content    string  // From vector search when available
	BM25Score  float64 // BM25 score (0 if not found in BM25)
	VectorSim  float32 // Vector similarity (0 if not found in vector)
	RRFScore   float64 // Combined RRF score
	BM25Rank   int     // Rank in BM25 results (0 if not found)
	VectorRank int     // Rank in vector results (0 if not found)
}

// fuseRRF combines BM25 and vector search results using weighted
// Reciprocal Rank Fusion:
//
//	score(d) = Σ (w_i / (k + rank_i))
//
// where k is config.RRFConstant and w_i are the fusion weights. Results are
// keyed by course id and sorted by combined RRF score (descending).
func fuseRRF(lexical []LexicalResult, vector []VectorResult, topN int) []HybridResult {
	resultMap := make(map[string]*HybridResult)

	for _, r := range lexical {
		score := config.BM25FusionWeight / float64(config.RRFConstant+r.Rank)
		resultMap[r.Document.CourseID] = &HybridResult{
			Document:  r.Document,
			BM25Score: r.Score,
			BM25Rank:  r.Rank,
			RRFScore:  score,
		}
	}

	for i, r := range vector {
		rank := i + 1
		score := config.VectorFusionWeight / float64(config.RRFConstant+rank)

		if existing, ok := resultMap[r.Document.CourseID]; ok {
			existing.VectorSim = r.Similarity
			existing.VectorRank = rank
			existing.Content = r.Content
			existing.RRFScore += score
		} else {
			resultMap[r.Document.CourseID] = &HybridResult{
				Document:   r.Document,
				Content:    r.Content,
				VectorSim:  r.Similarity,
				VectorRank: rank,
				RRFScore:   score,
			}
		}
	}

	results := make([]HybridResult, 0, len(resultMap))
	for _, r := range resultMap {
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RRFScore > results[j].RRFScore
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	return results
}
