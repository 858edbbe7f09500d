// Package config provides policy constants for retrieval and planning.
package config

// Entity resolution thresholds.
//
// A mention resolves to the best-scoring catalog entity only when the score
// clears AcceptThreshold AND leads the runner-up by at least AmbiguityMargin.
// A leading score inside the margin is reported as ambiguous rather than
// silently picking a winner. Scores below ResolutionFloor never resolve.
const (
	// AcceptThreshold is the minimum combined score for automatic acceptance.
	AcceptThreshold = 0.62

	// AmbiguityMargin is the minimum lead over the runner-up candidate.
	AmbiguityMargin = 0.05

	// ResolutionFloor is the score below which a mention is treated as unknown.
	ResolutionFloor = 0.35

	// EmbeddingWeight and LexicalWeight blend the two resolver similarity
	// signals. They must sum to 1.
	EmbeddingWeight = 0.7
	LexicalWeight   = 0.3

	// MaxResolverCandidates caps candidates scored per mention.
	MaxResolverCandidates = 10
)

// Hybrid retrieval parameters.
const (
	// VectorFusionWeight and BM25FusionWeight skew reciprocal rank fusion
	// toward the dense signal, which handles paraphrased interest queries
	// better than exact term overlap.
	VectorFusionWeight = 0.6
	BM25FusionWeight   = 0.4

	// RRFConstant dampens the contribution of low-ranked results.
	RRFConstant = 60

	// MinSimilarity filters vector results with near-zero relevance.
	MinSimilarity = 0.30

	// HardFilterConfidence is the resolver score above which a department
	// mention becomes a metadata filter instead of a soft query hint.
	HardFilterConfidence = 0.75

	// GroupLimit caps courses returned per grade-semester group.
	GroupLimit = 5

	// MaxRetrievalResults caps candidates fetched from each retrieval leg
	// before fusion and grouping.
	MaxRetrievalResults = 40

	// MaxDepartmentRecommendations caps the ranked list returned by the
	// interest-based recommendation tool.
	MaxDepartmentRecommendations = 5
)

// Agent loop budget.
const (
	// MaxAgentSteps bounds the plan/act cycle of one turn. Each tool call
	// consumes one step; the final answer does not.
	MaxAgentSteps = 6

	// MaxToolRetries is how many times a failed tool call is retried within
	// the same step before the failure is surfaced to the planner.
	MaxToolRetries = 2
)
