// Package tools implements the deterministic tool surface the planner
// orchestrates: read-only operations over the canonical catalog, the
// entity resolver, and the hybrid retriever. Every tool validates its
// arguments against the declared schema, runs under a per-call timeout,
// and renders its outcome as Korean text the planner observes.
package tools

import (
	"context"
	"errors"
	"time"

	"github.com/majormentor/major-mentor-go/internal/catalog"
	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/resolver"
	"github.com/majormentor/major-mentor-go/internal/retriever"
)

// Result is one executed tool call's outcome.
type Result struct {
	Tool string
	Text string // observation text fed back to the planner

	// Entities lists the canonical entity names surfaced by this result
	// (departments, universities, courses). The answer post-check uses
	// them to repair names the model altered.
	Entities []string
}

// Registry executes planner tool calls against the read path.
type Registry struct {
	catalog   *catalog.HotSwapDB
	resolver  *resolver.Resolver
	retriever *retriever.Retriever
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewRegistry creates a tool registry over the shared read-only stores.
func NewRegistry(cat *catalog.HotSwapDB, res *resolver.Resolver, ret *retriever.Retriever, log *logger.Logger) *Registry {
	return &Registry{
		catalog:   cat,
		resolver:  res,
		retriever: ret,
		logger:    log,
	}
}

// SetMetrics attaches a metrics recorder. Optional.
func (reg *Registry) SetMetrics(m *metrics.Metrics) {
	reg.metrics = m
}

// Execute runs the tool named by the planner decision under the tool
// timeout and records the outcome. Errors are classified, not swallowed;
// the agent loop decides whether an error ends the turn or becomes a
// corrective observation.
func (reg *Registry) Execute(ctx context.Context, call *genai.PlanResult) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ToolExecution)
	defer cancel()

	start := time.Now()
	result, err := reg.dispatch(ctx, call)
	elapsed := time.Since(start)

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = domerrors.ErrUpstreamTimeout
	}

	if reg.metrics != nil {
		reg.metrics.RecordToolCall(call.FunctionName, statusLabel(err), elapsed.Seconds())
	}

	if err != nil {
		reg.logger.WithError(err).With(
			"tool", call.FunctionName,
			"duration_ms", elapsed.Milliseconds(),
		).Warn("tool call failed")
		return nil, domerrors.NewToolError(call.FunctionName, err)
	}

	reg.logger.With(
		"tool", call.FunctionName,
		"duration_ms", elapsed.Milliseconds(),
	).Debug("tool call completed")
	return result, nil
}

func (reg *Registry) dispatch(ctx context.Context, call *genai.PlanResult) (*Result, error) {
	switch call.FunctionName {
	case genai.FuncRecommendDepartments:
		return reg.recommendDepartments(ctx, call.StringArg(genai.ParamQuery))
	case genai.FuncFindUniversities:
		return reg.findUniversities(ctx, call.StringArg(genai.ParamDepartment))
	case genai.FuncGetCurriculum:
		return reg.getCurriculum(ctx,
			call.StringArg(genai.ParamDepartment),
			call.StringArg(genai.ParamUniversity))
	case genai.FuncGetCourseDetail:
		return reg.getCourseDetail(ctx,
			call.StringArg(genai.ParamCourse),
			call.StringArg(genai.ParamDepartment),
			call.StringArg(genai.ParamUniversity))
	case genai.FuncCompareDepartments:
		return reg.compareDepartments(ctx, call.StringSliceArg(genai.ParamDepartments))
	default:
		return nil, domerrors.NewValidationError("tool", "unknown tool "+call.FunctionName)
	}
}

// statusLabel maps an execution error to a low-cardinality metric label.
func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domerrors.ErrResolutionFailed):
		return "resolution_failed"
	case errors.Is(err, domerrors.ErrDescriptionUnavailable):
		return "description_unavailable"
	case errors.Is(err, domerrors.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domerrors.ErrUpstreamTimeout):
		return "timeout"
	default:
		return "error"
	}
}

// resolveDepartment resolves a department mention, optionally pinned to an
// already-resolved university, and wraps resolver failures so the candidate
// set reaches the clarifying question.
func (reg *Registry) resolveDepartment(ctx context.Context, mention string, rctx *resolver.Context) (*resolver.ResolvedEntity, error) {
	resolved, err := reg.resolver.Resolve(ctx, mention, resolver.KindDepartment, rctx)
	reg.recordResolution(resolver.KindDepartment, err)
	if err != nil {
		if errors.Is(err, domerrors.ErrInvalidInput) {
			return nil, err
		}
		return nil, domerrors.NewResolutionError(string(resolver.KindDepartment), mention, err)
	}
	return resolved, nil
}

func (reg *Registry) resolveUniversity(ctx context.Context, mention string) (*resolver.ResolvedEntity, error) {
	resolved, err := reg.resolver.Resolve(ctx, mention, resolver.KindUniversity, nil)
	reg.recordResolution(resolver.KindUniversity, err)
	if err != nil {
		if errors.Is(err, domerrors.ErrInvalidInput) {
			return nil, err
		}
		return nil, domerrors.NewResolutionError(string(resolver.KindUniversity), mention, err)
	}
	return resolved, nil
}

func (reg *Registry) recordResolution(kind resolver.Kind, err error) {
	if reg.metrics == nil {
		return
	}
	outcome := "resolved"
	switch {
	case errors.Is(err, domerrors.ErrAmbiguousEntity):
		outcome = "ambiguous"
	case errors.Is(err, domerrors.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	reg.metrics.RecordResolution(string(kind), outcome)
}
