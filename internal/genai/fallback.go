// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the fallback wrapper for cross-provider failover.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
)

// MetricsRecorder receives provider request and fallback events.
// Implemented by the metrics package; nil disables recording.
type MetricsRecorder interface {
	RecordLLMRequest(provider, status string, durationSeconds float64)
	RecordLLMFallback(from, to string)
}

// FallbackPlanner wraps an ordered chain of planners. Each planner is tried
// with retry; permanent errors or an exhausted retry budget advance to the
// next planner in the chain.
type FallbackPlanner struct {
	chain       []Planner
	retryConfig RetryConfig
	metrics     MetricsRecorder
}

// NewFallbackPlanner creates a fallback-enabled planner from the chain.
// Nil and disabled planners are skipped.
func NewFallbackPlanner(cfg RetryConfig, chain ...Planner) *FallbackPlanner {
	active := make([]Planner, 0, len(chain))
	for _, p := range chain {
		if p != nil && p.IsEnabled() {
			active = append(active, p)
		}
	}
	return &FallbackPlanner{chain: active, retryConfig: cfg}
}

// SetMetrics attaches a metrics recorder.
func (f *FallbackPlanner) SetMetrics(m MetricsRecorder) {
	f.metrics = m
}

// Plan walks the planner chain until one succeeds.
func (f *FallbackPlanner) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	if f == nil || len(f.chain) == 0 {
		return nil, domerrors.ErrNoProvider
	}

	var lastErr error
	for i, planner := range f.chain {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		start := time.Now()
		result, err := f.planWithRetry(ctx, planner, req)
		if err == nil {
			f.recordRequest(planner.Provider(), "success", start)
			if i > 0 {
				f.recordFallback(f.chain[0].Provider(), planner.Provider())
			}
			return result, nil
		}

		lastErr = err
		f.recordRequest(planner.Provider(), "error", start)

		action := ClassifyError(err)
		slog.WarnContext(ctx, "planner failed",
			"provider", planner.Provider(),
			"position", i,
			"action", action,
			"error", err)

		// Permanent errors (bad request, auth) will not improve on another
		// provider; cancellation is terminal regardless of remaining chain.
		if action == ActionFail || errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("all planners failed: %w", lastErr)
}

// planWithRetry attempts one planner with backoff on transient errors.
func (f *FallbackPlanner) planWithRetry(ctx context.Context, planner Planner, req *PlanRequest) (*PlanResult, error) {
	var lastErr error

	for attempt := range f.retryConfig.MaxAttempts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := planner.Plan(ctx, req)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if ClassifyError(err) != ActionRetry {
			return nil, err
		}

		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, f.retryConfig.InitialDelay, f.retryConfig.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return nil, fmt.Errorf("timeout during retry: %w", lastErr)
		}

		slog.DebugContext(ctx, "retrying planner step",
			"provider", planner.Provider(),
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)

		if err := Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// IsEnabled returns true if at least one planner is enabled.
func (f *FallbackPlanner) IsEnabled() bool {
	return f != nil && len(f.chain) > 0
}

// Provider returns the primary provider type.
func (f *FallbackPlanner) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Close closes every planner in the chain.
func (f *FallbackPlanner) Close() error {
	if f == nil {
		return nil
	}

	var errs []error
	for _, p := range f.chain {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FallbackPlanner) recordRequest(provider Provider, status string, start time.Time) {
	if f.metrics == nil {
		return
	}
	f.metrics.RecordLLMRequest(string(provider), status, time.Since(start).Seconds())
}

func (f *FallbackPlanner) recordFallback(from, to Provider) {
	if f.metrics == nil || from == to {
		return
	}
	f.metrics.RecordLLMFallback(string(from), string(to))
}
