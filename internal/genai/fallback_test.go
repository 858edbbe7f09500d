package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
)

// mockPlanner is a test mock for the Planner interface
type mockPlanner struct {
	planFunc    func(ctx context.Context, req *PlanRequest) (*PlanResult, error)
	provider    Provider
	enabled     bool
	closeCalled bool
}

func (m *mockPlanner) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	if m.planFunc != nil {
		return m.planFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPlanner) IsEnabled() bool {
	return m.enabled
}

func (m *mockPlanner) Provider() Provider {
	return m.provider
}

func (m *mockPlanner) Close() error {
	m.closeCalled = true
	return nil
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
	}
}

func TestFallbackPlanner_Plan_PrimarySuccess(t *testing.T) {
	t.Parallel()
	primary := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			return &PlanResult{FunctionName: FuncGetCurriculum, Args: map[string]any{ParamDepartment: "컴퓨터공학과"}}, nil
		},
		provider: ProviderGemini,
		enabled:  true,
	}

	planner := NewFallbackPlanner(DefaultRetryConfig(), primary)

	result, err := planner.Plan(context.Background(), &PlanRequest{Messages: []Message{{Role: RoleUser, Content: "컴퓨터공학과 커리큘럼 알려줘"}}})
	if err != nil {
		t.Errorf("Plan() error = %v, want nil", err)
	}
	if result == nil || result.FunctionName != FuncGetCurriculum {
		t.Errorf("Plan() result = %v, want %s", result, FuncGetCurriculum)
	}
}

func TestFallbackPlanner_Plan_Fallback(t *testing.T) {
	t.Parallel()
	primaryCalls := 0
	primary := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			primaryCalls++
			return nil, errors.New("service unavailable") // retryable
		},
		provider: ProviderGemini,
		enabled:  true,
	}

	fallback := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			return &PlanResult{FunctionName: FuncFinalAnswer, Args: map[string]any{ParamAnswer: "답변"}}, nil
		},
		provider: ProviderGroq,
		enabled:  true,
	}

	cfg := fastRetryConfig()
	planner := NewFallbackPlanner(cfg, primary, fallback)

	result, err := planner.Plan(context.Background(), &PlanRequest{})
	if err != nil {
		t.Errorf("Plan() error = %v, want nil (fallback should succeed)", err)
	}
	if result == nil || !result.IsFinal() {
		t.Errorf("Plan() result = %v, want final answer", result)
	}
	if primaryCalls != cfg.MaxAttempts {
		t.Errorf("primary called %d times, want %d", primaryCalls, cfg.MaxAttempts)
	}
}

func TestFallbackPlanner_Plan_QuotaSkipsRetry(t *testing.T) {
	t.Parallel()
	primaryCalls := 0
	primary := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			primaryCalls++
			return nil, errors.New("quota exceeded for today")
		},
		provider: ProviderGemini,
		enabled:  true,
	}
	fallback := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			return &PlanResult{FunctionName: FuncFinalAnswer, Args: map[string]any{ParamAnswer: "ok"}}, nil
		},
		provider: ProviderGroq,
		enabled:  true,
	}

	planner := NewFallbackPlanner(fastRetryConfig(), primary, fallback)

	_, err := planner.Plan(context.Background(), &PlanRequest{})
	if err != nil {
		t.Errorf("Plan() error = %v, want nil", err)
	}
	// Quota errors jump straight to the next provider without retrying.
	if primaryCalls != 1 {
		t.Errorf("primary called %d times, want 1", primaryCalls)
	}
}

func TestFallbackPlanner_Plan_PermanentError(t *testing.T) {
	t.Parallel()
	primary := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			return nil, errors.New("invalid api key")
		},
		provider: ProviderGemini,
		enabled:  true,
	}

	fallbackCalled := false
	fallback := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			fallbackCalled = true
			return &PlanResult{FunctionName: FuncFinalAnswer}, nil
		},
		provider: ProviderGroq,
		enabled:  true,
	}

	planner := NewFallbackPlanner(DefaultRetryConfig(), primary, fallback)

	_, err := planner.Plan(context.Background(), &PlanRequest{})
	if err == nil {
		t.Error("Plan() should return error for permanent failure")
	}
	if fallbackCalled {
		t.Error("fallback should not be called for permanent errors")
	}
}

func TestFallbackPlanner_Plan_Empty(t *testing.T) {
	t.Parallel()
	var planner *FallbackPlanner
	_, err := planner.Plan(context.Background(), &PlanRequest{})
	if !errors.Is(err, domerrors.ErrNoProvider) {
		t.Errorf("Plan() error = %v, want ErrNoProvider", err)
	}

	planner = NewFallbackPlanner(DefaultRetryConfig())
	_, err = planner.Plan(context.Background(), &PlanRequest{})
	if !errors.Is(err, domerrors.ErrNoProvider) {
		t.Errorf("Plan() error for empty chain = %v, want ErrNoProvider", err)
	}
}

func TestFallbackPlanner_SkipsDisabled(t *testing.T) {
	t.Parallel()
	disabled := &mockPlanner{provider: ProviderGemini, enabled: false}
	active := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			return &PlanResult{FunctionName: FuncFinalAnswer, Args: map[string]any{ParamAnswer: "ok"}}, nil
		},
		provider: ProviderGroq,
		enabled:  true,
	}

	planner := NewFallbackPlanner(DefaultRetryConfig(), disabled, nil, active)
	if planner.Provider() != ProviderGroq {
		t.Errorf("Provider() = %s, want %s", planner.Provider(), ProviderGroq)
	}

	result, err := planner.Plan(context.Background(), &PlanRequest{})
	if err != nil {
		t.Errorf("Plan() error = %v, want nil", err)
	}
	if !result.IsFinal() {
		t.Errorf("Plan() result = %v, want final answer", result)
	}
}

func TestFallbackPlanner_Plan_ContextCanceled(t *testing.T) {
	t.Parallel()
	primary := &mockPlanner{
		planFunc: func(ctx context.Context, _ *PlanRequest) (*PlanResult, error) {
			return nil, ctx.Err()
		},
		provider: ProviderGemini,
		enabled:  true,
	}
	fallbackCalled := false
	fallback := &mockPlanner{
		planFunc: func(_ context.Context, _ *PlanRequest) (*PlanResult, error) {
			fallbackCalled = true
			return nil, nil
		},
		provider: ProviderGroq,
		enabled:  true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	planner := NewFallbackPlanner(DefaultRetryConfig(), primary, fallback)
	_, err := planner.Plan(ctx, &PlanRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Plan() error = %v, want context.Canceled", err)
	}
	if fallbackCalled {
		t.Error("fallback should not run after cancellation")
	}
}

func TestFallbackPlanner_Close(t *testing.T) {
	t.Parallel()
	p1 := &mockPlanner{provider: ProviderGemini, enabled: true}
	p2 := &mockPlanner{provider: ProviderGroq, enabled: true}

	planner := NewFallbackPlanner(DefaultRetryConfig(), p1, p2)
	if err := planner.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if !p1.closeCalled || !p2.closeCalled {
		t.Error("Close() should close every planner in the chain")
	}
}
