// Package agent runs the per-turn reasoning loop: the planner decides the
// next action, the tool registry executes it, and the observation feeds the
// next planning step until the planner answers or the step budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/majormentor/major-mentor-go/internal/config"
	domerrors "github.com/majormentor/major-mentor-go/internal/errors"
	"github.com/majormentor/major-mentor-go/internal/genai"
	"github.com/majormentor/major-mentor-go/internal/logger"
	"github.com/majormentor/major-mentor-go/internal/metrics"
	"github.com/majormentor/major-mentor-go/internal/tools"
)

// ToolCallRecord is one executed (or failed) tool call of a turn.
type ToolCallRecord struct {
	Step        int            `json:"step"`
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args,omitempty"`
	Observation string         `json:"observation"`
	Status      string         `json:"status"`
	Duration    time.Duration  `json:"duration_ms"`
}

// TurnInput is one utterance with its session context.
type TurnInput struct {
	Utterance    string
	History      []genai.Message // prior turns, oldest first
	InterestTags []string
}

// TurnResult is the terminal state of one turn.
type TurnResult struct {
	Answer     string
	Unverified bool // step budget hit before the answer could be grounded
	Steps      int
	ToolCalls  []ToolCallRecord
}

// toolExecutor is the slice of the tool registry the controller drives.
type toolExecutor interface {
	Execute(ctx context.Context, call *genai.PlanResult) (*tools.Result, error)
}

// Controller drives the planning loop for one turn at a time. It holds no
// per-turn state, so a single instance serves all sessions.
type Controller struct {
	planner genai.Planner
	tools   toolExecutor
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// New creates a turn controller.
func New(planner genai.Planner, registry toolExecutor, log *logger.Logger) *Controller {
	return &Controller{
		planner: planner,
		tools:   registry,
		logger:  log,
	}
}

// SetMetrics attaches a metrics recorder. Optional.
func (c *Controller) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// RunTurn processes one utterance to a final answer. It returns an error
// only when the turn cannot continue at all (planner chain exhausted,
// context canceled); recoverable tool failures become observations and the
// loop keeps going within its step budget.
func (c *Controller) RunTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	start := time.Now()
	result, err := c.runTurn(ctx, input)

	if c.metrics != nil {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case result.Unverified:
			status = "budget_exceeded"
		}
		steps := 0
		if result != nil {
			steps = result.Steps
		}
		c.metrics.RecordTurn(status, time.Since(start).Seconds(), steps)
	}
	return result, err
}

func (c *Controller) runTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	req := &genai.PlanRequest{
		System:   systemPrompt(input.InterestTags),
		Messages: append(append([]genai.Message{}, input.History...), genai.Message{
			Role:    genai.RoleUser,
			Content: input.Utterance,
		}),
	}

	var records []ToolCallRecord
	canonical := newNameSet()

	for step := 1; step <= config.MaxAgentSteps; step++ {
		decision, err := c.plan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("planning step %d: %w", step, err)
		}

		if decision.IsFinal() {
			answer, repaired := repairNames(decision.Answer(), canonical.names())
			if repaired {
				c.logger.With("step", step).Warn("final answer contained altered entity names, repaired")
			}
			return &TurnResult{
				Answer:    answer,
				Steps:     step - 1,
				ToolCalls: records,
			}, nil
		}

		record := c.act(ctx, step, decision, canonical)
		if ctx.Err() != nil {
			// Client went away; discard the partial turn.
			return nil, ctx.Err()
		}
		records = append(records, record)

		req.Messages = append(req.Messages,
			genai.Message{Role: genai.RoleAssistant, Content: renderAction(decision)},
			genai.Message{Role: genai.RoleUser, Content: record.Observation},
		)
	}

	c.logger.WithError(domerrors.ErrLoopBudgetExceeded).With("steps", config.MaxAgentSteps).
		Warn("turn hit step budget before final answer")
	return &TurnResult{
		Answer:     budgetExceededAnswer(records),
		Unverified: true,
		Steps:      config.MaxAgentSteps,
		ToolCalls:  records,
	}, nil
}

// plan runs one planner call under the planner timeout.
func (c *Controller) plan(ctx context.Context, req *genai.PlanRequest) (*genai.PlanResult, error) {
	planCtx, cancel := context.WithTimeout(ctx, config.PlannerRequest)
	defer cancel()

	decision, err := c.planner.Plan(planCtx, req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, domerrors.ErrUpstreamTimeout
		}
		return nil, err
	}
	return decision, nil
}

// act executes one tool call and turns its outcome into an observation.
// A timed-out call is retried within the step before the failure reaches
// the planner; other failures never abort the turn here, each error class
// maps to a corrective observation the planner can act on.
func (c *Controller) act(ctx context.Context, step int, decision *genai.PlanResult, canonical *nameSet) ToolCallRecord {
	start := time.Now()
	result, err := c.tools.Execute(ctx, decision)
	for attempt := 1; attempt <= config.MaxToolRetries && ctx.Err() == nil && errors.Is(err, domerrors.ErrUpstreamTimeout); attempt++ {
		c.logger.With("tool", decision.FunctionName, "attempt", attempt).
			Warn("tool call timed out, retrying")
		result, err = c.tools.Execute(ctx, decision)
	}
	elapsed := time.Since(start)

	record := ToolCallRecord{
		Step:     step,
		Tool:     decision.FunctionName,
		Args:     decision.Args,
		Duration: elapsed,
	}

	if err == nil {
		canonical.add(result.Entities...)
		record.Status = "ok"
		record.Observation = renderObservation(result)
		return record
	}

	record.Status = "error"
	record.Observation = renderFailure(decision.FunctionName, err)
	return record
}

// budgetExceededAnswer builds the best-effort answer for a turn that ran
// out of steps: the last grounded observation when one exists, otherwise
// an honest failure message.
func budgetExceededAnswer(records []ToolCallRecord) string {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Status == "ok" {
			return "요청하신 내용을 단계 안에 완전히 확인하지 못했습니다. 지금까지 확인된 내용은 다음과 같습니다.\n\n" +
				records[i].Observation
		}
	}
	return "죄송합니다. 요청하신 내용을 확인하지 못했습니다. 질문을 조금 더 구체적으로 나눠서 다시 시도해 주세요."
}
