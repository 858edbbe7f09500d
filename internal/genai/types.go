// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains shared types, interfaces, and configuration for the
// agent planner with multi-provider fallback support.
//
// Architecture:
// - Gemini: Uses google.golang.org/genai (official SDK)
// - Groq: Uses github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Fallback Strategy:
// 1. Model Retry: Same model retried with exponential backoff
// 2. Model Chain: Next model in the same provider's model list
// 3. Provider Chain: Next provider in the configured order
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Default planner models per provider, ordered primary-first.
var (
	DefaultGeminiPlannerModels = []string{"gemini-2.5-flash", "gemini-2.0-flash"}
	DefaultGroqPlannerModels   = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}
)

// Role identifies the author of a transcript message.
type Role string

const (
	// RoleUser marks end-user input and tool observations fed back to the model.
	RoleUser Role = "user"
	// RoleAssistant marks prior model output.
	RoleAssistant Role = "assistant"
)

// Message is one entry of the planning transcript.
type Message struct {
	Role    Role
	Content string
}

// PlanRequest is one planner invocation: a system instruction plus the
// transcript accumulated so far (user turn, prior actions, observations).
type PlanRequest struct {
	System   string
	Messages []Message
}

// PlanResult is the planner's chosen action. The model is forced into
// function-calling mode, so the result is always one function call: either a
// tool invocation or the final_answer pseudo-tool.
type PlanResult struct {
	// FunctionName is the called function, e.g. "get_curriculum" or "final_answer".
	FunctionName string

	// Args contains the decoded call arguments.
	Args map[string]any
}

// IsFinal reports whether the planner produced a final answer.
func (r *PlanResult) IsFinal() bool {
	return r != nil && r.FunctionName == FuncFinalAnswer
}

// Answer returns the final answer text for a final_answer result.
func (r *PlanResult) Answer() string {
	if !r.IsFinal() {
		return ""
	}
	if v, ok := r.Args[ParamAnswer].(string); ok {
		return v
	}
	return ""
}

// StringArg returns a named string argument, or "" when absent.
func (r *PlanResult) StringArg(key string) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Args[key].(string); ok {
		return v
	}
	return ""
}

// StringSliceArg returns a named string-array argument, or nil when absent.
func (r *PlanResult) StringSliceArg(key string) []string {
	if r == nil {
		return nil
	}
	if v, ok := r.Args[key].([]string); ok {
		return v
	}
	return nil
}

// Planner decides the next agent action from the turn transcript.
// Implementations include Gemini (native) and OpenAI-compatible providers.
// Uses forced function calling mode so every response is an actionable call.
type Planner interface {
	// Plan returns the next action (always a function call).
	Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error)
	// IsEnabled returns true if the planner is properly initialized.
	IsEnabled() bool
	// Close releases any resources held by the planner.
	Close() error
	// Provider returns the provider type for metrics.
	Provider() Provider
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns conservative retry defaults for interactive use:
// one retry with sub-second backoff keeps turn latency bounded.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     3 * time.Second,
	}
}

// ProviderConfig holds configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the API key for the provider.
	APIKey string

	// PlannerModels is the ordered list of models for planning.
	// First model is primary, rest are fallbacks tried in order.
	PlannerModels []string
}

// LLMConfig aggregates provider configuration for the planner factory.
type LLMConfig struct {
	Gemini           ProviderConfig
	Groq             ProviderConfig
	PrimaryProvider  Provider
	FallbackProvider Provider
	RetryConfig      RetryConfig
}
