// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested entity does not exist in the catalog.
	ErrNotFound = errors.New("entity not found")

	// ErrAmbiguousEntity indicates a mention matched several catalog entities
	// too closely to pick one.
	ErrAmbiguousEntity = errors.New("ambiguous entity")

	// ErrDescriptionUnavailable indicates an entity exists but carries no
	// description text.
	ErrDescriptionUnavailable = errors.New("description unavailable")

	// ErrUpstreamTimeout indicates a model provider or tool call exceeded its
	// deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrLoopBudgetExceeded indicates the agent hit its step budget before
	// producing a final answer.
	ErrLoopBudgetExceeded = errors.New("loop budget exceeded")

	// ErrResolutionFailed indicates no catalog entity cleared the acceptance
	// thresholds for a mention.
	ErrResolutionFailed = errors.New("entity resolution failed")

	// ErrSessionNotFound indicates the session ID is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTurnInProgress indicates a concurrent turn was rejected because the
	// session is already processing one.
	ErrTurnInProgress = errors.New("turn already in progress")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates the caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoProvider indicates no model provider is configured or reachable.
	ErrNoProvider = errors.New("no model provider available")
)

// AmbiguityError carries the competing candidates behind ErrAmbiguousEntity
// so callers can ask the user to choose.
type AmbiguityError struct {
	Mention    string
	Kind       string // "department" or "university"
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous %s %q: candidates %v", e.Kind, e.Mention, e.Candidates)
}

func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousEntity
}

// NewAmbiguityError creates a new ambiguity error.
func NewAmbiguityError(kind, mention string, candidates []string) *AmbiguityError {
	return &AmbiguityError{Kind: kind, Mention: mention, Candidates: candidates}
}

// ProviderError represents a model provider failure with context.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (provider=%s, model=%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, model string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Model: model, Err: err}
}

// ResolutionError wraps a resolver failure encountered inside a tool.
// The underlying ambiguity or not-found error stays reachable through
// Unwrap, so candidate sets survive to the clarifying question.
type ResolutionError struct {
	Mention string
	Kind    string
	Err     error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s %q: %v", e.Kind, e.Mention, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// NewResolutionError creates a new resolution error.
func NewResolutionError(kind, mention string, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, Mention: mention, Err: err}
}

// ToolError represents a tool execution failure with the tool name attached.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool error (tool=%s): %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewToolError creates a new tool error.
func NewToolError(tool string, err error) *ToolError {
	return &ToolError{Tool: tool, Err: err}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
