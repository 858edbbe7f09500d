package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbiguityErrorUnwrapsToSentinel(t *testing.T) {
	err := NewAmbiguityError("department", "컴퓨터", []string{"컴퓨터공학과", "컴퓨터소프트웨어학부"})

	assert.ErrorIs(t, err, ErrAmbiguousEntity)
	assert.Contains(t, err.Error(), "컴퓨터")

	var ambErr *AmbiguityError
	require.ErrorAs(t, err, &ambErr)
	assert.Len(t, ambErr.Candidates, 2)
}

func TestProviderErrorWrapsCause(t *testing.T) {
	cause := ErrUpstreamTimeout
	err := NewProviderError("gemini", "gemini-2.5-flash", cause)

	assert.ErrorIs(t, err, ErrUpstreamTimeout)
	assert.Contains(t, err.Error(), "gemini-2.5-flash")
}

func TestToolErrorWrapsCause(t *testing.T) {
	err := NewToolError("get_curriculum", ErrNotFound)

	assert.ErrorIs(t, err, ErrNotFound)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "get_curriculum", toolErr.Tool)
}

func TestValidationErrorIsInvalidInput(t *testing.T) {
	err := NewValidationError("message", "must not be empty")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolutionErrorWrapsCause(t *testing.T) {
	inner := fmt.Errorf("lookup: %w", ErrNotFound)
	err := NewResolutionError("department", "양자컴퓨팅학과", inner)

	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "양자컴퓨팅학과")
}
