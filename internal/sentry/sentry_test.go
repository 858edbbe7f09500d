package sentry

import (
	"testing"
	"time"
)

func TestInitialize_EmptyToken(t *testing.T) {
	// Cannot use t.Parallel() as Sentry uses global state; running after
	// TestInitialize_ValidConfig would observe its initialized hub.

	err := Initialize(Config{Token: ""})
	if err != nil {
		t.Errorf("Expected nil error for empty token, got %v", err)
	}

	if IsEnabled() {
		t.Error("Expected IsEnabled() to return false when token is empty")
	}
}

func TestInitialize_MissingHost(t *testing.T) {
	t.Parallel()

	err := Initialize(Config{Token: "test-token", Host: ""})
	if err == nil {
		t.Error("Expected error when host is missing")
	}
}

func TestInitialize_ValidConfig(t *testing.T) {
	// Cannot use t.Parallel() as Sentry uses global state

	err := Initialize(Config{
		Token:       "test-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
		SampleRate:  1.0,
	})
	if err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}

	if !IsEnabled() {
		t.Error("Expected IsEnabled() to return true after initialization")
	}

	Flush(time.Second)
}

func TestInitialize_DefaultSampleRate(t *testing.T) {
	// Cannot use t.Parallel() as Sentry uses global state

	err := Initialize(Config{
		Token:      "test-token-2",
		Host:       "errors.betterstack.com",
		SampleRate: 0,
	})
	if err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}

	Flush(time.Second)
}

func TestFlush(t *testing.T) {
	t.Parallel()

	result := Flush(100 * time.Millisecond)
	if !result {
		t.Error("Expected Flush to return true when no events pending")
	}
}
