// Package config provides centralized timeout constants for the application.
//
// These values are tuned around three external constraints:
//   - Model provider latency (Gemini and Groq p99 for small tool-calling
//     requests stays well under 10s)
//   - SQLite performance characteristics (WAL mode, busy timeout)
//   - Interactive chat UX (a turn should resolve in seconds, not minutes)
package config

import "time"

// Turn and planner timeouts
const (
	// TurnProcessing caps one full agent turn: planning steps, tool calls,
	// and answer post-processing combined.
	TurnProcessing = 60 * time.Second

	// PlannerRequest is the timeout for a single model provider call.
	PlannerRequest = 10 * time.Second

	// ToolExecution is the timeout for a single tool call. Tools that embed
	// the query (semantic retrieval) need headroom over pure SQL tools.
	ToolExecution = 15 * time.Second

	// EmbeddingRequest is the timeout for one embedding API call.
	EmbeddingRequest = 10 * time.Second
)

// HTTP server timeouts
const (
	// ServerHTTPRead is the HTTP server read timeout. Chat payloads are small.
	ServerHTTPRead = 10 * time.Second

	// ServerHTTPWrite must accommodate TurnProcessing plus serialization.
	ServerHTTPWrite = 65 * time.Second

	// ServerHTTPIdle is the keep-alive idle timeout.
	ServerHTTPIdle = 120 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles write contention during catalog swaps.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	// Prevents stale connections and allows connection pool refresh.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// SessionSweepInterval is how often idle sessions are collected.
	SessionSweepInterval = 5 * time.Minute

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = 5 * time.Minute
)
