package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		GeminiAPIKey:            "test-key",
		LLMPrimaryProvider:      "gemini",
		Port:                    "10000",
		DataDir:                 "/data",
		SessionIdleTTL:          30 * time.Minute,
		SessionMaxHistory:       12,
		EmbeddingRequestsPerMin: 140,
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateMissingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestValidateBadProviderName(t *testing.T) {
	cfg := validConfig()
	cfg.LLMPrimaryProvider = "anthropic"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PRIMARY_PROVIDER")
}

func TestValidateSnapshotRequiresEndpointAndCreds(t *testing.T) {
	cfg := validConfig()
	cfg.SnapshotBucket = "catalog"
	cfg.SnapshotInterval = 15 * time.Minute
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNAPSHOT_ENDPOINT")
	assert.Contains(t, err.Error(), "credentials")
}

func TestValidateJoinsAllErrors(t *testing.T) {
	cfg := &Config{LLMPrimaryProvider: "gemini"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "DATA_DIR")
}

func TestValidateIngestModeSkipsModelChecks(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	require.NoError(t, cfg.ValidateFor(IngestMode))
}

func TestValidateIngestModeRequiresDataDir(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateFor(IngestMode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_DIR")
}

func TestValidateIngestModeStillChecksSnapshot(t *testing.T) {
	cfg := &Config{DataDir: "/data", SnapshotBucket: "catalog", SnapshotInterval: 15 * time.Minute}
	err := cfg.ValidateFor(IngestMode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNAPSHOT_ENDPOINT")
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gemini", cfg.LLMPrimaryProvider)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.False(t, cfg.SnapshotEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("SESSION_MAX_HISTORY", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 4, cfg.SessionMaxHistory)
}

func TestPaths(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "/data/catalog.db", cfg.SQLitePath())
	assert.Equal(t, "/data/vectors", cfg.VectorStorePath())
}

func TestFusionWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, VectorFusionWeight+BM25FusionWeight, 1e-9)
	assert.InDelta(t, 1.0, EmbeddingWeight+LexicalWeight, 1e-9)
}
