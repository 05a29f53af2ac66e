package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ProvidersConfig{}, cfg.Providers)
	assert.NotEqual(t, CredentialConfig{}, cfg.Credential)
	assert.NotEqual(t, CacheConfig{}, cfg.Cache)
	assert.NotEqual(t, EnrichmentConfig{}, cfg.Enrichment)
	assert.NotEqual(t, DispatchConfig{}, cfg.Dispatch)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultProvidersConfig(t *testing.T) {
	cfg := DefaultProvidersConfig()

	assert.Equal(t, "https://api.deepseek.com", cfg.Reasoner.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.Reasoner.Model)
	assert.Equal(t, 2*time.Minute, cfg.Reasoner.Timeout)

	assert.Equal(t, "https://dashscope.aliyuncs.com/compatible-mode", cfg.Technical.BaseURL)
	assert.Equal(t, "qwen3-235b-a22b", cfg.Technical.Model)
	assert.False(t, cfg.Technical.EnableThinking)

	assert.Equal(t, "https://api.perplexity.ai", cfg.Research.BaseURL)
	assert.Equal(t, "sonar", cfg.Research.Model)
}

func TestDefaultCredentialConfig(t *testing.T) {
	cfg := DefaultCredentialConfig()
	assert.Equal(t, 30, cfg.CooldownBaseSeconds)
	assert.Equal(t, 600, cfg.CooldownMaxSeconds)
	assert.Equal(t, 10, cfg.CooldownMaxLevel)
	assert.InDelta(t, 0.5, cfg.PressureThreshold, 0.001)
	assert.Equal(t, 60, cfg.PressureAlertIntervalSeconds)
}

func TestDefaultCacheConfig(t *testing.T) {
	cfg := DefaultCacheConfig()
	assert.Equal(t, 300*time.Second, cfg.ResponseTTL)
	assert.Equal(t, 256, cfg.ResponseMaxEntries)
}

func TestDefaultEnrichmentConfig(t *testing.T) {
	cfg := DefaultEnrichmentConfig()
	assert.Equal(t, 300*time.Second, cfg.TTL)
}

func TestDefaultDispatchConfig(t *testing.T) {
	cfg := DefaultDispatchConfig()
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryInitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.RetryMaxBackoff)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 2, cfg.MinIdleConns)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "llmcore", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}
