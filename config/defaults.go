// =============================================================================
// 📦 llmcore 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Providers:  DefaultProvidersConfig(),
		Credential: DefaultCredentialConfig(),
		Cache:      DefaultCacheConfig(),
		Enrichment: DefaultEnrichmentConfig(),
		Dispatch:   DefaultDispatchConfig(),
		Redis:      DefaultRedisConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultProvidersConfig 返回三个服务商的默认端点配置
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Reasoner: ProviderEndpoint{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
			Timeout: 2 * time.Minute,
		},
		Technical: ProviderEndpoint{
			BaseURL:        "https://dashscope.aliyuncs.com/compatible-mode",
			Model:          "qwen3-235b-a22b",
			Timeout:        2 * time.Minute,
			EnableThinking: false,
		},
		Research: ProviderEndpoint{
			BaseURL: "https://api.perplexity.ai",
			Model:   "sonar",
			Timeout: 2 * time.Minute,
		},
	}
}

// DefaultCredentialConfig 返回默认凭证池配置
func DefaultCredentialConfig() CredentialConfig {
	return CredentialConfig{
		CooldownBaseSeconds:          30,
		CooldownMaxSeconds:           600,
		CooldownMaxLevel:             10,
		PressureThreshold:            0.5,
		PressureAlertIntervalSeconds: 60,
	}
}

// DefaultCacheConfig 返回默认响应缓存配置
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		ResponseTTL:        300 * time.Second,
		ResponseMaxEntries: 256,
	}
}

// DefaultEnrichmentConfig 返回默认富化缓存配置
func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		TTL: 300 * time.Second,
	}
}

// DefaultDispatchConfig 返回默认调度器配置
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		RateLimitRPS:        100,
		RateLimitBurst:      200,
		MaxRetries:          3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     10 * time.Second,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "llmcore",
		SampleRate:   0.1,
	}
}
