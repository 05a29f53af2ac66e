// =============================================================================
// 📦 llmcore 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("LLMCORE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 llmcore 的完整配置结构
type Config struct {
	// Providers 三个上游模型服务商的端点配置
	Providers ProvidersConfig `yaml:"providers" env:"PROVIDERS"`

	// Credential 凭证池配置（冷却曲线、压力告警阈值）
	Credential CredentialConfig `yaml:"credential" env:"CREDENTIAL"`

	// Cache 响应缓存配置
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Enrichment 上下文富化缓存配置
	Enrichment EnrichmentConfig `yaml:"enrichment" env:"ENRICHMENT"`

	// Dispatch 调度器配置（限流、重试）
	Dispatch DispatchConfig `yaml:"dispatch" env:"DISPATCH"`

	// Redis 缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ProvidersConfig 三个上游服务商的端点与模型配置
type ProvidersConfig struct {
	// Reasoner 推理型模型（DeepSeek）
	Reasoner ProviderEndpoint `yaml:"reasoner" env:"REASONER"`
	// Technical 技术分析模型（Qwen/DashScope）
	Technical ProviderEndpoint `yaml:"technical" env:"TECHNICAL"`
	// Research 联网研究模型（Perplexity）
	Research ProviderEndpoint `yaml:"research" env:"RESEARCH"`
}

// ProviderEndpoint 单个服务商的连接参数
type ProviderEndpoint struct {
	// BaseURL 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Model 默认模型名
	Model string `yaml:"model" env:"MODEL"`
	// Timeout 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// AllowExpensive 是否允许切换到高成本模型（reasoner/research 的成本闸门）
	AllowExpensive bool `yaml:"allow_expensive" env:"ALLOW_EXPENSIVE"`
	// EnableThinking 是否默认开启 thinking 模式（仅 technical 使用）
	EnableThinking bool `yaml:"enable_thinking" env:"ENABLE_THINKING"`
}

// CredentialConfig 凭证池的冷却曲线与压力告警参数
type CredentialConfig struct {
	// CooldownBaseSeconds 冷却基准时长（cooldown_level=1 时的时长）
	CooldownBaseSeconds int `yaml:"cooldown_base_seconds" env:"COOLDOWN_BASE_SECONDS"`
	// CooldownMaxSeconds 冷却时长上限
	CooldownMaxSeconds int `yaml:"cooldown_max_seconds" env:"COOLDOWN_MAX_SECONDS"`
	// CooldownMaxLevel cooldown_level 上限
	CooldownMaxLevel int `yaml:"cooldown_max_level" env:"COOLDOWN_MAX_LEVEL"`
	// PressureThreshold 冷却占比达到该值时触发压力告警
	PressureThreshold float64 `yaml:"pressure_threshold" env:"PRESSURE_THRESHOLD"`
	// PressureAlertIntervalSeconds 同一服务商两次压力告警之间的最小间隔
	PressureAlertIntervalSeconds int `yaml:"pressure_alert_interval_seconds" env:"PRESSURE_ALERT_INTERVAL_SECONDS"`
}

// CacheConfig 响应缓存（LRU）配置
type CacheConfig struct {
	// ResponseTTL 响应缓存条目存活时间
	ResponseTTL time.Duration `yaml:"response_ttl" env:"RESPONSE_TTL"`
	// ResponseMaxEntries LRU 容量上限
	ResponseMaxEntries int `yaml:"response_max_entries" env:"RESPONSE_MAX_ENTRIES"`
}

// EnrichmentConfig 上下文富化缓存配置
type EnrichmentConfig struct {
	// TTL 缓存条目存活时间
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// DispatchConfig 调度器的限流与重试参数
type DispatchConfig struct {
	// RateLimitRPS 出站请求速率上限（每秒）
	RateLimitRPS int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// RateLimitBurst 令牌桶突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// MaxRetries 网络/5xx 类错误的最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// RetryInitialBackoff 首次重试等待时间
	RetryInitialBackoff time.Duration `yaml:"retry_initial_backoff" env:"RETRY_INITIAL_BACKOFF"`
	// RetryMaxBackoff 重试等待时间上限
	RetryMaxBackoff time.Duration `yaml:"retry_max_backoff" env:"RETRY_MAX_BACKOFF"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "LLMCORE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Dispatch.RateLimitRPS <= 0 {
		errs = append(errs, "dispatch.rate_limit_rps must be positive")
	}
	if c.Dispatch.MaxRetries < 0 {
		errs = append(errs, "dispatch.max_retries must not be negative")
	}

	if c.Credential.CooldownBaseSeconds <= 0 {
		errs = append(errs, "credential.cooldown_base_seconds must be positive")
	}
	if c.Credential.CooldownMaxSeconds < c.Credential.CooldownBaseSeconds {
		errs = append(errs, "credential.cooldown_max_seconds must be >= cooldown_base_seconds")
	}
	if c.Credential.PressureThreshold < 0 || c.Credential.PressureThreshold > 1 {
		errs = append(errs, "credential.pressure_threshold must be between 0 and 1")
	}

	if c.Cache.ResponseMaxEntries <= 0 {
		errs = append(errs, "cache.response_max_entries must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
