package providers

import "time"

// BaseProviderConfig holds the fields shared by every provider config.
// Embedding it gives each provider's Config struct APIKey, BaseURL, Model
// and Timeout without repeating the fields.
type BaseProviderConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DeepSeekConfig configures the reasoning-capable chat adapter.
type DeepSeekConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// AllowReasoner gates use of the expensive reasoning model. The orchestrator
	// sets it from the reasoner endpoint's allow_expensive setting; nothing
	// reads a DEEPSEEK_ALLOW_REASONER variable.
	AllowReasoner bool `json:"allow_reasoner" yaml:"allow_reasoner"`
}

// QwenConfig configures the technical-analysis adapter.
type QwenConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// FastModel, when set, replaces the default model for requests that name
	// no model and are not in thinking mode. The orchestrator leaves it unset.
	FastModel string `json:"fast_model,omitempty" yaml:"fast_model,omitempty"`
	// EnableThinking sets the enable_thinking request field. The orchestrator
	// sets it from the technical endpoint's enable_thinking setting.
	EnableThinking bool `json:"enable_thinking" yaml:"enable_thinking"`
	// Temperature overrides the 0.4 default. The orchestrator leaves it unset,
	// and no QWEN_* variable is read for it or for FastModel.
	Temperature float32 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// PerplexityConfig configures the web-augmented research adapter.
type PerplexityConfig struct {
	BaseProviderConfig `yaml:",inline"`
	// AllowExpensive gates use of the deep-research/reasoning models. The
	// orchestrator sets it from the research endpoint's allow_expensive
	// setting; nothing reads a PERPLEXITY_ALLOW_EXPENSIVE variable.
	AllowExpensive bool `json:"allow_expensive" yaml:"allow_expensive"`
}
