package technical

import (
	"github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/providers"
	"github.com/quantforge/llmcore/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// Provider implements the technical-analysis chat adapter (Qwen/DashScope).
type Provider struct {
	*openaicompat.Provider
	fastModel      string
	enableThinking bool
	temperature    float32
}

// New creates a new technical-analysis provider instance.
func New(cfg providers.QwenConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.4
	}

	p := &Provider{
		fastModel:      cfg.FastModel,
		enableThinking: cfg.EnableThinking,
		temperature:    temperature,
	}
	p.Provider = openaicompat.New(openaicompat.Config{
		ProviderName:  "qwen",
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		DefaultModel:  cfg.Model,
		FallbackModel: "qwen3-235b-a22b",
		Timeout:       cfg.Timeout,
		EndpointPath:  "/v1/chat/completions",
		RequestHook:   p.requestHook,
	}, logger)
	return p
}

func (p *Provider) requestHook(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
	if req.Model == "" && req.ReasoningMode != "thinking" && p.fastModel != "" {
		body.Model = p.fastModel
	}
	enable := p.enableThinking
	body.EnableThinking = &enable
	if req.Temperature == 0 {
		body.Temperature = p.temperature
	}
}
