package reasoner

import (
	"github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/providers"
	"github.com/quantforge/llmcore/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// Provider implements the reasoning-capable chat adapter (DeepSeek).
// DeepSeek uses an OpenAI-compatible API format.
type Provider struct {
	*openaicompat.Provider
	allowReasoner bool
}

// New creates a new reasoner provider instance.
func New(cfg providers.DeepSeekConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com"
	}

	p := &Provider{allowReasoner: cfg.AllowReasoner}
	p.Provider = openaicompat.New(openaicompat.Config{
		ProviderName:  "deepseek",
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		DefaultModel:  cfg.Model,
		FallbackModel: "deepseek-chat",
		Timeout:       cfg.Timeout,
		EndpointPath:  "/chat/completions",
		RequestHook:   p.requestHook,
	}, logger)
	return p
}

// requestHook switches to deepseek-reasoner for thinking/extended reasoning
// requests, but only when the adapter was configured to allow it.
func (p *Provider) requestHook(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
	if req.Model != "" {
		return
	}
	if !p.allowReasoner {
		return
	}
	if req.ReasoningMode == "thinking" || req.ReasoningMode == "extended" {
		body.Model = "deepseek-reasoner"
	}
}
