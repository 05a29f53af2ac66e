package research

import (
	"github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/providers"
	"github.com/quantforge/llmcore/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// Provider implements the web-augmented research chat adapter (Perplexity).
type Provider struct {
	*openaicompat.Provider
	allowExpensive bool
}

// New creates a new research provider instance.
func New(cfg providers.PerplexityConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.perplexity.ai"
	}

	p := &Provider{allowExpensive: cfg.AllowExpensive}
	p.Provider = openaicompat.New(openaicompat.Config{
		ProviderName:  "perplexity",
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		DefaultModel:  cfg.Model,
		FallbackModel: "sonar",
		Timeout:       cfg.Timeout,
		EndpointPath:  "/chat/completions",
		RequestHook:   p.requestHook,
		// Perplexity's search-augmented models don't support native tool
		// calling.
		SupportsTools: boolPtr(false),
	}, logger)
	return p
}

func boolPtr(b bool) *bool { return &b }

func (p *Provider) requestHook(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
	if req.Model != "" || !p.allowExpensive {
		return
	}
	switch req.ReasoningMode {
	case "thinking":
		body.Model = "sonar-reasoning"
	case "extended":
		body.Model = "sonar-deep-research"
	}
}
