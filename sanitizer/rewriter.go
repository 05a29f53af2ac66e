package sanitizer

import (
	"context"

	llmpkg "github.com/quantforge/llmcore/llm"
)

// PromptScrubber is a middleware.RequestRewriter that scrubs every message's
// content for prompt-injection patterns before the request leaves the
// process.
type PromptScrubber struct{}

// NewPromptScrubber returns a PromptScrubber.
func NewPromptScrubber() *PromptScrubber {
	return &PromptScrubber{}
}

// Name identifies this rewriter for logging.
func (r *PromptScrubber) Name() string {
	return "prompt_scrubber"
}

// Rewrite scrubs req.Messages in place.
func (r *PromptScrubber) Rewrite(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatRequest, error) {
	if req == nil {
		return req, nil
	}
	for i := range req.Messages {
		req.Messages[i].Content = Scrub(req.Messages[i].Content)
	}
	return req, nil
}

// ThinkingModeRewriter sets ReasoningMode to "thinking" on a request bound
// for the technical provider when the task looks complex enough to justify
// it and the environment allows thinking mode.
type ThinkingModeRewriter struct {
	gate       *ThinkingGate
	envAllows  bool
	providerID string
}

// NewThinkingModeRewriter returns a rewriter that skips a request whose
// Model is set and differs from providerID; requests with no Model, and
// every request when providerID is empty, are acted on.
func NewThinkingModeRewriter(gate *ThinkingGate, envAllows bool, providerID string) *ThinkingModeRewriter {
	return &ThinkingModeRewriter{gate: gate, envAllows: envAllows, providerID: providerID}
}

// Name identifies this rewriter for logging.
func (r *ThinkingModeRewriter) Name() string {
	return "thinking_mode_gate"
}

// Rewrite classifies the request's combined message text and flips
// ReasoningMode to "thinking" when the gate allows it.
func (r *ThinkingModeRewriter) Rewrite(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatRequest, error) {
	if req == nil {
		return req, nil
	}
	if r.providerID != "" && req.Model != "" && req.Model != r.providerID {
		return req, nil
	}

	length := 0
	for _, m := range req.Messages {
		length += len(m.Content)
	}
	complexity := classifyRequest(req)

	if r.gate.ShouldEnable(r.envAllows, complexity, length) {
		req.ReasoningMode = "thinking"
	}
	return req, nil
}

func classifyRequest(req *llmpkg.ChatRequest) Complexity {
	var combined string
	for _, m := range req.Messages {
		if m.Role == llmpkg.RoleUser {
			combined += m.Content + "\n"
		}
	}
	return Classify(combined)
}
