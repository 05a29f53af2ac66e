package dispatch

import (
	"context"

	"github.com/google/uuid"

	llmpkg "github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/sanitizer"
	"github.com/quantforge/llmcore/types"
)

// stampTraceID assigns a request a trace ID when the caller didn't supply
// one, so every dispatch is identifiable in logs and the reasoning log
// even for callers that don't generate their own IDs.
func stampTraceID(req *llmpkg.ChatRequest) {
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}
}

// checkBudget estimates the request's prompt tokens with sanitizer's
// tiktoken-backed counter, adds the requested completion budget, and asks
// the token budget manager whether the call may proceed. A nil budget
// manager always allows the call.
func (d *Dispatcher) checkBudget(ctx context.Context, req *llmpkg.ChatRequest) error {
	if d.budget == nil {
		return nil
	}

	contents := make([]sanitizer.MessageContent, len(req.Messages))
	for i, m := range req.Messages {
		contents[i] = sanitizer.MessageContent{Role: string(m.Role), Content: m.Content}
	}
	promptTokens := sanitizer.EstimateMessageTokens(contents)
	estimatedTokens := promptTokens + req.MaxTokens

	estimatedCost := EstimateCost(d.providerName, llmpkg.ChatUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: req.MaxTokens,
	}, req.ReasoningMode)

	if err := d.budget.CheckBudget(ctx, estimatedTokens, estimatedCost); err != nil {
		return &types.Error{
			Code:     types.ErrQuotaExceeded,
			Message:  "token budget exceeded: " + err.Error(),
			Provider: d.providerName,
			Cause:    err,
		}
	}
	return nil
}
