// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types holds the shared types used across llmcore: the lowest-level
package, with no internal dependencies, so credential, dispatch, enrich,
deliberation and crossvalidate can all depend on it without cycles.

# Core types

  - Message, Role, ToolCall, ImageContent — conversation turns and tool use
  - ToolSchema, ToolResult                — tool calling contracts
  - Error, ErrorCode                     — structured error taxonomy with
    HTTP status, Retryable and Provider fields
  - TokenUsage, Tokenizer, EstimateTokenizer — token accounting; the estimator
    weighs CJK characters separately from the rest

# Context propagation

WithTraceID / WithTenantID / WithUserID / WithRunID / WithLLMModel /
WithPromptBundleVersion attach request-scoped identifiers to a context, and
TraceID / TenantID / UserID / RunID / LLMModel / PromptBundleVersion read
them back. No other package in llmcore reads these values.
*/
package types
