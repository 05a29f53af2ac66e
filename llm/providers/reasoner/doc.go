// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package reasoner adapts DeepSeek's chat API to the unified llm.Provider
interface. DeepSeek speaks the OpenAI-compatible wire format, so this
package embeds openaicompat.Provider and customizes only what differs.

# Cost guard

DeepSeek bills deepseek-reasoner well above deepseek-chat. For a request
that names no model, the adapter selects deepseek-reasoner only when the
caller asked for "thinking" or "extended" reasoning mode AND the adapter's
DeepSeekConfig has AllowReasoner set; otherwise it stays on the configured
default model (deepseek-chat when none is configured). A model named in
the request is sent as given. The orchestrator sets AllowReasoner from the
reasoner endpoint's allow_expensive setting; no DEEPSEEK_ALLOW_REASONER
variable is read.

# Usage extraction

DeepSeek's usage envelope reports prompt_cache_hit_tokens and
completion_tokens_details.reasoning_tokens; llm/providers/common.go's
ToLLMChatResponse already maps both into llm.ChatUsage.
*/
package reasoner
