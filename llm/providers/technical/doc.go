// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package technical adapts Alibaba's Qwen (DashScope) chat API to the unified
llm.Provider interface for technical-analysis workloads. It reuses the
openaicompat infrastructure against DashScope's compatible-mode endpoint.

# Customization

  - FastModel is substituted for the configured default model whenever
    the request names no model and hasn't asked for thinking mode — Qwen's
    fast models skip the thinking-token overhead for latency-sensitive calls.
  - EnableThinking sets Qwen3's enable_thinking request field.
  - Temperature overrides the request temperature when the caller left it
    unset, defaulting to 0.4 for deterministic analysis.

These are QwenConfig fields; the package reads no environment variables.
The orchestrator sets EnableThinking from the technical endpoint's
enable_thinking setting and leaves FastModel and Temperature unset, so its
technical adapter runs with no fast model and the 0.4 temperature.
*/
package technical
