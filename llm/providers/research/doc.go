// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
Package research adapts Perplexity's web-augmented chat API to the unified
llm.Provider interface. No example in the reference pack ships a Perplexity
adapter, so this package is new, built on the same openaicompat embedding
pattern as reasoner and technical.

# Cost guard

Perplexity's sonar-reasoning and sonar-deep-research models carry a much
higher per-call cost than the plain sonar models. AllowExpensive gates
whether a "thinking"/"extended" ReasoningMode request is allowed to select
them; otherwise the adapter stays on the configured default model. The
orchestrator sets AllowExpensive from the research endpoint's
allow_expensive setting; no PERPLEXITY_ALLOW_EXPENSIVE variable is read.
*/
package research
