// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package llm provides the unified LLM provider abstraction shared by the
reasoner, technical, and research adapters.

# Provider Interface

The core Provider interface defines the contract every adapter implements:

	type Provider interface {
	    Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	    Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)
	    HealthCheck(ctx context.Context) (*HealthStatus, error)
	    ListModels(ctx context.Context) ([]Model, error)
	    Name() string
	    SupportsNativeFunctionCalling() bool
	}

# Providers

Three concrete adapters live under llm/providers, each embedding
llm/providers/openaicompat.Provider and overriding only what differs:

  - reasoner — DeepSeek, cost-gated reasoning mode
  - technical — Qwen/DashScope, fast-model routing and thinking mode
  - research — Perplexity, web-augmented search with an expensive-model gate

# Streaming

All providers support streaming responses:

	stream, err := provider.Stream(ctx, &llm.ChatRequest{
	    Messages: messages,
	})
	if err != nil {
	    log.Fatal(err)
	}

	for chunk := range stream {
	    if chunk.Err != nil {
	        log.Printf("Error: %v", chunk.Err)
	        break
	    }
	    fmt.Print(chunk.Delta.Content)
	}

# Credential Override

A caller holding a credential selected from a pool attaches it to the
request context rather than threading it through ChatRequest:

	ctx = llm.WithCredentialOverride(ctx, llm.CredentialOverride{APIKey: key, Index: idx})
	resp, err := provider.Completion(ctx, req)

# Tool Calling

Support for native function calling:

	resp, err := provider.Completion(ctx, &llm.ChatRequest{
	    Messages: messages,
	    Tools: []llm.ToolSchema{
	        {
	            Name:        "get_weather",
	            Description: "Get current weather for a location",
	            Parameters:  weatherParamsSchema,
	        },
	    },
	})

# Error Handling

The package defines structured error codes:

	const (
	    ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	    ErrAuthentication      ErrorCode = "AUTHENTICATION"
	    ErrRateLimit           ErrorCode = "RATE_LIMIT"
	    ErrContextTooLong      ErrorCode = "CONTEXT_TOO_LONG"
	    ErrServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	)

Use IsRetryable to check if an error can be retried:

	if llm.IsRetryable(err) {
	    // Implement retry logic
	}

See the subpackages for additional functionality:
  - llm/circuitbreaker: per-provider failure isolation
  - llm/retry: retry strategies and backoff
  - llm/providers: shared OpenAI-compatible wire helpers
  - llm/providers/*: provider-specific implementations
*/
package llm
