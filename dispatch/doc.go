// Package dispatch implements the per-provider request path: credential
// acquisition, circuit breaking, sanitizing rewriters, provider invocation,
// and response normalization (content extraction, reasoning/citation
// extraction, token usage and cost).
package dispatch
