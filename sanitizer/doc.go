// Package sanitizer rewrites and filters requests before they reach a
// provider: a prompt-injection scrubber, a metric allow-list projection, a
// float quantizer, a task-complexity classifier, a thinking-mode gate, and
// an LRU response cache keyed by (provider, prompt).
//
// Optimizer ties these together in OptimizePrompt: when metrics are
// supplied it filters then quantizes them, serializes the result as
// compact JSON, and substitutes it into the prompt (or appends it under a
// "Metrics:" heading when no existing metrics block is found).
package sanitizer
