// Package crossvalidate implements cross-validation of agent signals: a
// pure function that scores agreement among AgentSignal records, detects
// and classifies direction conflicts, and produces a tie-break resolution.
// It performs no I/O and holds no state between calls.
package crossvalidate
