// Package deliberation implements the bounded multi-round, multi-agent
// consensus protocol: per-round parallel opinion gathering, convergence
// scoring, early exit, vote aggregation, dissent capture, and a
// cross-validation pass over the final opinions.
package deliberation
