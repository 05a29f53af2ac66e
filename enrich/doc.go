// Package enrich implements the context enricher: adaptive routing to
// decide whether a task needs research-provider market context, a
// TTL-keyed cache of that context, and prompt assembly that folds market
// context and peer signals into a base prompt.
package enrich
