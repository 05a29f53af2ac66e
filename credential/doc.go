// Package credential implements the weighted credential pool: per-provider
// selection among multiple API keys, cooldown-based rate-limit backoff, and
// health tracking (Healthy/Degraded/Disabled).
//
// A Pool owns one provider's Credential slice behind a single mutex.
// Acquire selects a credential by weighted random sampling over the subset
// that is currently usable (not disabled, not cooling); the weight favors
// healthy, lightly-loaded, recently-idle credentials and decays
// geometrically with cooldown level. Callers report outcomes back through
// MarkSuccess, MarkNetworkError, MarkClientError, MarkRateLimit, and
// MarkAuthError, which update error counts, cooldown state, and health.
//
// PreflightValidate runs a caller-supplied Prober against every credential
// once, typically at startup, and disables any that return ErrAuthFailure.
package credential
