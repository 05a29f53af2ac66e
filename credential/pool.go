package credential

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrAuthFailure is returned by a Prober when a provider rejects a
// credential outright (401/403); PreflightValidate disables any credential
// whose probe error wraps this sentinel.
var ErrAuthFailure = errors.New("credential: auth failure")

// Config carries the cooldown curve and pressure-alert parameters for a
// single provider's pool. It is deliberately decoupled from config.Config so
// this package has no dependency on the application config layer.
type Config struct {
	CooldownMaxLevel      int
	CooldownMaxSeconds    int
	PressureThreshold     float64
	PressureAlertInterval time.Duration
}

// DefaultConfig returns the cooldown/alerting parameters used when none are
// supplied explicitly.
func DefaultConfig() Config {
	return Config{
		CooldownMaxLevel:      10,
		CooldownMaxSeconds:    600,
		PressureThreshold:     0.5,
		PressureAlertInterval: 60 * time.Second,
	}
}

// AlertCallback is invoked when a pool's cooling ratio crosses the pressure
// threshold, no more often than once per PressureAlertInterval.
type AlertCallback func(provider string, cooling, total int)

// Prober sends a minimal authenticated request using the given credential,
// for use during PreflightValidate.
type Prober func(ctx context.Context, c *Credential) error

// Pool owns every Credential for one provider: selection, health tracking,
// and cooldown are all single-mutex critical sections here, matching the
// "at most one concurrent selection" pool invariant.
type Pool struct {
	provider string
	cfg      Config
	now      func() time.Time
	rng      *rand.Rand

	alertCallback AlertCallback

	mu              sync.Mutex
	credentials     []*Credential
	cooldownEvents  int
	rateLimitEvents int
	alertsTriggered int
	lastAlertAt     time.Time
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithClock overrides the pool's time source, for deterministic tests.
func WithClock(fn func() time.Time) Option {
	return func(p *Pool) { p.now = fn }
}

// WithAlertCallback registers the pressure-alert callback.
func WithAlertCallback(cb AlertCallback) Option {
	return func(p *Pool) { p.alertCallback = cb }
}

// WithRand overrides the pool's random source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pool) { p.rng = rng }
}

// NewPool creates a pool for provider, seeding one Credential per secret
// name. Every credential starts Healthy with zeroed counters.
func NewPool(provider string, secretNames []string, cfg Config, opts ...Option) *Pool {
	p := &Pool{
		provider: provider,
		cfg:      cfg,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i, name := range secretNames {
		p.credentials = append(p.credentials, &Credential{
			Provider:   provider,
			Index:      i,
			SecretName: name,
			health:     HealthHealthy,
		})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire returns a usable credential selected by weighted random sampling,
// or nil when every credential is disabled or cooling. It is the pool's
// only read-write entry point that a dispatcher calls per request.
func (p *Pool) Acquire() *Credential {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.maybeExitCooldownLocked(now)

	var usable []*Credential
	var weights []float64
	for _, c := range p.credentials {
		if !isUsable(c, now) {
			continue
		}
		usable = append(usable, c)
		weights = append(weights, weight(c, now))
	}
	if len(usable) == 0 {
		return nil
	}

	selected := pickWeighted(p.rng, usable, weights)
	selected.requestCount++
	selected.lastUsed = now
	return selected
}

func pickWeighted(rng *rand.Rand, creds []*Credential, weights []float64) *Credential {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return creds[0]
	}
	target := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target < cum {
			return creds[i]
		}
	}
	return creds[len(creds)-1]
}

func (p *Pool) maybeExitCooldownLocked(now time.Time) {
	for _, c := range p.credentials {
		if !c.cooldownUntil.IsZero() && !c.cooldownUntil.After(now) {
			p.clearCooldownLocked(c)
		}
	}
}

func (p *Pool) clearCooldownLocked(c *Credential) {
	if c.cooldownLevel > 0 {
		c.cooldownLevel--
	}
	c.cooldownUntil = time.Time{}
	c.cooldownReason = ""
}

func (p *Pool) isCoolingLocked(c *Credential, now time.Time) bool {
	return !c.cooldownUntil.IsZero() && c.cooldownUntil.After(now)
}

// beginCooldownLocked applies a cooldown of duration d, bumping the
// credential's level (capped) and the pool's cooldown counters. A
// non-positive duration is a no-op, matching "Retry-After = 0 or negative
// means no cooldown".
func (p *Pool) beginCooldownLocked(c *Credential, d time.Duration, reason string, now time.Time) {
	if d <= 0 {
		return
	}
	if c.cooldownLevel < p.cfg.CooldownMaxLevel {
		c.cooldownLevel++
	}
	c.cooldownUntil = now.Add(d)
	c.coolingEvents++
	c.cooldownReason = reason
	p.cooldownEvents++
	p.maybeAlertLocked(now)
}

func (p *Pool) maybeAlertLocked(now time.Time) {
	total := len(p.credentials)
	if total == 0 {
		return
	}
	cooling := 0
	for _, c := range p.credentials {
		if p.isCoolingLocked(c, now) {
			cooling++
		}
	}
	ratio := float64(cooling) / float64(total)
	if ratio < p.cfg.PressureThreshold {
		return
	}
	if !p.lastAlertAt.IsZero() && now.Sub(p.lastAlertAt) < p.cfg.PressureAlertInterval {
		return
	}
	p.lastAlertAt = now
	p.alertsTriggered++
	if p.alertCallback != nil {
		cb, provider := p.alertCallback, p.provider
		go cb(provider, cooling, total)
	}
}

func (p *Pool) recomputeHealthLocked(c *Credential) {
	if c.authDisabled {
		c.health = HealthDisabled
		return
	}
	switch {
	case c.errorCount >= 10:
		c.health = HealthDisabled
	case c.errorCount >= 5:
		c.health = HealthDegraded
	case c.errorCount < 3:
		c.health = HealthHealthy
	}
	// errorCount in [3,5) leaves health unchanged — a hysteresis band between
	// the "Healthy on success" and "Degraded" thresholds.
}

// MarkSuccess records a successful call: error count decays toward zero,
// the cooldown level decays by one if the credential isn't actively
// cooling, and health may be promoted back to Healthy.
func (p *Pool) MarkSuccess(c *Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if c.errorCount > 0 {
		c.errorCount--
	}
	if !p.isCoolingLocked(c, now) && c.cooldownLevel > 0 {
		c.cooldownLevel--
	}
	c.lastUsed = now
	p.recomputeHealthLocked(c)
}

// MarkNetworkError records a connection/DNS/timeout failure: bumps the
// error count without applying any cooldown.
func (p *Pool) MarkNetworkError(c *Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.errorCount++
	c.lastErrorAt = p.now()
	p.recomputeHealthLocked(c)
}

// MarkClientError records a non-auth, non-rate-limit 4xx failure.
func (p *Pool) MarkClientError(c *Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.errorCount++
	c.lastErrorAt = p.now()
	p.recomputeHealthLocked(c)
}

// MarkAuthError disables the credential immediately and permanently; no
// number of subsequent MarkSuccess calls will re-enable it.
func (p *Pool) MarkAuthError(c *Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.errorCount++
	c.lastErrorAt = p.now()
	c.authDisabled = true
	c.health = HealthDisabled
}

// MarkRateLimit records a 429 (or, per the dispatcher's error classification,
// a 408/5xx passed with a nil retryAfter) and applies a cooldown: the
// provider's Retry-After when given, otherwise the exponential-backoff tier
// for the credential's next cooldown level.
func (p *Pool) MarkRateLimit(c *Credential, retryAfter *time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	c.errorCount++
	c.lastErrorAt = now
	p.rateLimitEvents++

	var d time.Duration
	if retryAfter != nil {
		d = clampRetryAfter(*retryAfter, p.cfg.CooldownMaxSeconds)
	} else {
		d = cooldownDurationForLevel(c.cooldownLevel + 1)
	}
	p.beginCooldownLocked(c, d, "rate_limit", now)
	p.recomputeHealthLocked(c)
}

// Metrics summarizes the pool's current state.
type Metrics struct {
	Provider        string
	Total           int
	Cooling         int
	Healthy         int
	Degraded        int
	Disabled        int
	NextAvailableIn time.Duration
	CooldownEvents  int
	RateLimitEvents int
	AlertsTriggered int
}

// Metrics returns a point-in-time copy of the pool's health and counters.
func (p *Pool) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	m := Metrics{
		Provider:        p.provider,
		Total:           len(p.credentials),
		CooldownEvents:  p.cooldownEvents,
		RateLimitEvents: p.rateLimitEvents,
		AlertsTriggered: p.alertsTriggered,
	}

	var earliest time.Time
	for _, c := range p.credentials {
		switch c.health {
		case HealthHealthy:
			m.Healthy++
		case HealthDegraded:
			m.Degraded++
		case HealthDisabled:
			m.Disabled++
		}
		if p.isCoolingLocked(c, now) {
			m.Cooling++
			if earliest.IsZero() || c.cooldownUntil.Before(earliest) {
				earliest = c.cooldownUntil
			}
		}
	}
	if !earliest.IsZero() {
		m.NextAvailableIn = earliest.Sub(now)
	}
	return m
}

// Snapshot returns a copy of every credential's observable state; the
// caller cannot bypass the pool's mutex through the returned values.
func (p *Pool) Snapshot() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]Snapshot, len(p.credentials))
	for i, c := range p.credentials {
		out[i] = c.snapshot(now)
	}
	return out
}

// PreflightResult reports the outcome of a PreflightValidate pass.
type PreflightResult struct {
	Provider string
	Total    int
	Healthy  int
	Disabled int
}

// PreflightValidate probes every credential once and disables any that
// return ErrAuthFailure. Probing happens outside the pool's lock; only the
// resulting MarkAuthError calls and the final tally take it.
func (p *Pool) PreflightValidate(ctx context.Context, probe Prober) PreflightResult {
	p.mu.Lock()
	creds := append([]*Credential(nil), p.credentials...)
	p.mu.Unlock()

	for _, c := range creds {
		if err := probe(ctx, c); err != nil && errors.Is(err, ErrAuthFailure) {
			p.MarkAuthError(c)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	result := PreflightResult{Provider: p.provider, Total: len(creds)}
	for _, c := range creds {
		if c.health == HealthDisabled {
			result.Disabled++
		} else {
			result.Healthy++
		}
	}
	return result
}
