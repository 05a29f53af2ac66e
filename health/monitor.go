// Package health aggregates read-only observability snapshots across the
// providers registered with the core: circuit breaker state, credential
// pool metrics, dispatch counters, and a bounded log of recent alerts.
package health

import (
	"sync"
	"time"

	"github.com/quantforge/llmcore/credential"
	"github.com/quantforge/llmcore/dispatch"
	"github.com/quantforge/llmcore/llm/circuitbreaker"
)

// Alert is a single notable health event, kept in a bounded recent-history
// ring per monitor.
type Alert struct {
	Provider  string
	Message   string
	Severity  string
	Timestamp time.Time
}

// ProviderSnapshot is one provider's full observability picture at a point
// in time.
type ProviderSnapshot struct {
	Provider     string
	BreakerState circuitbreaker.State
	Pool         []credential.Snapshot
	Outcome      dispatch.Outcome
	RecentAlerts []Alert
}

// Source is the set of read-only accessors a registered provider exposes
// to the monitor. The caller fills it from the provider's breaker, its
// *credential.Pool and its *dispatch.Dispatcher's Snapshot method; Register
// stores it as given, and nil fields are skipped in snapshots.
type Source struct {
	Provider string
	Breaker  circuitbreaker.CircuitBreaker
	Pool     *credential.Pool
	Snapshot func() dispatch.Outcome
}

const maxAlertsPerProvider = 50

// Monitor holds the registered provider sources and a bounded alert log,
// and serves get_snapshot-style reads without touching provider internals
// directly.
type Monitor struct {
	mu      sync.RWMutex
	sources map[string]Source
	alerts  map[string][]Alert
	now     func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{
		sources: map[string]Source{},
		alerts:  map[string][]Alert{},
		now:     time.Now,
	}
}

// Register attaches a provider's breaker, pool, and dispatch outcome
// source so its state is included in subsequent snapshots.
func (m *Monitor) Register(src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.Provider] = src
}

// RecordAlert appends an alert to a provider's bounded recent-history
// ring, dropping the oldest entry once the cap is reached.
func (m *Monitor) RecordAlert(provider, severity, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert := Alert{Provider: provider, Message: message, Severity: severity, Timestamp: m.now()}
	log := append(m.alerts[provider], alert)
	if len(log) > maxAlertsPerProvider {
		log = log[len(log)-maxAlertsPerProvider:]
	}
	m.alerts[provider] = log
}

// Snapshot returns the full per-provider observability picture for every
// registered provider.
func (m *Monitor) Snapshot() map[string]ProviderSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ProviderSnapshot, len(m.sources))
	for provider, src := range m.sources {
		snap := ProviderSnapshot{Provider: provider}
		if src.Breaker != nil {
			snap.BreakerState = src.Breaker.State()
		}
		if src.Pool != nil {
			snap.Pool = src.Pool.Snapshot()
		}
		if src.Snapshot != nil {
			snap.Outcome = src.Snapshot()
		}
		snap.RecentAlerts = append([]Alert(nil), m.alerts[provider]...)
		out[provider] = snap
	}
	return out
}

// ProviderSnapshot returns a single provider's snapshot, or false if no
// source is registered under that name.
func (m *Monitor) ProviderSnapshot(provider string) (ProviderSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src, ok := m.sources[provider]
	if !ok {
		return ProviderSnapshot{}, false
	}
	snap := ProviderSnapshot{Provider: provider}
	if src.Breaker != nil {
		snap.BreakerState = src.Breaker.State()
	}
	if src.Pool != nil {
		snap.Pool = src.Pool.Snapshot()
	}
	if src.Snapshot != nil {
		snap.Outcome = src.Snapshot()
	}
	snap.RecentAlerts = append([]Alert(nil), m.alerts[provider]...)
	return snap, true
}
