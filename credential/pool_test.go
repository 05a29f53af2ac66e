package credential

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func newTestPool(t *testing.T, now *time.Time, n int, opts ...Option) *Pool {
	t.Helper()
	names := make([]string, n)
	for i := range names {
		names[i] = "SECRET"
	}
	base := []Option{
		WithClock(fixedClock(now)),
		WithRand(rand.New(rand.NewSource(1))),
	}
	return NewPool("reasoner", names, DefaultConfig(), append(base, opts...)...)
}

func TestIsUsable_DisabledNeverUsable(t *testing.T) {
	now := time.Now()
	c := &Credential{health: HealthDisabled}
	assert.False(t, isUsable(c, now))
}

func TestIsUsable_CoolingUntilExpiry(t *testing.T) {
	now := time.Now()
	c := &Credential{health: HealthHealthy, cooldownUntil: now.Add(10 * time.Second)}
	assert.False(t, isUsable(c, now))
	assert.True(t, isUsable(c, now.Add(11*time.Second)))
}

// S1: weighted selection prefers a healthy, idle credential over a
// degraded, heavily-used one.
func TestAcquire_PrefersHealthyIdle(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 2)

	pool.credentials[0].health = HealthDegraded
	pool.credentials[0].requestCount = 40
	pool.credentials[0].errorCount = 4
	pool.credentials[0].lastUsed = now

	pool.credentials[1].health = HealthHealthy
	pool.credentials[1].lastUsed = now.Add(-5 * time.Minute)

	wGood := weight(pool.credentials[1], now)
	wBad := weight(pool.credentials[0], now)
	assert.Greater(t, wGood, wBad)
}

// S2: repeated rate-limit errors without a Retry-After climb the
// exponential-backoff tiers 30, 60, 120, 300s, and cooldown_level after
// each is 1, 2, 3, 4.
func TestMarkRateLimit_CooldownProgression(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	expectedLevels := []int{1, 2, 3, 4}
	expectedDurations := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		300 * time.Second,
	}

	for i := range expectedLevels {
		pool.MarkRateLimit(c, nil)
		assert.Equal(t, expectedLevels[i], c.cooldownLevel, "level at step %d", i)
		assert.Equal(t, now.Add(expectedDurations[i]), c.cooldownUntil, "cooldown_until at step %d", i)

		// advance the clock past this cooldown; with no acquisition pass or
		// success in between, the level is not lowered, so the next mark
		// climbs to the next tier
		now = now.Add(expectedDurations[i] + time.Second)
	}
}

func TestMarkRateLimit_RetryAfterOverridesTier(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	ra := 5 * time.Second
	pool.MarkRateLimit(c, &ra)
	assert.Equal(t, now.Add(5*time.Second), c.cooldownUntil)
	assert.Equal(t, 1, c.cooldownLevel)
}

func TestMarkRateLimit_NonPositiveRetryAfterAppliesNoCooldown(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	zero := time.Duration(0)
	pool.MarkRateLimit(c, &zero)
	assert.True(t, c.cooldownUntil.IsZero())
	assert.Equal(t, 0, c.cooldownLevel)
}

func TestMarkRateLimit_CapsAtMaxSeconds(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	huge := 10000 * time.Second
	pool.MarkRateLimit(c, &huge)
	assert.Equal(t, now.Add(600*time.Second), c.cooldownUntil)
}

// S3: preflight validation against 2 credentials, one returning an auth
// failure, leaves total=2, healthy=1, disabled=1.
func TestPreflightValidate_DisablesAuthFailures(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 2)

	probe := func(ctx context.Context, c *Credential) error {
		if c.Index == 1 {
			return ErrAuthFailure
		}
		return nil
	}

	result := pool.PreflightValidate(context.Background(), probe)
	assert.Equal(t, PreflightResult{Provider: "reasoner", Total: 2, Healthy: 1, Disabled: 1}, result)
	assert.Equal(t, HealthDisabled, pool.credentials[1].Health())
}

func TestPreflightValidate_WrappedAuthFailureStillDisables(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)

	probe := func(ctx context.Context, c *Credential) error {
		return errors.New("wrapped: " + ErrAuthFailure.Error())
	}
	result := pool.PreflightValidate(context.Background(), probe)
	assert.Equal(t, 1, result.Healthy+result.Disabled)

	wrapping := func(ctx context.Context, c *Credential) error {
		return errWrap{ErrAuthFailure}
	}
	result = pool.PreflightValidate(context.Background(), wrapping)
	assert.Equal(t, 1, result.Disabled)
}

type errWrap struct{ err error }

func (e errWrap) Error() string { return "wrapped: " + e.err.Error() }
func (e errWrap) Unwrap() error { return e.err }

// Invariant: once a credential is auth-disabled, no number of MarkSuccess
// calls can re-enable it.
func TestMarkAuthError_StickyAcrossSuccesses(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	pool.MarkAuthError(c)
	require.Equal(t, HealthDisabled, c.Health())

	for i := 0; i < 20; i++ {
		pool.MarkSuccess(c)
	}
	assert.Equal(t, HealthDisabled, c.Health())
}

// Invariant: Acquire never returns a credential that isUsable would reject.
func TestAcquire_NeverReturnsUnusableCredential(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 3)

	pool.credentials[0].health = HealthDisabled
	pool.credentials[1].cooldownUntil = now.Add(time.Minute)

	for i := 0; i < 50; i++ {
		got := pool.Acquire()
		require.NotNil(t, got)
		assert.Equal(t, 2, got.Index)
	}
}

func TestAcquire_EmptyPoolReturnsNil(t *testing.T) {
	now := time.Now()
	pool := NewPool("reasoner", nil, DefaultConfig(), WithClock(fixedClock(&now)))
	assert.Nil(t, pool.Acquire())
}

func TestAcquire_AllDisabledReturnsNil(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 2)
	pool.credentials[0].health = HealthDisabled
	pool.credentials[1].health = HealthDisabled
	assert.Nil(t, pool.Acquire())
}

func TestMarkSuccess_DecaysCooldownLevelWhenNotCooling(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	pool.MarkRateLimit(c, nil)
	pool.MarkRateLimit(c, nil)
	require.Equal(t, 2, c.cooldownLevel)

	now = now.Add(61 * time.Second)
	pool.mu.Lock()
	pool.maybeExitCooldownLocked(now)
	pool.mu.Unlock()
	require.True(t, c.cooldownUntil.IsZero())
	require.Equal(t, 1, c.cooldownLevel)

	pool.MarkSuccess(c)
	assert.Equal(t, 0, c.cooldownLevel)
}

func TestClearCooldownLocked_DecrementsLevelByExactlyOne(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	c := pool.credentials[0]

	pool.mu.Lock()
	pool.beginCooldownLocked(c, 30*time.Second, "rate_limit", now)
	pool.beginCooldownLocked(c, 30*time.Second, "rate_limit", now)
	require.Equal(t, 2, c.cooldownLevel)
	pool.clearCooldownLocked(c)
	pool.mu.Unlock()

	assert.Equal(t, 1, c.cooldownLevel)
	assert.True(t, c.cooldownUntil.IsZero())
}

func TestPressureAlert_FiresAboveThresholdOnce(t *testing.T) {
	now := time.Now()
	var mu sync.Mutex
	var calls int
	done := make(chan struct{}, 1)

	pool := newTestPool(t, &now, 2, WithAlertCallback(func(provider string, cooling, total int) {
		mu.Lock()
		calls++
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	}))

	pool.MarkRateLimit(pool.credentials[0], nil)
	pool.MarkRateLimit(pool.credentials[1], nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("alert callback was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 1)
}

func TestMetrics_ReportsCountsAndNextAvailable(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 2)
	pool.MarkRateLimit(pool.credentials[0], nil)
	pool.credentials[1].health = HealthDisabled

	m := pool.Metrics()
	assert.Equal(t, 2, m.Total)
	assert.Equal(t, 1, m.Cooling)
	assert.Equal(t, 1, m.Disabled)
	assert.Equal(t, 30*time.Second, m.NextAvailableIn)
}

func TestSnapshot_ReturnsCopiesNotLivePointers(t *testing.T) {
	now := time.Now()
	pool := newTestPool(t, &now, 1)
	snaps := pool.Snapshot()
	require.Len(t, snaps, 1)

	pool.MarkNetworkError(pool.credentials[0])
	assert.Equal(t, 0, snaps[0].ErrorCount)
}
