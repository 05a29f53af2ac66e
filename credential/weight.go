package credential

import (
	"math"
	"time"
)

// weight computes the selection weight for a credential. It is a pure
// function of the credential's observable fields and the current time —
// it never mutates the credential and never consults anything outside
// its arguments, matching the "weight computation is side-effect free"
// pool invariant.
func weight(c *Credential, now time.Time) float64 {
	idleSeconds := 1e6 // never used: treat as maximally idle
	if !c.lastUsed.IsZero() {
		idleSeconds = now.Sub(c.lastUsed).Seconds()
	}

	w := healthFactor(c.health) *
		1 / (1 + float64(c.requestCount)/25) *
		1 / (1 + float64(c.errorCount)) *
		math.Pow(0.5, float64(c.cooldownLevel)) *
		recencyBonus(idleSeconds)

	if w < 0.001 {
		w = 0.001
	}
	return w
}

func healthFactor(h Health) float64 {
	switch h {
	case HealthHealthy:
		return 3.0
	case HealthDegraded:
		return 1.5
	default:
		return 0.0
	}
}

func recencyBonus(idleSeconds float64) float64 {
	v := 0.2 + idleSeconds/30
	if v < 0.2 {
		v = 0.2
	}
	if v > 1.2 {
		v = 1.2
	}
	return v
}
