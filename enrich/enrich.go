package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ProviderInvoker is the narrow interface the enricher depends on instead
// of the full dispatcher, breaking the enricher/dispatcher cycle: the
// enricher calls the research provider through this interface, and the
// dispatcher is one possible implementation.
type ProviderInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// MarketContext is the research provider's structured payload about a
// symbol's current regime.
type MarketContext struct {
	Regime               string    `json:"regime"`
	TrendDirection       string    `json:"trend_direction"`
	KeyNews              []string  `json:"key_news"`
	Sentiment            Sentiment `json:"sentiment"`
	RiskFactors          []string  `json:"risk_factors"`
	MacroEvents          []string  `json:"macro_events"`
	VolatilityAssessment string    `json:"volatility_assessment"`
	Confidence           float64   `json:"confidence"`
}

// Sentiment is the directional-sentiment sub-object of MarketContext.
type Sentiment struct {
	Direction string  `json:"direction"`
	Score     float64 `json:"score"`
}

// EnrichedContext is the enricher's output: the caller's base context plus
// provenance about how/whether it was augmented.
type EnrichedContext struct {
	Base         map[string]any
	MarketContext *MarketContext
	CacheHit     bool
	CacheAgeS    float64
	StatusMarker string
}

const requestTimeout = 30 * time.Second

// Enricher adaptively augments a base context with research-provider
// market context, cached by "<symbol>:<strategy_type>" with a TTL.
type Enricher struct {
	invoker ProviderInvoker
	cache   *Cache
	now     func() time.Time

	// inflight collapses concurrent cache misses for the same key into a
	// single research call, so a burst of requests for the same symbol
	// doesn't fan out N identical provider calls on a cold cache.
	inflight singleflight.Group
}

func NewEnricher(invoker ProviderInvoker, cache *Cache) *Enricher {
	return &Enricher{invoker: invoker, cache: cache, now: time.Now}
}

// Enrich implements the enrichment protocol: cache lookup, miss → research
// call with a 30s timeout, JSON parse (tolerating a markdown fence), store,
// return with provenance.
func (e *Enricher) Enrich(ctx context.Context, symbol, strategyType string, base map[string]any) EnrichedContext {
	key := CacheKey(symbol, strategyType)

	if entry, ok := e.cache.Get(key, e.now()); ok {
		return EnrichedContext{
			Base:          base,
			MarketContext: entry.Context,
			CacheHit:      true,
			CacheAgeS:     e.now().Sub(entry.StoredAt).Seconds(),
		}
	}

	mc, err, _ := e.inflight.Do(key, func() (any, error) {
		if entry, ok := e.cache.Get(key, e.now()); ok {
			return entry.Context, nil
		}

		callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		raw, err := e.invoker.Invoke(callCtx, enrichmentPrompt(symbol, strategyType))
		if err != nil {
			return nil, fmt.Errorf("enrichment_failed: %w", err)
		}

		mc, err := parseMarketContext(raw)
		if err != nil {
			return nil, fmt.Errorf("enrichment_parse_failed: %w", err)
		}

		e.cache.Put(key, mc, e.now())
		return mc, nil
	})
	if err != nil {
		return EnrichedContext{Base: base, StatusMarker: err.Error()}
	}

	return EnrichedContext{Base: base, MarketContext: mc.(*MarketContext)}
}

// Invalidate clears the whole cache when symbol is empty, otherwise only
// entries keyed under "<symbol>:".
func (e *Enricher) Invalidate(symbol string) {
	e.cache.Invalidate(symbol)
}

func enrichmentPrompt(symbol, strategyType string) string {
	return fmt.Sprintf(
		"Provide current market context for %s (strategy: %s) as JSON with fields: "+
			"regime (trending|ranging|volatile), trend_direction, key_news (up to 3), "+
			"sentiment {direction, score}, risk_factors (up to 3), macro_events (up to 3), "+
			"volatility_assessment, confidence.",
		symbol, strategyType)
}

// parseMarketContext tolerates a markdown code-fence wrapper around the
// JSON payload before decoding.
func parseMarketContext(raw string) (*MarketContext, error) {
	cleaned := stripCodeFence(raw)
	var mc MarketContext
	if err := json.Unmarshal([]byte(cleaned), &mc); err != nil {
		return nil, err
	}
	return &mc, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(s[:nl])
		if firstLine == "json" || firstLine == "" {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
