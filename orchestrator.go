// Package llmcore wires the credential pools, provider clients, dispatch
// pipelines, enrichment, deliberation, cross-validation, and health
// monitoring into a single orchestration surface.
package llmcore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quantforge/llmcore/config"
	"github.com/quantforge/llmcore/credential"
	"github.com/quantforge/llmcore/crossvalidate"
	"github.com/quantforge/llmcore/deliberation"
	"github.com/quantforge/llmcore/dispatch"
	"github.com/quantforge/llmcore/enrich"
	"github.com/quantforge/llmcore/health"
	"github.com/quantforge/llmcore/internal/cache"
	"github.com/quantforge/llmcore/internal/metrics"
	"github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/budget"
	"github.com/quantforge/llmcore/llm/circuitbreaker"
	"github.com/quantforge/llmcore/llm/middleware"
	"github.com/quantforge/llmcore/llm/providers"
	"github.com/quantforge/llmcore/llm/providers/reasoner"
	"github.com/quantforge/llmcore/llm/providers/research"
	"github.com/quantforge/llmcore/llm/providers/technical"
	"github.com/quantforge/llmcore/llm/retry"
	"github.com/quantforge/llmcore/sanitizer"
	"github.com/quantforge/llmcore/secretstore"
)

// Provider identifiers used throughout the core as map keys and agent
// names.
const (
	ProviderReasoner  = "reasoner"
	ProviderTechnical = "technical"
	ProviderResearch  = "research"
)

// reasoningLogDir is where the reasoner dispatcher persists chain-of-thought
// traces, one markdown file per response.
const reasoningLogDir = "./reasoning_logs"

// Orchestrator is the top-level handle: one per process, holding every
// provider's dispatcher, the shared enrichment/deliberation/health
// components, and the secret store they all read credentials from.
type Orchestrator struct {
	cfg *config.Config

	dispatchers map[string]*dispatch.Dispatcher
	pools       map[string]*credential.Pool
	breakers    map[string]circuitbreaker.CircuitBreaker

	enricher    *enrich.Enricher
	deliberator *deliberation.Engine
	monitor     *health.Monitor
	budget      *budget.TokenBudgetManager

	responseCache dispatch.ResponseCache
	cacheManager  *cache.Manager
	metrics       *metrics.Collector

	logger *zap.Logger
}

// New builds an Orchestrator from a loaded config and a secret store.
// Credentials are discovered per provider from the given base env var
// name plus any indexed siblings (`_2`, `_3`, …).
func New(cfg *config.Config, store secretstore.Store, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		cfg:         cfg,
		dispatchers: map[string]*dispatch.Dispatcher{},
		pools:       map[string]*credential.Pool{},
		breakers:    map[string]circuitbreaker.CircuitBreaker{},
		monitor:     health.NewMonitor(),
		logger:      logger,
	}

	o.budget = budget.NewTokenBudgetManager(budget.DefaultBudgetConfig(), logger)
	o.metrics = metrics.NewCollector("llmcore", logger)
	o.responseCache = o.buildResponseCache(cfg, logger)

	credCfg := credential.DefaultConfig()
	if cfg.Credential.CooldownMaxSeconds > 0 {
		credCfg.CooldownMaxSeconds = cfg.Credential.CooldownMaxSeconds
	}
	if cfg.Credential.CooldownMaxLevel > 0 {
		credCfg.CooldownMaxLevel = cfg.Credential.CooldownMaxLevel
	}
	if cfg.Credential.PressureThreshold > 0 {
		credCfg.PressureThreshold = cfg.Credential.PressureThreshold
	}
	if cfg.Credential.PressureAlertIntervalSeconds > 0 {
		credCfg.PressureAlertInterval = time.Duration(cfg.Credential.PressureAlertIntervalSeconds) * time.Second
	}

	if err := o.wireReasoner(cfg, store, credCfg); err != nil {
		return nil, fmt.Errorf("wire reasoner: %w", err)
	}
	if err := o.wireTechnical(cfg, store, credCfg); err != nil {
		return nil, fmt.Errorf("wire technical: %w", err)
	}
	if err := o.wireResearch(cfg, store, credCfg); err != nil {
		return nil, fmt.Errorf("wire research: %w", err)
	}

	invoker := &researchInvoker{dispatcher: o.dispatchers[ProviderResearch]}
	cacheTTL := cfg.Enrichment.TTL
	if cacheTTL <= 0 {
		cacheTTL = enrich.DefaultCacheTTL
	}
	o.enricher = enrich.NewEnricher(invoker, enrich.NewCache(cacheTTL))

	agentInvoker := &dispatchInvoker{dispatchers: o.dispatchers}
	o.deliberator = deliberation.NewEngine(deliberation.DefaultConfig(), agentInvoker, logger)
	o.deliberator.AttachMetrics(o.metrics)

	for name, d := range o.dispatchers {
		o.monitor.Register(health.Source{
			Provider: name,
			Breaker:  o.breakers[name],
			Pool:     o.pools[name],
			Snapshot: d.Snapshot,
		})
	}

	return o, nil
}

// buildResponseCache prefers a Redis-backed cache, shared across replicas
// and surviving restarts, when cfg.Redis names an address; otherwise it
// falls back to an in-process LRU so caching still works in single-node
// deployments with no Redis available.
func (o *Orchestrator) buildResponseCache(cfg *config.Config, logger *zap.Logger) dispatch.ResponseCache {
	ttl := cfg.Cache.ResponseTTL
	if ttl <= 0 {
		ttl = sanitizer.DefaultCacheTTL
	}

	if cfg.Redis.Addr != "" {
		manager, err := cache.NewManager(cache.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DefaultTTL:   ttl,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, logger)
		if err != nil {
			logger.Warn("redis response cache unavailable, falling back to in-process cache", zap.Error(err))
		} else {
			o.cacheManager = manager
			return dispatch.NewRedisResponseCache(manager, ttl)
		}
	}

	capacity := cfg.Cache.ResponseMaxEntries
	if capacity <= 0 {
		capacity = sanitizer.DefaultCacheCapacity
	}
	return sanitizer.NewResponseCache(capacity, ttl)
}

func (o *Orchestrator) wireReasoner(cfg *config.Config, store secretstore.Store, credCfg credential.Config) error {
	ep := cfg.Providers.Reasoner
	apiKey, _ := store.GetDecryptedKey("DEEPSEEK_API_KEY")
	client := reasoner.New(providers.DeepSeekConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: apiKey, BaseURL: ep.BaseURL, Model: ep.Model, Timeout: ep.Timeout},
		AllowReasoner:      ep.AllowExpensive,
	}, o.logger)

	names := secretstore.DiscoverIndexedNames(store, "DEEPSEEK_API_KEY")
	pool := credential.NewPool(ProviderReasoner, names, credCfg)
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), o.logger)

	// Reasoner's reasoning-model gating is handled internally by the
	// provider adapter (AllowReasoner); only scrubbing applies here.
	chain := middleware.NewRewriterChain(sanitizer.NewPromptScrubber())

	d := dispatch.NewDispatcher(ProviderReasoner, client, pool, breaker,
		dispatch.WithRewriters(chain),
		dispatch.WithBudget(o.budget),
		dispatch.WithReasoningLog(reasoningLogDir),
		dispatch.WithOutboundRateLimit(float64(cfg.Dispatch.RateLimitRPS), cfg.Dispatch.RateLimitBurst),
		dispatch.WithResponseCache(o.responseCache),
		dispatch.WithMetrics(o.metrics),
		dispatch.WithLogger(o.logger),
		dispatch.WithRetry(&retry.RetryPolicy{
			MaxRetries:   cfg.Dispatch.MaxRetries,
			InitialDelay: cfg.Dispatch.RetryInitialBackoff,
			MaxDelay:     cfg.Dispatch.RetryMaxBackoff,
			Multiplier:   2.0,
			Jitter:       true,
		}),
	)

	o.dispatchers[ProviderReasoner] = d
	o.pools[ProviderReasoner] = pool
	o.breakers[ProviderReasoner] = breaker
	return nil
}

func (o *Orchestrator) wireTechnical(cfg *config.Config, store secretstore.Store, credCfg credential.Config) error {
	ep := cfg.Providers.Technical
	apiKey, _ := store.GetDecryptedKey("QWEN_API_KEY")
	client := technical.New(providers.QwenConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: apiKey, BaseURL: ep.BaseURL, Model: ep.Model, Timeout: ep.Timeout},
		EnableThinking:     ep.EnableThinking,
	}, o.logger)

	names := secretstore.DiscoverIndexedNames(store, "QWEN_API_KEY")
	pool := credential.NewPool(ProviderTechnical, names, credCfg)
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), o.logger)

	gate := sanitizer.NewThinkingGate()
	chain := middleware.NewRewriterChain(
		sanitizer.NewPromptScrubber(),
		sanitizer.NewThinkingModeRewriter(gate, ep.EnableThinking, ProviderTechnical),
	)

	d := dispatch.NewDispatcher(ProviderTechnical, client, pool, breaker,
		dispatch.WithRewriters(chain),
		dispatch.WithBudget(o.budget),
		dispatch.WithOutboundRateLimit(float64(cfg.Dispatch.RateLimitRPS), cfg.Dispatch.RateLimitBurst),
		dispatch.WithResponseCache(o.responseCache),
		dispatch.WithMetrics(o.metrics),
		dispatch.WithLogger(o.logger),
		dispatch.WithRetry(&retry.RetryPolicy{
			MaxRetries:   cfg.Dispatch.MaxRetries,
			InitialDelay: cfg.Dispatch.RetryInitialBackoff,
			MaxDelay:     cfg.Dispatch.RetryMaxBackoff,
			Multiplier:   2.0,
			Jitter:       true,
		}),
	)

	o.dispatchers[ProviderTechnical] = d
	o.pools[ProviderTechnical] = pool
	o.breakers[ProviderTechnical] = breaker
	return nil
}

func (o *Orchestrator) wireResearch(cfg *config.Config, store secretstore.Store, credCfg credential.Config) error {
	ep := cfg.Providers.Research
	apiKey, _ := store.GetDecryptedKey("PERPLEXITY_API_KEY")
	client := research.New(providers.PerplexityConfig{
		BaseProviderConfig: providers.BaseProviderConfig{APIKey: apiKey, BaseURL: ep.BaseURL, Model: ep.Model, Timeout: ep.Timeout},
		AllowExpensive:     ep.AllowExpensive,
	}, o.logger)

	names := secretstore.DiscoverIndexedNames(store, "PERPLEXITY_API_KEY")
	pool := credential.NewPool(ProviderResearch, names, credCfg)
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), o.logger)

	chain := middleware.NewRewriterChain(sanitizer.NewPromptScrubber())

	d := dispatch.NewDispatcher(ProviderResearch, client, pool, breaker,
		dispatch.WithRewriters(chain),
		dispatch.WithBudget(o.budget),
		dispatch.WithOutboundRateLimit(float64(cfg.Dispatch.RateLimitRPS), cfg.Dispatch.RateLimitBurst),
		dispatch.WithResponseCache(o.responseCache),
		dispatch.WithMetrics(o.metrics),
		dispatch.WithLogger(o.logger),
		dispatch.WithRetry(&retry.RetryPolicy{
			MaxRetries:   cfg.Dispatch.MaxRetries,
			InitialDelay: cfg.Dispatch.RetryInitialBackoff,
			MaxDelay:     cfg.Dispatch.RetryMaxBackoff,
			Multiplier:   2.0,
			Jitter:       true,
		}),
	)

	o.dispatchers[ProviderResearch] = d
	o.pools[ProviderResearch] = pool
	o.breakers[ProviderResearch] = breaker
	return nil
}

// SendRequest dispatches a single chat request through the named
// provider's pipeline (credential selection, sanitization, circuit
// breaker, provider call).
func (o *Orchestrator) SendRequest(ctx context.Context, provider string, req *llm.ChatRequest) dispatch.Result {
	d, ok := o.dispatchers[provider]
	if !ok {
		return dispatch.Result{Err: fmt.Errorf("unknown provider %q", provider)}
	}
	return d.Send(ctx, req)
}

// StreamRequest streams a single chat request through the named provider's
// pipeline, invoking onContent for each content delta and onReasoning for
// each reasoning chain-of-thought delta (sent by providers that stream
// reasoning_content, such as deepseek-reasoner and Qwen thinking mode).
// Either callback may be nil.
func (o *Orchestrator) StreamRequest(ctx context.Context, provider string, req *llm.ChatRequest, onContent func(string), onReasoning func(string)) dispatch.Result {
	d, ok := o.dispatchers[provider]
	if !ok {
		return dispatch.Result{Err: fmt.Errorf("unknown provider %q", provider)}
	}
	return d.Stream(ctx, req, onContent, onReasoning)
}

// Deliberate runs the bounded multi-round consensus protocol across the
// given agent (provider) names.
func (o *Orchestrator) Deliberate(ctx context.Context, question string, agents []string) deliberation.Result {
	return o.deliberator.Deliberate(ctx, question, agents)
}

// Enrich fetches (or serves from cache) market context for a symbol and
// strategy type, using the research provider's dispatcher.
func (o *Orchestrator) Enrich(ctx context.Context, symbol, strategyType string, base map[string]any) enrich.EnrichedContext {
	return o.enricher.Enrich(ctx, symbol, strategyType, base)
}

// GetSnapshot returns the per-provider observability picture: pool
// metrics, breaker states, and dispatch counters.
func (o *Orchestrator) GetSnapshot() map[string]health.ProviderSnapshot {
	return o.monitor.Snapshot()
}

// Close releases the Redis connection backing the response cache, if one
// was established. Safe to call even when no Redis cache was configured.
func (o *Orchestrator) Close() error {
	if o.cacheManager != nil {
		return o.cacheManager.Close()
	}
	return nil
}

// researchInvoker adapts the research provider's dispatcher to
// enrich.ProviderInvoker, breaking the enricher/dispatcher import cycle.
type researchInvoker struct {
	dispatcher *dispatch.Dispatcher
}

func (r *researchInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	req := &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	}
	result := r.dispatcher.Send(ctx, req)
	if result.Err != nil {
		return "", result.Err
	}
	return result.Content, nil
}

// dispatchInvoker adapts the per-provider dispatchers to
// deliberation.Invoker: each Ask call dispatches to the named agent's
// provider and parses its reply into a structured Opinion.
type dispatchInvoker struct {
	dispatchers map[string]*dispatch.Dispatcher
}

func (a *dispatchInvoker) Ask(ctx context.Context, agent, prompt string) (deliberation.Opinion, error) {
	d, ok := a.dispatchers[agent]
	if !ok {
		return deliberation.Opinion{}, fmt.Errorf("unknown agent %q", agent)
	}

	req := &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	}
	result := d.Send(ctx, req)
	if result.Err != nil {
		return deliberation.Opinion{}, result.Err
	}

	return parseOpinion(agent, result.Content)
}

type opinionPayload struct {
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// parseOpinion tolerates a markdown-fenced JSON body, matching the
// enrichment provider's response shape, and falls back to a neutral
// opinion with the raw text as reasoning when parsing fails.
func parseOpinion(agent, content string) (deliberation.Opinion, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var payload opinionPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return deliberation.Opinion{
			Agent:      agent,
			SignalType: deliberation.InferSignalType(agent),
			Direction:  crossvalidate.DirectionNeutral,
			Confidence: 0,
			Reasoning:  content,
		}, nil
	}

	return deliberation.Opinion{
		Agent:      agent,
		SignalType: deliberation.InferSignalType(agent),
		Direction:  crossvalidate.Direction(payload.Direction),
		Confidence: payload.Confidence,
		Reasoning:  payload.Reasoning,
	}, nil
}
