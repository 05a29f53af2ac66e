package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/quantforge/llmcore/credential"
	"github.com/quantforge/llmcore/internal/metrics"
	"github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/budget"
	"github.com/quantforge/llmcore/llm/circuitbreaker"
	"github.com/quantforge/llmcore/llm/middleware"
	"github.com/quantforge/llmcore/llm/retry"
	"github.com/quantforge/llmcore/sanitizer"
	"github.com/quantforge/llmcore/types"
)

// Result is the outcome of a single dispatched request, normalized across
// every provider: content is always extracted, usage is what the provider
// reported, cost is estimated from that usage, and errors never surface
// as panics.
type Result struct {
	Success       bool
	Content       string
	ReasoningPath string
	Citations     []string
	Usage         llm.ChatUsage
	Cost          float64
	Latency       time.Duration
	Model         string
	Err           error
}

// Outcome counters, read with Snapshot. They exist independently of the
// credential pool's own per-credential counters because they track
// dispatcher-level behavior (circuit rejections, extraction failures)
// that no single credential owns.
type Outcome struct {
	Requests          int64
	Successes         int64
	Failures          int64
	CircuitRejections int64
	NoCredential      int64
	ExtractionMisses  int64
	CacheHits         int64
}

// Dispatcher owns one provider's full request path: credential selection,
// circuit breaking, sanitizing rewriters, the provider call itself, and
// outcome classification feeding back into the credential pool's health
// tracking.
type Dispatcher struct {
	providerName  string
	client        llm.Provider
	pool          *credential.Pool
	breaker       circuitbreaker.CircuitBreaker
	rewriters     *middleware.RewriterChain
	budget        *budget.TokenBudgetManager
	limiter       *rate.Limiter
	reasoningLog  *ReasoningLogger
	responseCache ResponseCache
	metrics       *metrics.Collector
	logger        *zap.Logger
	retryPolicy   *retry.RetryPolicy
	retryer       retry.Retryer

	outcome atomicOutcome
}

// Option configures optional Dispatcher collaborators.
type Option func(*Dispatcher)

func WithRewriters(chain *middleware.RewriterChain) Option {
	return func(d *Dispatcher) { d.rewriters = chain }
}

func WithBudget(m *budget.TokenBudgetManager) Option {
	return func(d *Dispatcher) { d.budget = m }
}

func WithOutboundRateLimit(requestsPerSecond float64, burst int) Option {
	return func(d *Dispatcher) {
		if requestsPerSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		}
	}
}

func WithReasoningLog(dir string) Option {
	return func(d *Dispatcher) { d.reasoningLog = NewReasoningLogger(dir) }
}

// WithResponseCache enables whole-completion caching for Send: a cache hit
// on the (provider, prompt) key skips the provider call. The open-breaker
// check and credential acquisition still run before the lookup, and a hit
// marks the acquired credential successful. Streaming requests never
// consult it.
func WithResponseCache(c ResponseCache) Option {
	return func(d *Dispatcher) { d.responseCache = c }
}

// WithMetrics attaches a Prometheus collector; every Send that reaches the
// provider call records its outcome, and response cache hits/misses are
// counted too. Stream does not record metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Dispatcher) { d.metrics = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithRetry enables an outer retry layer composed around the circuit
// breaker: each retry attempt still goes through the breaker, so a trip
// mid-sequence still short-circuits the remaining attempts. Only
// NetworkError and ProviderServerError-class failures (connection errors,
// context deadline, HTTP 408/5xx) are retried; rate limiting is left to
// the credential pool's cooldown and auth/client errors are never
// retried. A nil policy falls back to retry.DefaultRetryPolicy.
func WithRetry(policy *retry.RetryPolicy) Option {
	return func(d *Dispatcher) { d.retryPolicy = policy }
}

func NewDispatcher(providerName string, client llm.Provider, pool *credential.Pool, breaker circuitbreaker.CircuitBreaker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		providerName: providerName,
		client:       client,
		pool:         pool,
		breaker:      breaker,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.retryPolicy != nil {
		policy := *d.retryPolicy
		policy.RetryableErrors = append(append([]error{}, policy.RetryableErrors...), errRetryableCall)
		d.retryer = retry.NewBackoffRetryer(&policy, d.logger)
	}
	return d
}

// Send implements the provider request protocol: acquire a credential,
// apply the breaker, run sanitizing rewriters, call the provider, and
// classify the outcome back into the credential pool.
func (d *Dispatcher) Send(ctx context.Context, req *llm.ChatRequest) Result {
	d.outcome.addRequests(1)
	stampTraceID(req)

	// Checked before acquiring a credential: a rejected breaker should
	// never burn a credential's request slot.
	if d.breaker.State() == circuitbreaker.StateOpen {
		d.outcome.addCircuitRejections(1)
		d.outcome.addFailures(1)
		return Result{Err: &types.Error{
			Code:     types.ErrCircuitOpen,
			Message:  fmt.Sprintf("%s circuit open", d.providerName),
			Provider: d.providerName,
		}}
	}

	cred := d.pool.Acquire()
	if cred == nil {
		d.outcome.addNoCredential(1)
		d.outcome.addFailures(1)
		return Result{Err: &types.Error{
			Code:     types.ErrNoUsableCredential,
			Message:  fmt.Sprintf("no active %s credentials", d.providerName),
			Provider: d.providerName,
		}}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.outcome.addFailures(1)
			return Result{Err: &types.Error{
				Code:      types.ErrCancelled,
				Message:   "outbound rate limiter wait cancelled",
				Provider:  d.providerName,
				Cause:     err,
				Retryable: true,
			}}
		}
	}

	rewritten, err := d.applyRewriters(ctx, req)
	if err != nil {
		d.outcome.addFailures(1)
		return Result{Err: &types.Error{
			Code:     types.ErrInvalidRequest,
			Message:  "request rewrite failed",
			Provider: d.providerName,
			Cause:    err,
		}}
	}

	if err := d.checkBudget(ctx, rewritten); err != nil {
		d.outcome.addFailures(1)
		return Result{Err: err}
	}

	cacheKey := ""
	if d.responseCache != nil {
		cacheKey = sanitizer.CacheKey(d.providerName, promptFingerprint(rewritten))
		if cached, ok := d.responseCache.Get(cacheKey); ok {
			if result, ok := cached.(Result); ok {
				d.outcome.addCacheHits(1)
				d.outcome.addSuccesses(1)
				d.pool.MarkSuccess(cred)
				if d.metrics != nil {
					d.metrics.RecordCacheHit(d.providerName)
				}
				return result
			}
		}
		if d.metrics != nil {
			d.metrics.RecordCacheMiss(d.providerName)
		}
	}

	ctx = llm.WithCredentialOverride(ctx, llm.CredentialOverride{Index: cred.Index})

	start := time.Now()
	var resp *llm.ChatResponse
	callErr := d.callWithRetry(ctx, func() error {
		return d.breaker.Call(ctx, func() error {
			var innerErr error
			resp, innerErr = d.client.Completion(ctx, rewritten)
			return innerErr
		})
	})
	latency := time.Since(start)

	if callErr != nil {
		if errors.Is(callErr, circuitbreaker.ErrCircuitOpen) || errors.Is(callErr, circuitbreaker.ErrTooManyCallsInHalfOpen) {
			d.outcome.addCircuitRejections(1)
		} else {
			d.classifyError(cred, callErr)
		}
		d.outcome.addFailures(1)
		if d.metrics != nil {
			d.metrics.RecordLLMRequest(d.providerName, rewritten.Model, "error", latency, 0, 0, 0)
		}
		return Result{Err: callErr, Latency: latency}
	}

	d.pool.MarkSuccess(cred)
	d.outcome.addSuccesses(1)

	result := d.buildResult(resp, latency, rewritten.ReasoningMode)
	if d.reasoningLog != nil && result.ReasoningPath != "" {
		if _, logErr := d.reasoningLog.Log(d.providerName, resp.ID, result.ReasoningPath); logErr != nil {
			d.logger.Warn("reasoning log write failed", zap.Error(logErr), zap.String("provider", d.providerName))
		}
	}
	if d.budget != nil {
		d.budget.RecordUsage(budget.UsageRecord{
			Timestamp: time.Now(),
			Tokens:    result.Usage.TotalTokens,
			Cost:      result.Cost,
			Model:     resp.Model,
			RequestID: resp.ID,
		})
	}
	if d.metrics != nil {
		d.metrics.RecordLLMRequest(d.providerName, resp.Model, "success", latency, result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Cost)
	}
	if d.responseCache != nil && cacheKey != "" {
		d.responseCache.Put(cacheKey, result)
	}

	return result
}

// Stream implements the streaming variant of Send: the same open-breaker
// check, credential acquisition, rewriter and budget steps, followed by
// consumption of the provider's delta channel. The stream call itself is
// not wrapped in the breaker, rate-limited, retried or cached. onContent is invoked once per content
// delta; onReasoning is invoked once per reasoning-model chain-of-thought
// delta (deepseek-reasoner, Qwen thinking mode). Either may be nil. The
// returned Result carries the concatenated content and reasoning path
// once the stream closes.
func (d *Dispatcher) Stream(ctx context.Context, req *llm.ChatRequest, onContent func(string), onReasoning func(string)) Result {
	d.outcome.addRequests(1)
	stampTraceID(req)

	if d.breaker.State() == circuitbreaker.StateOpen {
		d.outcome.addCircuitRejections(1)
		d.outcome.addFailures(1)
		return Result{Err: &types.Error{
			Code:     types.ErrCircuitOpen,
			Message:  fmt.Sprintf("%s circuit open", d.providerName),
			Provider: d.providerName,
		}}
	}

	cred := d.pool.Acquire()
	if cred == nil {
		d.outcome.addNoCredential(1)
		d.outcome.addFailures(1)
		return Result{Err: &types.Error{
			Code:     types.ErrNoUsableCredential,
			Message:  fmt.Sprintf("no active %s credentials", d.providerName),
			Provider: d.providerName,
		}}
	}

	rewritten, err := d.applyRewriters(ctx, req)
	if err != nil {
		d.outcome.addFailures(1)
		return Result{Err: &types.Error{
			Code:     types.ErrInvalidRequest,
			Message:  "request rewrite failed",
			Provider: d.providerName,
			Cause:    err,
		}}
	}

	if err := d.checkBudget(ctx, rewritten); err != nil {
		d.outcome.addFailures(1)
		return Result{Err: err}
	}

	ctx = llm.WithCredentialOverride(ctx, llm.CredentialOverride{Index: cred.Index})

	start := time.Now()
	chunks, streamErr := d.client.Stream(ctx, rewritten)
	if streamErr != nil {
		d.classifyError(cred, streamErr)
		d.outcome.addFailures(1)
		return Result{Err: streamErr, Latency: time.Since(start)}
	}

	var content strings.Builder
	var reasoning strings.Builder
	var usage llm.ChatUsage
	var model string
	for chunk := range chunks {
		if chunk.Err != nil {
			d.classifyError(cred, chunk.Err)
			d.outcome.addFailures(1)
			return Result{Err: chunk.Err, Latency: time.Since(start)}
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if chunk.Delta.Content != "" {
			content.WriteString(chunk.Delta.Content)
			if onContent != nil {
				onContent(chunk.Delta.Content)
			}
		}
		if chunk.Delta.ReasoningContent != "" {
			reasoning.WriteString(chunk.Delta.ReasoningContent)
			if onReasoning != nil {
				onReasoning(chunk.Delta.ReasoningContent)
			}
		}
	}

	latency := time.Since(start)
	d.pool.MarkSuccess(cred)
	d.outcome.addSuccesses(1)

	result := Result{
		Success:       true,
		Content:       strings.TrimSpace(content.String()),
		ReasoningPath: reasoning.String(),
		Usage:         usage,
		Latency:       latency,
		Model:         model,
	}
	if result.Usage.TotalTokens > 0 {
		result.Cost = EstimateCost(d.providerName, result.Usage, rewritten.ReasoningMode)
	}
	if d.reasoningLog != nil && result.ReasoningPath != "" {
		if _, logErr := d.reasoningLog.Log(d.providerName, "", result.ReasoningPath); logErr != nil {
			d.logger.Warn("reasoning log write failed", zap.Error(logErr), zap.String("provider", d.providerName))
		}
	}
	return result
}

func (d *Dispatcher) applyRewriters(ctx context.Context, req *llm.ChatRequest) (*llm.ChatRequest, error) {
	if d.rewriters == nil {
		return req, nil
	}
	return d.rewriters.Execute(ctx, req)
}

func (d *Dispatcher) buildResult(resp *llm.ChatResponse, latency time.Duration, reasoningMode string) Result {
	result := Result{
		Success: true,
		Usage:   resp.Usage,
		Latency: latency,
		Model:   resp.Model,
	}

	if len(resp.Choices) > 0 {
		result.Content = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if result.Content == "" {
		raw := responseToMap(resp)
		if s, ok := ExtractContent(raw); ok {
			result.Content = s
		} else {
			d.outcome.addExtractionMisses(1)
			result.Content = ExtractContentOrMarker(raw)
		}
	}

	if d.providerName == "reasoner" {
		result.ReasoningPath = extractReasoningContent(resp)
	}
	if d.providerName == "research" {
		result.Citations = FilterCitations(extractCitations(resp))
	}

	if result.Usage.TotalTokens > 0 && result.Cost == 0 {
		result.Cost = EstimateCost(d.providerName, resp.Usage, reasoningMode)
	}

	return result
}

// classifyError maps a call error onto the credential pool's health
// feedback methods, matching each error family to the backoff behavior it
// warrants.
func (d *Dispatcher) classifyError(cred *credential.Credential, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		d.pool.MarkNetworkError(cred)
		return
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		d.pool.MarkNetworkError(cred)
		return
	}

	var llmErr *types.Error
	if !errors.As(err, &llmErr) {
		d.pool.MarkNetworkError(cred)
		return
	}

	switch {
	case llmErr.HTTPStatus == 401 || llmErr.HTTPStatus == 403:
		d.pool.MarkAuthError(cred)
	case llmErr.HTTPStatus == 429:
		d.pool.MarkRateLimit(cred, nil)
	case llmErr.HTTPStatus == 408 || llmErr.HTTPStatus >= 500:
		d.pool.MarkRateLimit(cred, nil)
	case llmErr.HTTPStatus >= 400:
		d.pool.MarkClientError(cred)
	default:
		d.pool.MarkNetworkError(cred)
	}
}

// Snapshot returns a copy of the dispatcher's outcome counters.
func (d *Dispatcher) Snapshot() Outcome {
	return d.outcome.snapshot()
}
