package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quantforge/llmcore/credential"
	llmpkg "github.com/quantforge/llmcore/llm"
	"github.com/quantforge/llmcore/llm/circuitbreaker"
	"github.com/quantforge/llmcore/llm/retry"
	"github.com/quantforge/llmcore/sanitizer"
	"github.com/quantforge/llmcore/types"
)

type fakeProvider struct {
	name     string
	response *llmpkg.ChatResponse
	err      error
	calls    int
}

func (f *fakeProvider) Completion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req *llmpkg.ChatRequest) (<-chan llmpkg.StreamChunk, error) {
	return nil, nil
}
func (f *fakeProvider) HealthCheck(ctx context.Context) (*llmpkg.HealthStatus, error) {
	return &llmpkg.HealthStatus{Healthy: true}, nil
}
func (f *fakeProvider) Name() string                          { return f.name }
func (f *fakeProvider) SupportsNativeFunctionCalling() bool    { return false }
func (f *fakeProvider) ListModels(ctx context.Context) ([]llmpkg.Model, error) { return nil, nil }

// flakyProvider fails with a given error the first failUntil calls, then
// succeeds, for exercising the outer retry layer.
type flakyProvider struct {
	name      string
	failErr   error
	failUntil int
	response  *llmpkg.ChatResponse
	calls     int
}

func (f *flakyProvider) Completion(ctx context.Context, req *llmpkg.ChatRequest) (*llmpkg.ChatResponse, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, f.failErr
	}
	return f.response, nil
}
func (f *flakyProvider) Stream(ctx context.Context, req *llmpkg.ChatRequest) (<-chan llmpkg.StreamChunk, error) {
	return nil, nil
}
func (f *flakyProvider) HealthCheck(ctx context.Context) (*llmpkg.HealthStatus, error) {
	return &llmpkg.HealthStatus{Healthy: true}, nil
}
func (f *flakyProvider) Name() string                       { return f.name }
func (f *flakyProvider) SupportsNativeFunctionCalling() bool { return false }
func (f *flakyProvider) ListModels(ctx context.Context) ([]llmpkg.Model, error) {
	return nil, nil
}

func TestDispatcher_Send_RetriesNetworkErrorThenSucceeds(t *testing.T) {
	p := &flakyProvider{
		name:      "reasoner",
		failErr:   &types.Error{Code: types.ErrUpstreamError, Message: "upstream blip", HTTPStatus: 503},
		failUntil: 2,
		response: &llmpkg.ChatResponse{
			ID:    "resp-1",
			Model: "reasoner-v1",
			Choices: []llmpkg.ChatChoice{
				{Message: llmpkg.Message{Role: llmpkg.RoleAssistant, Content: "recovered"}},
			},
		},
	}
	pool := credential.NewPool("test", []string{"key-a"}, credential.DefaultConfig())
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), zap.NewNop())
	d := NewDispatcher(p.name, p, pool, breaker, WithLogger(zap.NewNop()), WithRetry(&retry.RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}))

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.NoError(t, result.Err)
	assert.Equal(t, "recovered", result.Content)
	assert.Equal(t, 3, p.calls)
}

func TestDispatcher_Send_DoesNotRetryAuthError(t *testing.T) {
	p := &flakyProvider{
		name:      "reasoner",
		failErr:   &types.Error{Code: types.ErrUnauthorized, Message: "bad key", HTTPStatus: 401},
		failUntil: 100,
	}
	pool := credential.NewPool("test", []string{"key-a"}, credential.DefaultConfig())
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), zap.NewNop())
	d := NewDispatcher(p.name, p, pool, breaker, WithRetry(&retry.RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}))

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.Error(t, result.Err)
	assert.Equal(t, 1, p.calls, "auth errors must not trigger the outer retry")
}

func newTestDispatcher(t *testing.T, p *fakeProvider) (*Dispatcher, *credential.Pool) {
	t.Helper()
	pool := credential.NewPool("test", []string{"key-a"}, credential.DefaultConfig())
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), zap.NewNop())
	d := NewDispatcher(p.name, p, pool, breaker, WithLogger(zap.NewNop()))
	return d, pool
}

func TestDispatcher_Send_SuccessPath(t *testing.T) {
	p := &fakeProvider{
		name: "reasoner",
		response: &llmpkg.ChatResponse{
			ID:    "resp-1",
			Model: "reasoner-v1",
			Choices: []llmpkg.ChatChoice{
				{Message: llmpkg.Message{Role: llmpkg.RoleAssistant, Content: "the answer"}},
			},
			Usage: llmpkg.ChatUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
		},
	}
	d, pool := newTestDispatcher(t, p)

	result := d.Send(context.Background(), &llmpkg.ChatRequest{Messages: []llmpkg.Message{{Role: llmpkg.RoleUser, Content: "hi"}}})

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, "the answer", result.Content)
	assert.Equal(t, 30, result.Usage.TotalTokens)
	assert.Greater(t, result.Cost, 0.0)

	snap := pool.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, credential.HealthHealthy, snap[0].Health)

	outcome := d.Snapshot()
	assert.EqualValues(t, 1, outcome.Requests)
	assert.EqualValues(t, 1, outcome.Successes)
}

func TestDispatcher_Send_NoCredentialAvailable(t *testing.T) {
	p := &fakeProvider{name: "reasoner"}
	pool := credential.NewPool("test", nil, credential.DefaultConfig())
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), zap.NewNop())
	d := NewDispatcher(p.name, p, pool, breaker)

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.Error(t, result.Err)
	var llmErr *types.Error
	require.ErrorAs(t, result.Err, &llmErr)
	assert.Equal(t, types.ErrNoUsableCredential, llmErr.Code)

	outcome := d.Snapshot()
	assert.EqualValues(t, 1, outcome.NoCredential)
}

func TestDispatcher_Send_RateLimitErrorTriggersCooldown(t *testing.T) {
	p := &fakeProvider{
		name: "reasoner",
		err: &types.Error{
			Code:       types.ErrRateLimited,
			Message:    "rate limited",
			HTTPStatus: 429,
			Retryable:  true,
		},
	}
	d, pool := newTestDispatcher(t, p)

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.Error(t, result.Err)

	snap := pool.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].CooldownLevel)
	assert.False(t, snap[0].CooldownUntil.IsZero())
}

func TestDispatcher_Send_AuthErrorDisablesCredential(t *testing.T) {
	p := &fakeProvider{
		name: "reasoner",
		err: &types.Error{
			Code:       types.ErrUnauthorized,
			Message:    "bad key",
			HTTPStatus: 401,
		},
	}
	d, pool := newTestDispatcher(t, p)

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.Error(t, result.Err)

	snap := pool.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, credential.HealthDisabled, snap[0].Health)
}

func TestDispatcher_Send_FallsBackToExtractionWhenChoicesEmpty(t *testing.T) {
	p := &fakeProvider{
		name: "technical",
		response: &llmpkg.ChatResponse{
			ID:    "resp-2",
			Model: "technical-v1",
		},
	}
	d, _ := newTestDispatcher(t, p)

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.NoError(t, result.Err)
	assert.Contains(t, result.Content, "[EXTRACTION_FAILED]")

	outcome := d.Snapshot()
	assert.EqualValues(t, 1, outcome.ExtractionMisses)
}

func TestDispatcher_Send_ResponseCacheHitSkipsProviderCall(t *testing.T) {
	p := &fakeProvider{
		name: "reasoner",
		response: &llmpkg.ChatResponse{
			ID:    "resp-1",
			Model: "reasoner-v1",
			Choices: []llmpkg.ChatChoice{
				{Message: llmpkg.Message{Role: llmpkg.RoleAssistant, Content: "cached answer"}},
			},
			Usage: llmpkg.ChatUsage{PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
		},
	}
	pool := credential.NewPool("test", []string{"key-a"}, credential.DefaultConfig())
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig(), zap.NewNop())
	responseCache := sanitizer.NewResponseCache(16, time.Minute)
	d := NewDispatcher(p.name, p, pool, breaker, WithResponseCache(responseCache))

	req := &llmpkg.ChatRequest{Messages: []llmpkg.Message{{Role: llmpkg.RoleUser, Content: "hi"}}}

	first := d.Send(context.Background(), req)
	require.NoError(t, first.Err)
	assert.Equal(t, 1, p.calls)

	second := d.Send(context.Background(), req)
	require.NoError(t, second.Err)
	assert.Equal(t, "cached answer", second.Content)
	assert.Equal(t, 1, p.calls, "second call must be served from the response cache, not the provider")

	outcome := d.Snapshot()
	assert.EqualValues(t, 1, outcome.CacheHits)
}

func TestDispatcher_Send_CircuitOpenSkipsCredentialAcquisition(t *testing.T) {
	p := &fakeProvider{name: "reasoner"}
	pool := credential.NewPool("test", []string{"key-a"}, credential.DefaultConfig())
	cfg := circuitbreaker.DefaultConfig()
	cfg.Threshold = 1
	breaker := circuitbreaker.NewCircuitBreaker(cfg, zap.NewNop())
	d := NewDispatcher(p.name, p, pool, breaker)

	p.err = &types.Error{Code: types.ErrUpstreamError, Message: "boom", HTTPStatus: 500}
	d.Send(context.Background(), &llmpkg.ChatRequest{})

	require.Eventually(t, func() bool {
		return breaker.State() == circuitbreaker.StateOpen
	}, time.Second, 10*time.Millisecond)

	before := pool.Snapshot()[0].RequestCount

	result := d.Send(context.Background(), &llmpkg.ChatRequest{})
	require.Error(t, result.Err)

	after := pool.Snapshot()[0].RequestCount
	assert.Equal(t, before, after, "circuit-open rejection must not consume a credential's request slot")

	outcome := d.Snapshot()
	assert.EqualValues(t, 1, outcome.CircuitRejections)
}
