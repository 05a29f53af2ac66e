package dispatch

import (
	"context"
	"errors"
	"net"

	"github.com/quantforge/llmcore/llm/circuitbreaker"
	"github.com/quantforge/llmcore/types"
)

// errRetryableCall marks a call error as belonging to the NetworkError or
// ProviderServerError families the outer retry layer is allowed to retry.
// Errors that don't get wrapped in it (auth, quota, client errors, circuit
// rejections) pass straight back up to the caller on the first attempt.
var errRetryableCall = errors.New("dispatch: retryable call error")

// callWithRetry runs fn (a breaker.Call invocation) directly when no
// retryer is configured, or wraps it with backoff retry for the error
// classes isRetryableCallError allows. Composed around the breaker: each
// retry attempt still goes through fn, so a breaker trip mid-sequence
// still short-circuits the remaining attempts.
func (d *Dispatcher) callWithRetry(ctx context.Context, fn func() error) error {
	if d.retryer == nil {
		return fn()
	}

	return d.retryer.Do(ctx, func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryableCallError(err) {
			return err
		}
		return errors.Join(errRetryableCall, err)
	})
}

// isRetryableCallError decides whether a failed provider call belongs to
// the NetworkError/ProviderServerError families the outer retry covers.
// Circuit breaker rejections are never retried here: the breaker already
// encodes "don't bother calling again right now". Rate limiting is left
// to the credential pool's cooldown rather than this layer.
func isRetryableCallError(err error) bool {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyCallsInHalfOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var llmErr *types.Error
	if !errors.As(err, &llmErr) {
		return false
	}
	return llmErr.HTTPStatus == 408 || llmErr.HTTPStatus >= 500
}
