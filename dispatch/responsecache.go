package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/quantforge/llmcore/internal/cache"
	"github.com/quantforge/llmcore/llm"
)

// ResponseCache is the whole-completion cache a Dispatcher consults before
// calling the provider. sanitizer.ResponseCache (in-process LRU) and
// redisResponseCache (shared, Redis-backed) both satisfy it.
type ResponseCache interface {
	Get(key string) (any, bool)
	Put(key string, response any)
}

// promptFingerprint reduces a rewritten request to the text a cache key is
// derived from: model plus every message's role and content, in order.
func promptFingerprint(req *llm.ChatRequest) string {
	var b strings.Builder
	b.WriteString(req.Model)
	for _, m := range req.Messages {
		b.WriteByte('\x00')
		b.WriteString(string(m.Role))
		b.WriteByte('\x00')
		b.WriteString(m.Content)
	}
	return b.String()
}

// redisResponseCache backs ResponseCache with internal/cache.Manager so
// cached completions survive a process restart and are shared across
// replicas, at the cost of a network round trip per lookup.
type redisResponseCache struct {
	manager *cache.Manager
	ttl     time.Duration
}

// NewRedisResponseCache wraps a Redis cache manager as a dispatcher
// ResponseCache.
func NewRedisResponseCache(manager *cache.Manager, ttl time.Duration) ResponseCache {
	return &redisResponseCache{manager: manager, ttl: ttl}
}

type cachedResult struct {
	Result Result
}

func (r *redisResponseCache) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var cached cachedResult
	if err := r.manager.GetJSON(ctx, redisCacheKey(key), &cached); err != nil {
		return nil, false
	}
	return cached.Result, true
}

func (r *redisResponseCache) Put(key string, response any) {
	result, ok := response.(Result)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.manager.SetJSON(ctx, redisCacheKey(key), cachedResult{Result: result}, r.ttl)
}

func redisCacheKey(key string) string {
	return "llmcore:response:" + key
}
