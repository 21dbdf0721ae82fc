// Package ratelimit throttles outbound calls to the embedding, rerank, and
// LLM providers so a burst of ask/upload requests can't overrun a
// provider's own quota. Grounded on
// _examples/Kaikei-e-Alt/auth-hub/middleware/rate_limit.go's
// ipLimiter/RateLimiter shape, re-keyed from client IP to provider name
// (spec §11.2 names "rate-limiter rate/burst per provider" as a config
// dimension, not a per-client one).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProviderConfig is one provider's rate/burst setting.
type ProviderConfig struct {
	Rate  rate.Limit
	Burst int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter enforces an independent token bucket per provider name
// ("embedder", "llm", "reranker").
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	configs  map[string]ProviderConfig
	fallback ProviderConfig
}

// New builds a Limiter from a per-provider config map. Providers not
// listed in configs fall back to fallback's rate/burst.
func New(configs map[string]ProviderConfig, fallback ProviderConfig) *Limiter {
	return &Limiter{
		limiters: make(map[string]*entry),
		configs:  configs,
		fallback: fallback,
	}
}

// Wait blocks until provider's bucket has a token available or ctx is
// cancelled, whichever comes first.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	return l.limiterFor(provider).Wait(ctx)
}

// Allow reports whether provider's bucket currently has a token available,
// consuming one if so, without blocking.
func (l *Limiter) Allow(provider string) bool {
	return l.limiterFor(provider).Allow()
}

func (l *Limiter) limiterFor(provider string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.limiters[provider]; ok {
		e.lastSeen = time.Now()
		return e.limiter
	}

	cfg, ok := l.configs[provider]
	if !ok {
		cfg = l.fallback
	}
	rl := rate.NewLimiter(cfg.Rate, cfg.Burst)
	l.limiters[provider] = &entry{limiter: rl, lastSeen: time.Now()}
	return rl
}

// Sweep removes buckets idle longer than maxAge. Callers run it on a
// ticker; unlike the teacher's self-ticking cleanupLoop this is exposed
// as a plain method so tests can invoke it deterministically instead of
// waiting on a background goroutine.
func (l *Limiter) Sweep(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for name, e := range l.limiters {
		if now.Sub(e.lastSeen) > maxAge {
			delete(l.limiters, name)
		}
	}
}
