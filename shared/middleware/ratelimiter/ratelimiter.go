// Package ratelimiter implements fixed-window request counters keyed by
// client IP or identity. State never outlives the window.
package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

type Scope string

const (
	ScopeIP       Scope = "ip"
	ScopeIdentity Scope = "identity"
)

type Config struct {
	Window time.Duration
	Max    int
	Scope  Scope
}

// Store counts hits per key inside a fixed window. Incr must be atomic per key.
type Store interface {
	// Incr adds one hit and returns the count in the current window together
	// with the time left until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
	// Peek returns the current count without adding a hit.
	Peek(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter struct {
	name  string
	cfg   Config
	store Store
}

func New(name string, cfg Config, store Store) *Limiter {
	return &Limiter{name: name, cfg: cfg, store: store}
}

func (l *Limiter) Name() string {
	return l.name
}

func (l *Limiter) Scope() Scope {
	return l.cfg.Scope
}

func (l *Limiter) Config() Config {
	return l.cfg
}

func (l *Limiter) key(identity string) string {
	return fmt.Sprintf("rl:%s:%s", l.name, identity)
}

// Allow records one request for identity and reports whether it fits in the window.
func (l *Limiter) Allow(ctx context.Context, identity string) (Decision, error) {
	count, resetIn, err := l.store.Incr(ctx, l.key(identity), l.cfg.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limiter %s: %w", l.name, err)
	}

	if count > int64(l.cfg.Max) {
		if resetIn <= 0 {
			resetIn = l.cfg.Window
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: resetIn}, nil
	}
	return Decision{Allowed: true, Remaining: l.cfg.Max - int(count)}, nil
}

func (l *Limiter) Reset(ctx context.Context, identity string) error {
	return l.store.Reset(ctx, l.key(identity))
}
