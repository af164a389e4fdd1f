// Package ratelimit implements a process-local fixed-window request counter.
//
// Fixed-window counting is deliberately coarse: a client can spend a full
// quota at the end of one window and another immediately after the rollover,
// up to 2x the limit straddling the boundary. That is acceptable for slowing
// brute-force login attempts, which is the only consumer. State is held per
// process, so running N instances multiplies the effective quota by N.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

const defaultGCProbability = 0.01

type bucket struct {
	count   int
	resetAt time.Time
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per identifier within a fixed window. It is an
// explicit injectable container rather than package state so tests can run
// independent limiters against a controllable clock.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	window        time.Duration
	max           int
	now           func() time.Time
	gcProbability float64
	rng           *rand.Rand
}

type Option func(*Limiter)

// WithClock substitutes the wall clock, used by tests to advance time.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithGCProbability overrides the per-call chance of sweeping expired buckets.
func WithGCProbability(p float64) Option {
	return func(l *Limiter) { l.gcProbability = p }
}

func New(window time.Duration, max int, opts ...Option) *Limiter {
	l := &Limiter{
		buckets:       make(map[string]*bucket),
		window:        window,
		max:           max,
		now:           time.Now,
		gcProbability: defaultGCProbability,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an attempt for key and reports whether it is within quota.
// A denied attempt does not increment the counter, so hammering a blocked
// window never extends the block.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return Result{Allowed: true, Remaining: l.max - 1, ResetIn: l.window}
	}
	if b.count >= l.max {
		return Result{Allowed: false, Remaining: 0, ResetIn: b.resetAt.Sub(now)}
	}
	b.count++
	return Result{Allowed: true, Remaining: l.max - b.count, ResetIn: b.resetAt.Sub(now)}
}

// Reset drops the bucket for key, an administrative and testing override.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len reports the number of tracked buckets, live or expired.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// maybeSweep lazily deletes expired buckets with low probability per call.
// Amortized cleanup bounds memory under many-distinct-identifier traffic
// without a background timer. Callers hold l.mu.
//
// TODO: under sustained adversarial traffic from distinct identifiers this
// bounds memory only in expectation; replace with a periodic sweep if the
// login endpoint is ever exposed to a stronger threat model.
func (l *Limiter) maybeSweep(now time.Time) {
	if l.rng.Float64() >= l.gcProbability {
		return
	}
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}
