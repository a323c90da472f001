// Package ratelimit throttles dashboard API clients with per-key token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter hands out tokens per key (the client IP for HTTP use)
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	perMin   float64
	burst    float64
	idle     time.Duration
	now      func() time.Time
	stopOnce sync.Once
	stop     chan struct{}
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// Config sizes a Limiter
type Config struct {
	PerMinute int           // tokens refilled per minute
	Burst     int           // bucket capacity; defaults to PerMinute
	Idle      time.Duration // buckets unused this long are dropped; defaults to 10m
	Now       func() time.Time
}

// New creates a limiter and starts its sweeper. Call Stop when done.
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		perMin:  float64(cfg.PerMinute),
		burst:   float64(cfg.Burst),
		idle:    cfg.Idle,
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	go l.sweep(cfg.Idle / 2)
	return l
}

func (l *Limiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			l.Sweep()
		case <-l.stop:
			return
		}
	}
}

// Sweep drops buckets idle for longer than the configured period.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// refill must be called with mu held.
func (l *Limiter) refill(key string) *bucket {
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
		return b
	}
	b.tokens += now.Sub(b.seen).Minutes() * l.perMin
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.seen = now
	return b
}

// Allow takes one token for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.refill(key)
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Remaining reports whole tokens left for key.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.refill(key).tokens)
}

// Len reports how many keys are tracked
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Middleware rejects requests over the limit with 429. The key is the
// host part of r.RemoteAddr, so mount it after a real-IP middleware.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
		if !l.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) retryAfter() int {
	if l.perMin <= 0 {
		return 60
	}
	secs := int(60/l.perMin) + 1
	return secs
}
