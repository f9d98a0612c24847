// Package ratelimit provides per-client rate limiting for the availability
// check endpoint, which fans out into storage reads on every probe of a
// scheduling form.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Window is the sliding window length (default: 1m).
	Window time.Duration
	// MaxPerWindow is the number of requests allowed per client per window
	// (default: 60).
	MaxPerWindow int

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Window:       time.Minute,
		MaxPerWindow: 60,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// entry tracks request counts per client window.
type entry struct {
	count   int
	firstAt time.Time
	lastAt  time.Time
}

// Limiter implements a per-client sliding window request limiter.
type Limiter struct {
	config   *Config
	clock    Clock
	mu       sync.Mutex
	byClient map[string]*entry

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		byClient:      make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Check records a request from the client and reports whether it is allowed.
func (l *Limiter) Check(client string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.byClient[client]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		l.byClient[client] = &entry{count: 1, firstAt: now, lastAt: now}
		return LimitResult{Allowed: true}
	}
	if e.count >= l.config.MaxPerWindow {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Window - now.Sub(e.firstAt),
		}
	}
	e.count++
	e.lastAt = now
	return LimitResult{Allowed: true}
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.byClient {
		if now.Sub(e.lastAt) > l.config.Window {
			delete(l.byClient, k)
		}
	}
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientIP(r)
		result := l.Check(client)
		if !result.Allowed {
			log.Ctx(r.Context()).Warn().
				Str("event", "rate_limit_exceeded").
				Str("path", r.URL.Path).
				Str("ip", client).
				Msg("Availability check rate limit exceeded")
			w.Header().Set("Retry-After", result.RetryAfter.Round(time.Second).String())
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP from a request's RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not carry a port (proxied or malformed)
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}
