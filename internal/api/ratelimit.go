package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-IP request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration // limiters idle for twice this are forgotten
}

// DefaultRateLimitConfig suits a local game server.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	CleanupInterval:   5 * time.Minute,
}

type visitor struct {
	*rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	config RateLimitConfig

	mu       sync.Mutex
	visitors map[string]*visitor
	allowed  uint64
	rejected uint64

	done     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter and starts its sweeper.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	rl := &IPRateLimiter{
		config:   cfg,
		visitors: make(map[string]*visitor),
		done:     make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweeper.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *IPRateLimiter) sweep() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

// cleanup forgets visitors idle for two intervals as of now.
func (rl *IPRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-2 * rl.config.CleanupInterval)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// Allow spends one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{Limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	if v.Allow() {
		rl.allowed++
		return true
	}
	rl.rejected++
	return false
}

// Middleware answers 429 once a client runs out of tokens.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(GetClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		RecordConnectionRejected("rate_limit")
		w.Header().Set("Retry-After", "1")
		writeError(w, "Too Many Requests", http.StatusTooManyRequests)
	})
}

// GetStats returns the allowed and rejected request counts.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return map[string]uint64{"allowed": rl.allowed, "rejected": rl.rejected}
}

// GetClientIP picks the first forwarded address when present, falling back
// to the socket peer. Forwarded headers are trusted as-is.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ConnLimiter caps concurrent WebSocket connections per IP.
type ConnLimiter struct {
	max int

	mu    sync.Mutex
	conns map[string]int
}

// NewConnLimiter allows up to maxPerIP open connections per address.
func NewConnLimiter(maxPerIP int) *ConnLimiter {
	return &ConnLimiter{max: maxPerIP, conns: make(map[string]int)}
}

// Acquire reserves a slot for ip, reporting false when it has none left.
func (c *ConnLimiter) Acquire(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns[ip] >= c.max {
		return false
	}
	c.conns[ip]++
	return true
}

// Release frees a slot taken by Acquire.
func (c *ConnLimiter) Release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch n := c.conns[ip]; {
	case n <= 1:
		delete(c.conns, ip)
	default:
		c.conns[ip] = n - 1
	}
}

// Count returns the open connections held by ip.
func (c *ConnLimiter) Count(ip string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns[ip]
}

// DefaultCORSOrigins allows local development pages only.
var DefaultCORSOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// IsAllowedOrigin accepts localhost origins on any port. An empty origin is refused.
func IsAllowedOrigin(origin string) bool {
	for _, host := range []string{"http://localhost", "http://127.0.0.1"} {
		if origin == host || strings.HasPrefix(origin, host+":") {
			return true
		}
	}
	return false
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
