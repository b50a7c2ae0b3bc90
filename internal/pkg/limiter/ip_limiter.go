/*
Package limiter rate-limits requests per client IP with token buckets.

Idle buckets are evicted by a background loop so the map does not grow without bound;
Stop ends that loop.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"socialfeed/internal/pkg/errs"
	"socialfeed/internal/pkg/logx"
	"socialfeed/internal/pkg/resp"
)

const cleanupInterval = 3 * time.Minute

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	r rate.Limit
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter allowing r events per second with burst b per IP,
// and starts its cleanup loop.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go i.cleanupLoop()

	return i
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists = i.limits[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = limiter
	}

	return limiter
}

// Allow consumes one token for ip.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (i *IPRateLimiter) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

func (i *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-i.stop:
			return
		case now := <-ticker.C:
			removed, remaining := i.evictFull(now)
			logx.Debug("Rate limiter cleanup finished", "removed", removed, "remaining", remaining)
		}
	}
}

// evictFull drops buckets that have refilled completely, i.e. clients idle long enough
// that forgetting them changes nothing.
func (i *IPRateLimiter) evictFull(now time.Time) (removed, remaining int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}

	return removed, len(i.limits)
}

// ClientIP returns the host part of r.RemoteAddr, which chi's RealIP middleware has
// already rewritten from proxy headers.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware answers ErrRateLimitExceeded once the client's bucket is empty.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Allow(ClientIP(r)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
