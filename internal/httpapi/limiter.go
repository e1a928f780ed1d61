package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	contactAuth "github.com/MrEthical07/contactAuth"
)

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPLimiter is a token bucket per client IP. Idle buckets are dropped by a
// background sweep until Stop is called.
type IPLimiter struct {
	rate  rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewIPLimiter(perSecond float64, burst int, idle time.Duration) *IPLimiter {
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	l := &IPLimiter{
		rate:     rate.Limit(perSecond),
		burst:    burst,
		idle:     idle,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *IPLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow reports whether ip may make another request now.
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	l.mu.Unlock()
	return entry.limiter.Allow()
}

func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *IPLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep(time.Now())
		case <-l.stopCh:
			return
		}
	}
}

func (l *IPLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > l.idle {
			delete(l.limiters, ip)
		}
	}
}

func (l *IPLimiter) middleware(s *server) func(http.Handler) http.Handler {
	retryAfter := 1
	if l.rate > 0 {
		retryAfter = max(1, int(math.Ceil(1/float64(l.rate))))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.Allow(ip) {
				s.logger.WarnContext(r.Context(), "request rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				s.writeError(w, r, contactAuth.ErrRequestRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
