package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// windowLimiter counts hits per key in fixed windows.
type windowLimiter struct {
	limit int
	per   time.Duration

	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
}

type window struct {
	hits  int
	until time.Time
}

func newWindowLimiter(limit int, per time.Duration) *windowLimiter {
	return &windowLimiter{limit: limit, per: per, windows: make(map[string]*window)}
}

// allow records a hit for key at now. When the window is full it reports
// how long until the next one opens.
func (l *windowLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.until) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.per)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.until) {
		w = &window{until: now.Add(l.per)}
		l.windows[key] = w
	}
	if w.hits >= l.limit {
		return false, w.until.Sub(now)
	}
	w.hits++
	return true, 0
}

func (l *windowLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// RateLimit allows limit requests per client IP in each window of length
// per. A limit of zero or less disables it.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		limiter := newWindowLimiter(limit, per)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.allow(clientIPForRateLimit(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
