package handlers

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyRateLimiter holds one token bucket per API key.
type KeyRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyRateLimiter allows perMinute requests per key, with bursts of the
// same size.
func NewKeyRateLimiter(perMinute int) *KeyRateLimiter {
	return &KeyRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow reports whether keyID may make a request now.
func (l *KeyRateLimiter) Allow(keyID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[keyID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[keyID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Middleware rejects requests whose key is over its limit. It must run
// after KeyAuth; requests without a key pass through.
func (l *KeyRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyID, ok := GetAPIKeyID(r.Context())
		if ok && !l.Allow(keyID) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
