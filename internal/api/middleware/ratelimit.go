package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"golang.org/x/time/rate"
)

// CodeTooManyRequests is sent when a client exceeds its request budget.
const CodeTooManyRequests = "TOO_MANY_REQUESTS"

// RateLimiter allows each client IP a fixed number of requests per minute.
// Limiters for idle clients expire after a few minutes.
type RateLimiter struct {
	perMinute int
	limiters  *gocache.Cache
	mu        sync.Mutex
	now       func() time.Time
}

// NewRateLimiter returns a limiter admitting perMinute requests per client
// per minute, the full budget available as a burst. Values below 1 become 1.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		perMinute: perMinute,
		limiters:  gocache.New(5*time.Minute, 10*time.Minute),
		now:       time.Now,
	}
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.limiters.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.limiters.SetDefault(key, lim)
		return lim
	}
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	l.limiters.SetDefault(key, lim)
	return lim
}

// retryAfter is the number of whole seconds until one more request is
// admitted.
func (l *RateLimiter) retryAfter() int {
	return int(math.Ceil(60 / float64(l.perMinute)))
}

// Limit rejects requests over budget with 429 and a Retry-After header.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiterFor(clientIP(r)).AllowN(l.now(), 1) {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			shared.RespondWithError(w, r, http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the host part of RemoteAddr. chi's RealIP middleware has
// already rewritten it from forwarding headers when it runs first.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
