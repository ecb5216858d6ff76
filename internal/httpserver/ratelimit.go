package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// limiter keeps one token bucket per client IP.
type limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     int
	burst   int
}

func newLimiter(rps, burst int) *limiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &limiter{buckets: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

// get returns the bucket for key, creating it on first use.
func (l *limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.buckets[key]; ok {
		return lim
	}
	if key == "" {
		log.Warn().Msg("rate limiter key is empty")
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst)
	l.buckets[key] = lim
	return lim
}

// middleware rejects requests over the per-IP budget with 429.
func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(clientIP(r)).Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Muitas requisições. Tente novamente em instantes."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port chi's RealIP leaves on direct connections.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
