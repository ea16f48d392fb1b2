package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit limita por IP (rutas públicas sin auth).
// rps <= 0 desactiva el límite.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}

	l := &ipLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		byIP:    make(map[string]*visitor),
		idleTTL: 10 * time.Minute,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	byIP    map[string]*visitor
	idleTTL time.Duration
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.byIP[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.byIP[ip] = v
	}
	v.lastSeen = now

	// limpieza perezosa
	if len(l.byIP) > 1024 {
		for k, vv := range l.byIP {
			if now.Sub(vv.lastSeen) > l.idleTTL {
				delete(l.byIP, k)
			}
		}
	}
	return v.limiter
}

// clientIP usa RemoteAddr (chimw.RealIP ya lo reescribe con X-Forwarded-For).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
