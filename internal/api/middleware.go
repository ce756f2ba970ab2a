package api

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"gatenav/internal/graph"
	"gatenav/internal/logger"
)

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	rps   float64
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const clientIdleTTL = 5 * time.Minute

// newRateLimiter returns a limiter allowing rps requests per second per client.
// rps <= 0 disables limiting.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		rps:     rps,
		burst:   burst,
		clients: make(map[string]*clientLimiter),
	}
}

func (rl *rateLimiter) get(ip string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		// Idle clients are dropped whenever a new one shows up.
		for k, v := range rl.clients {
			if now.Sub(v.lastSeen) > clientIdleTTL {
				delete(rl.clients, k)
			}
		}
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.rps <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !rl.get(ip, time.Now()).Allow() {
			logger.Warn("API", fmt.Sprintf("Rate limit exceeded for %s %s %s", ip, r.Method, r.URL.Path))
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr ("192.168.1.1:12345" -> "192.168.1.1").
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// recoverMiddleware turns a panic into a 500. A malformed snapshot is reported as such.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if mg, ok := rec.(*graph.MalformedGraphError); ok {
				logger.Error("API", fmt.Sprintf("%s %s: malformed atlas: %v", r.Method, r.URL.Path, mg))
				writeError(w, 500, "malformed atlas: "+mg.Error())
				return
			}
			logger.Error("API", fmt.Sprintf("%s %s: panic: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack()))
			writeError(w, 500, "internal error")
		}()
		next.ServeHTTP(w, r)
	})
}
