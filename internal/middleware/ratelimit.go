package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientTTL is how long an idle client keeps its limiter before eviction.
const clientTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type throttle struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
}

func newThrottle(rps float64, burst int) *throttle {
	th := &throttle{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go th.evictIdle()
	return th
}

func (th *throttle) allow(key string) bool {
	th.mu.Lock()
	defer th.mu.Unlock()

	c, ok := th.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(th.rps, th.burst)}
		th.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

func (th *throttle) evictIdle() {
	ticker := time.NewTicker(clientTTL)
	defer ticker.Stop()

	for range ticker.C {
		th.mu.Lock()
		for key, c := range th.clients {
			if time.Since(c.lastSeen) > clientTTL {
				delete(th.clients, key)
			}
		}
		th.mu.Unlock()
	}
}

// clientKey identifies the caller for throttling. Behind a trusted
// reverse proxy the remote address is the proxy itself, so the first
// entry of X-Forwarded-For wins; direct callers could forge that
// header to rotate keys, so it is only honored when trustProxy is set.
func clientKey(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RateLimit returns middleware that throttles requests per client. It
// guards the unauthenticated auth endpoints against credential stuffing
// and reset-grant farming. rps is the allowed requests per second, burst
// the maximum burst size; trustProxy controls whether X-Forwarded-For
// identifies the client.
func RateLimit(rps float64, burst int, trustProxy bool) func(http.Handler) http.Handler {
	th := newThrottle(rps, burst)

	// seconds until the next token refill, rounded up
	retryAfter := strconv.Itoa(int(1/rps) + 1)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !th.allow(clientKey(r, trustProxy)) {
				w.Header().Set("Retry-After", retryAfter)
				writeJSONError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
