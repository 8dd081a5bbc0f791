package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"kemdeholo/internal/adapters/observability"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, `{"error":"timeout"}`)
	}
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush keeps streaming responses working through the wrapper.
func (w *srw) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		if !w.wrote {
			w.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		observability.ObserveHTTP(route, r.Method, sw.Status(), time.Since(start))
	})
}

// ---- Per-client submit limiter ----

const (
	limiterIdle       = 10 * time.Minute
	limiterMaxClients = 4096
)

type peerKey struct{}

// Peer records the connection's address before RealIP rewrites RemoteAddr
// from request headers. It must run first.
func Peer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// peerIP is the host of the TCP peer; forwarding headers are ignored.
func peerIP(r *http.Request) string {
	addr, ok := r.Context().Value(peerKey{}).(string)
	if !ok {
		addr = r.RemoteAddr
	}
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// visitors holds one token bucket per client, at most max of them.
type visitors struct {
	mu   sync.Mutex
	rps  int
	max  int
	byIP map[string]*visitor
}

func newVisitors(rps, max int) *visitors {
	return &visitors{rps: rps, max: max, byIP: map[string]*visitor{}}
}

func (vs *visitors) allow(ip string, now time.Time) bool {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v, ok := vs.byIP[ip]
	if !ok {
		if len(vs.byIP) >= vs.max {
			vs.evict(now)
		}
		v = &visitor{lim: rate.NewLimiter(rate.Limit(vs.rps), 2*vs.rps)}
		vs.byIP[ip] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

// evict drops idle clients, or the least recently seen one when none is idle.
func (vs *visitors) evict(now time.Time) {
	var oldest string
	var oldestSeen time.Time
	for k, v := range vs.byIP {
		if now.Sub(v.seen) > limiterIdle {
			delete(vs.byIP, k)
			continue
		}
		if oldest == "" || v.seen.Before(oldestSeen) {
			oldest, oldestSeen = k, v.seen
		}
	}
	if len(vs.byIP) >= vs.max {
		delete(vs.byIP, oldest)
	}
}

func (vs *visitors) size() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.byIP)
}

// SubmitLimiter allows each client rps form posts per second, with a burst of
// twice that. Clients are told apart by their connection address. Over the
// limit the client gets 429 and the usual {error} body.
func SubmitLimiter(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return submitLimiter(newVisitors(rps, limiterMaxClients))
}

func submitLimiter(vs *visitors) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !vs.allow(peerIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			l.Info().
				Str("route", route).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", remoteIP(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
