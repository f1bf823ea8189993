package rpc

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/observability"
)

const requestIDHeader = "X-Request-ID"

type (
	requestIDKey struct{}
	loggerKey    struct{}
)

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// requestContext tags each request with an id (the client's, when it sent
// a well-formed one) and a logger carrying it.
func requestContext(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			ctx = context.WithValue(ctx, loggerKey{}, logger.With(slog.String("request_id", id)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// observe records request metrics per route pattern and logs the outcome.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)
		observability.ModuleMetrics().Observe("rpc", route, recorder.status, elapsed)
		loggerFrom(r.Context()).Debug("request served",
			slog.String("route", route),
			slog.String("method", r.Method),
			slog.Int("status", recorder.status),
			slog.Duration("duration", elapsed))
	})
}

type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter throttles requests per client address with a token
// bucket. Idle entries are swept on access.
type ClientRateLimiter struct {
	limit    RateLimit
	mu       sync.Mutex
	visitors map[string]*rateEntry
	idle     time.Duration
	clockNow func() time.Time
}

func NewClientRateLimiter(limit RateLimit) *ClientRateLimiter {
	return &ClientRateLimiter{
		limit:    limit,
		visitors: make(map[string]*rateEntry),
		idle:     5 * time.Minute,
		clockNow: time.Now,
	}
}

func (c *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil || c.limit.RequestsPerMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !c.allow(clientID(r)) {
			observability.ModuleMetrics().RecordThrottle("rpc", "rate_limit")
			writeJSON(w, http.StatusTooManyRequests, ErrorBody{Error: http.StatusText(http.StatusTooManyRequests), RequestID: requestIDFrom(r.Context())})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *ClientRateLimiter) allow(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clockNow()
	for key, entry := range c.visitors {
		if now.Sub(entry.lastSeen) > c.idle {
			delete(c.visitors, key)
		}
	}
	entry, ok := c.visitors[id]
	if !ok {
		burst := c.limit.Burst
		if burst <= 0 {
			burst = 1
		}
		entry = &rateEntry{limiter: rate.NewLimiter(rate.Limit(c.limit.RequestsPerMinute/60.0), burst)}
		c.visitors[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func clientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if parsed := net.ParseIP(first); parsed != nil {
			return parsed.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
