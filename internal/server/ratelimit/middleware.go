package ratelimit

import (
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Middleware enforces rules per client IP. A nil Middleware or one without a
// limiter passes every request through.
type Middleware struct {
	limiter   *Limiter
	log       logging.Logger
	onLimited func(rule string)
}

func NewMiddleware(limiter *Limiter, log logging.Logger, onLimited func(rule string)) *Middleware {
	return &Middleware{limiter: limiter, log: log, onLimited: onLimited}
}

// ClientIP returns the request's remote host. chi's RealIP middleware, if
// installed, has already rewritten RemoteAddr from proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit returns middleware applying rule to every request.
func (m *Middleware) Limit(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil || m.limiter == nil {
			return next
		}
		if rule.FailuresOnly {
			return m.failuresOnly(rule, next)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := m.limiter.Hit(r.Context(), rule, ClientIP(r))
			if m.handle(w, r, rule, res, err) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// failuresOnly rejects once the failure budget is spent, and only charges
// the budget when the downstream handler responds with an error status.
func (m *Middleware) failuresOnly(rule Rule, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		res, err := m.limiter.Peek(r.Context(), rule, ip)
		if !m.handle(w, r, rule, res, err) {
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if ww.Status() >= http.StatusBadRequest {
			if _, err := m.limiter.Hit(r.Context(), rule, ip); err != nil && !errors.Is(err, ErrRateLimited) {
				m.log.Warn(r.Context(), "rate limiter unavailable", "rule", rule.Name, "error", err)
			}
		}
	})
}

// handle writes headers and, when limited, the 429 response. It reports
// whether the request may proceed.
func (m *Middleware) handle(w http.ResponseWriter, r *http.Request, rule Rule, res Result, err error) bool {
	switch {
	case err == nil:
		writeHeaders(w, rule, res)
		return true
	case errors.Is(err, ErrRateLimited):
		writeHeaders(w, rule, res)
		w.Header().Set("Retry-After", strconv.Itoa(seconds(res)))
		if m.onLimited != nil {
			m.onLimited(rule.Name)
		}
		m.log.Warn(r.Context(), "rate limit exceeded", "rule", rule.Name, "ip", ClientIP(r))
		writeRejection(w, rule.Message)
		return false
	default:
		m.log.Warn(r.Context(), "rate limiter unavailable", "rule", rule.Name, "error", err)
		return true
	}
}

func seconds(res Result) int {
	return int(math.Ceil(res.Reset.Seconds()))
}

func writeHeaders(w http.ResponseWriter, rule Rule, res Result) {
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(rule.Max))
	h.Set("RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("RateLimit-Reset", strconv.Itoa(seconds(res)))
}

func writeRejection(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "Too many requests, please try again later"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "fail", "message": msg})
}
