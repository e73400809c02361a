package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	accountKey ctxKey = "account"
	traceKey   ctxKey = "trace"
)

// trace is filled in by inner middleware so the request logger can report
// who made the request.
type trace struct {
	accountID string
}

func withAccount(ctx context.Context, a *models.Account) context.Context {
	if t, ok := ctx.Value(traceKey).(*trace); ok {
		t.accountID = a.ID
	}
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromContext returns the account attached by the guard.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	a, ok := ctx.Value(accountKey).(*models.Account)
	return a, ok
}

// guard rejects requests without a valid access token for a live account.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			s.writeError(w, r, common.Unauthorized(services.MsgNoToken))
			return
		}

		account, _, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withAccount(r.Context(), account)))
	})
}

// optionalGuard attaches the account when a valid token is present and
// otherwise continues anonymously.
func (s *Server) optionalGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r.Header.Get("Authorization")); token != "" {
			if account, _, err := s.auth.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(withAccount(r.Context(), account))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireRoles must run after guard.
func (s *Server) requireRoles(allowed models.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok {
				s.writeError(w, r, common.Unauthorized(services.MsgNoToken))
				return
			}
			if !auth.Authorize(account.Role, allowed) {
				s.writeError(w, r, common.Forbidden(services.MsgPermissionDenied))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		if reqID != "" {
			w.Header().Set(middleware.RequestIDHeader, reqID)
		}

		t := &trace{}
		log := s.log.With("request_id", reqID)
		ctx := context.WithValue(r.Context(), traceKey, t)
		ctx = logging.IntoContext(ctx, log)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"ip", r.RemoteAddr,
		}
		if t.accountID != "" {
			args = append(args, "account_id", t.accountID)
		}

		switch {
		case ww.Status() >= http.StatusInternalServerError:
			log.Error(ctx, "request", args...)
		case ww.Status() >= http.StatusBadRequest:
			log.Warn(ctx, "request", args...)
		default:
			log.Info(ctx, "request", args...)
		}
	})
}

// cors allows the configured browser origin to call the API with credentials.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || s.opts.CORSOrigin == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		if origin == s.opts.CORSOrigin || s.opts.CORSOrigin == "*" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", "RateLimit-Limit, RateLimit-Remaining, RateLimit-Reset, X-Request-Id")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
