// Package rest is the JSON HTTP API: chi routing, the session guard and role
// gates, and handlers over the auth and users services.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/metrics"
	"github.com/dmitrijs2005/userhub/internal/server/models"
	"github.com/dmitrijs2005/userhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const shutdownTimeout = 10 * time.Second

// Pinger reports whether the account store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	Kind() string
}

// Options configures the HTTP surface.
type Options struct {
	Addr        string
	Environment string
	Development bool
	CORSOrigin  string

	APILimit      ratelimit.Rule
	LoginLimit    ratelimit.Rule
	RegisterLimit ratelimit.Rule
}

// Deps are the collaborators the handlers call into. Limits and Metrics may
// be nil.
type Deps struct {
	Auth    *services.AuthService
	Users   *services.UsersService
	Store   Pinger
	Limits  *ratelimit.Middleware
	Metrics *metrics.Metrics
	Logger  logging.Logger
}

type Server struct {
	opts     Options
	auth     *services.AuthService
	users    *services.UsersService
	store    Pinger
	limits   *ratelimit.Middleware
	metrics  *metrics.Metrics
	log      logging.Logger
	validate *validator.Validate
	started  time.Time
}

func NewServer(opts Options, deps Deps) *Server {
	return &Server{
		opts:     opts,
		auth:     deps.Auth,
		users:    deps.Users,
		store:    deps.Store,
		limits:   deps.Limits,
		metrics:  deps.Metrics,
		log:      deps.Logger.With("module", "http_server"),
		validate: newValidator(),
		started:  time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Status: statusFail, Message: "Route " + r.URL.Path + " not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Status: statusFail, Message: "Method " + r.Method + " not allowed"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", s.handleHealth)
			r.Get("/live", s.handleLive)
			r.Get("/ready", s.handleReady)
			r.With(s.optionalGuard).Get("/detailed", s.handleHealthDetailed)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.limits.Limit(s.opts.APILimit))

			r.Route("/auth", func(r chi.Router) {
				r.With(s.limits.Limit(s.opts.RegisterLimit)).Post("/register", s.handleRegister)
				r.With(s.limits.Limit(s.opts.LoginLimit)).Post("/login", s.handleLogin)
				r.Post("/refresh-token", s.handleRefresh)

				r.Group(func(r chi.Router) {
					r.Use(s.guard)
					r.Get("/me", s.handleMe)
					r.Post("/logout", s.handleLogout)
					r.Patch("/update-password", s.handleUpdatePassword)
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(s.guard)
				r.Patch("/profile", s.handleUpdateProfile)
				r.Post("/profile/avatar", s.handleAvatarUpload)

				r.Group(func(r chi.Router) {
					r.Use(s.requireRoles(models.AdminOnly))
					r.Get("/", s.handleListUsers)
					r.Get("/{id}", s.handleGetUser)
					r.Patch("/{id}", s.handleUpdateUser)
					r.Delete("/{id}", s.handleDeleteUser)
					r.Patch("/{id}/deactivate", s.handleDeactivateUser)
					r.Patch("/{id}/activate", s.handleActivateUser)
				})
			})
		})
	})

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if sl, ok := s.log.(*logging.SlogLogger); ok {
		srv.ErrorLog = sl.StdLogger(slog.LevelWarn)
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", s.opts.Addr, "environment", s.opts.Environment)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) authEvent(event string, err error) {
	if s.metrics != nil {
		s.metrics.AuthEvent(event, err == nil)
	}
}
