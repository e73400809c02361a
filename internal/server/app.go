// Package server wires the userhub server together: configuration, logging,
// the account store, services, and the HTTP and gRPC listeners, and runs
// them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/userhub/internal/logging"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/dmitrijs2005/userhub/internal/server/config"
	"github.com/dmitrijs2005/userhub/internal/server/metrics"
	"github.com/dmitrijs2005/userhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/userhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userhub/internal/server/rest"
	"github.com/dmitrijs2005/userhub/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/userhub/internal/server/grpc"
)

const startupTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       logging.Logger
	manager      repomanager.RepositoryManager
	redis        *redis.Client
	metrics      *metrics.Metrics
	authService  *services.AuthService
	usersService *services.UsersService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	um, err := repomanager.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := um.RunMigrations(ctx); err != nil {
		_ = um.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	logger.Info(ctx, "Account store ready", "kind", um.Kind())

	hasher, err := auth.NewPasswordHasher(c.BcryptCost)
	if err != nil {
		_ = um.Close()
		return nil, fmt.Errorf("password hasher init error: %w", err)
	}
	issuer := auth.NewTokenIssuer(auth.IssuerConfig{
		AccessSecret:  []byte(c.AccessTokenSecret),
		RefreshSecret: []byte(c.RefreshTokenSecret),
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})

	var avatars services.AvatarStore
	if c.S3BaseEndpoint != "" {
		store, err := services.NewS3AvatarStore(ctx, services.S3Config{
			AccessKey: c.S3RootUser,
			SecretKey: c.S3RootPassword,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3BaseEndpoint,
			PublicURL: c.S3PublicURL,
		})
		if err != nil {
			_ = um.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		avatars = store
	}

	app := &App{
		config:       c,
		logger:       logger,
		manager:      um,
		metrics:      metrics.New(),
		authService:  services.NewAuthService(um.Accounts(), issuer, hasher, logger.With("module", "auth")),
		usersService: services.NewUsersService(um.Accounts(), avatars, logger.With("module", "users")),
	}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
		if err := app.redis.Ping(ctx).Err(); err != nil {
			// limits fail open, so an unreachable Redis is not fatal
			logger.Warn(ctx, "Redis unavailable, rate limits disabled until it recovers", "error", err)
		}
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) limits() *ratelimit.Middleware {
	if app.redis == nil {
		return nil
	}
	return ratelimit.NewMiddleware(ratelimit.NewLimiter(app.redis, "userhub:rl"), app.logger, app.metrics.RateLimited)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	c := app.config
	s := rest.NewServer(rest.Options{
		Addr:        c.HTTPAddr,
		Environment: c.Environment,
		Development: c.IsDevelopment(),
		CORSOrigin:  c.CORSOrigin,
		APILimit: ratelimit.Rule{
			Name: "api", Max: c.RateLimitMax, Window: c.RateLimitWindow,
			Message: "Too many requests from this IP, please try again later",
		},
		LoginLimit: ratelimit.Rule{
			Name: "login", Max: c.LoginLimitMax, Window: c.LoginLimitWindow, FailuresOnly: true,
			Message: "Too many login attempts, please try again after 15 minutes",
		},
		RegisterLimit: ratelimit.Rule{
			Name: "register", Max: c.RegisterLimitMax, Window: c.RegisterLimitWindow,
			Message: "Too many accounts created from this IP, please try again after an hour",
		},
	}, rest.Deps{
		Auth:    app.authService,
		Users:   app.usersService,
		Store:   app.manager,
		Limits:  app.limits(),
		Metrics: app.metrics,
		Logger:  app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.authService, app.usersService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close(context.WithoutCancel(ctx))
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close", "error", err)
		}
	}
	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "store close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
