// Package config handles configuration for the server component: defaults,
// a JSON or YAML file overlay, environment variables and command-line flags,
// applied in that order.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const (
	defaultAccessSecret  = "access-secret-change-me"
	defaultRefreshSecret = "refresh-secret-change-me"
)

// Config holds runtime settings for the userhub server.
//
// An empty DatabaseDSN selects the in-memory account store, an empty
// RedisAddr disables rate limiting and an empty S3BaseEndpoint disables
// avatar uploads.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	Environment string
	DatabaseDSN string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	LogFormat  string
	LogLevel   string
	CORSOrigin string

	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	RateLimitWindow     time.Duration
	RateLimitMax        int
	LoginLimitWindow    time.Duration
	LoginLimitMax       int
	RegisterLimitWindow time.Duration
	RegisterLimitMax    int

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3PublicURL    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are insecure and are rejected by Validate in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3001"
	c.GRPCAddr = ":50051"
	c.Environment = EnvDevelopment
	c.DatabaseDSN = ""
	c.AccessTokenSecret = defaultAccessSecret
	c.RefreshTokenSecret = defaultRefreshSecret
	c.AccessTokenTTL = 7 * 24 * time.Hour
	c.RefreshTokenTTL = 30 * 24 * time.Hour
	c.BcryptCost = 12
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.CORSOrigin = "http://localhost:3000"
	c.RedisAddr = ""
	c.RedisDB = 0
	c.RateLimitWindow = 15 * time.Minute
	c.RateLimitMax = 100
	c.LoginLimitWindow = 15 * time.Minute
	c.LoginLimitMax = 5
	c.RegisterLimitWindow = time.Hour
	c.RegisterLimitMax = 5
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "avatars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3PublicURL = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally command-line
// flags. Malformed input panics, like flag parsing does.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks settings that would make the server insecure or unusable.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", c.Environment))
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("token secrets must not be empty"))
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Environment == EnvProduction &&
		(c.AccessTokenSecret == defaultAccessSecret || c.RefreshTokenSecret == defaultRefreshSecret) {
		errs = append(errs, errors.New("default token secrets are not allowed in production"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range 4..31", c.BcryptCost))
	}

	return errors.Join(errs...)
}
