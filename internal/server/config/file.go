package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/userhub/internal/flagx"
	"github.com/dmitrijs2005/userhub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Durations accept
// either "15m" style strings or integer nanoseconds. Zero values leave the
// current setting untouched.
type FileConfig struct {
	HTTPAddr            string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr            string         `json:"grpc_addr" yaml:"grpc_addr"`
	Environment         string         `json:"environment" yaml:"environment"`
	DatabaseDSN         string         `json:"database_dsn" yaml:"database_dsn"`
	AccessTokenSecret   string         `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret  string         `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	AccessTokenTTL      timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL     timex.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	BcryptCost          int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	LogFormat           string         `json:"log_format" yaml:"log_format"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	CORSOrigin          string         `json:"cors_origin" yaml:"cors_origin"`
	RedisAddr           string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword       string         `json:"redis_password" yaml:"redis_password"`
	RedisDB             int            `json:"redis_db" yaml:"redis_db"`
	RateLimitWindow     timex.Duration `json:"rate_limit_window" yaml:"rate_limit_window"`
	RateLimitMax        int            `json:"rate_limit_max" yaml:"rate_limit_max"`
	LoginLimitWindow    timex.Duration `json:"login_limit_window" yaml:"login_limit_window"`
	LoginLimitMax       int            `json:"login_limit_max" yaml:"login_limit_max"`
	RegisterLimitWindow timex.Duration `json:"register_limit_window" yaml:"register_limit_window"`
	RegisterLimitMax    int            `json:"register_limit_max" yaml:"register_limit_max"`
	S3RootUser          string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region            string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PublicURL         string         `json:"s3_public_url" yaml:"s3_public_url"`
}

// parseFile overlays values from the file named by -c/-config, or by the
// USERHUB_CONFIG environment variable. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON. Unreadable or malformed files
// panic.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag("USERHUB_CONFIG")
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.Environment, c.Environment)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setDuration(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)
	setInt(&config.RateLimitMax, c.RateLimitMax)
	setDuration(&config.LoginLimitWindow, c.LoginLimitWindow)
	setInt(&config.LoginLimitMax, c.LoginLimitMax)
	setDuration(&config.RegisterLimitWindow, c.RegisterLimitWindow)
	setInt(&config.RegisterLimitMax, c.RegisterLimitMax)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
