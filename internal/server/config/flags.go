package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/userhub/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":3001")
//	-g string     gRPC bind address (e.g., ":50051")
//	-e string     environment: development, production or test
//	-d string     PostgreSQL DSN (empty selects the in-memory store)
//	-s string     access token HMAC secret
//	-r string     refresh token HMAC secret
//	-t duration   access token lifetime (e.g., "15m")
//	-T duration   refresh token lifetime (e.g., "720h")
//	-l string     log format: json, text or zap
//	-redis string Redis address for rate limiting
//
// os.Args is filtered through flagx.FilterArgs first so that flags owned by
// other loaders (such as -c) do not cause parse errors.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-e", "-d", "-s", "-r", "-t", "-T", "-l", "-redis"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "r", config.RefreshTokenSecret, "refresh token secret")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&config.RefreshTokenTTL, "T", config.RefreshTokenTTL, "refresh token lifetime")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
