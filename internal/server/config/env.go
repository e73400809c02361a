package config

import "github.com/dmitrijs2005/userhub/internal/flagx"

const envPrefix = "USERHUB_"

// parseEnv overlays USERHUB_* environment variables. Unset or unparsable
// variables keep the current value.
func parseEnv(config *Config) {
	env := func(name, cur string) string { return flagx.Getenv(envPrefix+name, cur) }

	config.HTTPAddr = env("HTTP_ADDR", config.HTTPAddr)
	config.GRPCAddr = env("GRPC_ADDR", config.GRPCAddr)
	config.Environment = env("ENV", config.Environment)
	config.DatabaseDSN = env("DATABASE_DSN", config.DatabaseDSN)
	config.AccessTokenSecret = env("ACCESS_TOKEN_SECRET", config.AccessTokenSecret)
	config.RefreshTokenSecret = env("REFRESH_TOKEN_SECRET", config.RefreshTokenSecret)
	config.AccessTokenTTL = flagx.GetenvDuration(envPrefix+"ACCESS_TOKEN_TTL", config.AccessTokenTTL)
	config.RefreshTokenTTL = flagx.GetenvDuration(envPrefix+"REFRESH_TOKEN_TTL", config.RefreshTokenTTL)
	config.BcryptCost = flagx.GetenvInt(envPrefix+"BCRYPT_COST", config.BcryptCost)
	config.LogFormat = env("LOG_FORMAT", config.LogFormat)
	config.LogLevel = env("LOG_LEVEL", config.LogLevel)
	config.CORSOrigin = env("CORS_ORIGIN", config.CORSOrigin)
	config.RedisAddr = env("REDIS_ADDR", config.RedisAddr)
	config.RedisPassword = env("REDIS_PASSWORD", config.RedisPassword)
	config.RedisDB = flagx.GetenvInt(envPrefix+"REDIS_DB", config.RedisDB)
	config.RateLimitWindow = flagx.GetenvDuration(envPrefix+"RATE_LIMIT_WINDOW", config.RateLimitWindow)
	config.RateLimitMax = flagx.GetenvInt(envPrefix+"RATE_LIMIT_MAX", config.RateLimitMax)
	config.LoginLimitWindow = flagx.GetenvDuration(envPrefix+"LOGIN_LIMIT_WINDOW", config.LoginLimitWindow)
	config.LoginLimitMax = flagx.GetenvInt(envPrefix+"LOGIN_LIMIT_MAX", config.LoginLimitMax)
	config.RegisterLimitWindow = flagx.GetenvDuration(envPrefix+"REGISTER_LIMIT_WINDOW", config.RegisterLimitWindow)
	config.RegisterLimitMax = flagx.GetenvInt(envPrefix+"REGISTER_LIMIT_MAX", config.RegisterLimitMax)
	config.S3RootUser = env("S3_ROOT_USER", config.S3RootUser)
	config.S3RootPassword = env("S3_ROOT_PASSWORD", config.S3RootPassword)
	config.S3Bucket = env("S3_BUCKET", config.S3Bucket)
	config.S3Region = env("S3_REGION", config.S3Region)
	config.S3BaseEndpoint = env("S3_BASE_ENDPOINT", config.S3BaseEndpoint)
	config.S3PublicURL = env("S3_PUBLIC_URL", config.S3PublicURL)
}
