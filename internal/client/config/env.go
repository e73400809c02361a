package config

import "github.com/dmitrijs2005/userhub/internal/flagx"

func parseEnv(cfg *Config) {
	cfg.ServerURL = flagx.Getenv("USERHUB_SERVER_URL", cfg.ServerURL)
	cfg.DatabasePath = flagx.Getenv("USERHUB_CLIENT_DB", cfg.DatabasePath)
	cfg.RequestTimeout = flagx.GetenvDuration("USERHUB_REQUEST_TIMEOUT", cfg.RequestTimeout)
}
