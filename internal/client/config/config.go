package config

import "time"

// Config holds runtime settings for the userhub CLI.
type Config struct {
	// ServerURL is the base URL of the REST API, without the /api suffix.
	ServerURL string
	// DatabasePath is the SQLite file holding the saved session tokens.
	DatabasePath string
	// RequestTimeout bounds every HTTP request, refresh exchanges included.
	RequestTimeout time.Duration
	// OnlineCheckInterval is how often the client probes server reachability.
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3001"
	c.DatabasePath = "userhub.db"
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
