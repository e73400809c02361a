// Package config loads runtime configuration for the userhub CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c/-config or
//     USERHUB_CLIENT_CONFIG.
//  3. Environment: USERHUB_SERVER_URL, USERHUB_CLIENT_DB,
//     USERHUB_REQUEST_TIMEOUT.
//  4. Command-line flags -a, -db, -t and -i.
//
// Example file:
//
//	{
//	  "server_url": "http://localhost:3001",
//	  "database_path": "userhub.db",
//	  "request_timeout": "30s"
//	}
package config
