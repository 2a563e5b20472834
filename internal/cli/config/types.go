// Package config loads the querypad configuration from file, environment
// variables, and CLI flags.
package config

import "time"

// Defaults.
const (
	DefaultPort        = 8765
	DefaultCatalogPath = "saved_queries.json"

	// DefaultSessionSecret signs cookies when no secret is configured.
	// Fine for a workstation tool; set session_secret for anything shared.
	DefaultSessionSecret = "querypad-dev-secret-change-me!!!"
)

// Config is the resolved configuration.
type Config struct {
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
	CatalogPath   string `koanf:"catalog_path"`
	Verbose       bool   `koanf:"verbose"`

	// Target is an optional pre-configured connection for the CLI query
	// command. The web UI always takes credentials interactively.
	Target *TargetConfig `koanf:"target"`
}

// TargetConfig describes a MySQL connection for one-shot CLI queries.
type TargetConfig struct {
	Host     string `koanf:"host"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// QueryTimeout bounds one-shot CLI query execution.
const QueryTimeout = 5 * time.Minute
