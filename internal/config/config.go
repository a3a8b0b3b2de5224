// Package config defines process configuration and its loading order.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SQLitePath is the database file; empty selects the in-memory store
	// (dev and test mode, nothing survives a restart).
	SQLitePath string `koanf:"sqlite_path"`

	// MigrationsDir overrides the embedded schema migrations.
	MigrationsDir string `koanf:"migrations_dir"`

	// StaticDir serves the researcher dashboard build when set.
	StaticDir string `koanf:"static_dir"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
	}
}
