package main

import "time"

// Config holds every runtime setting collabd needs, bound from flags and
// environment via viper in root.go. Mirrors the shape of the teacher's
// cmd/server/main.go Config struct, generalized to the registry's
// per-document TTL instead of a single global expiry.
type Config struct {
	Addr string `mapstructure:"addr"`

	IdleExpiration  time.Duration `mapstructure:"idle_expiration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`

	TracingEnabled  bool   `mapstructure:"tracing_enabled"`
	TracingExporter string `mapstructure:"tracing_exporter"`

	LogLevel string `mapstructure:"log_level"`
}

// Defaults returns collabd's out-of-the-box configuration.
func Defaults() Config {
	return Config{
		Addr:            ":3030",
		IdleExpiration:  30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		TracingEnabled:  false,
		TracingExporter: "none",
		LogLevel:        "info",
	}
}
