// Package config holds the plain configuration struct acrd is built from.
// File-based configuration management is out of scope per spec.md §1; this
// package only defines the struct, its defaults, and an environment-driven
// constructor for the ambient concerns every component needs at boot.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of knobs acrd's components are constructed from.
type Config struct {
	ListenAddr string

	CacheMemoryLimitBytes int64
	CacheDiskRoot         string

	SettingsPath string

	ActivePlayerTTL    time.Duration
	EventBusQueueSize  int
	ProviderTimeout    time.Duration
	CoverArtCacheTTL   time.Duration
	BackgroundJobIdle  time.Duration

	AllowedOrigins  []string
	LogLevel        string
	RateLimitPerMin int
}

// Default returns the built-in defaults that FromEnv starts from.
func Default() Config {
	return Config{
		ListenAddr:            ":8080",
		CacheMemoryLimitBytes: 64 * 1024 * 1024,
		CacheDiskRoot:         "./data/cache",
		SettingsPath:          "./data/settings.db",
		ActivePlayerTTL:       10 * time.Second,
		EventBusQueueSize:     256,
		ProviderTimeout:       5 * time.Second,
		CoverArtCacheTTL:      24 * time.Hour,
		BackgroundJobIdle:     30 * time.Minute,
		AllowedOrigins:        []string{"*"},
		LogLevel:              "info",
		RateLimitPerMin:       600,
	}
}

// FromEnv overlays environment variables onto the defaults. No file format
// is read here; that loader is explicitly out of scope (spec.md §1).
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("ACRD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("ACRD_CACHE_MEMORY_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.CacheMemoryLimitBytes = n
		}
	}
	if v := os.Getenv("ACRD_CACHE_DISK_ROOT"); v != "" {
		cfg.CacheDiskRoot = v
	}
	if v := os.Getenv("ACRD_SETTINGS_PATH"); v != "" {
		cfg.SettingsPath = v
	}
	if v := os.Getenv("ACRD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ACRD_RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateLimitPerMin = n
		}
	}
	return cfg
}
