package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort       = 8080
	defaultSessionTTL = 24 * time.Hour
	defaultCacheSize  = 1024
)

// Config holds engine server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr         string
	DatabasePath string
	// MasterSecret seeds the session token signing key.
	MasterSecret string
	Debug        bool
	// SessionTTL bounds how long an idle engine session is kept and how long
	// its token stays valid.
	SessionTTL time.Duration
	// CacheSize is the number of engine sessions held in memory.
	CacheSize      int
	AllowedOrigins []string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr         *string
	DatabasePath *string
	MasterSecret *string
	Debug        *bool
	SessionTTL   *time.Duration
}

// Load reads configuration from the environment and applies overrides.
func Load(overrides Overrides) (*Config, error) {
	port := defaultPort
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		port = p
	}

	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./ssdeepviz.db"
	}
	if overrides.DatabasePath != nil {
		dbPath = *overrides.DatabasePath
	}

	masterSecret := os.Getenv("SSDEEPVIZ_MASTER_SECRET")
	if masterSecret == "" {
		// Older deployments only set the cookie key.
		masterSecret = os.Getenv("COOKIE_SESSION_KEY")
	}
	if overrides.MasterSecret != nil {
		masterSecret = *overrides.MasterSecret
	}
	if masterSecret == "" {
		return nil, fmt.Errorf("SSDEEPVIZ_MASTER_SECRET environment variable is required")
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	ttl := defaultSessionTTL
	if raw := os.Getenv("SSDEEPVIZ_SESSION_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SSDEEPVIZ_SESSION_TTL %q", raw)
		}
		ttl = d
	}
	if overrides.SessionTTL != nil {
		ttl = *overrides.SessionTTL
	}

	cacheSize := defaultCacheSize
	if raw := os.Getenv("SSDEEPVIZ_CACHE_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SSDEEPVIZ_CACHE_SIZE %q", raw)
		}
		cacheSize = n
	}

	return &Config{
		Addr:           addr,
		DatabasePath:   dbPath,
		MasterSecret:   masterSecret,
		Debug:          debug,
		SessionTTL:     ttl,
		CacheSize:      cacheSize,
		AllowedOrigins: []string{"*"},
	}, nil
}
