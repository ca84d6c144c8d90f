// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// TrafficTable is the path to a YAML travel-duration table. Empty means
	// the built-in mock table is used.
	TrafficTable string

	// DefaultOrigin is the origin assumed for schedules created without one.
	// Defaults to the single origin of the built-in mock table.
	DefaultOrigin string

	// SoundEnabled gates local alarm-tone playback. Defaults to true; set
	// SOUND_ENABLED=false on headless hosts without an audio device.
	SoundEnabled bool
}

// Load reads configuration from environment variables and returns a Config.
// Every variable has a usable default, so Load fails only on values that
// cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		TrafficTable:  os.Getenv("TRAFFIC_TABLE"),
		DefaultOrigin: getEnv("DEFAULT_ORIGIN", "잠실 루터회관"),
	}

	sound, err := strconv.ParseBool(getEnv("SOUND_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: invalid SOUND_ENABLED: %w", err)
	}
	cfg.SoundEnabled = sound

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
