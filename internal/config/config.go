package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port                string
	DBPath              string
	LibraryRoot         string
	MediaDir            string
	LegacyLibraryPrefix string
	LogLevel            string
	LogFormat           string
	DownloadWorkers     int
	MaxDownloadRetries  int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		DBPath:              getEnv("DB_PATH", "fiestabox.db"),
		LibraryRoot:         getEnv("LIBRARY_ROOT", "/srv/music"),
		MediaDir:            getEnv("MEDIA_DIR", "media/music"),
		LegacyLibraryPrefix: getEnv("LEGACY_LIBRARY_PREFIX", "/mnt/media/MUSIC"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		DownloadWorkers:     getEnvInt("DOWNLOAD_WORKERS", 2),
		MaxDownloadRetries:  getEnvInt("MAX_DOWNLOAD_RETRIES", 2),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.LibraryRoot == "" {
		errors = append(errors, "LIBRARY_ROOT cannot be empty")
	}

	if c.MediaDir == "" {
		errors = append(errors, "MEDIA_DIR cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if c.DownloadWorkers < 1 {
		errors = append(errors, fmt.Sprintf("DOWNLOAD_WORKERS must be at least 1, got: %d", c.DownloadWorkers))
	}

	if c.MaxDownloadRetries < 0 {
		errors = append(errors, fmt.Sprintf("MAX_DOWNLOAD_RETRIES cannot be negative, got: %d", c.MaxDownloadRetries))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
