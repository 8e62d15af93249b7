package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaumene/moviepick/internal/models"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Participants allowed to vote
	Roster models.Roster

	// TMDB
	TMDBToken     string
	TMDBBaseURL   string
	TMDBLocale    string
	TMDBPageDelay time.Duration // pause between result pages (default: 250ms)
	TMDBCacheTTL  time.Duration // search result cache lifetime (default: 10m)

	// Ritual
	RitualIdleTimeout time.Duration // idle sessions are pruned after this (default: 6h)

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/moviepick.db

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("ROSTER", "eiryuu,jac,plue,wasp")
	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_LOCALE", "it-IT")
	v.SetDefault("TMDB_PAGE_DELAY_MS", 250)
	v.SetDefault("TMDB_CACHE_MINUTES", 10)
	v.SetDefault("RITUAL_IDLE_MINUTES", 360)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "moviepick")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	roster, err := models.NewRoster(strings.Split(v.GetString("ROSTER"), ","))
	if err != nil {
		return nil, fmt.Errorf("invalid ROSTER: %w", err)
	}

	config := &Config{
		Roster: roster,

		TMDBToken:     v.GetString("TMDB_TOKEN"),
		TMDBBaseURL:   strings.TrimRight(v.GetString("TMDB_BASE_URL"), "/"),
		TMDBLocale:    v.GetString("TMDB_LOCALE"),
		TMDBPageDelay: time.Duration(v.GetInt("TMDB_PAGE_DELAY_MS")) * time.Millisecond,
		TMDBCacheTTL:  time.Duration(v.GetInt("TMDB_CACHE_MINUTES")) * time.Minute,

		RitualIdleTimeout: time.Duration(v.GetInt("RITUAL_IDLE_MINUTES")) * time.Minute,

		ServerPort: v.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "moviepick.db"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if config.TMDBPageDelay < 0 {
		return nil, fmt.Errorf("TMDB_PAGE_DELAY_MS must not be negative")
	}
	if config.RitualIdleTimeout <= 0 {
		return nil, fmt.Errorf("RITUAL_IDLE_MINUTES must be positive")
	}

	return config, nil
}

// RequireSearch checks the settings needed by the metadata search client
func (c *Config) RequireSearch() error {
	if c.TMDBToken == "" {
		return fmt.Errorf("TMDB_TOKEN is required")
	}
	return nil
}
