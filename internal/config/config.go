// Package config provides Viper-based process configuration for notion-digest
package config

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration read from the environment
type Config struct {
	Port            string  `mapstructure:"port"`
	NotionToken     string  `mapstructure:"notion_token"`
	NotionAPIURL    string  `mapstructure:"notion_api_url"`
	NotionRateLimit float64 `mapstructure:"notion_rate_limit"`
	SettingsPath    string  `mapstructure:"settings_path"`
	DatabaseURL     string  `mapstructure:"database_url"`
	LogLevel        string  `mapstructure:"log_level"`
	LogFormat       string  `mapstructure:"log_format"`
}

// keys maps each config key to its environment variable
var keys = map[string]string{
	"port":              "PORT",
	"notion_token":      "NOTION_TOKEN",
	"notion_api_url":    "NOTION_API_URL",
	"notion_rate_limit": "NOTION_RATE_LIMIT",
	"settings_path":     "SETTINGS_PATH",
	"database_url":      "DATABASE_URL",
	"log_level":         "LOG_LEVEL",
	"log_format":        "LOG_FORMAT",
}

// LoadDotenv loads .env.local and then .env into the process environment.
// Variables that are already set win, and missing files are ignored.
func LoadDotenv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("notion_api_url", "https://api.notion.com")
	v.SetDefault("notion_rate_limit", 3.0)
	v.SetDefault("settings_path", "config.json")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.LogFormat] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.LogFormat)
	}

	if cfg.NotionRateLimit <= 0 {
		return fmt.Errorf("invalid notion rate limit: %v (must be positive)", cfg.NotionRateLimit)
	}

	if strings.TrimSpace(cfg.SettingsPath) == "" {
		return fmt.Errorf("settings path must not be empty")
	}

	return nil
}

// NewLogger builds the process logger. verbose forces debug level.
func NewLogger(w io.Writer, cfg *Config, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ConfiguredDatabase is a database ID supplied through NOTION_DATABASE_ID{n}
type ConfiguredDatabase struct {
	Key string `json:"envKey"`
	ID  string `json:"databaseId"`
}

var databaseEnvKey = regexp.MustCompile(`^NOTION_DATABASE_ID(\d+)?$`)

// DiscoverDatabases finds NOTION_DATABASE_ID, NOTION_DATABASE_ID1, ... in
// environ (os.Environ format). Unnumbered sorts first, then by number.
func DiscoverDatabases(environ []string) []ConfiguredDatabase {
	type entry struct {
		db  ConfiguredDatabase
		num int
	}

	var entries []entry
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m := databaseEnvKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		num := -1
		if m[1] != "" {
			num, _ = strconv.Atoi(m[1])
		}
		entries = append(entries, entry{db: ConfiguredDatabase{Key: key, ID: value}, num: num})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].num != entries[j].num {
			return entries[i].num < entries[j].num
		}
		return entries[i].db.Key < entries[j].db.Key
	})

	dbs := make([]ConfiguredDatabase, 0, len(entries))
	for _, e := range entries {
		dbs = append(dbs, e.db)
	}
	return dbs
}
