// Package config loads process settings from the environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable read by Load
const EnvPrefix = "BOMGEN_"

// Config holds the settings shared by the CLI and the HTTP server
type Config struct {
	CatalogDir       string `validate:"required"`
	MaxDepth         int    `validate:"gte=1,lte=256"`
	CollectAllErrors bool
	PartialSuccess   bool
	Workers          int    `validate:"gte=0"`
	LogLevel         string `validate:"oneof=debug info warn error"`
	LogFormat        string `validate:"oneof=json console"`
	HTTPAddr         string `validate:"required"`
	// EventRetention is the number of generation event streams the server keeps; 0 keeps all
	EventRetention   int    `validate:"gte=0"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		CatalogDir: "examples/catalog",
		MaxDepth:   32,
		LogLevel:   "info",
		LogFormat:  "console",
		HTTPAddr:   ":8080",

		EventRetention: 1000,
	}
}

// Load reads envFile if it exists, then overlays BOMGEN_* variables on the defaults.
// An empty envFile reads .env from the working directory.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	cfg := Default()
	var err error

	cfg.CatalogDir = getEnv("CATALOG_DIR", cfg.CatalogDir)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)

	if cfg.MaxDepth, err = getInt("MAX_DEPTH", cfg.MaxDepth); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getInt("WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.EventRetention, err = getInt("EVENT_RETENTION", cfg.EventRetention); err != nil {
		return nil, err
	}
	if cfg.CollectAllErrors, err = getBool("COLLECT_ALL_ERRORS", cfg.CollectAllErrors); err != nil {
		return nil, err
	}
	if cfg.PartialSuccess, err = getBool("PARTIAL_SUCCESS", cfg.PartialSuccess); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			msgs := make([]string, len(fieldErrors))
			for i, fe := range fieldErrors {
				msgs[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: invalid integer %q", EnvPrefix, key, v)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: invalid boolean %q", EnvPrefix, key, v)
	}
	return b, nil
}
