package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pokeapi-ranker/config.yaml",
}

// ConfigPathEnvVar names the environment variable holding an explicit config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps environment variables (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"server_host":      "server.host",
	"port":             "server.port",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"pokeapi_base_url":              "pokeapi.base_url",
	"user_agent":                    "pokeapi.user_agent",
	"pokeapi_timeout":               "pokeapi.timeout",
	"pokeapi_listing_limit":         "pokeapi.listing_limit",
	"pokeapi_retry_max_attempts":    "pokeapi.retry_max_attempts",
	"pokeapi_retry_initial_backoff": "pokeapi.retry_initial_backoff",
	"pokeapi_retry_max_backoff":     "pokeapi.retry_max_backoff",
	"pokeapi_breaker_enabled":       "pokeapi.breaker_enabled",
	"pokeapi_breaker_failure_ratio": "pokeapi.breaker_failure_ratio",
	"pokeapi_breaker_min_requests":  "pokeapi.breaker_min_requests",
	"pokeapi_breaker_timeout":       "pokeapi.breaker_timeout",

	"fanout_workers": "fanout.workers",
	"fetch_timeout":  "fanout.timeout",

	"cache_ttl": "cache.ttl",
	"redis_url": "redis.url",

	"api_default_limit":   "api.default_limit",
	"api_max_limit":       "api.max_limit",
	"rate_limit_requests": "api.rate_limit_requests",
	"rate_limit_window":   "api.rate_limit_window",
	"rate_limit_disabled": "api.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// Load builds the configuration from three layers, later layers winning:
//
//  1. Defaults
//  2. Config file: CONFIG_PATH or the first of DefaultConfigPaths that exists
//  3. Environment variables (see envMappings)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.PokeAPI.BaseURL = strings.TrimRight(cfg.PokeAPI.BaseURL, "/")
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the config file to load, or "" if there is none.
// An explicit CONFIG_PATH that does not exist is an error.
func findConfigFile() (string, error) {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", envPath, err)
		}
		return envPath, nil
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// envTransformFunc maps an environment variable to its koanf path.
// Unmapped and empty variables are skipped by returning "".
func envTransformFunc(key, value string) (string, interface{}) {
	if value == "" {
		return "", nil
	}
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped, value
	}
	return "", nil
}
