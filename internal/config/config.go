// Package config loads the service configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Sternrassler/pokeapi-ranker/pkg/client"
	"github.com/Sternrassler/pokeapi-ranker/pkg/fanout"
	"github.com/Sternrassler/pokeapi-ranker/pkg/logging"
)

// DefaultUserAgent identifies the service to the upstream API.
const DefaultUserAgent = "pokeapi-ranker/1.0 (+https://github.com/Sternrassler/pokeapi-ranker)"

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	PokeAPI PokeAPIConfig `koanf:"pokeapi"`
	Fanout  FanoutConfig  `koanf:"fanout"`
	Cache   CacheConfig   `koanf:"cache"`
	Redis   RedisConfig   `koanf:"redis"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// PokeAPIConfig configures the upstream client.
type PokeAPIConfig struct {
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	UserAgent    string        `koanf:"user_agent" validate:"required"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	ListingLimit int           `koanf:"listing_limit" validate:"min=0"`

	RetryMaxAttempts    int           `koanf:"retry_max_attempts" validate:"min=1,max=10"`
	RetryInitialBackoff time.Duration `koanf:"retry_initial_backoff" validate:"gt=0"`
	RetryMaxBackoff     time.Duration `koanf:"retry_max_backoff" validate:"gtefield=RetryInitialBackoff"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" validate:"min=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// FanoutConfig configures the shared fetch pool.
type FanoutConfig struct {
	Workers int           `koanf:"workers" validate:"min=1,max=256"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// CacheConfig configures the collection cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

// RedisConfig configures the optional Redis tier. An empty URL disables it.
type RedisConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

// Enabled reports whether the Redis tier is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	DefaultLimit      int           `koanf:"default_limit" validate:"min=1"`
	MaxLimit          int           `koanf:"max_limit" validate:"gtefield=DefaultLimit"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	retry := client.DefaultRetryConfig()
	breaker := client.DefaultBreakerConfig()
	pool := fanout.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute, // a cold GetAll fans out over the whole listing
			ShutdownTimeout: 30 * time.Second,
		},
		PokeAPI: PokeAPIConfig{
			BaseURL:             client.DefaultBaseURL,
			UserAgent:           DefaultUserAgent,
			Timeout:             10 * time.Second,
			ListingLimit:        0,
			RetryMaxAttempts:    retry.MaxAttempts,
			RetryInitialBackoff: retry.InitialBackoff,
			RetryMaxBackoff:     retry.MaxBackoff,
			BreakerEnabled:      true,
			BreakerFailureRatio: breaker.FailureRatio,
			BreakerMinRequests:  breaker.MinRequests,
			BreakerTimeout:      breaker.Timeout,
		},
		Fanout: FanoutConfig{
			Workers: pool.MaxConcurrency,
			Timeout: pool.Timeout,
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		API: APIConfig{
			DefaultLimit:      5,
			MaxLimit:          100,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return logging.ValidLevel(fl.Field().String())
	})
	return v
}

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ClientConfig maps the upstream settings onto the client configuration.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.PokeAPI.UserAgent)
	cfg.BaseURL = c.PokeAPI.BaseURL
	cfg.Timeout = c.PokeAPI.Timeout
	cfg.ListingLimit = c.PokeAPI.ListingLimit
	cfg.Retry.MaxAttempts = c.PokeAPI.RetryMaxAttempts
	cfg.Retry.InitialBackoff = c.PokeAPI.RetryInitialBackoff
	cfg.Retry.MaxBackoff = c.PokeAPI.RetryMaxBackoff
	cfg.Breaker.Disabled = !c.PokeAPI.BreakerEnabled
	cfg.Breaker.FailureRatio = c.PokeAPI.BreakerFailureRatio
	cfg.Breaker.MinRequests = c.PokeAPI.BreakerMinRequests
	cfg.Breaker.Timeout = c.PokeAPI.BreakerTimeout
	return cfg
}

// FanoutConfig maps the pool settings.
func (c *Config) FanoutConfig() fanout.Config {
	return fanout.Config{
		MaxConcurrency: c.Fanout.Workers,
		Timeout:        c.Fanout.Timeout,
	}
}

// LoggingConfig maps the logging settings. Output defaults to stderr.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Logging.Level)
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
