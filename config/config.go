// Package config loads servicekit configuration from the environment.
//
// Every knob has a sane default so a zero-configuration process still starts;
// an optional .env file can seed the environment for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// CacheConfig configures the Redis-backed cache store.
type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// DefaultTTL is applied to cache writes that don't specify one.
	DefaultTTL time.Duration
}

// Addr returns the host:port address of the cache server.
func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HealthConfig configures periodic health sweeps.
type HealthConfig struct {
	// Interval between sweeps.
	Interval time.Duration
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string
	FilePath string
	Pretty   bool
}

// TrackerConfig configures remote error forwarding.
// An empty Endpoint disables forwarding; local logging always applies.
type TrackerConfig struct {
	Endpoint    string
	Environment string

	// SampleRate is the fraction of captures forwarded remotely, in (0, 1].
	// To stop forwarding, leave Endpoint empty rather than setting the
	// rate to zero.
	SampleRate float64
}

// Config is the full servicekit configuration.
type Config struct {
	Cache   CacheConfig
	Health  HealthConfig
	Logging LoggingConfig
	Tracker TrackerConfig
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Host:       "localhost",
			Port:       6379,
			DB:         0,
			DefaultTTL: 5 * time.Minute,
		},
		Health: HealthConfig{
			Interval: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracker: TrackerConfig{
			Environment: "development",
			SampleRate:  1.0,
		},
	}
}

// FromEnv builds a Config from environment variables, falling back to
// Default for anything unset.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Cache.Host = getEnv("CACHE_HOST", cfg.Cache.Host)
	cfg.Cache.Password = getEnv("CACHE_PASSWORD", cfg.Cache.Password)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.FilePath = getEnv("LOG_FILE", cfg.Logging.FilePath)
	cfg.Tracker.Endpoint = getEnv("ERROR_TRACKER_ENDPOINT", cfg.Tracker.Endpoint)
	cfg.Tracker.Environment = getEnv("ERROR_TRACKER_ENVIRONMENT", cfg.Tracker.Environment)

	var err error
	if cfg.Cache.Port, err = getEnvInt("CACHE_PORT", cfg.Cache.Port); err != nil {
		return Config{}, err
	}
	if cfg.Cache.DB, err = getEnvInt("CACHE_DB", cfg.Cache.DB); err != nil {
		return Config{}, err
	}

	if cfg.Cache.DefaultTTL, err = getEnvSeconds("CACHE_DEFAULT_TTL", cfg.Cache.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.Health.Interval, err = getEnvSeconds("HEALTH_CHECK_INTERVAL", cfg.Health.Interval); err != nil {
		return Config{}, err
	}

	if cfg.Tracker.SampleRate, err = getEnvFloat("ERROR_TRACKER_SAMPLE_RATE", cfg.Tracker.SampleRate); err != nil {
		return Config{}, err
	}

	if pretty := os.Getenv("LOG_PRETTY"); pretty != "" {
		cfg.Logging.Pretty = pretty == "1" || pretty == "true"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads an optional .env file into the process environment and then
// builds the Config. A missing file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// Validate checks invariants that would otherwise surface as late failures.
func (c Config) Validate() error {
	if c.Cache.Host == "" {
		return fmt.Errorf("config: cache host is required")
	}
	if c.Cache.Port <= 0 || c.Cache.Port > 65535 {
		return fmt.Errorf("config: invalid cache port %d", c.Cache.Port)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("config: cache default TTL must be >= 0")
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("config: health check interval must be positive")
	}
	if c.Tracker.SampleRate <= 0 || c.Tracker.SampleRate > 1 {
		return fmt.Errorf("config: tracker sample rate must be in (0, 1], got %f", c.Tracker.SampleRate)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
