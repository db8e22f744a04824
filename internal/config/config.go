package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/store"
	"github.com/sabaqlab/sabaq/internal/submit"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SABAQ"

// Config is the resolved runtime configuration.
type Config struct {
	BaseURL   string `validate:"required,url"`
	Token     string
	TokenFile string
	DB        string

	LogLevel string `validate:"oneof=trace debug info warn error"`
	LogFile  string

	RequestTimeout   time.Duration `validate:"gt=0"`
	RetryMaxAttempts int           `validate:"min=1,max=10"`
	RetryInitialWait time.Duration `validate:"gte=0"`
	RetryMaxWait     time.Duration `validate:"gtefield=RetryInitialWait"`
	FallbackAttempts int           `validate:"min=0,max=5"`

	// Development server.
	JWTSecret string
	DevAddr   string `validate:"required"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	retry := submit.DefaultRetryConfig()
	return Config{
		BaseURL:          "http://localhost:5000/api",
		LogLevel:         "info",
		RequestTimeout:   30 * time.Second,
		RetryMaxAttempts: retry.MaxAttempts,
		RetryInitialWait: retry.InitialWait,
		RetryMaxWait:     retry.MaxWait,
		FallbackAttempts: 1,
		JWTSecret:        "sabaq-dev-secret",
		DevAddr:          ":5000",
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"base-url":  "base_url",
	"token":     "token",
	"db":        "db",
	"log-level": "log_level",
	"log-file":  "log_file",
	"addr":      "dev_addr",
}

// Load resolves configuration from, in increasing priority: defaults, a
// .env file at dotenvPath (skipped when missing), SABAQ_* environment
// variables, and flags that were set explicitly.
func Load(dotenvPath string, flags *pflag.FlagSet) (Config, error) {
	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			if err := godotenv.Load(dotenvPath); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat %s: %w", dotenvPath, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("token", "")
	v.SetDefault("token_file", "")
	v.SetDefault("db", "")
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("retry_max_attempts", def.RetryMaxAttempts)
	v.SetDefault("retry_initial_wait", def.RetryInitialWait)
	v.SetDefault("retry_max_wait", def.RetryMaxWait)
	v.SetDefault("fallback_attempts", def.FallbackAttempts)
	v.SetDefault("jwt_secret", def.JWTSecret)
	v.SetDefault("dev_addr", def.DevAddr)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := Config{
		BaseURL:          v.GetString("base_url"),
		Token:            v.GetString("token"),
		TokenFile:        v.GetString("token_file"),
		DB:               v.GetString("db"),
		LogLevel:         v.GetString("log_level"),
		LogFile:          v.GetString("log_file"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		RetryMaxAttempts: v.GetInt("retry_max_attempts"),
		RetryInitialWait: v.GetDuration("retry_initial_wait"),
		RetryMaxWait:     v.GetDuration("retry_max_wait"),
		FallbackAttempts: v.GetInt("fallback_attempts"),
		JWTSecret:        v.GetString("jwt_secret"),
		DevAddr:          v.GetString("dev_addr"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Retry returns the primary transport's retry policy.
func (c Config) Retry() submit.RetryConfig {
	return submit.RetryConfig{
		MaxAttempts: c.RetryMaxAttempts,
		InitialWait: c.RetryInitialWait,
		MaxWait:     c.RetryMaxWait,
		Multiplier:  2.0,
	}
}

// TokenSource picks the token source: an explicit token, then a token
// file, then userInfo.json in the data directory.
func (c Config) TokenSource() (api.TokenSource, error) {
	if c.Token != "" {
		return api.StaticToken(c.Token), nil
	}
	if c.TokenFile != "" {
		return api.FileToken{Path: c.TokenFile}, nil
	}
	dir, err := store.DataDir()
	if err != nil {
		return nil, err
	}
	return api.FileToken{Path: filepath.Join(dir, "userInfo.json")}, nil
}

// DBPath returns the configured database path or the default location.
func (c Config) DBPath() (string, error) {
	if c.DB != "" {
		return c.DB, store.EnsureDir(c.DB)
	}
	return store.DefaultDBPath()
}
