// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package config loads uprofile configuration. Sources are layered, later
// ones winning: built-in defaults, DATABASE_URL, the YAML config file,
// UPROFILE_* environment variables and finally command-line flags.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/logging"
	"github.com/Imfractical/uprofile/internal/password"
	"github.com/Imfractical/uprofile/internal/xdg"
)

// EnvPrefix prefixes every environment variable read by Load. A double
// underscore separates nesting levels: UPROFILE_HTTP__ADDR sets http.addr.
const EnvPrefix = "UPROFILE_"

// Config is the complete uprofile configuration.
type Config struct {
	HTTP         HTTPConfig         `koanf:"http"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Log          LogConfig          `koanf:"log"`
	Database     DatabaseConfig     `koanf:"database"`
	Session      SessionConfig      `koanf:"session"`
	Reset        ResetConfig        `koanf:"reset"`
	Password     PasswordConfig     `koanf:"password"`
	Registration RegistrationConfig `koanf:"registration"`
	Lockout      LockoutConfig      `koanf:"lockout"`
}

// HTTPConfig configures the JSON API listener.
type HTTPConfig struct {
	Addr           string   `koanf:"addr"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	SecureCookies  bool     `koanf:"secure_cookies"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectRetries uint64        `koanf:"connect_retries"`
	ConnectBackoff time.Duration `koanf:"connect_backoff"`
}

// SessionConfig configures authenticated sessions.
type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// Reset token delivery modes.
const (
	// ResetDeliveryNone disables POST /v1/password-resets. Operators issue
	// tokens with "uprofile reset issue".
	ResetDeliveryNone = "none"
	// ResetDeliveryLog writes issued tokens to the service log. Development only.
	ResetDeliveryLog = "log"
)

// ResetConfig configures password reset tokens.
type ResetConfig struct {
	TTL      time.Duration `koanf:"ttl"`
	Delivery string        `koanf:"delivery"`
}

// PasswordConfig mirrors password.Policy.
type PasswordConfig struct {
	MinLength            int      `koanf:"min_length"`
	SpecialCharacters    string   `koanf:"special_characters"`
	MaxSimilarity        float64  `koanf:"max_similarity"`
	SimilarityAttributes []string `koanf:"similarity_attributes"`
}

// RegistrationConfig mirrors account.AgePolicy.
type RegistrationConfig struct {
	AgeMode     string `koanf:"age_mode"`
	MinAgeYears int    `koanf:"min_age_years"`
	MinAgeDays  int    `koanf:"min_age_days"`
}

// LockoutConfig mirrors account.LockoutPolicy.
type LockoutConfig struct {
	Threshold int           `koanf:"threshold"`
	Duration  time.Duration `koanf:"duration"`
}

// Defaults returns the configuration used when no source overrides a key.
func Defaults() map[string]any {
	policy := password.DefaultPolicy()
	age := account.DefaultAgePolicy()
	lockout := account.DefaultLockoutPolicy()
	return map[string]any{
		"http.addr":                      ":8080",
		"http.allowed_origins":           []string{},
		"http.secure_cookies":            true,
		"metrics.addr":                   "127.0.0.1:9100",
		"log.format":                     logging.FormatJSON,
		"log.level":                      "info",
		"database.url":                   "",
		"database.connect_retries":       5,
		"database.connect_backoff":       "200ms",
		"session.ttl":                    account.DefaultSessionTTL.String(),
		"reset.ttl":                      account.DefaultResetTTL.String(),
		"reset.delivery":                 ResetDeliveryNone,
		"password.min_length":            policy.MinLength,
		"password.special_characters":    policy.SpecialCharacters,
		"password.max_similarity":        policy.MaxSimilarity,
		"password.similarity_attributes": policy.SimilarityAttributes,
		"registration.age_mode":          string(age.Mode),
		"registration.min_age_years":     age.MinYears,
		"registration.min_age_days":      age.MinDays,
		"lockout.threshold":              lockout.Threshold,
		"lockout.duration":               lockout.Duration.String(),
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"database-url": "database.url",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", "", "JSON API listen address")
	fs.String("metrics-addr", "", "metrics/health listen address (empty disables)")
	fs.String("log-format", "", "log format (json or text)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("database-url", "", "PostgreSQL connection URL")
}

// LoadOptions selects the sources read by Load.
type LoadOptions struct {
	// File is an explicit config file path. It must exist. When empty the
	// XDG default is read if present.
	File string
	// Flags are applied last. Only flags the user set take effect.
	Flags *pflag.FlagSet
}

// Load builds and validates a Config.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		if err := k.Set("database.url", url); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "DATABASE_URL").Wrap(err)
		}
	}

	if err := loadFile(k, opts.File); err != nil {
		return nil, err
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, any) {
		key := envKey(name)
		return key, envValue(key, value)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		flags := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(flags, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = xdg.ConfigFile(); err != nil {
			return nil //nolint:nilerr // no home directory means no default file
		}
	}
	err := k.Load(file.Provider(path), yaml.Parser())
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
}

// envKey turns UPROFILE_PASSWORD__MIN_LENGTH into password.min_length.
func envKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
}

// envValue splits list-valued keys on commas.
func envValue(key, value string) any {
	switch key {
	case "http.allowed_origins", "password.similarity_attributes":
		if value == "" {
			return []string{}
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return value
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.HTTP.Addr == "":
		return invalid("http.addr", c.HTTP.Addr, "must not be empty")
	case c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText:
		return invalid("log.format", c.Log.Format, "must be json or text")
	case c.Session.TTL <= 0:
		return invalid("session.ttl", c.Session.TTL, "must be positive")
	case c.Reset.TTL <= 0:
		return invalid("reset.ttl", c.Reset.TTL, "must be positive")
	case c.Reset.Delivery != ResetDeliveryNone && c.Reset.Delivery != ResetDeliveryLog:
		return invalid("reset.delivery", c.Reset.Delivery, "must be none or log")
	case c.Database.ConnectBackoff < 0:
		return invalid("database.connect_backoff", c.Database.ConnectBackoff, "cannot be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	if err := c.PasswordPolicy().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("section", "password").Wrap(err)
	}
	if err := c.AgePolicy().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("section", "registration").Wrap(err)
	}
	if err := c.LockoutPolicy().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("section", "lockout").Wrap(err)
	}
	return nil
}

// PasswordPolicy returns the configured password policy.
func (c *Config) PasswordPolicy() password.Policy {
	return password.Policy{
		MinLength:            c.Password.MinLength,
		SpecialCharacters:    c.Password.SpecialCharacters,
		MaxSimilarity:        c.Password.MaxSimilarity,
		SimilarityAttributes: c.Password.SimilarityAttributes,
	}
}

// AgePolicy returns the configured minimum registration age.
func (c *Config) AgePolicy() account.AgePolicy {
	return account.AgePolicy{
		Mode:     account.AgeMode(c.Registration.AgeMode),
		MinYears: c.Registration.MinAgeYears,
		MinDays:  c.Registration.MinAgeDays,
	}
}

// LockoutPolicy returns the configured failed-login lockout.
func (c *Config) LockoutPolicy() account.LockoutPolicy {
	return account.LockoutPolicy{
		Threshold: c.Lockout.Threshold,
		Duration:  c.Lockout.Duration,
	}
}

func invalid(key string, value any, reason string) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		With("value", value).
		Errorf("%s %s", key, reason)
}
