// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wikicat/wikicat/internal/secrets"
	"github.com/wikicat/wikicat/internal/store"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// Config is the top-level wikicat configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Import    ImportConfig    `mapstructure:"import"`
	Stats     StatsConfig     `mapstructure:"stats"`
	Traversal TraversalConfig `mapstructure:"traversal"`
	Lock      LockConfig      `mapstructure:"lock"`
	DBpedia   DBpediaConfig   `mapstructure:"dbpedia"`
	Server    ServerConfig    `mapstructure:"server"`
}

// StorageConfig selects the relational backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

// ImportConfig tunes the bulk loader.
type ImportConfig struct {
	BatchSize      int     `mapstructure:"batch_size"`
	CacheLimit     int     `mapstructure:"cache_limit"`
	CacheCutFactor float64 `mapstructure:"cache_cut_factor"`
	Limit          int     `mapstructure:"limit"`
}

// StatsConfig tunes the stats propagator.
type StatsConfig struct {
	Passes int `mapstructure:"passes"`
}

// TraversalConfig holds defaults for subtree export and the browsing API.
type TraversalConfig struct {
	MaxLevels int `mapstructure:"max_levels"`
}

// LockConfig selects the import lock backend.
type LockConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// DBpediaConfig controls dataset downloads.
type DBpediaConfig struct {
	CacheDir         string   `mapstructure:"cache_dir"`
	Language         string   `mapstructure:"language"`
	Versions         []string `mapstructure:"versions"`
	FetchConcurrency int      `mapstructure:"fetch_concurrency"`
}

// ServerConfig controls the browsing API listener.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "wikicat.db")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("import.batch_size", 10000)
	v.SetDefault("import.cache_limit", 2000)
	v.SetDefault("import.cache_cut_factor", 0.5)
	v.SetDefault("import.limit", 0)
	v.SetDefault("stats.passes", 5)
	v.SetDefault("traversal.max_levels", 5)
	v.SetDefault("lock.backend", "local")
	v.SetDefault("lock.redis_addr", "127.0.0.1:6379")
	v.SetDefault("lock.redis_password", "")
	v.SetDefault("lock.ttl", 10*time.Minute)
	v.SetDefault("dbpedia.cache_dir", ".dbpedia_cache")
	v.SetDefault("dbpedia.language", "en")
	v.SetDefault("dbpedia.versions", []string{"3.9"})
	v.SetDefault("dbpedia.fetch_concurrency", 2)
	v.SetDefault("server.listen", "127.0.0.1:8080")
}

// SetupEnv enables WIKICAT_ environment overrides, e.g.
// WIKICAT_STORAGE_BACKEND for storage.backend.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("WIKICAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix WIKICAT_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, wkerr.Errorf(wkerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, wkerr.Errorf(wkerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, wkerr.Errorf(wkerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// StorageConfig converts the storage section for the backend factory.
func (c *Config) StorageConfig() store.StorageConfig {
	return store.StorageConfig{
		Backend: c.Storage.Backend,
		Path:    c.Storage.Path,
		DSN:     c.Storage.DSN,
	}
}

// HasInlineSecrets reports whether the configuration carries a credential
// in plain text rather than as a keyring:// reference.
func (c *Config) HasInlineSecrets() bool {
	if c.Lock.RedisPassword != "" && !secrets.IsKeyringURI(c.Lock.RedisPassword) {
		return true
	}
	dsn := c.Storage.DSN
	if dsn == "" || secrets.IsKeyringURI(dsn) {
		return false
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		_, ok := u.User.Password()
		return ok
	}
	return strings.Contains(dsn, "password=")
}

// Validate checks the configuration for logical errors.
// It returns every problem found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateImport()...)
	errs = append(errs, c.validateStats()...)
	errs = append(errs, c.validateLock()...)
	errs = append(errs, c.validateDBpedia()...)
	errs = append(errs, c.validateServer()...)

	return errs
}

func invalid(format string, args ...any) error {
	return wkerr.Errorf(wkerr.CodeConfigValidateInvalidValue, format, args...)
}

func (c *Config) validateStorage() []error {
	var errs []error

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, invalid("config: storage.path must not be empty for the sqlite backend"))
		}
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, invalid("config: storage.dsn must not be empty for the postgres backend"))
		}
	default:
		errs = append(errs, invalid("config: storage.backend must be one of [sqlite, postgres], got %q", c.Storage.Backend))
	}

	return errs
}

func (c *Config) validateImport() []error {
	var errs []error

	if c.Import.BatchSize < 1 {
		errs = append(errs, invalid("config: import.batch_size must be positive, got %d", c.Import.BatchSize))
	}
	if c.Import.CacheLimit < 0 {
		errs = append(errs, invalid("config: import.cache_limit must not be negative, got %d", c.Import.CacheLimit))
	}
	if c.Import.CacheCutFactor <= 0 || c.Import.CacheCutFactor > 1 {
		errs = append(errs, invalid("config: import.cache_cut_factor must be in (0, 1], got %g", c.Import.CacheCutFactor))
	}
	if c.Import.Limit < 0 {
		errs = append(errs, invalid("config: import.limit must not be negative, got %d", c.Import.Limit))
	}

	return errs
}

func (c *Config) validateStats() []error {
	var errs []error

	if c.Stats.Passes < 1 {
		errs = append(errs, invalid("config: stats.passes must be positive, got %d", c.Stats.Passes))
	}
	if c.Traversal.MaxLevels < 0 {
		errs = append(errs, invalid("config: traversal.max_levels must not be negative, got %d", c.Traversal.MaxLevels))
	}

	return errs
}

func (c *Config) validateLock() []error {
	var errs []error

	switch c.Lock.Backend {
	case "local":
	case "redis":
		if _, _, err := net.SplitHostPort(c.Lock.RedisAddr); err != nil {
			errs = append(errs, invalid("config: lock.redis_addr must be a valid host:port address, got %q: %w", c.Lock.RedisAddr, err))
		}
		if c.Lock.TTL <= 0 {
			errs = append(errs, invalid("config: lock.ttl must be positive, got %s", c.Lock.TTL))
		}
	default:
		errs = append(errs, invalid("config: lock.backend must be one of [local, redis], got %q", c.Lock.Backend))
	}

	return errs
}

func (c *Config) validateDBpedia() []error {
	var errs []error

	if c.DBpedia.CacheDir == "" {
		errs = append(errs, invalid("config: dbpedia.cache_dir must not be empty"))
	}
	if c.DBpedia.Language == "" {
		errs = append(errs, invalid("config: dbpedia.language must not be empty"))
	}
	if c.DBpedia.FetchConcurrency < 1 {
		errs = append(errs, invalid("config: dbpedia.fetch_concurrency must be positive, got %d", c.DBpedia.FetchConcurrency))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, invalid("config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, invalid("config: server.listen must be a valid host:port address, got %q: %w", c.Server.Listen, err))
		return errs
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, invalid("config: server.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, invalid("config: server.listen port must be between 1 and 65535, got %d", port))
	}

	return errs
}
