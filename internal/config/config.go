// Package config loads runtime settings from a YAML file, CONFIGURATOR_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CONFIGURATOR"

// Catalog sources.
const (
	SourceFile       = "file"
	SourceLoam       = "loam"
	SourcePocketBase = "pocketbase"
)

type Config struct {
	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Log struct {
		Level  string
		Format string
	} `mapstructure:"log"`

	Catalog struct {
		Source string
		Path   string
	} `mapstructure:"catalog"`

	PocketBase struct {
		URL   string
		Token string
	} `mapstructure:"pocketbase"`

	Sessions struct {
		Dir string
	} `mapstructure:"sessions"`

	Redis struct {
		Addr     string
		Password string
		DB       int
		TTL      time.Duration
	} `mapstructure:"redis"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Model struct {
		URL string
	} `mapstructure:"model"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Option adjusts the viper instance before the config is decoded.
type Option func(*viper.Viper) error

// WithFlag lets a command line flag override key when it was set.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return fmt.Errorf("no flag for %s", key)
		}
		return v.BindPFlag(key, flag)
	}
}

func defaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.path", "catalog.yaml")
	v.SetDefault("pocketbase.url", "")
	v.SetDefault("pocketbase.token", "")
	v.SetDefault("sessions.dir", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("model.url", "")
	v.SetDefault("metrics.enabled", false)
}

// Load reads the config. An empty path skips the file.
func Load(path string, opts ...Option) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return Config{}, err
		}
	}

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, c.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	switch c.Catalog.Source {
	case SourceFile, SourceLoam:
		if c.Catalog.Path == "" {
			errs = append(errs, fmt.Errorf("catalog.path is required for source %q", c.Catalog.Source))
		}
	case SourcePocketBase:
		if c.PocketBase.URL == "" {
			errs = append(errs, errors.New("pocketbase.url is required for source \"pocketbase\""))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown catalog.source %q", c.Catalog.Source))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl must not be negative"))
	}
	return errors.Join(errs...)
}
