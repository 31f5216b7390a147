package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CINEFETCH_STORE_URL.
const EnvPrefix = "CINEFETCH"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Store    StoreConfig    `mapstructure:"store"`
	Search   SearchConfig   `mapstructure:"search"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// GRPCConfig is the listener for the gRPC health service; an empty Addr
// disables it.
type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type TMDBConfig struct {
	APIKey        string  `mapstructure:"api_key"`
	BaseURL       string  `mapstructure:"base_url"`
	Language      string  `mapstructure:"language"`
	TimeoutMS     int     `mapstructure:"timeout_ms"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
	Retries       int     `mapstructure:"retries"`
}

func (c TMDBConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// StoreConfig points at the catalog. URL is either an http(s) PostgREST
// endpoint, which also needs Key, or a sqlite location.
type StoreConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

// IsREST reports whether URL names a remote PostgREST endpoint.
func (s StoreConfig) IsREST() bool {
	u := strings.ToLower(strings.TrimSpace(s.URL))
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// Configured reports whether enough is set to reach the store. When false
// the catalog runs in fallback-only mode.
func (s StoreConfig) Configured() bool {
	if strings.TrimSpace(s.URL) == "" {
		return false
	}
	if s.IsREST() {
		return strings.TrimSpace(s.Key) != ""
	}
	return true
}

type SearchConfig struct {
	DebounceMS  int `mapstructure:"debounce_ms"`
	Suggestions int `mapstructure:"suggestions"`
}

func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

type FallbackConfig struct {
	Static bool `mapstructure:"static"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":9090")

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.timeout_ms", 5000)
	v.SetDefault("tmdb.rate_per_second", 40.0)
	v.SetDefault("tmdb.burst", 40)
	v.SetDefault("tmdb.retries", 1)

	v.SetDefault("store.url", "")
	v.SetDefault("store.key", "")

	v.SetDefault("search.debounce_ms", 300)
	v.SetDefault("search.suggestions", 5)

	v.SetDefault("fallback.static", false)

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
}

// LoadConfig reads defaults, then an optional config file, then CINEFETCH_*
// environment variables. With an empty path it looks for cinefetch.{yaml,json}
// in the working directory and ~/.cinefetch; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cinefetch")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.cinefetch")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.TMDB.TimeoutMS <= 0:
		return &ConfigError{Field: "tmdb.timeout_ms", Message: "must be positive"}
	case c.TMDB.Retries < 0:
		return &ConfigError{Field: "tmdb.retries", Message: "must not be negative"}
	case c.Search.DebounceMS < 0:
		return &ConfigError{Field: "search.debounce_ms", Message: "must not be negative"}
	case c.Search.Suggestions < 0:
		return &ConfigError{Field: "search.suggestions", Message: "must not be negative"}
	}
	return nil
}

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
