// Package config loads server settings: built-in defaults, then an optional
// YAML or JSON file, then WEATHER_MCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/leonardcser/weather-mcp/internal/cache"
	"github.com/leonardcser/weather-mcp/internal/logger"
	"github.com/leonardcser/weather-mcp/internal/openmeteo"
	"github.com/leonardcser/weather-mcp/internal/service"
)

var (
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	ErrInvalid           = errors.New("config: invalid")
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendDaemon = "daemon"
	BackendRedis  = "redis"
)

type Config struct {
	Log      logger.Options `koanf:"log"`
	Cache    CacheConfig    `koanf:"cache"`
	Search   TTLConfig      `koanf:"search"`
	Forecast TTLConfig      `koanf:"forecast"`
	Upstream UpstreamConfig `koanf:"upstream"`
	HTTP     HTTPConfig     `koanf:"http"`
}

type CacheConfig struct {
	Backend     string `koanf:"backend"`
	MaxSize     int    `koanf:"max_size"`
	Socket      string `koanf:"socket"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	RedisPrefix string `koanf:"redis_prefix"`
}

type TTLConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type UpstreamConfig struct {
	GeocodingURL    string        `koanf:"geocoding_url"`
	ForecastURL     string        `koanf:"forecast_url"`
	Timeout         time.Duration `koanf:"timeout"`
	SearchCount     int           `koanf:"search_count"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// HTTPConfig configures the optional JSON API. An empty Addr disables it.
type HTTPConfig struct {
	Addr           string        `koanf:"addr"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// envKeys maps environment variables onto config keys.
var envKeys = map[string]string{
	"WEATHER_MCP_LOG":                       "log.path",
	"WEATHER_MCP_LOG_LEVEL":                 "log.level",
	"WEATHER_MCP_CACHE_BACKEND":             "cache.backend",
	"WEATHER_MCP_CACHE_MAX_SIZE":            "cache.max_size",
	"WEATHER_MCP_CACHE_SOCK":                "cache.socket",
	"WEATHER_MCP_REDIS_ADDR":                "cache.redis_addr",
	"WEATHER_MCP_REDIS_DB":                  "cache.redis_db",
	"WEATHER_MCP_REDIS_PREFIX":              "cache.redis_prefix",
	"WEATHER_MCP_SEARCH_TTL":                "search.ttl",
	"WEATHER_MCP_FORECAST_TTL":              "forecast.ttl",
	"WEATHER_MCP_UPSTREAM_GEOCODING_URL":    "upstream.geocoding_url",
	"WEATHER_MCP_UPSTREAM_FORECAST_URL":     "upstream.forecast_url",
	"WEATHER_MCP_UPSTREAM_TIMEOUT":          "upstream.timeout",
	"WEATHER_MCP_UPSTREAM_SEARCH_COUNT":     "upstream.search_count",
	"WEATHER_MCP_UPSTREAM_BREAKER_FAILURES": "upstream.breaker_failures",
	"WEATHER_MCP_UPSTREAM_BREAKER_COOLDOWN": "upstream.breaker_cooldown",
	"WEATHER_MCP_HTTP_ADDR":                 "http.addr",
	"WEATHER_MCP_HTTP_REQUEST_TIMEOUT":      "http.request_timeout",
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Log: logger.Options{
			Path:       logger.DefaultPath(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Cache: CacheConfig{
			Backend:     BackendMemory,
			MaxSize:     cache.DefaultMaxSize,
			Socket:      DefaultSocketPath(),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "weather-mcp:",
		},
		Search:   TTLConfig{TTL: service.DefaultSearchTTL},
		Forecast: TTLConfig{TTL: service.DefaultForecastTTL},
		Upstream: UpstreamConfig{
			GeocodingURL:    openmeteo.DefaultGeocodingURL,
			ForecastURL:     openmeteo.DefaultForecastURL,
			Timeout:         openmeteo.DefaultTimeout,
			SearchCount:     openmeteo.DefaultSearchCount,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
	}
}

// DefaultSocketPath is where the cache daemon listens unless configured.
func DefaultSocketPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "weather-mcp", "cache.sock")
}

// Load reads path (may be empty), applies the environment and validates.
func Load(path string) (Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		data = b
	}
	return load(path, data, os.LookupEnv)
}

func load(path string, data []byte, lookup func(string) (string, bool)) (Config, error) {
	k := koanf.New(".")
	if len(data) > 0 {
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	for env, key := range envKeys {
		if v, ok := lookup(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return Config{}, fmt.Errorf("config: %s: %w", env, err)
			}
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Validate reports the first setting the server cannot run with.
func (c Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendDaemon, BackendRedis:
	default:
		return fmt.Errorf("%w: cache.backend %q (want memory, daemon or redis)", ErrInvalid, c.Cache.Backend)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("%w: cache.max_size must be positive", ErrInvalid)
	}
	if c.Cache.Backend == BackendDaemon && c.Cache.Socket == "" {
		return fmt.Errorf("%w: cache.socket is required for the daemon backend", ErrInvalid)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("%w: cache.redis_addr is required for the redis backend", ErrInvalid)
	}
	if c.Search.TTL <= 0 {
		return fmt.Errorf("%w: search.ttl must be positive", ErrInvalid)
	}
	if c.Forecast.TTL <= 0 {
		return fmt.Errorf("%w: forecast.ttl must be positive", ErrInvalid)
	}
	for name, raw := range map[string]string{
		"upstream.geocoding_url": c.Upstream.GeocodingURL,
		"upstream.forecast_url":  c.Upstream.ForecastURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an http(s) URL", ErrInvalid, name, raw)
		}
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("%w: upstream.timeout must not be negative", ErrInvalid)
	}
	if c.Upstream.SearchCount <= 0 {
		return fmt.Errorf("%w: upstream.search_count must be positive", ErrInvalid)
	}
	return nil
}
