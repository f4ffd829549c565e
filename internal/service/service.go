// Package service answers city, forecast and activity queries cache-aside:
// it checks its caches first and only calls the upstream provider on a miss.
package service

//go:generate mockgen -source=service.go -destination=mock_provider.go -package=service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/leonardcser/weather-mcp/internal/cache"
	"github.com/leonardcser/weather-mcp/internal/logger"
	"github.com/leonardcser/weather-mcp/internal/metrics"
	"github.com/leonardcser/weather-mcp/internal/weather"
)

const (
	// DefaultLimit is the result count serving layers use when none is given.
	DefaultLimit = 10
	// DefaultDays is the forecast length serving layers use when none is given.
	DefaultDays = 7

	DefaultSearchTTL   = time.Hour
	DefaultForecastTTL = 30 * time.Minute
)

// Key schemes, one per cached result kind.
var (
	searchKeys   = cache.NewNamespace[[]weather.City]("city_search")
	cityKeys     = cache.NewNamespace[weather.City]("city")
	forecastKeys = cache.NewNamespace[weather.Forecast]("forecast")
)

// Provider is the upstream weather/geocoding source.
//
// Failures are weather.ErrUpstreamUnavailable-class errors; City reports
// unknown ids with *weather.NotFoundError.
type Provider interface {
	SearchCities(ctx context.Context, query string) ([]weather.City, error)
	City(ctx context.Context, id int64) (weather.City, error)
	Forecast(ctx context.Context, lat, lon float64, days int) ([]weather.DailyForecast, error)
}

// Caches groups the typed caches the service reads and fills.
type Caches struct {
	Search    cache.Cache[[]weather.City]
	Cities    cache.Cache[weather.City]
	Forecasts cache.Cache[weather.Forecast]
}

// NewMemoryCaches backs every kind with its own in-process store.
func NewMemoryCaches(opts ...cache.StoreOption) Caches {
	return Caches{
		Search:    cache.NewLocal(cache.NewStore[[]weather.City](opts...)),
		Cities:    cache.NewLocal(cache.NewStore[weather.City](opts...)),
		Forecasts: cache.NewLocal(cache.NewStore[weather.Forecast](opts...)),
	}
}

// NewRemoteCaches stores every kind in kv, JSON encoded.
func NewRemoteCaches(kv cache.KV) Caches {
	return Caches{
		Search:    cache.NewRemote[[]weather.City](kv),
		Cities:    cache.NewRemote[weather.City](kv),
		Forecasts: cache.NewRemote[weather.Forecast](kv),
	}
}

// Option configures a Service.
type Option func(*Service)

// WithSearchTTL sets how long search results and city lookups stay cached.
func WithSearchTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTTL = d
		}
	}
}

// WithForecastTTL sets how long forecasts stay cached.
func WithForecastTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.forecastTTL = d
		}
	}
}

// WithUpstreamTimeout bounds every provider call. Zero means no bound
// beyond the caller's context.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) { s.upstreamTimeout = d }
}

// WithRecorder sets the metrics side channel.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

// Service is safe for concurrent use. Concurrent misses for the same key are
// not coalesced: each one calls the provider and writes the cache.
type Service struct {
	provider        Provider
	caches          Caches
	searchTTL       time.Duration
	forecastTTL     time.Duration
	upstreamTimeout time.Duration
	rec             metrics.Recorder
}

func New(provider Provider, caches Caches, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		caches:      caches,
		searchTTL:   DefaultSearchTTL,
		forecastTTL: DefaultForecastTTL,
		rec:         metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to limit cities matching rawQuery, best match first.
//
// The full ordered match set is cached per sanitized, lower-cased query, so a
// later call with a larger limit is still a cache hit. Empty queries, queries
// that sanitize to nothing, and limit <= 0 return an empty slice without
// touching the cache or the provider. Provider failures are returned and
// nothing is cached.
func (s *Service) Search(ctx context.Context, rawQuery string, limit int) ([]weather.City, error) {
	if strings.TrimSpace(rawQuery) == "" || limit <= 0 {
		return []weather.City{}, nil
	}
	q := Sanitize(rawQuery)
	if q == "" {
		return []weather.City{}, nil
	}
	key := searchKeys.Key(strings.ToLower(q))

	if cached, ok := lookup(ctx, s, s.caches.Search, key); ok {
		return head(cached, limit), nil
	}

	cities, err := upstream(ctx, s, "search_cities", func(ctx context.Context) ([]weather.City, error) {
		return s.provider.SearchCities(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	orderCities(cities, q)
	store(ctx, s.caches.Search, key, cities, s.searchTTL)
	return head(cities, limit), nil
}

// City returns one city by id.
func (s *Service) City(ctx context.Context, id int64) (weather.City, error) {
	if id <= 0 {
		return weather.City{}, &weather.InvalidArgumentError{Field: "city_id", Reason: "must be a positive integer"}
	}
	key := cityKeys.Key(strconv.FormatInt(id, 10))
	if c, ok := lookup(ctx, s, s.caches.Cities, key); ok {
		return c, nil
	}
	c, err := upstream(ctx, s, "get_city", func(ctx context.Context) (weather.City, error) {
		return s.provider.City(ctx, id)
	})
	if err != nil {
		return weather.City{}, err
	}
	store(ctx, s.caches.Cities, key, c, s.searchTTL)
	return c, nil
}

// Forecast returns the daily forecast for a city over the next days days.
func (s *Service) Forecast(ctx context.Context, cityID int64, days int) (weather.Forecast, error) {
	if err := weather.ValidateDays(days); err != nil {
		return weather.Forecast{}, err
	}
	city, err := s.City(ctx, cityID)
	if err != nil {
		return weather.Forecast{}, err
	}
	key := forecastKeys.Key(strconv.FormatInt(cityID, 10), strconv.Itoa(days))
	if f, ok := lookup(ctx, s, s.caches.Forecasts, key); ok {
		return f, nil
	}
	daily, err := upstream(ctx, s, "forecast", func(ctx context.Context) ([]weather.DailyForecast, error) {
		return s.provider.Forecast(ctx, city.Latitude, city.Longitude, days)
	})
	if err != nil {
		return weather.Forecast{}, err
	}
	for _, d := range daily {
		if err := d.Validate(); err != nil {
			return weather.Forecast{}, &weather.UpstreamError{Op: "forecast", Err: err}
		}
	}
	f := weather.Forecast{City: city, Days: daily}
	store(ctx, s.caches.Forecasts, key, f, s.forecastTTL)
	return f, nil
}

// Activities ranks activities for a city over the next days days.
func (s *Service) Activities(ctx context.Context, cityID int64, days int) (weather.City, []weather.RankedActivity, error) {
	f, err := s.Forecast(ctx, cityID, days)
	if err != nil {
		return weather.City{}, nil, err
	}
	return f.City, weather.RankActivities(f.Days), nil
}

// lookup reads key from c. Cache errors count as a miss.
func lookup[V any](ctx context.Context, s *Service, c cache.Cache[V], key cache.Key[V]) (V, bool) {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		logger.Warnf("cache get %s: %v", key, err)
	}
	kind, _, _ := strings.Cut(key.String(), ":")
	s.rec.CacheLookup(ctx, kind, ok)
	if ok {
		logger.Debugf("cache hit %s", key)
	}
	return v, ok
}

// store writes key into c. A failed write is logged and otherwise ignored.
func store[V any](ctx context.Context, c cache.Cache[V], key cache.Key[V], v V, ttl time.Duration) {
	if err := c.Set(ctx, key, v, ttl); err != nil {
		logger.Warnf("cache set %s: %v", key, err)
	}
}

// upstream runs one provider call under the upstream timeout and classifies
// failures: anything that is not already a known error class becomes an
// UpstreamError.
func upstream[T any](ctx context.Context, s *Service, op string, call func(context.Context) (T, error)) (T, error) {
	if s.upstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
	}
	start := time.Now()
	v, err := call(ctx)
	s.rec.UpstreamCall(ctx, op, time.Since(start), err)
	if err != nil {
		var zero T
		if weather.CodeOf(err) == weather.CodeInternal {
			err = &weather.UpstreamError{Op: op, Err: err}
		}
		logger.Warnf("upstream %s failed: %v", op, err)
		return zero, err
	}
	return v, nil
}
