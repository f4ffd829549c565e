// Package openmeteo is a client for the Open-Meteo geocoding and forecast APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/leonardcser/weather-mcp/internal/logger"
	"github.com/leonardcser/weather-mcp/internal/weather"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com"
	DefaultForecastURL  = "https://api.open-meteo.com"

	DefaultSearchCount = 20
	DefaultTimeout     = 10 * time.Second

	maxBodySize = 4 << 20
	userAgent   = "weather-mcp/0.1"
)

const dailyFields = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,snowfall_sum,wind_speed_10m_max"

// errNotFoundStatus marks a 400/404 answer; it is not a breaker failure.
var errNotFoundStatus = errors.New("not found status")

// Options configures a Client. Zero values select the defaults.
type Options struct {
	GeocodingURL string
	ForecastURL  string
	SearchCount  int
	HTTPClient   *http.Client

	// BreakerFailures consecutive failures open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration
}

// Client talks to Open-Meteo. It is safe for concurrent use.
type Client struct {
	geocodingURL string
	forecastURL  string
	count        int
	http         *http.Client
	cb           *gobreaker.CircuitBreaker[[]byte]
}

func New(opts Options) *Client {
	if opts.GeocodingURL == "" {
		opts.GeocodingURL = DefaultGeocodingURL
	}
	if opts.ForecastURL == "" {
		opts.ForecastURL = DefaultForecastURL
	}
	if opts.SearchCount <= 0 {
		opts.SearchCount = DefaultSearchCount
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	failures := opts.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFoundStatus) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return &Client{
		geocodingURL: strings.TrimRight(opts.GeocodingURL, "/"),
		forecastURL:  strings.TrimRight(opts.ForecastURL, "/"),
		count:        opts.SearchCount,
		http:         opts.HTTPClient,
		cb:           cb,
	}
}

type geoResult struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Admin1      string  `json:"admin1"`
	Population  int64   `json:"population"`
	Timezone    string  `json:"timezone"`
}

func (g geoResult) city() weather.City {
	return weather.City{
		ID:          g.ID,
		Name:        g.Name,
		Country:     g.Country,
		CountryCode: g.CountryCode,
		Admin1:      g.Admin1,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		Population:  g.Population,
		Timezone:    g.Timezone,
	}
}

// SearchCities returns geocoding matches for query in provider order.
func (c *Client) SearchCities(ctx context.Context, query string) ([]weather.City, error) {
	const op = "search cities"
	values := url.Values{
		"name":     {query},
		"count":    {strconv.Itoa(c.count)},
		"language": {"en"},
		"format":   {"json"},
	}
	var body struct {
		Results []geoResult `json:"results"`
	}
	if err := c.getJSON(ctx, op, c.geocodingURL+"/v1/search?"+values.Encode(), &body); err != nil {
		return nil, err
	}
	cities := make([]weather.City, 0, len(body.Results))
	for _, r := range body.Results {
		cities = append(cities, r.city())
	}
	return cities, nil
}

// City looks a city up by its geocoding id.
func (c *Client) City(ctx context.Context, id int64) (weather.City, error) {
	const op = "get city"
	var r geoResult
	err := c.getJSON(ctx, op, c.geocodingURL+"/v1/get?"+url.Values{"id": {strconv.FormatInt(id, 10)}}.Encode(), &r)
	if errors.Is(err, errNotFoundStatus) || (err == nil && r.ID == 0) {
		return weather.City{}, &weather.NotFoundError{Kind: "city", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return weather.City{}, err
	}
	return r.city(), nil
}

type dailyBlock struct {
	Time          []string  `json:"time"`
	WeatherCode   []int     `json:"weather_code"`
	TempMax       []float64 `json:"temperature_2m_max"`
	TempMin       []float64 `json:"temperature_2m_min"`
	Precipitation []float64 `json:"precipitation_sum"`
	Snowfall      []float64 `json:"snowfall_sum"`
	WindSpeedMax  []float64 `json:"wind_speed_10m_max"`
}

// Forecast returns up to days daily forecasts for the coordinates.
func (c *Client) Forecast(ctx context.Context, lat, lon float64, days int) ([]weather.DailyForecast, error) {
	const op = "forecast"
	values := url.Values{
		"latitude":      {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(lon, 'f', 4, 64)},
		"daily":         {dailyFields},
		"timezone":      {"auto"},
		"forecast_days": {strconv.Itoa(days)},
	}
	var body struct {
		Daily dailyBlock `json:"daily"`
	}
	if err := c.getJSON(ctx, op, c.forecastURL+"/v1/forecast?"+values.Encode(), &body); err != nil {
		return nil, err
	}
	d := body.Daily
	n := len(d.Time)
	for _, l := range []int{len(d.WeatherCode), len(d.TempMax), len(d.TempMin), len(d.Precipitation), len(d.Snowfall), len(d.WindSpeedMax)} {
		if l != n {
			return nil, &weather.UpstreamError{Op: op, Err: fmt.Errorf("malformed daily block: %d dates but a series of %d", n, l)}
		}
	}
	out := make([]weather.DailyForecast, 0, n)
	for i := range n {
		day, err := weather.NewDailyForecast(weather.DailyForecast{
			Date:            d.Time[i],
			WeatherCode:     d.WeatherCode[i],
			TempMaxC:        d.TempMax[i],
			TempMinC:        d.TempMin[i],
			PrecipitationMM: d.Precipitation[i],
			SnowfallCM:      d.Snowfall[i],
			WindSpeedMaxKmh: d.WindSpeedMax[i],
		})
		if err != nil {
			return nil, &weather.UpstreamError{Op: op, Err: err}
		}
		out = append(out, day)
	}
	return out, nil
}

// getJSON fetches rawURL through the breaker and decodes the body into out.
// 400 and 404 answers come back wrapping errNotFoundStatus.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any) error {
	status := 0
	body, err := c.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		status = resp.StatusCode
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, err
		}
		switch {
		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", errNotFoundStatus, singleLine(string(b)))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, errors.New(singleLine(string(b)))
		}
		return b, nil
	})
	if err != nil {
		return &weather.UpstreamError{Op: op, StatusCode: status, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &weather.UpstreamError{Op: op, StatusCode: status, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// singleLine trims and collapses internal whitespace/newlines to single spaces.
func singleLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
