// Command weather-mcp serves city search, forecasts and activity rankings as
// MCP tools over stdio, and optionally as a JSON HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"github.com/leonardcser/weather-mcp/internal/cache"
	"github.com/leonardcser/weather-mcp/internal/config"
	"github.com/leonardcser/weather-mcp/internal/httpapi"
	"github.com/leonardcser/weather-mcp/internal/logger"
	"github.com/leonardcser/weather-mcp/internal/metrics"
	"github.com/leonardcser/weather-mcp/internal/openmeteo"
	"github.com/leonardcser/weather-mcp/internal/service"
	"github.com/leonardcser/weather-mcp/internal/tools"
	"github.com/leonardcser/weather-mcp/internal/weather"
)

const (
	version          = "0.1.0"
	cacheDaemonName  = "weather-mcp-cache"
	daemonWaitPolls  = 25
	daemonWaitPeriod = 200 * time.Millisecond
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "weather-mcp",
		Usage:   "city search and weather recommendations over MCP",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (.yaml, .yml or .json)",
				Sources: cli.EnvVars("WEATHER_MCP_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "also serve the JSON API on this address",
			},
			&cli.BoolFlag{
				Name:  "stdio",
				Usage: "serve MCP over stdin/stdout",
				Value: true,
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if cmd.IsSet("http-addr") {
		cfg.HTTP.Addr = cmd.String("http-addr")
	}
	if !cmd.Bool("stdio") && cfg.HTTP.Addr == "" {
		return errors.New("nothing to serve: stdio is off and no http address is set")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Close()
	logger.Infof("Starting weather MCP server %s", version)

	caches, closeCaches, err := buildCaches(ctx, cfg.Cache)
	if err != nil {
		logger.Errorf("cache setup failed: %v", err)
		return err
	}
	defer closeCaches()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	rec, err := metrics.NewOTel(mp)
	if err != nil {
		return err
	}

	provider := openmeteo.New(openmeteo.Options{
		GeocodingURL:    cfg.Upstream.GeocodingURL,
		ForecastURL:     cfg.Upstream.ForecastURL,
		SearchCount:     cfg.Upstream.SearchCount,
		HTTPClient:      &http.Client{Timeout: cfg.Upstream.Timeout},
		BreakerFailures: cfg.Upstream.BreakerFailures,
		BreakerCooldown: cfg.Upstream.BreakerCooldown,
	})
	svc := service.New(provider, caches,
		service.WithSearchTTL(cfg.Search.TTL),
		service.WithForecastTTL(cfg.Forecast.TTL),
		service.WithUpstreamTimeout(cfg.Upstream.Timeout),
		service.WithRecorder(rec),
	)
	logger.Infof("Initialized city service (cache backend %s)", cfg.Cache.Backend)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if cmd.Bool("stdio") {
		s := newMCPServer(svc, func(ctx context.Context) ([]metrics.Point, error) {
			return metrics.Snapshot(ctx, reader)
		})
		g.Go(func() error {
			// The MCP client closing stdin ends the whole process.
			defer cancel()
			logger.Infof("Starting MCP server on stdio")
			err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.New(svc, cfg.HTTP.RequestTimeout).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Infof("Starting HTTP API on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Errorf("server error: %v", err)
		return err
	}
	return nil
}

func newMCPServer(svc tools.Service, collect tools.CollectFunc) *server.MCPServer {
	s := server.NewMCPServer(
		"Weather MCP",
		version,
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("city-search",
		mcp.WithDescription(multiline(
			"Searches cities by name and returns the best matches first",
			"\nFunctionality:",
			"- Exact name matches come first, then larger cities",
			"- Each result carries the city id used by the other tools",
			"\nUsage notes:",
			"- Punctuation other than hyphens and apostrophes is ignored",
			"- Results are cached for a while; repeated searches are fast",
		)),
		mcp.WithString("query", mcp.Required(), mcp.Description("City name or part of it")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of results (default %d)", service.DefaultLimit))),
	), tools.CitySearchHandler(svc))

	s.AddTool(mcp.NewTool("city-lookup",
		mcp.WithDescription("Returns one city by the id reported by city-search"),
		mcp.WithNumber("city_id", mcp.Required(), mcp.Description("City id from city-search")),
	), tools.CityLookupHandler(svc))

	s.AddTool(mcp.NewTool("weather-forecast",
		mcp.WithDescription(multiline(
			"Returns the daily weather forecast for a city",
			"\nUsage notes:",
			fmt.Sprintf("- days must be between 1 and %d", weather.MaxForecastDays),
			"- Temperatures are in °C, precipitation in mm, snowfall in cm, wind in km/h",
		)),
		mcp.WithNumber("city_id", mcp.Required(), mcp.Description("City id from city-search")),
		mcp.WithNumber("days", mcp.Description(fmt.Sprintf("Forecast length in days (default %d)", service.DefaultDays))),
	), tools.ForecastHandler(svc))

	s.AddTool(mcp.NewTool("activity-ranking",
		mcp.WithDescription(multiline(
			"Ranks skiing, surfing, outdoor and indoor sightseeing for a city by the forecast",
			"\nUsage notes:",
			"- Scores are 0 to 100, averaged over the forecast days",
			"- The best single day is reported per activity",
		)),
		mcp.WithNumber("city_id", mcp.Required(), mcp.Description("City id from city-search")),
		mcp.WithNumber("days", mcp.Description(fmt.Sprintf("Forecast length in days (default %d)", service.DefaultDays))),
	), tools.ActivityRankingHandler(svc))

	s.AddTool(mcp.NewTool("service-stats",
		mcp.WithDescription("Reports cache hits and misses and upstream call counts since start"),
	), tools.ServiceStatsHandler(collect))

	logger.Infof("Registered MCP tools")
	return s
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

// buildCaches returns the caches for the configured backend and a func
// releasing whatever they hold.
func buildCaches(ctx context.Context, cfg config.CacheConfig) (service.Caches, func(), error) {
	switch cfg.Backend {
	case config.BackendDaemon:
		client, err := connectDaemon(ctx, cfg.Socket)
		if err != nil {
			return service.Caches{}, nil, err
		}
		return service.NewRemoteCaches(client), func() {}, nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return service.Caches{}, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		kv := cache.NewRedisKV(rdb, cfg.RedisPrefix)
		logger.Infof("Connected to redis at %s", cfg.RedisAddr)
		return service.NewRemoteCaches(kv), func() { _ = kv.Close() }, nil
	default:
		return service.NewMemoryCaches(cache.WithMaxSize(cfg.MaxSize)), func() {}, nil
	}
}

// connectDaemon connects to the cache daemon, starting it first if needed.
func connectDaemon(ctx context.Context, sock string) (*cache.Client, error) {
	client := cache.NewClient(sock)
	logger.Infof("Attempting to connect to cache daemon at %s", sock)
	err := client.Ping(ctx)
	if err == nil {
		logger.Infof("Successfully connected to cache daemon")
		return client, nil
	}
	logger.Warnf("Failed to connect to cache daemon: %v, attempting to start daemon", err)
	if err := startCacheDaemon(sock); err != nil {
		return nil, fmt.Errorf("start cache daemon: %w", err)
	}
	err = retry.New(
		retry.Attempts(daemonWaitPolls),
		retry.Delay(daemonWaitPeriod),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	).Do(func() error {
		return client.Ping(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("cache daemon at %s: %w", sock, err)
	}
	logger.Infof("Cache daemon started, connected")
	return client, nil
}

func startCacheDaemon(sock string) error {
	var candidates []string
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), cacheDaemonName))
	}
	if path, err := exec.LookPath(cacheDaemonName); err == nil {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, "./"+cacheDaemonName)

	for _, bin := range candidates {
		if _, err := os.Stat(bin); err != nil {
			continue
		}
		cmd := exec.Command(bin, "--socket", sock)
		cmd.Env = os.Environ()
		return cmd.Start()
	}
	return exec.ErrNotFound
}
