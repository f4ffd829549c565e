// Command weather-mcp-cache is the shared cache daemon. It keeps entries in
// process memory and answers the cache protocol on a unix socket.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/leonardcser/weather-mcp/internal/cache"
	"github.com/leonardcser/weather-mcp/internal/config"
	"github.com/leonardcser/weather-mcp/internal/logger"
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
		Name:  "weather-mcp-cache",
		Usage: "in-memory TTL cache daemon for weather-mcp",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "socket",
				Aliases: []string{"s"},
				Usage:   "unix socket path",
				Value:   config.DefaultSocketPath(),
				Sources: cli.EnvVars("WEATHER_MCP_CACHE_SOCK"),
			},
			&cli.IntFlag{
				Name:    "max-size",
				Usage:   "entry count above which a write sweeps expired entries",
				Value:   cache.DefaultMaxSize,
				Sources: cli.EnvVars("WEATHER_MCP_CACHE_MAX_SIZE"),
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if err := logger.InitFromEnv(); err != nil {
		return err
	}
	defer logger.Close()

	sock := cmd.String("socket")
	// Ensure socket dir exists and remove stale socket
	if err := os.MkdirAll(filepath.Dir(sock), 0o755); err != nil {
		return err
	}
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		return err
	}
	defer os.Remove(sock)
	_ = os.Chmod(sock, 0o600)

	kv := cache.NewMemoryKV(cache.WithMaxSize(cmd.Int("max-size")))
	logger.Infof("cache daemon listening on %s", sock)
	err = cache.Serve(ctx, l, kv)
	logger.Infof("cache daemon stopped (%d entries dropped)", kv.Len())
	return err
}
