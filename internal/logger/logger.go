package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by InitFromEnv.
const (
	envLogPath  = "WEATHER_MCP_LOG"
	envLogLevel = "WEATHER_MCP_LOG_LEVEL"
)

// Options configures the log file and its rotation.
type Options struct {
	Path       string `koanf:"path"`
	Level      string `koanf:"level"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

var (
	mu       sync.RWMutex
	levelVar = new(slog.LevelVar)
	std      = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	out      io.Closer
)

// DefaultPath returns the log file path next to the executable.
func DefaultPath() string {
	if exePath, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exePath), "weather-mcp.log")
	}
	return "./weather-mcp.log"
}

// InitFromEnv initializes the logger using WEATHER_MCP_LOG and
// WEATHER_MCP_LOG_LEVEL, falling back to DefaultPath at info level.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		path = DefaultPath()
	}
	return Init(Options{Path: path, Level: os.Getenv(envLogLevel)})
}

// Init points the logger at a rotated file. Calling it again replaces the
// previous output. stdout is never used: it carries the MCP stdio transport.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	if err := ensureParentDir(opts.Path); err != nil {
		return err
	}
	w := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	setOutput(w, w, level)
	return nil
}

// SetOutput sends logs to w. Used by tests and by callers that own the writer.
func SetOutput(w io.Writer, level slog.Level) {
	setOutput(w, nil, level)
}

func setOutput(w io.Writer, c io.Closer, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		_ = out.Close()
	}
	levelVar.Set(level)
	std = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
	out = c
}

// Close closes the underlying log file, if open, and falls back to stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	var err error
	if out != nil {
		err = out.Close()
		out = nil
	}
	std = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	return err
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// L returns the current structured logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// StdLogger adapts the logger for libraries that want a *log.Logger.
func StdLogger(level slog.Level) *log.Logger {
	return slog.NewLogLogger(L().Handler(), level)
}

// Debugf logs debugging details.
func Debugf(format string, args ...any) { write(slog.LevelDebug, format, args...) }

// Infof logs informational messages.
func Infof(format string, args ...any) { write(slog.LevelInfo, format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write(slog.LevelWarn, format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write(slog.LevelError, format, args...) }

func write(level slog.Level, format string, args ...any) {
	l := L()
	ctx := context.Background()
	if !l.Enabled(ctx, level) {
		return
	}
	l.Log(ctx, level, fmt.Sprintf(format, args...))
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
