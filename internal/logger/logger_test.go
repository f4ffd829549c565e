package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetOutputFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelInfo)
	t.Cleanup(func() { _ = Close() })

	Debugf("hidden %d", 1)
	Infof("cache hit for %s", "paris")
	Errorf("upstream %s failed", "search")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "cache hit for paris")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "upstream search failed")
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelDebug)
	t.Cleanup(func() { _ = Close() })

	StdLogger(slog.LevelWarn).Print("from chi")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "from chi")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "weather-mcp.log")
	require.NoError(t, Init(Options{Path: path, Level: "debug", MaxSizeMB: 1}))

	Debugf("forecast for %d", 42)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "forecast for 42")
}

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Options{Path: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})
	assert.Error(t, err)
}
