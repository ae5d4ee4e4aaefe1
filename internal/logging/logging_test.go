package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/ish/internal/config"
)

func TestNewWithoutPathDiscards(t *testing.T) {
	log, closer, err := New(config.LogConfig{})
	require.NoError(t, err)
	assert.False(t, log.Enabled(t.Context(), slog.LevelError))
	require.NoError(t, closer.Close())
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ish.log")
	log, closer, err := New(config.LogConfig{Path: path, Level: "debug", Format: "json", MaxSizeMB: 1})
	require.NoError(t, err)
	log.Debug("spawn", "name", "ls", "pid", 42)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"spawn"`)
	assert.Contains(t, string(data), `"pid":42`)
}

func TestNewHonoursLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ish.log")
	log, closer, err := New(config.LogConfig{Path: path, Level: "warn", MaxSizeMB: 1})
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
