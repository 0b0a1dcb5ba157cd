package logging

import (
	"bytes"
	"encoding/json"
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
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info+2", slog.LevelInfo + 2},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	defaultLogger := slog.Default()
	t.Cleanup(func() { slog.SetDefault(defaultLogger) })

	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "bot.log")
	logger, cleanup, err := newLogger(&stderr, "warn", path)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "user_id", 7)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, stderr.String(), string(data))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "calorigram", rec["app"])
	assert.EqualValues(t, 7, rec["user_id"])
	assert.Same(t, logger, slog.Default())
}

func TestNewFailsOnUnwritableFile(t *testing.T) {
	_, _, err := newLogger(&bytes.Buffer{}, "info", filepath.Join(t.TempDir(), "missing", "bot.log"))
	assert.Error(t, err)
}
