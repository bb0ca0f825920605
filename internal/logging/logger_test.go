package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewFile(path, "info", "json")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("sheet written", zap.String("sheet", "Chicken Momos"), zap.Int("rows", 3))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"sheet written"`)
	assert.Contains(t, string(data), `"sheet":"Chicken Momos"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewFile_Console(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewFile(path, "debug", "console")
	require.NoError(t, err)

	logger.Debug("fetching", zap.String("location", "17.49,78.39"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")
	assert.Contains(t, string(data), "fetching")
}

func TestNewFile_BadPath(t *testing.T) {
	logger, err := NewFile(filepath.Join(t.TempDir(), "missing", "dir", "run.log"), "info", "json")
	assert.Error(t, err)
	require.NotNil(t, logger)
	logger.Info("dropped")
}

func TestTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewFile(path, "info", "json")
	require.NoError(t, err)

	var buf bytes.Buffer
	logger = Tee(logger, zapcore.AddSync(&buf), "warn")
	logger.Info("searching", zap.String("query", "Chicken Momos"))
	logger.Warn("fetch failed", zap.Int("status", 403))
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "searching")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "fetch failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "searching")
	assert.Contains(t, string(data), "fetch failed")
}
