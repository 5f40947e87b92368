package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/l1jgo/devkit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("snapshot saved", zap.Int64("frame", 42))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "devkit", entry["logger"])
	assert.Equal(t, "snapshot saved", entry["msg"])
	assert.Equal(t, 42.0, entry["frame"])
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(config.LoggingConfig{Level: "debug"}, zapcore.AddSync(&buf))
	require.NoError(t, err)
	log.Debug("refresh", zap.Int("destroyed", 3))
	require.NoError(t, log.Sync())
	assert.Contains(t, buf.String(), "refresh")
	assert.Contains(t, buf.String(), `{"destroyed": 3}`)
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, err := newLogger(config.LoggingConfig{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
	_, err = newLogger(config.LoggingConfig{Level: "info", Format: "xml"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
