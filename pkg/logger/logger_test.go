package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmabot/pkg/config"
)

func clearLoggerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envLogFormat, envLogLevel} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestJSONFormat(t *testing.T) {
	clearLoggerEnv(t)

	var buf bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &buf)
	require.NoError(t, err)

	log.Info("hello", "component", "test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
}

func TestLevelFiltersOutput(t *testing.T) {
	clearLoggerEnv(t)

	var buf bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "json", Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestTextFormat(t *testing.T) {
	clearLoggerEnv(t)

	var buf bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "text", Level: "debug"}, &buf)
	require.NoError(t, err)

	log.Debug("verbose detail")
	assert.Contains(t, buf.String(), "verbose detail")
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	clearLoggerEnv(t)

	var buf bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{}, &buf)
	require.NoError(t, err)

	log.Debug("below default level")
	assert.Zero(t, buf.Len())

	log.Info("at default level")
	assert.Contains(t, buf.String(), "at default level")
}

func TestEnvOverridesConfig(t *testing.T) {
	clearLoggerEnv(t)
	t.Setenv(envLogFormat, "json")
	t.Setenv(envLogLevel, "error")

	var buf bytes.Buffer
	log, err := newWithWriter(config.LoggingConfig{Format: "text", Level: "debug"}, &buf)
	require.NoError(t, err)

	log.Warn("dropped by env level")
	assert.Zero(t, buf.Len())

	log.Error("shipped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shipped", entry["msg"])
}

func TestUnsupportedValuesRejected(t *testing.T) {
	clearLoggerEnv(t)

	_, err := newWithWriter(config.LoggingConfig{Format: "xml"}, os.Stderr)
	assert.ErrorContains(t, err, `unsupported log format "xml"`)

	_, err = newWithWriter(config.LoggingConfig{Level: "loud"}, os.Stderr)
	assert.ErrorContains(t, err, `unsupported log level "loud"`)
}

func TestParseLevelAliases(t *testing.T) {
	clearLoggerEnv(t)

	level, err := parseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
