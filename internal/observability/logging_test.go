package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/armory/internal/config"
)

func TestNewLogger_ValidConfigs(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			logger, err := NewLogger(config.LoggingConfig{Level: level, Format: format}, "armoryd")
			require.NoError(t, err, "%s/%s", format, level)
			assert.NotNil(t, logger)
		}
	}
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "armoryd")
	assert.ErrorContains(t, err, `parsing log level "trace"`)

	_, err = NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "armoryd")
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestNewLoggerTo_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerTo(config.LoggingConfig{Level: "info", Format: "json"}, "armoryctl", zapcore.AddSync(&buf))
	require.NoError(t, err)

	Component(logger, "ledger").Info("ledger tick", zap.String("party", "north"))
	logger.Debug("filtered out")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "armoryctl", entry["service"])
	assert.Equal(t, "ledger", entry["logger"])
	assert.Equal(t, "north", entry["party"])
	assert.Equal(t, "ledger tick", entry["msg"])
	assert.NotContains(t, buf.String(), "filtered out")
}

func TestNewLoggerTo_NoServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerTo(config.LoggingConfig{Level: "warn", Format: "json"}, "", zapcore.AddSync(&buf))
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	logger.Warn("armory underflow")
	assert.NotContains(t, buf.String(), `"service"`)
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Component(zap.New(core), "blacklist").Info("loaded")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "blacklist", logs.All()[0].LoggerName)

	assert.NotPanics(t, func() { Component(nil, "x").Info("dropped") })
}
