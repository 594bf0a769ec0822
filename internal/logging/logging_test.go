package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupHandlerText(t *testing.T) {
	tests := []struct {
		name        string
		logLevel    string
		debugLogged bool
		infoLogged  bool
		warnLogged  bool
	}{
		{name: "trace level", logLevel: "trace", debugLogged: true, infoLogged: true, warnLogged: true},
		{name: "debug level", logLevel: "debug", debugLogged: true, infoLogged: true, warnLogged: true},
		{name: "info level", logLevel: "info", infoLogged: true, warnLogged: true},
		{name: "default level", logLevel: "", infoLogged: true, warnLogged: true},
		{name: "warn level", logLevel: "warn", warnLogged: true},
		{name: "warning level", logLevel: "warning", warnLogged: true},
		{name: "mixed case level", logLevel: "DeBuG", debugLogged: true, infoLogged: true, warnLogged: true},
		{name: "error level", logLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(SetupHandlerText(tt.logLevel, &buf))

			logger.Debug("debug message")
			logger.Info("info message", "key", "value")
			logger.Warn("warn message")
			logger.Error("error message")

			output := buf.String()
			assert.Equal(t, tt.debugLogged, bytes.Contains(buf.Bytes(), []byte("debug message")))
			assert.Equal(t, tt.infoLogged, bytes.Contains(buf.Bytes(), []byte("info message")))
			assert.Equal(t, tt.warnLogged, bytes.Contains(buf.Bytes(), []byte("warn message")))
			assert.Contains(t, output, "error message")
			assert.Contains(t, output, "ruvy")
		})
	}
}

func TestSetupHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(SetupHandlerJSON("trace", &buf))
	logger.Debug("built", "segments", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "DEBUG", record["level"])
	require.Equal(t, "built", record["msg"])
	require.Equal(t, float64(3), record["segments"])
	require.Contains(t, record, slog.SourceKey)
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		logLevel    string
		expectedErr string
	}{
		{name: "text", format: "text", logLevel: "info"},
		{name: "default format", format: "", logLevel: "debug"},
		{name: "json", format: "JSON", logLevel: "warn"},
		{name: "bad format", format: "xml", logLevel: "info", expectedErr: `invalid log format "xml": must be text or json`},
		{name: "bad level", format: "text", logLevel: "loud", expectedErr: `invalid log level "loud": must be one of trace, debug, info, warn, error`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.format, tt.logLevel, &bytes.Buffer{})
			if tt.expectedErr != "" {
				require.EqualError(t, err, tt.expectedErr)
				require.Nil(t, h)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, h)
		})
	}
}
