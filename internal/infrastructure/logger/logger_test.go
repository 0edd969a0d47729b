package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "production config", cfg: ProductionConfig()},
		{name: "development config", cfg: DevelopmentConfig()},
		{
			name: "file output",
			cfg: &Config{
				Level:      "info",
				Format:     "json",
				Output:     filepath.Join(t.TempDir(), "mapmate.log"),
				TimeFormat: "2006-01-02T15:04:05Z07:00",
			},
		},
		{
			name: "unwritable file",
			cfg: &Config{
				Level:  "info",
				Format: "json",
				Output: filepath.Join(t.TempDir(), "missing", "dir", "mapmate.log"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestConfigForEnvironment(t *testing.T) {
	tests := []struct {
		env    string
		level  string
		format string
	}{
		{"production", "info", "json"},
		{"Development", "debug", "console"},
		{"cli", "warn", "console"},
		{"", "warn", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := ConfigForEnvironment(tt.env)
			assert.Equal(t, tt.level, cfg.Level)
			assert.Equal(t, tt.format, cfg.Format)
			assert.Equal(t, "stderr", cfg.Output)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&Config{Level: "info", Format: "json", TimeFormat: "2006"}, &buf)

	logger.Debug("hidden")
	logger.Info("shown", zap.String("path", "/matching/board"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "/matching/board", entry["path"])
}

func TestContextLogger_InjectsFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&Config{Level: "debug", Format: "json", TimeFormat: "2006"}, &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithUserID(ctx, "42")
	ctx = WithRequestID(ctx, base, "req-1")

	L(ctx).Debug("request sent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, 1, strings.Count(lines[0], `"request_id"`))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "42", entry["user_id"])
}

func TestL_WithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Debug("dropped")
	})
	assert.Empty(t, stringValue(context.Background(), requestIDKey))
}
