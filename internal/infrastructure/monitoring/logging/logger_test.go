package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// newTestLogger returns a logger writing JSON to an in-memory buffer.
func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_UnopenablePath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/sub/log.json"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestNewDevelopmentLogger_NotNil(t *testing.T) {
	assert.NotNil(t, NewDevelopmentLogger())
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("child"))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"DEBUG":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestZapLogger_Levels(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, out, `"level":"`+lvl+`"`)
		assert.Contains(t, out, lvl+" msg")
	}
}

func TestZapLogger_FieldTypes(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Warn("field extraction failed",
		String(KeyField, "agents"),
		Strings("paths", []string{"a", "b"}),
		Int(KeyRecord, 7),
		Int64("bytes", 42),
		Float64("ratio", 0.5),
		Bool("fallback", true),
		Duration("took", time.Second),
		Err(errors.New("bad date")),
		Any("extra", map[string]int{"n": 1}),
	)

	out := buf.String()
	assert.Contains(t, out, `"field":"agents"`)
	assert.Contains(t, out, `"paths":["a","b"]`)
	assert.Contains(t, out, `"record":7`)
	assert.Contains(t, out, `"bytes":42`)
	assert.Contains(t, out, `"ratio":0.5`)
	assert.Contains(t, out, `"fallback":true`)
	assert.Contains(t, out, `"error":"bad date"`)
	assert.Contains(t, out, `"extra":{"n":1}`)
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Named("parser").With(String(KeyFormat, "XML_V4")).Info("parsed")

	out := buf.String()
	assert.Contains(t, out, `"format":"XML_V4"`)
	assert.Contains(t, out, `"logger":"parser"`)
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil)
	assert.Equal(t, l, Default(), "nil must not replace the default")
}

func TestOrDefault(t *testing.T) {
	l, _ := newTestLogger(t)
	assert.Equal(t, l, OrDefault(l))
	assert.Equal(t, Default(), OrDefault(nil))
}

func TestLogOperationDuration(t *testing.T) {
	l, buf := newTestLogger(t)
	LogOperationDuration(l, "ingest", time.Now(), String(KeyArchive, "ipg240102.zip"))
	out := buf.String()
	assert.Contains(t, out, "operation completed")
	assert.Contains(t, out, `"operation":"ingest"`)
	assert.Contains(t, out, "duration_ms")

	buf.Reset()
	LogOperationDuration(l, "ingest", time.Now().Add(-time.Minute))
	assert.Contains(t, buf.String(), "slow operation")
}

func TestZapLogger_SetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(LogConfig{Level: LevelInfo, OutputPaths: []string{path}})
	require.NoError(t, err)
	child := l.Named("ingest")

	setter, ok := l.(LevelSetter)
	require.True(t, ok)
	setter.SetLevel(LevelError)
	child.Info("hidden after raise")
	child.Error("still visible")

	setter.SetLevel(LevelDebug)
	l.Debug("visible after lower")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.NotContains(t, out, "hidden after raise")
	assert.Contains(t, out, "still visible")
	assert.Contains(t, out, "visible after lower")
}

//Personal.AI order the ending
