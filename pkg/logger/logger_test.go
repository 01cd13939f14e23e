package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func decodeLine(t *testing.T, b []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &entry), "日志输出必须是合法的 JSON")
	return entry
}

func TestLogger_Info_WithTraceID(t *testing.T) {
	buffer := &bytes.Buffer{}
	Log = New("llti-bench", "info", zapcore.AddSync(buffer))

	ctx := WithTraceID(context.Background(), "run-12345")
	Info(ctx, "lookup phase done", zap.String("layout", "veb"), zap.Float64("ns_per_op", 12.5))

	entry := decodeLine(t, buffer.Bytes())
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "lookup phase done", entry["msg"])
	assert.Equal(t, "llti-bench", entry["service"])
	assert.Equal(t, "veb", entry["layout"])
	assert.Equal(t, 12.5, entry["ns_per_op"])
	assert.Equal(t, "run-12345", entry[TraceIdKey], "TraceID 未能自动注入到日志中")
	assert.Contains(t, entry["caller"], "logger_test.go", "caller 应该指向调用方而不是 logger.go")
}

func TestLogger_Error_NoTraceID(t *testing.T) {
	buffer := &bytes.Buffer{}
	Log = New("llti-bench", "info", zapcore.AddSync(buffer))

	Error(context.Background(), "model mismatch", zap.Int("op", 7))
	Warn(nil, "no ctx")

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.Len(t, lines, 2)

	entry := decodeLine(t, []byte(lines[0]))
	_, exists := entry[TraceIdKey]
	assert.False(t, exists, "没有 TraceID 的 Context 不应该输出 trace_id 字段")
	assert.Equal(t, "ERROR", entry["level"])
}

func TestLogger_LevelFilter(t *testing.T) {
	buffer := &bytes.Buffer{}
	Log = New("llti-bench", "warn", zapcore.AddSync(buffer))

	Debug(context.Background(), "dropped")
	Info(context.Background(), "dropped")
	Warn(context.Background(), "kept")
	assert.Equal(t, 1, strings.Count(buffer.String(), "\n"))

	// 无法解析的级别回退到 info
	buffer.Reset()
	Log = New("llti-bench", "verbose", zapcore.AddSync(buffer))
	Debug(context.Background(), "dropped")
	Info(context.Background(), "kept")
	assert.Equal(t, 1, strings.Count(buffer.String(), "\n"))
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bench.log")
	require.NoError(t, InitWithFile("llti-bench", "info", path))
	Info(context.Background(), "to file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, InitWithFile("llti-bench", "error", ""))
	assert.False(t, Log.Core().Enabled(zap.InfoLevel))

	require.NoError(t, SetLevel("debug"))
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))

	assert.Error(t, SetLevel("loud"))
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))
}
