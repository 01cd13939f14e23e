package logger

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceIdKey 日志里 trace id 的字段名
const TraceIdKey = "trace_id"

type traceCtxKey struct{}

// 全局 Logger 实例，Init 之前是 Nop
var Log = zap.NewNop()

// atom 全局 Log 的级别，配置热更新时通过 SetLevel 修改
var atom = zap.NewAtomicLevel()

// Init 初始化日志组件，只输出到 stdout
// serviceName: 程序名称 (例如 "llti-bench")
// level: 日志级别 (debug, info, warn, error)
func Init(serviceName string, level string) {
	_ = InitWithFile(serviceName, level, "")
}

// InitWithFile 同时写 stdout 和 logFile；logFile 为空时只写 stdout。
// 打不开文件时返回错误，但 stdout 日志已经可用。
func InitWithFile(serviceName string, level string, logFile string) error {
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}

	var fileErr error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			fileErr = err
		} else if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			fileErr = err
		} else {
			sinks = append(sinks, zapcore.AddSync(f))
		}
	}

	atom.SetLevel(parseLevel(level))
	Log = build(serviceName, atom, sinks)
	return fileErr
}

// SetLevel 修改全局 Log 的级别，无法解析时保持原级别
func SetLevel(level string) error {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	atom.SetLevel(l)
	return nil
}

// New 构建一个独立的 JSON logger，不修改全局 Log。测试里传 bytes.Buffer 即可。
func New(serviceName string, level string, sinks ...zapcore.WriteSyncer) *zap.Logger {
	return build(serviceName, zap.NewAtomicLevelAt(parseLevel(level)), sinks)
}

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zap.InfoLevel // 默认 Info
	}
	return l
}

func build(serviceName string, lvl zap.AtomicLevel, sinks []zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(sinks...),
		lvl,
	)

	// AddCallerSkip(1): 跳过本包的封装函数
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.String("service", serviceName))
}

// WithTraceID 把 trace id 放进 ctx，之后的 Info/Error 等会自动带上
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceCtxKey{}, traceID)
}

// ---------------------------------------------------------
// 带 Context 的日志方法
// ---------------------------------------------------------

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Info(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Error(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Warn(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Debug(msg, fields...)
}

// Fatal 会调用 os.Exit
func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	Log.Fatal(msg, fields...)
}

func extractTrace(ctx context.Context, fields *[]zap.Field) {
	if ctx == nil {
		return
	}
	if traceID, ok := ctx.Value(traceCtxKey{}).(string); ok && traceID != "" {
		*fields = append(*fields, zap.String(TraceIdKey, traceID))
	}
}

// Sync 刷新缓冲区 (main 里 defer 调用)
func Sync() {
	_ = Log.Sync()
}
