package safe

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"llti.com/pkg/logger"
)

var ErrPanic = errors.New("safe: recovered panic")

// Go 安全启动协程，panic 只记日志
func Go(fn func()) {
	go func() {
		defer recoverAndLog(context.Background())
		fn()
	}()
}

// GoCtx 安全启动携带 context 的协程，日志里保留 trace id
func GoCtx(ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		defer recoverAndLog(ctx)
		fn(ctx)
	}()
}

// Run 同步执行 fn，把 panic 转成包装了 ErrPanic 的 error。
// 配合 errgroup 使用：g.Go(func() error { return safe.Run(ctx, "reader", fn) })
func Run(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "GOROUTINE PANIC RECOVERED",
				zap.String("task", name),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			if perr, ok := r.(error); ok {
				err = fmt.Errorf("%w in %s: %w", ErrPanic, name, perr)
				return
			}
			err = fmt.Errorf("%w in %s: %v", ErrPanic, name, r)
		}
	}()
	return fn(ctx)
}

func recoverAndLog(ctx context.Context) {
	if r := recover(); r != nil {
		logger.Error(ctx, "GOROUTINE PANIC RECOVERED",
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())),
		)
	}
}
