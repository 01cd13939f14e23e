package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"llti.com/pkg/bootstrap"
	"llti.com/pkg/logger"
	"llti.com/pkg/report"
)

func main() {
	// 收到 SIGINT/SIGTERM 时取消 ctx，各阶段尽快退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	err := bootstrap.Run(ctx, bootstrap.Options{
		ConfigName:  "llti-bench",
		ConfigPtr:   cfg,
		Defaults:    defaults,
		ServiceName: func(c any) string { return c.(*Config).Name },
		LogLevel:    func(c any) string { return c.(*Config).LogLevel },
		LogFile:     func(c any) string { return c.(*Config).LogFile },
		MetricsAddr: func(c any) string { return c.(*Config).MetricsAddr },
		PprofAddr:   func(c any) string { return c.(*Config).PprofAddr },
		Run: func(ctx context.Context, c any) error {
			return run(ctx, c.(*Config))
		},
	})
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000")
	ctx = logger.WithTraceID(ctx, runID)
	rep := &report.Report{RunID: runID, StartedAt: time.Now()}

	logger.Info(ctx, "run started",
		zap.Uint64("seed", cfg.Seed),
		zap.Bool("lookup", cfg.Lookup.Enabled),
		zap.Bool("book", cfg.Book.Enabled),
	)

	// 依次跑，避免两个阶段互相干扰计时
	var runErr error
	if cfg.Lookup.Enabled {
		rep.Lookup, runErr = runLookups(ctx, cfg.Seed, cfg.Lookup)
	}
	if cfg.Book.Enabled && runErr == nil {
		rep.Book, runErr = runBook(ctx, cfg.Seed, cfg.Book)
	}
	rep.Elapsed = report.Duration(time.Since(rep.StartedAt))

	if err := report.Write(cfg.Report, rep); err != nil {
		return err
	}
	return runErr
}
