package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"llti.com/pkg/config"
	"llti.com/pkg/logger"
	"llti.com/pkg/metrics"
	"llti.com/pkg/safe"
)

// Options controls the bootstrap process; the program supplies config
// accessors and its Run body.
type Options struct {
	// Required: config name and target struct
	ConfigName string
	ConfigPtr  any

	// Optional: config search dirs (default ./config and .) and defaults
	ConfigPaths []string
	Defaults    map[string]any

	// Required: extract service name from config
	ServiceName func(cfg any) string

	// Optional accessors; nil or "" means skip / default
	LogLevel    func(cfg any) string
	LogFile     func(cfg any) string
	MetricsAddr func(cfg any) string
	PprofAddr   func(cfg any) string

	// Optional: called with a fresh config copy after the file changes
	OnReload func(cfg any)

	// Required: program body
	Run func(ctx context.Context, cfg any) error
}

var ErrMissingOptions = errors.New("bootstrap: missing required options")

// Run loads config, initializes logging and the debug servers, then runs
// opt.Run until it returns or ctx is cancelled.
func Run(ctx context.Context, opt Options) error {
	if opt.ConfigName == "" || opt.ConfigPtr == nil || opt.ServiceName == nil || opt.Run == nil {
		return ErrMissingOptions
	}

	cfgOpts := []config.Option{config.OnChange(func(c any, err error) {
		if err != nil {
			return
		}
		if opt.LogLevel != nil {
			if err := logger.SetLevel(opt.LogLevel(c)); err != nil {
				logger.Warn(ctx, "ignore invalid log level on reload", zap.Error(err))
			}
		}
		if opt.OnReload != nil {
			opt.OnReload(c)
		}
	})}
	if len(opt.ConfigPaths) > 0 {
		cfgOpts = append(cfgOpts, config.WithPaths(opt.ConfigPaths...))
	}
	if opt.Defaults != nil {
		cfgOpts = append(cfgOpts, config.WithDefaults(opt.Defaults))
	}
	v, err := config.LoadAndWatch(opt.ConfigName, opt.ConfigPtr, cfgOpts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, logFile := "info", ""
	if opt.LogLevel != nil {
		level = opt.LogLevel(opt.ConfigPtr)
	}
	if opt.LogFile != nil {
		logFile = opt.LogFile(opt.ConfigPtr)
	}
	if err := logger.InitWithFile(opt.ServiceName(opt.ConfigPtr), level, logFile); err != nil {
		logger.Warn(ctx, "log file unavailable, stdout only", zap.String("file", logFile), zap.Error(err))
	}
	defer logger.Sync()
	// logger 初始化之后才能落日志
	logger.Info(ctx, "config loaded", zap.String("file", v.ConfigFileUsed()))

	var servers []*http.Server
	if opt.PprofAddr != nil {
		if addr := opt.PprofAddr(opt.ConfigPtr); addr != "" {
			servers = append(servers, startPprof(ctx, addr))
		}
	}
	if opt.MetricsAddr != nil {
		if addr := opt.MetricsAddr(opt.ConfigPtr); addr != "" {
			metrics.MustRegister()
			servers = append(servers, startMetrics(ctx, addr))
		}
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			_ = srv.Shutdown(c)
		}
	}()

	logger.Info(ctx, "service started")
	err := opt.Run(ctx, opt.ConfigPtr)
	if err != nil {
		logger.Error(ctx, "service failed", zap.Error(err))
	} else {
		logger.Info(ctx, "service stopped")
	}
	return err
}

func startPprof(ctx context.Context, addr string) *http.Server {
	runtime.SetMutexProfileFraction(10)
	runtime.SetBlockProfileRate(10000)

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return serve(ctx, "pprof", &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	})
}

func startMetrics(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return serve(ctx, "metrics", &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	})
}

func serve(ctx context.Context, name string, srv *http.Server) *http.Server {
	safe.GoCtx(ctx, func(ctx context.Context) {
		logger.Info(ctx, name+" listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, name+" server error", zap.Error(err))
		}
	})
	return srv
}
