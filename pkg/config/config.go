package config

import (
	"context"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"llti.com/pkg/logger"
)

type options struct {
	paths    []string
	defaults map[string]any
	watch    bool
	onChange func(cfg any, err error)
}

type Option func(*options)

// WithPaths 替换默认的搜索目录 (./config, .)
func WithPaths(paths ...string) Option {
	return func(o *options) { o.paths = paths }
}

// WithDefaults 配置文件和环境变量都没给的 key 用这里的值
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) { o.defaults = defaults }
}

// OnChange 配置文件变化时回调。cfg 是新解析出的一份独立配置（与 out 同类型的指针），
// out 本身不会被并发修改。
func OnChange(fn func(cfg any, err error)) Option {
	return func(o *options) {
		o.watch = true
		o.onChange = fn
	}
}

// EnvPrefix llti-bench -> LLTI_BENCH
func EnvPrefix(service string) string {
	return strings.ToUpper(strings.ReplaceAll(service, "-", "_"))
}

// LoadAndWatch 读取 config/{service}.yaml 到 out（必须是指针）。
//
// 环境变量覆盖，例如：
//
//	LLTI_BENCH_BOOK_MIN_PRICE 覆盖 book.min_price
//	LLTI_BENCH_LOG_LEVEL      覆盖 log_level
func LoadAndWatch(service string, out any, opts ...Option) (*viper.Viper, error) {
	o := options{paths: []string{"./config", "."}}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	v.SetConfigName(service)
	v.SetConfigType("yaml")
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}
	for k, val := range o.defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix(service))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(out); err != nil {
		return nil, err
	}

	if !o.watch {
		return v, nil
	}

	ctx := context.Background()
	typ := reflect.TypeOf(out).Elem()
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info(ctx, "config file changed", zap.String("file", e.Name), zap.Stringer("op", e.Op))

		fresh := reflect.New(typ).Interface()
		if err := v.Unmarshal(fresh); err != nil {
			logger.Warn(ctx, "reload config error", zap.Error(err))
			o.onChange(nil, err)
			return
		}
		logger.Info(ctx, "config reloaded OK")
		o.onChange(fresh, nil)
	})
	v.WatchConfig()

	return v, nil
}
