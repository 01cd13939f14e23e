package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Book     struct {
		MinPrice string `mapstructure:"min_price"`
		Ops      int    `mapstructure:"ops"`
	} `mapstructure:"book"`
	Readers int `mapstructure:"readers"`
}

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "llti-test.yaml"), []byte(body), 0o644))
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "LLTI_BENCH", EnvPrefix("llti-bench"))
	assert.Equal(t, "GATEWAY", EnvPrefix("gateway"))
}

func TestLoad_FileDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: debug\nbook:\n  min_price: \"100.00\"\n  ops: 10\n")
	t.Setenv("LLTI_TEST_BOOK_OPS", "42")

	var cfg testConfig
	_, err := LoadAndWatch("llti-test", &cfg,
		WithPaths(dir),
		WithDefaults(map[string]any{"readers": 4}),
	)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "100.00", cfg.Book.MinPrice)
	assert.Equal(t, 42, cfg.Book.Ops, "环境变量覆盖文件")
	assert.Equal(t, 4, cfg.Readers, "默认值")
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg testConfig
	_, err := LoadAndWatch("llti-test", &cfg, WithPaths(t.TempDir()))
	assert.Error(t, err)
}

func TestWatch_ReloadDeliversFreshCopy(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: info\n")

	changed := make(chan *testConfig, 4)
	var cfg testConfig
	_, err := LoadAndWatch("llti-test", &cfg, WithPaths(dir), OnChange(func(c any, err error) {
		if err == nil {
			changed <- c.(*testConfig)
		}
	}))
	require.NoError(t, err)

	writeConfig(t, dir, "log_level: warn\n")

	select {
	case c := <-changed:
		assert.Equal(t, "warn", c.LogLevel)
		assert.Equal(t, "info", cfg.LogLevel, "原始 out 不被热更新改写")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
