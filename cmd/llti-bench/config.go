package main

import (
	"errors"
	"fmt"
	"slices"
)

type Config struct {
	Name        string `mapstructure:"name"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	PprofAddr   string `mapstructure:"pprof_addr"`
	Report      string `mapstructure:"report"`
	Seed        uint64 `mapstructure:"seed"`

	Lookup LookupCfg `mapstructure:"lookup"`
	Book   BookCfg   `mapstructure:"book"`
}

type LookupCfg struct {
	Enabled bool     `mapstructure:"enabled"`
	Layouts []string `mapstructure:"layouts"`
	Sizes   []int    `mapstructure:"sizes"`
	Queries int      `mapstructure:"queries"`
	HitPct  int      `mapstructure:"hit_pct"`
	Readers int      `mapstructure:"readers"`
}

// BookCfg 价格用十进制字符串配置，由 tick_size 换算成 tick
type BookCfg struct {
	Enabled     bool    `mapstructure:"enabled"`
	TickSize    string  `mapstructure:"tick_size"`
	MinPrice    string  `mapstructure:"min_price"`
	MaxPrice    string  `mapstructure:"max_price"`
	Ops         int     `mapstructure:"ops"`
	MaxLive     int     `mapstructure:"max_live"`
	MaxQty      int32   `mapstructure:"max_qty"`
	CancelPct   int     `mapstructure:"cancel_pct"`
	ModifyPct   int     `mapstructure:"modify_pct"`
	StrayPct    int     `mapstructure:"stray_pct"`
	Rate        float64 `mapstructure:"rate"`
	Burst       int     `mapstructure:"burst"`
	VerifyEvery int     `mapstructure:"verify_every"`
}

var defaults = map[string]any{
	"name":              "llti-bench",
	"log_level":         "info",
	"report":            "-",
	"lookup.layouts":    allLayouts,
	"lookup.hit_pct":    50,
	"lookup.readers":    1,
	"book.tick_size":    "1",
	"book.max_qty":      100,
	"book.verify_every": 0,
}

var errInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	if c.Lookup.Enabled {
		if len(c.Lookup.Sizes) == 0 || c.Lookup.Queries <= 0 {
			return fmt.Errorf("%w: lookup needs sizes and queries", errInvalidConfig)
		}
		for _, n := range c.Lookup.Sizes {
			if n <= 0 {
				return fmt.Errorf("%w: lookup size %d", errInvalidConfig, n)
			}
		}
		for _, l := range c.Lookup.Layouts {
			if !slices.Contains(allLayouts, l) {
				return fmt.Errorf("%w: unknown layout %q", errInvalidConfig, l)
			}
		}
		if c.Lookup.HitPct < 0 || c.Lookup.HitPct > 100 {
			return fmt.Errorf("%w: hit_pct %d", errInvalidConfig, c.Lookup.HitPct)
		}
		if c.Lookup.Readers < 1 {
			return fmt.Errorf("%w: readers %d", errInvalidConfig, c.Lookup.Readers)
		}
	}
	if c.Book.Enabled && (c.Book.MinPrice == "" || c.Book.MaxPrice == "") {
		return fmt.Errorf("%w: book needs min_price and max_price", errInvalidConfig)
	}
	if !c.Lookup.Enabled && !c.Book.Enabled {
		return fmt.Errorf("%w: nothing enabled", errInvalidConfig)
	}
	return nil
}
