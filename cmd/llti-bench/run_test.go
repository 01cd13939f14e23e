package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llti.com/internal/orderbook"
	"llti.com/internal/workload"
	"llti.com/pkg/report"
)

func smallConfig(t *testing.T) *Config {
	return &Config{
		Name:   "llti-bench",
		Report: filepath.Join(t.TempDir(), "report.json"),
		Seed:   1,
		Lookup: LookupCfg{
			Enabled: true,
			Layouts: allLayouts,
			Sizes:   []int{1, 17, 1000},
			Queries: 5000,
			HitPct:  50,
			Readers: 3,
		},
		Book: BookCfg{
			Enabled:     true,
			TickSize:    "0.5",
			MinPrice:    "100",
			MaxPrice:    "150",
			Ops:         20_000,
			MaxLive:     1000,
			MaxQty:      50,
			CancelPct:   30,
			ModifyPct:   30,
			StrayPct:    5,
			VerifyEvery: 2500,
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := smallConfig(t)
	require.NoError(t, run(context.Background(), cfg))

	rep, err := report.Read(cfg.Report)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)

	require.Len(t, rep.Lookup, len(cfg.Lookup.Sizes)*len(allLayouts))
	for _, st := range rep.Lookup {
		assert.True(t, st.Agreement, "%s n=%d", st.Layout, st.Entries)
		assert.Equal(t, cfg.Lookup.Queries, st.Queries)
		assert.Positive(t, st.Hits)
	}

	require.NotNil(t, rep.Book)
	assert.True(t, rep.Book.Verified)
	assert.Equal(t, int64(200), rep.Book.MinTick)
	assert.Equal(t, int64(300), rep.Book.MaxTick)
	assert.Equal(t, cfg.Book.Ops, rep.Book.Ops)
	assert.Equal(t, rep.Book.Ops, rep.Book.Adds+rep.Book.Cancels+rep.Book.Modifies)
	assert.LessOrEqual(t, rep.Book.LiveOrders, cfg.Book.MaxLive)
	assert.NotEmpty(t, rep.Book.PeakPrice)
}

func TestRunLayout_Checksum(t *testing.T) {
	ctx := context.Background()
	keys := workload.Keys(1000, 3)
	entries := workload.Entries(keys)
	queries := workload.Queries(keys, 2000, 50, 4)
	exp, err := oracle(entries, queries)
	require.NoError(t, err)
	require.Positive(t, exp.sum)

	for _, layout := range allLayouts {
		st, err := runLayout(ctx, layout, entries, queries, exp, 2)
		require.NoError(t, err, layout)
		assert.Equal(t, exp.sum, st.Checksum, layout)
		assert.True(t, st.Agreement, layout)
	}

	// 命中数相同但 value 不同也要报不一致
	bad := *exp
	bad.sum++
	st, err := runLayout(ctx, layoutVeb, entries, queries, &bad, 1)
	assert.ErrorIs(t, err, errLayoutMismatch)
	assert.False(t, st.Agreement)
}

func TestRun_Deterministic(t *testing.T) {
	a, b := smallConfig(t), smallConfig(t)
	a.Lookup.Enabled, b.Lookup.Enabled = false, false
	require.NoError(t, run(context.Background(), a))
	require.NoError(t, run(context.Background(), b))

	ra, err := report.Read(a.Report)
	require.NoError(t, err)
	rb, err := report.Read(b.Report)
	require.NoError(t, err)
	assert.Equal(t, ra.Book.LiveOrders, rb.Book.LiveOrders)
	assert.Equal(t, ra.Book.PriceLevels, rb.Book.PriceLevels)
	assert.Equal(t, ra.Book.PeakPrice, rb.Book.PeakPrice)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(c *Config){
		"no sizes":       func(c *Config) { c.Lookup.Sizes = nil },
		"zero size":      func(c *Config) { c.Lookup.Sizes = []int{0} },
		"bad layout":     func(c *Config) { c.Lookup.Layouts = []string{"btree"} },
		"hit pct":        func(c *Config) { c.Lookup.HitPct = 101 },
		"no readers":     func(c *Config) { c.Lookup.Readers = 0 },
		"no price range": func(c *Config) { c.Book.MaxPrice = "" },
		"nothing enabled": func(c *Config) {
			c.Lookup.Enabled = false
			c.Book.Enabled = false
		},
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := smallConfig(t)
			mut(c)
			assert.ErrorIs(t, c.Validate(), errInvalidConfig)
		})
	}
	assert.NoError(t, smallConfig(t).Validate())
}

func TestRunBook_OffGridPrice(t *testing.T) {
	cfg := smallConfig(t).Book
	cfg.MinPrice = "100.25"
	_, err := runBook(context.Background(), 1, cfg)
	assert.Error(t, err)
}

func TestRunLookups_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runLookups(ctx, 1, smallConfig(t).Lookup)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTable(t *testing.T) {
	for _, l := range allLayouts {
		tbl, err := newTable(l)
		require.NoError(t, err)
		assert.Equal(t, 0, tbl.Len())
	}
	_, err := newTable("btree")
	assert.Error(t, err)
}

func TestPeakLevel(t *testing.T) {
	b, err := orderbook.New(0, 9)
	require.NoError(t, err)
	_, _, ok := peakLevel(b)
	assert.False(t, ok)

	b.AddOrder(1, 3, 5)
	b.AddOrder(2, 9, 8)
	b.AddOrder(3, 3, 2)
	p, v, ok := peakLevel(b)
	require.True(t, ok)
	assert.Equal(t, orderbook.PriceTick(9), p)
	assert.Equal(t, int32(8), v)
}
