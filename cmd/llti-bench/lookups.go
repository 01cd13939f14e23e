package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"llti.com/internal/lookup"
	"llti.com/internal/workload"
	"llti.com/pkg/logger"
	"llti.com/pkg/metrics"
	"llti.com/pkg/report"
	"llti.com/pkg/safe"
)

const (
	layoutSorted    = "sorted"
	layoutEytzinger = "eytzinger"
	layoutVeb       = "veb"
)

var allLayouts = []string{layoutSorted, layoutEytzinger, layoutVeb}

var errLayoutMismatch = errors.New("lookup layouts disagree")

func newTable(layout string) (lookup.Table[int64], error) {
	switch layout {
	case layoutSorted:
		return &lookup.Sorted[int64]{}, nil
	case layoutEytzinger:
		return &lookup.Eytzinger[int64]{}, nil
	case layoutVeb:
		return &lookup.Veb[int64]{}, nil
	}
	return nil, fmt.Errorf("unknown layout %q", layout)
}

// expected 基线表的查询结果，其它布局都要和它一致
type expected struct {
	vals []int64
	hits []bool
	n    int
	sum  int64
}

func oracle(entries []lookup.Entry[int64], queries []int64) (*expected, error) {
	var s lookup.Sorted[int64]
	if err := s.Build(entries); err != nil {
		return nil, err
	}
	exp := &expected{vals: make([]int64, len(queries)), hits: make([]bool, len(queries))}
	for i, q := range queries {
		exp.vals[i], exp.hits[i] = s.Find(q)
		exp.n += b2i(exp.hits[i])
		exp.sum += exp.vals[i]
	}
	return exp, nil
}

func runLookups(ctx context.Context, seed uint64, cfg LookupCfg) ([]report.LayoutStats, error) {
	var out []report.LayoutStats
	for _, n := range cfg.Sizes {
		keys := workload.Keys(n, seed+uint64(n))
		entries := workload.Entries(keys)
		queries := workload.Queries(keys, cfg.Queries, cfg.HitPct, seed+uint64(n)+1)

		exp, err := oracle(entries, queries)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "lookup workload ready",
			zap.Int("entries", n), zap.Int("queries", len(queries)), zap.Int("expected_hits", exp.n))

		for _, layout := range cfg.Layouts {
			st, err := runLayout(ctx, layout, entries, queries, exp, cfg.Readers)
			if err != nil {
				return out, fmt.Errorf("%s n=%d: %w", layout, n, err)
			}
			out = append(out, st)
		}
	}
	return out, nil
}

func runLayout(ctx context.Context, layout string, entries []lookup.Entry[int64], queries []int64, exp *expected, readers int) (report.LayoutStats, error) {
	st := report.LayoutStats{Layout: layout, Entries: len(entries), Queries: len(queries), Readers: readers}

	tbl, err := newTable(layout)
	if err != nil {
		return st, err
	}
	start := time.Now()
	if err := tbl.Build(entries); err != nil {
		return st, err
	}
	build := time.Since(start)
	st.Build = report.Duration(build)
	metrics.BuildDuration.WithLabelValues(layout).Observe(build.Seconds())

	// 单线程计时；value 累加成 checksum，和基线对账
	start = time.Now()
	for _, q := range queries {
		v, ok := tbl.Find(q)
		st.Checksum += v
		st.Hits += b2i(ok)
	}
	elapsed := time.Since(start)
	if len(queries) > 0 {
		st.NsPerOp = float64(elapsed.Nanoseconds()) / float64(len(queries))
	}
	metrics.LookupLatency.WithLabelValues(layout).Set(st.NsPerOp / 1e9)
	metrics.LookupTotal.WithLabelValues(layout, "hit").Add(float64(st.Hits))
	metrics.LookupTotal.WithLabelValues(layout, "miss").Add(float64(len(queries) - st.Hits))

	// 多个 reader 并发查同一张表，逐条核对
	if err := verifyConcurrent(ctx, layout, tbl, queries, exp, readers); err != nil {
		return st, err
	}
	st.Agreement = st.Hits == exp.n && st.Checksum == exp.sum

	logger.Info(ctx, "lookup layout done",
		zap.String("layout", layout),
		zap.Int("entries", len(entries)),
		zap.Duration("build", build),
		zap.Float64("ns_per_op", st.NsPerOp),
		zap.Int("hits", st.Hits),
		zap.Int64("checksum", st.Checksum),
	)
	if !st.Agreement {
		return st, fmt.Errorf("%w: %d hits checksum %d, want %d hits checksum %d",
			errLayoutMismatch, st.Hits, st.Checksum, exp.n, exp.sum)
	}
	return st, nil
}

func verifyConcurrent(ctx context.Context, layout string, tbl lookup.Table[int64], queries []int64, exp *expected, readers int) error {
	g, ctx := errgroup.WithContext(ctx)
	for r := 0; r < readers; r++ {
		name := layout + "-reader-" + strconv.Itoa(r)
		g.Go(func() error {
			return safe.Run(ctx, name, func(ctx context.Context) error {
				for n, i := 0, r; i < len(queries); n, i = n+1, i+readers {
					if n&0xfff == 0 {
						if err := ctx.Err(); err != nil {
							return err
						}
					}
					v, ok := tbl.Find(queries[i])
					if ok != exp.hits[i] || v != exp.vals[i] {
						return fmt.Errorf("%w: key %d got (%d,%v) want (%d,%v)",
							errLayoutMismatch, queries[i], v, ok, exp.vals[i], exp.hits[i])
					}
				}
				return nil
			})
		})
	}
	return g.Wait()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
