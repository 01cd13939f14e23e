package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"llti.com/internal/orderbook"
	"llti.com/internal/ticks"
	"llti.com/internal/workload"
	"llti.com/pkg/logger"
	"llti.com/pkg/metrics"
	"llti.com/pkg/report"
)

// runBook 生成订单流，先计时回放一遍，再 Reset 后逐条对照参考模型回放一遍
func runBook(ctx context.Context, seed uint64, cfg BookCfg) (*report.BookStats, error) {
	enc, err := ticks.NewEncoder(cfg.TickSize, "")
	if err != nil {
		return nil, err
	}
	minTick, err := enc.EncodeString(cfg.MinPrice)
	if err != nil {
		return nil, fmt.Errorf("min_price: %w", err)
	}
	maxTick, err := enc.EncodeString(cfg.MaxPrice)
	if err != nil {
		return nil, fmt.Errorf("max_price: %w", err)
	}

	book, err := orderbook.New(minTick, maxTick)
	if err != nil {
		return nil, err
	}
	flow, err := workload.NewFlow(workload.FlowConfig{
		MinTick:   minTick,
		MaxTick:   maxTick,
		Ops:       cfg.Ops,
		MaxLive:   cfg.MaxLive,
		MaxQty:    cfg.MaxQty,
		Seed:      seed,
		CancelPct: cfg.CancelPct,
		ModifyPct: cfg.ModifyPct,
		StrayPct:  cfg.StrayPct,
		Rate:      cfg.Rate,
		Burst:     cfg.Burst,
	})
	if err != nil {
		return nil, err
	}

	ops := make([]workload.Op, 0, cfg.Ops)
	for {
		op, ok, err := flow.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("order flow: %w", err)
		}
		if !ok {
			break
		}
		ops = append(ops, op)
	}

	st := &report.BookStats{MinTick: int64(minTick), MaxTick: int64(maxTick), Ops: len(ops)}
	for _, op := range ops {
		switch op.Kind {
		case workload.OpAdd:
			st.Adds++
		case workload.OpCancel:
			st.Cancels++
		case workload.OpModify:
			st.Modifies++
		}
	}
	logger.Info(ctx, "order flow ready",
		zap.Int("ops", len(ops)),
		zap.Int64("min_tick", int64(minTick)),
		zap.Int64("max_tick", int64(maxTick)),
	)

	start := time.Now()
	for _, op := range ops {
		workload.Apply(book, op)
	}
	elapsed := time.Since(start)
	st.Elapsed = report.Duration(elapsed)
	if len(ops) > 0 {
		st.NsPerOp = float64(elapsed.Nanoseconds()) / float64(len(ops))
	}
	st.LiveOrders = book.NumOrders()
	st.PriceLevels = book.NumPriceLevels()

	if p, v, ok := peakLevel(book); ok {
		st.PeakPrice = enc.Decode(p).String()
		st.PeakVolume = v
	}

	for _, op := range ops {
		metrics.BookOpsTotal.WithLabelValues(op.Kind.String()).Inc()
	}
	metrics.BookLiveOrders.Set(float64(st.LiveOrders))

	if err := verifyBook(ctx, book, ops, cfg.VerifyEvery); err != nil {
		return st, err
	}
	st.Verified = true

	logger.Info(ctx, "order book replay done",
		zap.Duration("elapsed", elapsed),
		zap.Float64("ns_per_op", st.NsPerOp),
		zap.Int("live_orders", st.LiveOrders),
		zap.Int("price_levels", st.PriceLevels),
		zap.String("peak_price", st.PeakPrice),
	)
	return st, nil
}

// verifyBook 清空后重放，每 every 条（以及最后）和参考模型全量比对一次
func verifyBook(ctx context.Context, book *orderbook.OrderBook, ops []workload.Op, every int) error {
	book.Reset()
	model := workload.NewModel()
	for i, op := range ops {
		workload.Apply(book, op)
		model.Apply(op)
		if every > 0 && (i+1)%every == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := model.Check(book); err != nil {
				return fmt.Errorf("after op %d: %w", i, err)
			}
			logger.Debug(ctx, "book checkpoint ok", zap.Int("op", i+1))
		}
	}
	return model.Check(book)
}

func peakLevel(book *orderbook.OrderBook) (orderbook.PriceTick, int32, bool) {
	var (
		best  orderbook.PriceTick
		bestV int32
		found bool
	)
	for p := book.MinTick(); ; p++ {
		if v := book.VolumeAtPrice(p); v > bestV {
			best, bestV, found = p, v, true
		}
		if p == book.MaxTick() {
			break
		}
	}
	return best, bestV, found
}
