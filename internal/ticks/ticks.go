// Package ticks converts decimal prices to the integer ticks the order book
// works in, and back.
package ticks

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"llti.com/internal/orderbook"
)

var (
	ErrInvalidTickSize = errors.New("ticks: tick size must be positive")
	ErrOffGrid         = errors.New("ticks: price is not a multiple of the tick size")
	ErrOverflow        = errors.New("ticks: price out of int64 tick range")
)

var (
	minTick = decimal.NewFromInt(math.MinInt64)
	maxTick = decimal.NewFromInt(math.MaxInt64)
)

// Encoder maps price = Origin + tick*TickSize.
type Encoder struct {
	TickSize decimal.Decimal
	Origin   decimal.Decimal
}

// NewEncoder parses tickSize and origin ("" means zero).
func NewEncoder(tickSize, origin string) (*Encoder, error) {
	ts, err := decimal.NewFromString(tickSize)
	if err != nil {
		return nil, fmt.Errorf("ticks: parse tick size %q: %w", tickSize, err)
	}
	if !ts.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTickSize, ts)
	}

	o := decimal.Zero
	if origin != "" {
		if o, err = decimal.NewFromString(origin); err != nil {
			return nil, fmt.Errorf("ticks: parse origin %q: %w", origin, err)
		}
	}
	return &Encoder{TickSize: ts, Origin: o}, nil
}

// Encode 价格必须正好落在 tick 网格上，不做四舍五入
func (e *Encoder) Encode(price decimal.Decimal) (orderbook.PriceTick, error) {
	q, r := price.Sub(e.Origin).QuoRem(e.TickSize, 0)
	if !r.IsZero() {
		return 0, fmt.Errorf("%w: %s (tick %s)", ErrOffGrid, price, e.TickSize)
	}
	if q.LessThan(minTick) || q.GreaterThan(maxTick) {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, price)
	}
	return orderbook.PriceTick(q.IntPart()), nil
}

func (e *Encoder) EncodeString(price string) (orderbook.PriceTick, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, fmt.Errorf("ticks: parse price %q: %w", price, err)
	}
	return e.Encode(d)
}

func (e *Encoder) Decode(t orderbook.PriceTick) decimal.Decimal {
	return e.Origin.Add(decimal.NewFromInt(int64(t)).Mul(e.TickSize))
}
