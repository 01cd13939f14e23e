package workload

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"golang.org/x/time/rate"

	"llti.com/internal/orderbook"
)

type OpKind uint8

const (
	OpAdd OpKind = iota
	OpCancel
	OpModify
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpCancel:
		return "cancel"
	case OpModify:
		return "modify"
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Op 一次订单簿操作；Cancel 只用 ID
type Op struct {
	Kind  OpKind
	ID    uint64
	Price orderbook.PriceTick
	Qty   int32
}

// FlowConfig 订单流参数。百分比之和不超过 100，剩下的是 add。
type FlowConfig struct {
	MinTick orderbook.PriceTick
	MaxTick orderbook.PriceTick
	Ops     int
	MaxLive int
	MaxQty  int32
	Seed    uint64

	CancelPct int
	ModifyPct int
	// StrayPct 的 cancel/modify 使用从未出现过的 id
	StrayPct int

	// Rate 每秒操作数，0 表示不限速
	Rate  float64
	Burst int
}

var ErrInvalidFlow = errors.New("workload: invalid flow config")

// strayBase 远高于任何会被分配的 id
const strayBase = uint64(1) << 62

// Flow is a seeded add/cancel/modify generator. Not safe for concurrent use.
type Flow struct {
	cfg     FlowConfig
	rng     *rand.Rand
	limiter *rate.Limiter

	live    []uint64
	pos     map[uint64]int
	nextID  uint64
	emitted int
}

func NewFlow(cfg FlowConfig) (*Flow, error) {
	switch {
	case cfg.MaxTick < cfg.MinTick:
		return nil, fmt.Errorf("%w: max_tick %d < min_tick %d", ErrInvalidFlow, cfg.MaxTick, cfg.MinTick)
	case cfg.Ops < 0:
		return nil, fmt.Errorf("%w: ops %d", ErrInvalidFlow, cfg.Ops)
	case cfg.MaxLive <= 0 || cfg.MaxLive > orderbook.MaxOrders:
		return nil, fmt.Errorf("%w: max_live %d not in [1,%d]", ErrInvalidFlow, cfg.MaxLive, orderbook.MaxOrders)
	case cfg.CancelPct < 0 || cfg.ModifyPct < 0 || cfg.CancelPct+cfg.ModifyPct > 100:
		return nil, fmt.Errorf("%w: cancel %d%% modify %d%%", ErrInvalidFlow, cfg.CancelPct, cfg.ModifyPct)
	case cfg.StrayPct < 0 || cfg.StrayPct > 100:
		return nil, fmt.Errorf("%w: stray %d%%", ErrInvalidFlow, cfg.StrayPct)
	}
	if cfg.MaxQty <= 0 {
		cfg.MaxQty = 100
	}

	f := &Flow{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		pos:    make(map[uint64]int),
		nextID: 1,
	}
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	return f, nil
}

// Next returns the next op, or ok=false once Ops have been emitted.
// With a Rate configured it blocks until the limiter admits the op.
func (f *Flow) Next(ctx context.Context) (op Op, ok bool, err error) {
	if f.emitted >= f.cfg.Ops {
		return Op{}, false, nil
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Op{}, false, err
		}
	}
	f.emitted++

	r := f.rng.Intn(100)
	switch {
	case len(f.live) == 0:
		return f.add(), true, nil
	case r < f.cfg.CancelPct:
		return f.cancel(), true, nil
	case r < f.cfg.CancelPct+f.cfg.ModifyPct:
		return f.modify(), true, nil
	case len(f.live) >= f.cfg.MaxLive:
		return f.cancel(), true, nil
	default:
		return f.add(), true, nil
	}
}

func (f *Flow) Live() int { return len(f.live) }

func (f *Flow) price() orderbook.PriceTick {
	span := int64(f.cfg.MaxTick - f.cfg.MinTick)
	return f.cfg.MinTick + orderbook.PriceTick(f.rng.Int63n(span+1))
}

func (f *Flow) qty() int32 {
	return 1 + f.rng.Int31n(f.cfg.MaxQty)
}

func (f *Flow) stray() bool {
	return f.cfg.StrayPct > 0 && f.rng.Intn(100) < f.cfg.StrayPct
}

func (f *Flow) add() Op {
	id := f.nextID
	f.nextID++
	f.pos[id] = len(f.live)
	f.live = append(f.live, id)
	return Op{Kind: OpAdd, ID: id, Price: f.price(), Qty: f.qty()}
}

func (f *Flow) cancel() Op {
	if f.stray() {
		return Op{Kind: OpCancel, ID: strayBase + f.rng.Uint64()>>2}
	}
	i := f.rng.Intn(len(f.live))
	id := f.live[i]

	// swap-remove
	last := f.live[len(f.live)-1]
	f.live[i] = last
	f.pos[last] = i
	f.live = f.live[:len(f.live)-1]
	delete(f.pos, id)
	return Op{Kind: OpCancel, ID: id}
}

func (f *Flow) modify() Op {
	id := strayBase + f.rng.Uint64()>>2
	if !f.stray() {
		id = f.live[f.rng.Intn(len(f.live))]
	}
	return Op{Kind: OpModify, ID: id, Price: f.price(), Qty: f.qty()}
}
