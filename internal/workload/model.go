package workload

import (
	"errors"
	"fmt"

	"llti.com/internal/orderbook"
)

var ErrMismatch = errors.New("workload: book diverged from reference model")

type modelOrder struct {
	price orderbook.PriceTick
	qty   int32
}

// Model is the obvious map-based order book used as an oracle: volume at a
// price is the sum over live orders, and a modify is cancel+add of the same id.
type Model struct {
	orders  map[uint64]modelOrder
	volume  map[orderbook.PriceTick]int32
	adds    int
	cancels int
}

func NewModel() *Model {
	return &Model{
		orders: make(map[uint64]modelOrder),
		volume: make(map[orderbook.PriceTick]int32),
	}
}

func (m *Model) Apply(op Op) {
	switch op.Kind {
	case OpAdd:
		m.orders[op.ID] = modelOrder{op.Price, op.Qty}
		m.addVolume(op.Price, op.Qty)
		m.adds++
	case OpCancel:
		o, ok := m.orders[op.ID]
		if !ok {
			return
		}
		m.remove(op.ID, o)
		m.cancels++
	case OpModify:
		o, ok := m.orders[op.ID]
		if !ok {
			return
		}
		m.remove(op.ID, o)
		m.orders[op.ID] = modelOrder{op.Price, op.Qty}
		m.addVolume(op.Price, op.Qty)
	}
}

func (m *Model) remove(id uint64, o modelOrder) {
	delete(m.orders, id)
	m.addVolume(o.price, -o.qty)
}

// addVolume 累计量归零的价位从 map 中删掉，len(volume) 即非零价位数
func (m *Model) addVolume(p orderbook.PriceTick, q int32) {
	if v := m.volume[p] + q; v != 0 {
		m.volume[p] = v
	} else {
		delete(m.volume, p)
	}
}

func (m *Model) VolumeAtPrice(p orderbook.PriceTick) int32 { return m.volume[p] }

// NumOrders is adds - cancels; modifies don't count.
func (m *Model) NumOrders() int { return m.adds - m.cancels }

func (m *Model) NumPriceLevels() int { return len(m.volume) }

// Apply replays op on the book.
func Apply(b *orderbook.OrderBook, op Op) {
	switch op.Kind {
	case OpAdd:
		b.AddOrder(op.ID, op.Price, op.Qty)
	case OpCancel:
		b.CancelOrder(op.ID)
	case OpModify:
		b.ModifyOrder(op.ID, op.Price, op.Qty)
	}
}

// Check compares every price level of b, its order count and every live
// order against the model.
func (m *Model) Check(b *orderbook.OrderBook) error {
	if got, want := b.NumOrders(), m.NumOrders(); got != want {
		return fmt.Errorf("%w: num_orders %d, want %d", ErrMismatch, got, want)
	}
	if got, want := b.NumPriceLevels(), m.NumPriceLevels(); got != want {
		return fmt.Errorf("%w: price levels %d, want %d", ErrMismatch, got, want)
	}
	for p := b.MinTick(); ; p++ {
		if got, want := b.VolumeAtPrice(p), m.volume[p]; got != want {
			return fmt.Errorf("%w: volume at %d is %d, want %d", ErrMismatch, p, got, want)
		}
		if p == b.MaxTick() {
			break
		}
	}
	for id, o := range m.orders {
		got, ok := b.Order(id)
		if !ok || got.Price != o.price || got.Quantity != o.qty {
			return fmt.Errorf("%w: order %d is %+v (live=%v), want price %d qty %d",
				ErrMismatch, id, got, ok, o.price, o.qty)
		}
	}
	return nil
}
