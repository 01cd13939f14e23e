package orderbook

import "errors"

// PriceTick 价格，按外部 tick size 换算后的整数
type PriceTick int64

const (
	// MaxOrders bounds the number of live orders per book. Must be a power of two.
	MaxOrders = 1 << 20

	// MapCapacity keeps the id index at or below 50% load.
	MapCapacity = 2 * MaxOrders

	// MaxLevels caps max_tick - min_tick + 1.
	MaxLevels = 1 << 26
)

// Layout sizes checked in layout_assert.go.
const (
	OrderSize = 32
	SlotSize  = 16
)

// id 命名空间中保留给 OrderMap 的哨兵值，调用方不得使用
const (
	EmptyID     uint64 = 0
	TombstoneID uint64 = ^uint64(0)
)

const (
	emptyKey     = EmptyID
	tombstoneKey = TombstoneID
)

var (
	ErrInvalidRange    = errors.New("orderbook: invalid tick range")
	ErrInvalidCapacity = errors.New("orderbook: map capacity must be a power of two and >= 2")
	ErrPriceOutOfRange = errors.New("orderbook: price outside configured tick range")
	ErrPoolExhausted   = errors.New("orderbook: order pool exhausted")
	ErrForbiddenID     = errors.New("orderbook: order id is a reserved sentinel")
	ErrDuplicateID     = errors.New("orderbook: order id already live")
	ErrMapFull         = errors.New("orderbook: order map has no free slot")
)

// Order 挂单记录，固定 32 字节：一条 64 字节 cache line 放两单
type Order struct {
	ID       uint64
	Price    PriceTick
	Quantity int32
	_        [12]byte
}

// b2i compiles to SETcc, no branch
func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
