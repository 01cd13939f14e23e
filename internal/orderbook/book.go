package orderbook

import "fmt"

// OrderBook 单品种价格索引订单簿。
//
// 每个 tick 一个 int32 累计量，VolumeAtPrice 就是一次数组读取。
// 订单存在定长 pool 里，用 uint32 下标引用，撤单后下标进 LIFO free list。
// 构造之后所有操作都不分配内存。
//
// 只允许一个写者，内部不加锁。
type OrderBook struct {
	minTick PriceTick
	maxTick PriceTick

	levels       []int32
	activeLevels int

	pool      []Order
	highWater uint32
	freeList  []uint32
	freeTop   uint32

	ids *OrderMap
}

// New 分配 [minTick, maxTick] 的价格档位，以及 pool、free list 和 id 索引。
func New(minTick, maxTick PriceTick) (*OrderBook, error) {
	if maxTick < minTick {
		return nil, fmt.Errorf("%w: min=%d max=%d", ErrInvalidRange, minTick, maxTick)
	}
	// 补码减法，min 为负时也成立
	span := uint64(maxTick) - uint64(minTick)
	if span >= MaxLevels {
		return nil, fmt.Errorf("%w: %d levels exceeds %d", ErrInvalidRange, span+1, MaxLevels)
	}

	ids, err := NewOrderMap(MapCapacity)
	if err != nil {
		return nil, err
	}

	return &OrderBook{
		minTick:  minTick,
		maxTick:  maxTick,
		levels:   make([]int32, span+1),
		pool:     make([]Order, MaxOrders),
		freeList: make([]uint32, MaxOrders),
		ids:      ids,
	}, nil
}

// AddOrder 挂一张新单。id 不能是哨兵值，也不能是当前存活的 id；
// price 必须落在 [MinTick, MaxTick]。
func (b *OrderBook) AddOrder(id uint64, price PriceTick, qty int32) {
	if checked {
		if id == EmptyID || id == TombstoneID {
			violation(ErrForbiddenID, "id=%#x", id)
		}
		b.checkPrice(price)
		if _, live := b.ids.Find(id); live {
			violation(ErrDuplicateID, "id=%d", id)
		}
	}

	idx := b.allocIndex()
	b.pool[idx] = Order{ID: id, Price: price, Quantity: qty}
	b.ids.Insert(id, idx)
	b.adjust(price, qty)
}

// CancelOrder 撤单。未知 id 直接返回，重复撤单是幂等的。
func (b *OrderBook) CancelOrder(id uint64) {
	idx, ok := b.ids.Find(id)
	if !ok {
		return
	}

	o := &b.pool[idx]
	b.adjust(o.Price, -o.Quantity)
	o.Quantity = 0
	b.ids.Erase(id)

	b.freeList[b.freeTop] = idx
	b.freeTop++
}

// ModifyOrder 原地改价改量：pool 下标和 id 索引都不变。未知 id 直接返回。
func (b *OrderBook) ModifyOrder(id uint64, newPrice PriceTick, newQty int32) {
	idx, ok := b.ids.Find(id)
	if !ok {
		return
	}
	b.checkPrice(newPrice)

	o := &b.pool[idx]
	if o.Price == newPrice {
		b.adjust(newPrice, newQty-o.Quantity)
		o.Quantity = newQty
		return
	}

	b.adjust(o.Price, -o.Quantity)
	o.Price = newPrice
	o.Quantity = newQty
	b.adjust(newPrice, newQty)
}

// VolumeAtPrice 返回该价位上所有存活订单的数量之和。
func (b *OrderBook) VolumeAtPrice(price PriceTick) int32 {
	b.checkPrice(price)
	return b.levels[price-b.minTick]
}

// NumOrders 存活订单数 = 水位线 - free list 深度
func (b *OrderBook) NumOrders() int {
	return int(b.highWater - b.freeTop)
}

// NumPriceLevels 累计量非零的价位个数
func (b *OrderBook) NumPriceLevels() int {
	return b.activeLevels
}

// Order returns a copy of the live order with the given id.
func (b *OrderBook) Order(id uint64) (Order, bool) {
	idx, ok := b.ids.Find(id)
	if !ok {
		return Order{}, false
	}
	return b.pool[idx], true
}

func (b *OrderBook) MinTick() PriceTick { return b.minTick }
func (b *OrderBook) MaxTick() PriceTick { return b.maxTick }

// Reset 清空所有状态，保留已分配的内存。
func (b *OrderBook) Reset() {
	clear(b.levels)
	clear(b.pool[:b.highWater])
	b.highWater = 0
	b.freeTop = 0
	b.activeLevels = 0
	b.ids.Clear()
}

func (b *OrderBook) allocIndex() uint32 {
	if b.freeTop > 0 {
		b.freeTop--
		return b.freeList[b.freeTop]
	}
	// pool 耗尽会越界写，release 下也要检查
	if b.highWater == MaxOrders {
		violation(ErrPoolExhausted, "live=%d", MaxOrders)
	}
	idx := b.highWater
	b.highWater++
	return idx
}

// adjust 更新一个价位的累计量，并在 0 <-> 非 0 切换时维护 activeLevels。
func (b *OrderBook) adjust(price PriceTick, delta int32) {
	lvl := &b.levels[price-b.minTick]
	before := *lvl
	*lvl += delta
	b.activeLevels += b2i(*lvl != 0) - b2i(before != 0)
}

func (b *OrderBook) checkPrice(price PriceTick) {
	if checked && (price < b.minTick || price > b.maxTick) {
		violation(ErrPriceOutOfRange, "price=%d range=[%d,%d]", price, b.minTick, b.maxTick)
	}
}

// violation 单独成函数，避免格式化代码进入热路径
//
//go:noinline
func violation(err error, format string, args ...any) {
	panic(fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}
