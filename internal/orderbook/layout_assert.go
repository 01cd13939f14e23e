package orderbook

import "unsafe"

var _ [OrderSize - int(unsafe.Sizeof(Order{}))]byte
var _ [int(unsafe.Sizeof(Order{})) - OrderSize]byte

var _ [SlotSize - int(unsafe.Sizeof(slot{}))]byte
var _ [int(unsafe.Sizeof(slot{})) - SlotSize]byte

// Compile-time bounds: a negative constant converted to uint fails to build.
const (
	_ = uint(0 - MaxOrders&(MaxOrders-1))     // MaxOrders is a power of two
	_ = uint(0 - MapCapacity&(MapCapacity-1)) // MapCapacity is a power of two
	_ = uint(MapCapacity - 2*MaxOrders)       // load factor <= 50%
	_ = uint32(MaxOrders)                     // pool indices fit uint32
)
