//go:build !llti_release

package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requirePanicErr 断言 fn panic，且 panic 值包装了 target
func requirePanicErr(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic wrapping %v", target)
		err, ok := r.(error)
		require.True(t, ok, "panic value %T is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	fn()
}

func TestChecked_PriceOutOfRange(t *testing.T) {
	b := newTestBook(t, 100, 200)

	requirePanicErr(t, ErrPriceOutOfRange, func() { b.AddOrder(1, 99, 1) })
	requirePanicErr(t, ErrPriceOutOfRange, func() { b.AddOrder(1, 201, 1) })
	requirePanicErr(t, ErrPriceOutOfRange, func() { b.VolumeAtPrice(201) })

	b.AddOrder(1, 150, 1)
	requirePanicErr(t, ErrPriceOutOfRange, func() { b.ModifyOrder(1, 50, 1) })

	// 失败的操作没有改动任何状态
	assert.Equal(t, 1, b.NumOrders())
	assert.Equal(t, int32(1), b.VolumeAtPrice(150))
}

func TestChecked_ForbiddenID(t *testing.T) {
	b := newTestBook(t, 0, 10)
	requirePanicErr(t, ErrForbiddenID, func() { b.AddOrder(EmptyID, 1, 1) })
	requirePanicErr(t, ErrForbiddenID, func() { b.AddOrder(TombstoneID, 1, 1) })
	assert.Equal(t, 0, b.NumOrders())

	// 哨兵 id 撤单/改单照常是空操作
	b.CancelOrder(EmptyID)
	b.ModifyOrder(TombstoneID, 1, 1)
	assert.Equal(t, int32(0), b.VolumeAtPrice(1))
}

func TestChecked_DuplicateLiveID(t *testing.T) {
	b := newTestBook(t, 0, 10)
	b.AddOrder(5, 1, 1)
	requirePanicErr(t, ErrDuplicateID, func() { b.AddOrder(5, 2, 1) })
	assert.Equal(t, 1, b.NumOrders())

	// 撤单后 id 可以复用
	b.CancelOrder(5)
	assert.NotPanics(t, func() { b.AddOrder(5, 2, 1) })
}
