package lookup

import "math/bits"

// Eytzinger stores the keys as an implicit BFS tree: root at 1, children of i
// at 2i and 2i+1, slot 0 unused. The top levels share a few cache lines, so
// the first comparisons of every search hit L1.
type Eytzinger[V any] struct {
	keys []int64
	vals []V
}

func (e *Eytzinger[V]) Build(entries []Entry[V]) error {
	sorted := sortedCopy(entries)
	n := len(sorted)
	e.keys = make([]int64, n+1)
	e.vals = make([]V, n+1)

	next := 0
	e.fill(sorted, 1, &next)
	return nil
}

// fill 中序遍历隐式树，按排序顺序依次写入
func (e *Eytzinger[V]) fill(sorted []Entry[V], i int, next *int) {
	if i >= len(e.keys) {
		return
	}
	e.fill(sorted, 2*i, next)
	e.keys[i] = sorted[*next].Key
	e.vals[i] = sorted[*next].Value
	*next++
	e.fill(sorted, 2*i+1, next)
}

func (e *Eytzinger[V]) Find(target int64) (V, bool) {
	var zero V
	keys := e.keys
	n := len(keys) - 1
	if n <= 0 {
		return zero, false
	}

	i := 1
	for i <= n {
		i = 2*i + b2i(keys[i] < target)
	}
	// 去掉末尾连续的右转和最后一次左转，回到最后一个 keys[i] >= target 的节点
	i >>= bits.TrailingZeros(^uint(i)) + 1
	if i == 0 || keys[i] != target {
		return zero, false
	}
	return e.vals[i], true
}

func (e *Eytzinger[V]) Len() int {
	if len(e.keys) == 0 {
		return 0
	}
	return len(e.keys) - 1
}
