package lookup

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// vebNode packs the key with both child positions; 0 means no child.
type vebNode struct {
	key      int64
	children [2]uint32
}

var _ [16 - unsafe.Sizeof(vebNode{})]byte
var _ [unsafe.Sizeof(vebNode{}) - 16]byte

// Veb lays the search tree out in van Emde Boas order: each subtree of
// height h is split into a top of height h-h/2 followed by its bottoms of
// height h/2, recursively. A root-to-leaf path touches O(log_B n) cache
// lines for any line size B. Positions are 1-based; nodes[0] is unused.
type Veb[V any] struct {
	nodes []vebNode
	vals  []V
	root  uint32
}

func checkVebSize(n int) error {
	if uint64(n)+1 > math.MaxUint32 {
		return fmt.Errorf("%w: n=%d", ErrTooManyEntries, n)
	}
	return nil
}

func (v *Veb[V]) Build(entries []Entry[V]) error {
	if err := checkVebSize(len(entries)); err != nil {
		return err
	}
	v.nodes, v.vals, v.root = nil, nil, 0

	sorted := sortedCopy(entries)
	n := len(sorted)
	if n == 0 {
		return nil
	}

	pos := vebPositions(n)
	nodes := make([]vebNode, n+1)
	vals := make([]V, n+1)

	// 中序第 k 个 BFS 节点放第 k 小的 key
	rank := 0
	inOrder(1, n, func(bfs int) {
		p := pos[bfs]
		nodes[p].key = sorted[rank].Key
		vals[p] = sorted[rank].Value
		rank++

		if l := 2 * bfs; l <= n {
			nodes[p].children[0] = pos[l]
		}
		if r := 2*bfs + 1; r <= n {
			nodes[p].children[1] = pos[r]
		}
	})

	v.nodes = nodes
	v.vals = vals
	v.root = pos[1]
	return nil
}

func (v *Veb[V]) Find(target int64) (V, bool) {
	nodes := v.nodes
	cur := v.root
	var cand uint32
	for cur != 0 {
		nd := &nodes[cur]
		key := nd.key
		// cand = target <= key ? cur : cand
		mask := -uint32(b2i(target <= key))
		cand ^= (cand ^ cur) & mask
		cur = nd.children[b2i(key < target)]
	}

	if cand == 0 || nodes[cand].key != target {
		var zero V
		return zero, false
	}
	return v.vals[cand], true
}

func (v *Veb[V]) Len() int {
	if len(v.nodes) == 0 {
		return 0
	}
	return len(v.nodes) - 1
}

// Layout returns the BFS indices of the table's nodes in storage order.
func (v *Veb[V]) Layout() []uint32 {
	return VebOrder(v.Len())
}

// VebOrder returns the BFS indices (1-based) of a complete tree holding n
// nodes, in van Emde Boas emission order.
func VebOrder(n int) []uint32 {
	if n <= 0 {
		return nil
	}
	return vebOrder(make([]uint32, 0, n), 1, bits.Len(uint(n)), n)
}

func vebOrder(out []uint32, bfs, h, n int) []uint32 {
	if h == 0 || bfs > n {
		return out
	}
	if h == 1 {
		return append(out, uint32(bfs))
	}
	bottomH := h / 2
	topH := h - bottomH

	out = vebOrder(out, bfs, topH, n)

	first := bfs << topH
	for i := 0; i < 1<<topH; i++ {
		if first+i > n {
			break
		}
		out = vebOrder(out, first+i, bottomH, n)
	}
	return out
}

// vebPositions maps BFS index -> 1-based storage position.
func vebPositions(n int) []uint32 {
	pos := make([]uint32, n+1)
	for i, bfs := range VebOrder(n) {
		pos[bfs] = uint32(i + 1)
	}
	return pos
}

func inOrder(bfs, n int, visit func(bfs int)) {
	if bfs > n {
		return
	}
	inOrder(2*bfs, n, visit)
	visit(bfs)
	inOrder(2*bfs+1, n, visit)
}
