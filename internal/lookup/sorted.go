package lookup

import "slices"

// Sorted is the baseline: parallel sorted arrays and a binary search.
// On duplicate keys Find returns the first one in stable-sorted order.
type Sorted[V any] struct {
	keys []int64
	vals []V
}

func (s *Sorted[V]) Build(entries []Entry[V]) error {
	sorted := sortedCopy(entries)
	s.keys = make([]int64, len(sorted))
	s.vals = make([]V, len(sorted))
	for i, e := range sorted {
		s.keys[i] = e.Key
		s.vals[i] = e.Value
	}
	return nil
}

func (s *Sorted[V]) Find(target int64) (V, bool) {
	// lower bound
	i, found := slices.BinarySearch(s.keys, target)
	if !found {
		var zero V
		return zero, false
	}
	return s.vals[i], true
}

func (s *Sorted[V]) Len() int { return len(s.keys) }
