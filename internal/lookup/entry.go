// Package lookup provides read-only int64-keyed tables built once from a
// known key set: a sorted-array baseline, an Eytzinger (BFS) layout and a
// van Emde Boas layout. After Build a table is immutable and Find is safe
// for any number of concurrent readers.
package lookup

import (
	"cmp"
	"errors"
	"slices"
)

var ErrTooManyEntries = errors.New("lookup: too many entries for 32-bit child indices")

// Entry binds a key to its value.
type Entry[V any] struct {
	Key   int64
	Value V
}

// Table is the surface shared by Sorted, Eytzinger and Veb. The zero value of
// each is an empty table.
type Table[V any] interface {
	Build(entries []Entry[V]) error
	Find(target int64) (V, bool)
	Len() int
}

var (
	_ Table[int] = (*Sorted[int])(nil)
	_ Table[int] = (*Eytzinger[int])(nil)
	_ Table[int] = (*Veb[int])(nil)
)

// sortedCopy leaves the caller's slice untouched; equal keys keep input order.
func sortedCopy[V any](entries []Entry[V]) []Entry[V] {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry[V]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
