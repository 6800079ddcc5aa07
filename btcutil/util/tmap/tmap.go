// Package tmap is an ordered map over a red-black tree.
package tmap

import (
	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/pkt-cash/pktsign/btcutil/er"
)

// Map is a tree-backed map which keeps its entries in the order given by a
// comparator.  The comparator also decides which keys are equal, so any key
// type can be used.
type Map[K, V any] struct {
	tm   *redblacktree.Tree
	comp func(a, b *K) int
}

// New creates a map ordered by comp.
func New[K, V any](comp func(a, b *K) int) *Map[K, V] {
	return &Map[K, V]{
		tm: redblacktree.NewWith(func(a interface{}, b interface{}) int {
			return comp((a).(*K), (b).(*K))
		}),
		comp: comp,
	}
}

// NewInt creates a map with int keys in ascending order.
func NewInt[V any]() *Map[int, V] {
	return New[int, V](func(a, b *int) int {
		switch {
		case *a < *b:
			return -1
		case *a > *b:
			return 1
		}
		return 0
	})
}

// ForEach calls f with every entry in order.  It stops at the first error
// and returns it, unless the error is er.LoopBreak, which stops with nil.
func ForEach[K, V any](s *Map[K, V], f func(k *K, v *V) er.R) er.R {
	it := s.tm.Iterator()
	for it.Next() {
		if err := f(it.Key().(*K), it.Value().(*V)); err != nil {
			if er.IsLoopBreak(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Insert adds an entry.  If an entry with an equal key was replaced, its key
// and value are returned.
func Insert[K, V any](s *Map[K, V], k *K, v *V) (*K, *V) {
	oldK, oldV := Get(s, k)
	s.tm.Put(k, v)
	return oldK, oldV
}

// Get returns the entry whose key is equal to k, or nils.
func Get[K, V any](s *Map[K, V], k *K) (*K, *V) {
	if n, ok := s.tm.Ceiling(k); ok && s.comp(k, n.Key.(*K)) == 0 {
		return n.Key.(*K), n.Value.(*V)
	}
	return nil, nil
}

// Len is the number of entries.
func Len[K, V any](s *Map[K, V]) int {
	return s.tm.Size()
}

// Keys returns the keys in order.
func Keys[K, V any](s *Map[K, V]) []K {
	out := make([]K, 0, s.tm.Size())
	it := s.tm.Iterator()
	for it.Next() {
		out = append(out, *it.Key().(*K))
	}
	return out
}
