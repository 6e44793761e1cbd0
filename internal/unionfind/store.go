// Package unionfind is a union-find store with a value per equivalence
// class. Inference uses it for type metavariables.
package unionfind

import (
	"fmt"

	"fortio.org/safecast"
)

// Key identifies an element, 1-based.
type Key uint32

const NoKey Key = 0

func (k Key) IsValid() bool { return k != NoKey }

// Store keeps equivalence classes with union by rank and path compression.
// The value of a class lives on its representative.
type Store[V any] struct {
	parent []Key
	rank   []uint8
	values []V
}

// New creates an empty store.
func New[V any]() *Store[V] {
	var zero V
	return &Store[V]{
		parent: []Key{NoKey},
		rank:   []uint8{0},
		values: []V{zero},
	}
}

// NewKey adds a singleton class holding v.
func (s *Store[V]) NewKey(v V) Key {
	n, err := safecast.Conv[uint32](len(s.parent))
	if err != nil {
		panic(fmt.Errorf("unionfind: key overflow: %w", err))
	}
	k := Key(n)
	s.parent = append(s.parent, k)
	s.rank = append(s.rank, 0)
	s.values = append(s.values, v)
	return k
}

// Len counts keys.
func (s *Store[V]) Len() int { return len(s.parent) - 1 }

func (s *Store[V]) check(k Key) {
	if !k.IsValid() || int(k) >= len(s.parent) {
		panic(fmt.Errorf("unionfind: invalid key %d", k))
	}
}

// Find returns the representative of k's class.
func (s *Store[V]) Find(k Key) Key {
	s.check(k)
	root := k
	for s.parent[root] != root {
		root = s.parent[root]
	}
	// сжатие пути
	for s.parent[k] != root {
		next := s.parent[k]
		s.parent[k] = root
		k = next
	}
	return root
}

// Same reports whether a and b are in one class.
func (s *Store[V]) Same(a, b Key) bool { return s.Find(a) == s.Find(b) }

// Value returns the value of k's class.
func (s *Store[V]) Value(k Key) V { return s.values[s.Find(k)] }

// SetValue replaces the value of k's class.
func (s *Store[V]) SetValue(k Key, v V) { s.values[s.Find(k)] = v }

// Union merges the classes of a and b. merge combines their values; if it
// fails the store is left untouched and the error is returned.
func (s *Store[V]) Union(a, b Key, merge func(x, y V) (V, error)) error {
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return nil
	}
	v, err := merge(s.values[ra], s.values[rb])
	if err != nil {
		return err
	}
	if s.rank[ra] < s.rank[rb] {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	if s.rank[ra] == s.rank[rb] {
		s.rank[ra]++
	}
	var zero V
	s.values[rb] = zero
	s.values[ra] = v
	return nil
}
