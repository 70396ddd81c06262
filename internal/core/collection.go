package core

import (
	"cmp"
	"slices"
)

// collection is a keyed set that remembers insertion order. Replacing a
// value keeps its original position.
type collection[K comparable, V any] struct {
	items map[K]slot[V]
	next  uint64
}

type slot[V any] struct {
	seq uint64
	val V
}

func newCollection[K comparable, V any]() *collection[K, V] {
	return &collection[K, V]{items: make(map[K]slot[V])}
}

func (c *collection[K, V]) get(key K) (V, bool) {
	s, ok := c.items[key]
	return s.val, ok
}

func (c *collection[K, V]) has(key K) bool {
	_, ok := c.items[key]
	return ok
}

func (c *collection[K, V]) insert(key K, val V) {
	c.next++
	c.items[key] = slot[V]{seq: c.next, val: val}
}

func (c *collection[K, V]) replace(key K, val V) {
	s := c.items[key]
	s.val = val
	c.items[key] = s
}

func (c *collection[K, V]) delete(key K) {
	delete(c.items, key)
}

// deleteWhere removes every value matching pred and returns how many went.
func (c *collection[K, V]) deleteWhere(pred func(V) bool) int {
	removed := 0
	for k, s := range c.items {
		if pred(s.val) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *collection[K, V]) reset() {
	c.items = make(map[K]slot[V])
}

func (c *collection[K, V]) len() int {
	return len(c.items)
}

func (c *collection[K, V]) values() []V {
	slots := make([]slot[V], 0, len(c.items))
	for _, s := range c.items {
		slots = append(slots, s)
	}
	slices.SortFunc(slots, func(a, b slot[V]) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]V, len(slots))
	for i, s := range slots {
		out[i] = s.val
	}
	return out
}
