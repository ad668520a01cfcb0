// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codecache

import (
	"math"

	"github.com/hashicorp/golang-lru/simplelru"
)

// WeightedLRU is a least recently used map bounded by the sum of the weights of
// its entries rather than by their number.
//
// WeightedLRU is not safe for concurrent use.
type WeightedLRU[K comparable, V any] struct {
	lru      *simplelru.LRU
	capacity int
	weight   int

	// onEvict is called for every entry removed to make room for another one.
	onEvict func(K, V)
}

type weighted[V any] struct {
	value  V
	weight int
}

// NewWeightedLRU returns a cache holding at most [capacity] total weight.
// A zero capacity cache rejects every insertion.
func NewWeightedLRU[K comparable, V any](capacity int, onEvict func(K, V)) *WeightedLRU[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	l := &WeightedLRU[K, V]{
		capacity: capacity,
		onEvict:  onEvict,
	}
	// Recency only. The entry count bound is never reached before the weight bound.
	lru, err := simplelru.NewLRU(math.MaxInt32, l.removed)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	l.lru = lru
	return l
}

func (l *WeightedLRU[K, V]) removed(_ interface{}, value interface{}) {
	l.weight -= value.(weighted[V]).weight
}

// Get returns the value of [key] and marks it as most recently used.
func (l *WeightedLRU[K, V]) Get(key K) (V, bool) {
	v, ok := l.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(weighted[V]).value, true
}

// Peek returns the value of [key] without updating its recency.
func (l *WeightedLRU[K, V]) Peek(key K) (V, bool) {
	v, ok := l.lru.Peek(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(weighted[V]).value, true
}

// Add inserts or replaces [key]. Entries heavier than the capacity are never
// stored and leave any previous value of [key] in place. Otherwise least
// recently used entries are evicted until the new entry fits.
func (l *WeightedLRU[K, V]) Add(key K, value V, weight int) bool {
	if weight < 0 || weight > l.capacity {
		return false
	}
	l.lru.Remove(key)
	for l.weight+weight > l.capacity {
		k, v, ok := l.lru.RemoveOldest()
		if !ok {
			break
		}
		if l.onEvict != nil {
			l.onEvict(k.(K), v.(weighted[V]).value)
		}
	}
	l.lru.Add(key, weighted[V]{value: value, weight: weight})
	l.weight += weight
	return true
}

// Remove deletes [key] and returns true if it was present.
func (l *WeightedLRU[K, V]) Remove(key K) bool { return l.lru.Remove(key) }

// Purge removes every entry.
func (l *WeightedLRU[K, V]) Purge() { l.lru.Purge() }

func (l *WeightedLRU[K, V]) Len() int      { return l.lru.Len() }
func (l *WeightedLRU[K, V]) Weight() int   { return l.weight }
func (l *WeightedLRU[K, V]) Capacity() int { return l.capacity }
