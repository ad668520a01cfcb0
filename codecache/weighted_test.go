// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestWeightedLRUEvictsLeastRecentlyUsed(t *testing.T) {
	assert := assert.New(t)

	var evicted []int
	l := NewWeightedLRU[int, string](10, func(k int, _ string) { evicted = append(evicted, k) })

	assert.True(l.Add(1, "a", 4))
	assert.True(l.Add(2, "b", 4))
	_, ok := l.Get(1) // 2 becomes the oldest
	assert.True(ok)

	assert.True(l.Add(3, "c", 4))
	assert.Equal([]int{2}, evicted)
	assert.Equal(8, l.Weight())
	assert.Equal(2, l.Len())

	_, ok = l.Peek(2)
	assert.False(ok)
}

func TestWeightedLRURejectsOverweight(t *testing.T) {
	assert := assert.New(t)

	l := NewWeightedLRU[int, string](10, nil)
	assert.True(l.Add(1, "a", 6))
	assert.False(l.Add(1, "huge", 11))

	v, ok := l.Get(1)
	assert.True(ok)
	assert.Equal("a", v)
	assert.Equal(6, l.Weight())

	assert.False(NewWeightedLRU[int, string](0, nil).Add(1, "a", 1))
}

func TestWeightedLRUReplace(t *testing.T) {
	assert := assert.New(t)

	evictions := 0
	l := NewWeightedLRU[int, string](10, func(int, string) { evictions++ })
	assert.True(l.Add(1, "a", 3))
	assert.True(l.Add(1, "b", 9))
	assert.Zero(evictions)
	assert.Equal(9, l.Weight())
	assert.Equal(1, l.Len())

	assert.True(l.Remove(1))
	assert.False(l.Remove(1))
	assert.Zero(l.Weight())
}

func TestWeightedLRUCapacityInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(0, 64).Draw(t, "capacity")
		l := NewWeightedLRU[int, int](capacity, nil)
		weights := make(map[int]int)

		ops := rapid.IntRange(1, 100).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			key := rapid.IntRange(0, 16).Draw(t, "key")
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				l.Remove(key)
			case 1:
				l.Purge()
			default:
				weight := rapid.IntRange(0, 80).Draw(t, "weight")
				if l.Add(key, key, weight) {
					weights[key] = weight
				} else if weight <= capacity {
					t.Fatalf("entry of weight %d rejected with capacity %d", weight, capacity)
				}
			}

			total := 0
			for k, w := range weights {
				if _, ok := l.Peek(k); !ok {
					delete(weights, k)
					continue
				}
				if w > capacity {
					t.Fatalf("entry %d of weight %d resident with capacity %d", k, w, capacity)
				}
				total += w
			}
			if total != l.Weight() {
				t.Fatalf("tracked weight %d, resident weight %d", l.Weight(), total)
			}
			if l.Weight() > capacity {
				t.Fatalf("weight %d exceeds capacity %d", l.Weight(), capacity)
			}
		}
	})
}
