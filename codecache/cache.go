// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codecache

import (
	"sync"

	"github.com/ava-labs/avalanchego/utils/units"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/codevm/types"
)

const (
	moduleCacheName = "module"
	scriptCacheName = "script"
)

// Stats is a snapshot of the activity of a cache.
type Stats struct {
	Name       string `json:"name"`
	Entries    int    `json:"entries"`
	Weight     int    `json:"weight"`
	Capacity   int    `json:"capacity"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Inserts    uint64 `json:"inserts"`
	Promotions uint64 `json:"promotions"`
	Rejections uint64 `json:"rejections"`
	Evictions  uint64 `json:"evictions"`
}

// Cache maps checksums to deserialized or verified code. It is shared by every
// execution of a VM and is safe for concurrent use.
//
// The lock is only held to look up, insert or promote entries. Deserialization
// and verification happen outside of it, so two callers may verify the same
// code concurrently. The first verified entry stored wins and later ones are
// dropped.
type Cache[D, V any] struct {
	name    string
	log     log.Logger
	metrics *metrics

	lock  sync.Mutex
	lru   *WeightedLRU[types.Checksum, *Entry[D, V]]
	stats Stats
}

// New returns a cache bounded to [capacity] bytes. Metrics are registered with
// [registerer] unless it is nil.
func New[D, V any](name string, capacity int, namespace string, registerer prometheus.Registerer) (*Cache[D, V], error) {
	m, err := newMetrics(namespace, name, registerer)
	if err != nil {
		return nil, err
	}
	c := &Cache[D, V]{
		name:    name,
		log:     log.New("cache", name),
		metrics: m,
		stats:   Stats{Name: name},
	}
	c.lru = NewWeightedLRU[types.Checksum, *Entry[D, V]](capacity, c.evicted)
	return c, nil
}

// NewModuleCache returns the module cache with a capacity of [capacityMiB] MiB.
func NewModuleCache[D, V any](capacityMiB int, namespace string, registerer prometheus.Registerer) (*Cache[D, V], error) {
	return New[D, V](moduleCacheName, capacityMiB*units.MiB, namespace, registerer)
}

// NewScriptCache returns the script cache with a capacity of [capacityMiB] MiB.
func NewScriptCache[D, V any](capacityMiB int, namespace string, registerer prometheus.Registerer) (*Cache[D, V], error) {
	return New[D, V](scriptCacheName, capacityMiB*units.MiB, namespace, registerer)
}

// called with the lock held
func (c *Cache[D, V]) evicted(checksum types.Checksum, entry *Entry[D, V]) {
	c.stats.Evictions++
	c.metrics.evictions.Inc()
	c.log.Debug("evicted code", "checksum", checksum, "weight", entry.Weight())
}

// Get returns the entry of [checksum], if resident.
func (c *Cache[D, V]) Get(checksum types.Checksum) (*Entry[D, V], bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.lru.Get(checksum)
	if ok {
		c.stats.Hits++
		c.metrics.hits.Inc()
	} else {
		c.stats.Misses++
		c.metrics.misses.Inc()
	}
	return entry, ok
}

// InsertDeserialized stores [deserialized] unless [checksum] already has an
// entry, in which case the existing entry is returned unchanged.
//
// The returned entry is usable even when it was too heavy to be stored.
func (c *Cache[D, V]) InsertDeserialized(checksum types.Checksum, deserialized D, weight int) *Entry[D, V] {
	c.lock.Lock()
	defer c.lock.Unlock()

	if existing, ok := c.lru.Get(checksum); ok {
		return existing
	}
	entry := NewDeserializedEntry[D, V](deserialized, weight)
	c.add(checksum, entry, false)
	return entry
}

// InsertVerified stores the verified form of [checksum] unless it is already
// verified, in which case the resident verified entry is returned and
// [verified] is dropped.
//
// A resident deserialized entry is replaced. If the verified entry is too heavy
// to be stored the deserialized one stays resident.
func (c *Cache[D, V]) InsertVerified(checksum types.Checksum, deserialized D, verified V, weight int) *Entry[D, V] {
	c.lock.Lock()
	defer c.lock.Unlock()

	existing, ok := c.lru.Get(checksum)
	if ok && existing.IsVerified() {
		return existing
	}
	entry := NewVerifiedEntry(deserialized, verified, weight)
	c.add(checksum, entry, ok)
	return entry
}

func (c *Cache[D, V]) add(checksum types.Checksum, entry *Entry[D, V], promotion bool) {
	if !c.lru.Add(checksum, entry, entry.Weight()) {
		c.stats.Rejections++
		c.metrics.rejections.Inc()
		c.log.Debug("code exceeds cache capacity",
			"checksum", checksum,
			"weight", entry.Weight(),
			"capacity", c.lru.Capacity(),
			"verified", entry.IsVerified(),
		)
		return
	}
	c.stats.Inserts++
	c.metrics.inserts.Inc()
	if promotion {
		c.stats.Promotions++
		c.metrics.promotions.Inc()
	}
	c.updateGauges()
}

// Evict removes the entry of [checksum]. The next lookup of [checksum] is a
// miss.
func (c *Cache[D, V]) Evict(checksum types.Checksum) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	removed := c.lru.Remove(checksum)
	if removed {
		c.log.Debug("invalidated code", "checksum", checksum)
		c.updateGauges()
	}
	return removed
}

// Flush removes every entry.
func (c *Cache[D, V]) Flush() {
	c.lock.Lock()
	defer c.lock.Unlock()

	n := c.lru.Len()
	c.lru.Purge()
	c.updateGauges()
	c.log.Debug("flushed code cache", "entries", n)
}

func (c *Cache[D, V]) updateGauges() {
	c.metrics.weight.Set(float64(c.lru.Weight()))
	c.metrics.entries.Set(float64(c.lru.Len()))
}

func (c *Cache[D, V]) Name() string { return c.name }

func (c *Cache[D, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lru.Len()
}

func (c *Cache[D, V]) Weight() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lru.Weight()
}

func (c *Cache[D, V]) Capacity() int { return c.lru.Capacity() }

// Stats returns a snapshot of the counters of the cache.
func (c *Cache[D, V]) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	stats := c.stats
	stats.Entries = c.lru.Len()
	stats.Weight = c.lru.Weight()
	stats.Capacity = c.lru.Capacity()
	return stats
}
