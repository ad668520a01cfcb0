// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codecache

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemCodeCache = "code_cache"

type metrics struct {
	hits       prometheus.Counter
	misses     prometheus.Counter
	inserts    prometheus.Counter
	promotions prometheus.Counter
	rejections prometheus.Counter
	evictions  prometheus.Counter

	weight  prometheus.Gauge
	entries prometheus.Gauge
}

func newMetrics(namespace, cacheName string, registerer prometheus.Registerer) (*metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemCodeCache,
			Name:      cacheName + "_" + name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemCodeCache,
			Name:      cacheName + "_" + name,
			Help:      help,
		})
	}
	m := &metrics{
		hits:       counter("hit_count_total", "total number of lookups that found an entry"),
		misses:     counter("miss_count_total", "total number of lookups that found no entry"),
		inserts:    counter("insert_count_total", "total number of entries stored"),
		promotions: counter("promotion_count_total", "total number of deserialized entries replaced by verified ones"),
		rejections: counter("rejection_count_total", "total number of entries not stored because they exceed the capacity"),
		evictions:  counter("eviction_count_total", "total number of entries evicted to make room for new ones"),
		weight:     gauge("resident_bytes", "total weight of the resident entries"),
		entries:    gauge("resident_entries", "number of resident entries"),
	}
	if registerer == nil {
		return m, nil
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.hits),
		registerer.Register(m.misses),
		registerer.Register(m.inserts),
		registerer.Register(m.promotions),
		registerer.Register(m.rejections),
		registerer.Register(m.evictions),
		registerer.Register(m.weight),
		registerer.Register(m.entries),
	)
	return m, errs.Err
}
