// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"bytes"

	"github.com/ava-labs/codevm/types"
)

// KVStore is the persistence layer behind the host callbacks. Get returns nil
// for missing keys.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error

	// Iterator returns the keys in [start, end) in [order]. A nil bound is
	// unbounded. The iterator must be released by the caller.
	Iterator(start, end []byte, order types.Order) (Iterator, error)
}

// Iterator is a cursor over the keys of a KVStore.
type Iterator interface {
	Next() bool
	Key() []byte
	Error() error
	Release()
}

// emptyRange returns true if no key can be in [start, end).
func emptyRange(start, end []byte) bool {
	return start != nil && end != nil && bytes.Compare(start, end) >= 0
}

// sliceIterator iterates over a snapshot of keys.
type sliceIterator struct {
	keys [][]byte
	pos  int
	err  error
}

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.keys) {
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Key() []byte {
	if it.pos == 0 || it.pos > len(it.keys) {
		return nil
	}
	return it.keys[it.pos-1]
}

func (it *sliceIterator) Error() error { return it.err }
func (it *sliceIterator) Release()     { it.keys = nil }

// prefixEndBytes returns the smallest key greater than every key starting with
// [prefix], or nil if there is none.
func prefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := append([]byte{}, prefix...)
	for len(end) > 0 {
		if end[len(end)-1] != 0xff {
			end[len(end)-1]++
			return end
		}
		end = end[:len(end)-1]
	}
	return nil
}
