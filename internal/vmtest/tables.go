// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmtest

import (
	"bytes"
	"errors"
	"sort"

	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
)

var (
	errUnknownIterator = errors.New("unknown iterator")

	_ storage.TableView = (*Tables)(nil)
)

type snapshot struct {
	keys [][]byte
	pos  int
}

// Tables is an in-memory table view. Iterators snapshot the matching keys when
// they are created.
type Tables struct {
	data      map[types.TableHandle]map[string][]byte
	iterators []*snapshot
	err       error

	Resolutions int
}

func NewTables() *Tables {
	return &Tables{data: make(map[types.TableHandle]map[string][]byte)}
}

func (t *Tables) Set(handle types.TableHandle, key, value []byte) {
	items, ok := t.data[handle]
	if !ok {
		items = make(map[string][]byte)
		t.data[handle] = items
	}
	items[string(key)] = value
}

// FailWith makes every following call return [err].
func (t *Tables) FailWith(err error) { t.err = err }

func (t *Tables) ResolveTableEntry(handle types.TableHandle, key []byte) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	t.Resolutions++
	return t.data[handle][string(key)], nil
}

func (t *Tables) CreateIterator(handle types.TableHandle, start, end []byte, order types.Order) (uint32, error) {
	if t.err != nil {
		return 0, t.err
	}
	s := &snapshot{}
	if start == nil || end == nil || bytes.Compare(start, end) < 0 {
		for k := range t.data[handle] {
			key := []byte(k)
			if start != nil && bytes.Compare(key, start) < 0 {
				continue
			}
			if end != nil && bytes.Compare(key, end) >= 0 {
				continue
			}
			s.keys = append(s.keys, key)
		}
	}
	sort.Slice(s.keys, func(i, j int) bool {
		c := bytes.Compare(s.keys[i], s.keys[j])
		if order == types.Descending {
			return c > 0
		}
		return c < 0
	})
	t.iterators = append(t.iterators, s)
	return uint32(len(t.iterators) - 1), nil
}

func (t *Tables) NextKey(id uint32) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	if int(id) >= len(t.iterators) {
		return nil, errUnknownIterator
	}
	s := t.iterators[id]
	if s.pos >= len(s.keys) {
		return nil, nil
	}
	key := s.keys[s.pos]
	s.pos++
	return key, nil
}
