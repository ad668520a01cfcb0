// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"bytes"
	"errors"

	"github.com/ava-labs/avalanchego/database"

	"github.com/ava-labs/codevm/types"
)

var _ KVStore = (*DatabaseStore)(nil)

// DatabaseStore is a KVStore over an avalanchego database.
type DatabaseStore struct {
	db database.Database
}

func NewDatabaseStore(db database.Database) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (s *DatabaseStore) Set(key, value []byte) error { return s.db.Put(key, value) }

func (s *DatabaseStore) Delete(key []byte) error { return s.db.Delete(key) }

// Iterator snapshots the keys in range. Database iterators only move forward,
// so descending scans are served from the snapshot in reverse.
func (s *DatabaseStore) Iterator(start, end []byte, order types.Order) (Iterator, error) {
	if emptyRange(start, end) {
		return &sliceIterator{}, nil
	}
	it := s.db.NewIteratorWithStart(start)
	defer it.Release()

	var keys [][]byte
	for it.Next() {
		key := it.Key()
		if end != nil && bytes.Compare(key, end) >= 0 {
			break
		}
		keys = append(keys, append([]byte{}, key...))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if order == types.Descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return &sliceIterator{keys: keys}, nil
}
