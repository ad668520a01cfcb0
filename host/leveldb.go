// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/ava-labs/codevm/types"
)

var _ KVStore = (*LevelDBStore)(nil)

// LevelDBStore is a KVStore backed by goleveldb.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewMemLevelDBStore returns a LevelDBStore kept in memory.
func NewMemLevelDBStore() (*LevelDBStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

// OpenLevelDBStore opens or creates the LevelDBStore at [path].
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return value, err
}

func (s *LevelDBStore) Set(key, value []byte) error { return s.db.Put(key, value, nil) }

func (s *LevelDBStore) Delete(key []byte) error { return s.db.Delete(key, nil) }

func (s *LevelDBStore) Iterator(start, end []byte, order types.Order) (Iterator, error) {
	if emptyRange(start, end) {
		return &sliceIterator{}, nil
	}
	it := s.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &levelIterator{it: it, descending: order == types.Descending}, nil
}

func (s *LevelDBStore) Close() error { return s.db.Close() }

// levelIterator walks a goleveldb iterator in either direction.
type levelIterator struct {
	it         iterator.Iterator
	descending bool
	started    bool
}

func (l *levelIterator) Next() bool {
	if !l.started {
		l.started = true
		if l.descending {
			return l.it.Last()
		}
		return l.it.First()
	}
	if l.descending {
		return l.it.Prev()
	}
	return l.it.Next()
}

func (l *levelIterator) Key() []byte {
	key := l.it.Key()
	if key == nil {
		return nil
	}
	return append([]byte{}, key...)
}

func (l *levelIterator) Error() error { return l.it.Error() }
func (l *levelIterator) Release()     { l.it.Release() }
