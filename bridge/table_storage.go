// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"fmt"

	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
)

var _ storage.TableView = (*TableStorage)(nil)

// TableStorage resolves table items and opens iterators through the host
// callbacks. Iterators are numbered in the order they are opened.
type TableStorage struct {
	storage   *Storage
	iterators []*GoIter
}

func NewTableStorage(db DB) *TableStorage {
	return &TableStorage{storage: NewStorage(db)}
}

func (t *TableStorage) ResolveTableEntry(handle types.TableHandle, key []byte) ([]byte, error) {
	return t.storage.Get(types.TableItemAccessPath(handle, key))
}

func (t *TableStorage) CreateIterator(handle types.TableHandle, start, end []byte, order types.Order) (uint32, error) {
	db := t.storage.db
	if db.VTable.ScanDB == nil {
		return 0, &BackendError{Kind: KindUnimplemented}
	}
	prefix := types.TableItemPrefix(handle)
	it := &GoIter{PrefixLen: len(prefix)}

	var errMsg UnmanagedVector
	status := db.VTable.ScanDB(db.State, MakeView(prefix), MakeView(start), MakeView(end), int32(order), it, &errMsg)
	if err := status.IntoResult(&errMsg, func() string {
		return fmt.Sprintf("Failed to read the next key between %q and %q", start, end)
	}); err != nil {
		return 0, err
	}

	id := uint32(len(t.iterators))
	t.iterators = append(t.iterators, it)
	return id, nil
}

func (t *TableStorage) NextKey(id uint32) ([]byte, error) {
	if int(id) >= len(t.iterators) {
		return nil, types.NewVMErrorf(types.StatusIteratorNotFound, "iterator %d does not exist", id)
	}
	return t.iterators[id].NextKey()
}
