// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/codevm/bridge"
	"github.com/ava-labs/codevm/types"
)

func stores(t *testing.T) map[string]KVStore {
	level, err := NewMemLevelDBStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = level.Close() })
	return map[string]KVStore{
		"leveldb":  level,
		"database": NewDatabaseStore(memdb.New()),
	}
}

func drain(t *testing.T, ts *bridge.TableStorage, id uint32) [][]byte {
	var keys [][]byte
	for {
		key, err := ts.NextKey(id)
		require.NoError(t, err)
		if key == nil {
			return keys
		}
		keys = append(keys, key)
	}
}

func TestBridgeRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			h := New(0)
			db := h.StartCall(store)
			s := bridge.NewStorage(db)
			ap := types.ResourceAccessPath(types.AccountAddress{1}, "0x1::a::A")

			v, err := s.Get(ap)
			assert.NoError(err)
			assert.Nil(v)

			key, err := ap.Bytes()
			require.NoError(t, err)
			assert.NoError(s.Set(key, []byte("value")))
			v, err = s.Get(ap)
			assert.NoError(err)
			assert.Equal([]byte("value"), v)

			assert.NoError(s.Set(key, []byte{}))
			v, err = s.Get(ap)
			assert.NoError(err)
			assert.NotNil(v)
			assert.Empty(v)

			assert.NoError(s.Remove(key))
			v, err = s.GetRaw(key)
			assert.NoError(err)
			assert.Nil(v)

			assert.NoError(h.EndCall(db))
			assert.Zero(h.OpenCalls())
		})
	}
}

func TestTableIteration(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			handle := types.TableHandle{0x0f}
			other := types.TableHandle{0x10}
			h := New(0)
			db := h.StartCall(store)
			s := bridge.NewStorage(db)
			for _, k := range []byte{1, 2, 3} {
				key, err := types.TableItemAccessPath(handle, []byte{k}).Bytes()
				require.NoError(t, err)
				require.NoError(t, s.Set(key, []byte{k}))
			}
			otherKey, err := types.TableItemAccessPath(other, []byte{0}).Bytes()
			require.NoError(t, err)
			require.NoError(t, s.Set(otherKey, []byte{0}))

			ts := bridge.NewTableStorage(db)
			desc, err := ts.CreateIterator(handle, nil, nil, types.Descending)
			assert.NoError(err)
			assert.Equal([][]byte{{3}, {2}, {1}}, drain(t, ts, desc))
			key, err := ts.NextKey(desc)
			assert.NoError(err)
			assert.Nil(key)

			asc, err := ts.CreateIterator(handle, []byte{2}, nil, types.Ascending)
			assert.NoError(err)
			assert.Equal([][]byte{{2}, {3}}, drain(t, ts, asc))

			bounded, err := ts.CreateIterator(handle, []byte{1}, []byte{3}, types.Descending)
			assert.NoError(err)
			assert.Equal([][]byte{{2}, {1}}, drain(t, ts, bounded))

			empty, err := ts.CreateIterator(handle, []byte{3}, []byte{1}, types.Descending)
			assert.NoError(err)
			assert.Empty(drain(t, ts, empty))

			v, err := ts.ResolveTableEntry(handle, []byte{2})
			assert.NoError(err)
			assert.Equal([]byte{2}, v)

			assert.NoError(h.EndCall(db))
		})
	}
}

func TestScanErrors(t *testing.T) {
	assert := assert.New(t)

	store, err := NewMemLevelDBStore()
	require.NoError(t, err)
	defer store.Close()
	h := New(1)
	db := h.StartCall(store)

	var (
		it     bridge.GoIter
		errMsg bridge.UnmanagedVector
	)
	status := db.VTable.ScanDB(db.State, bridge.MakeView(nil), bridge.MakeView(nil), bridge.MakeView(nil), 1, &it, &errMsg)
	assert.Equal(bridge.GoErrorUser, status)
	assert.Equal(errEmptyPrefix.Error(), string(errMsg.Consume()))

	errMsg = bridge.UnmanagedVector{}
	status = db.VTable.ScanDB(db.State, bridge.MakeView([]byte{1}), bridge.MakeView(nil), bridge.MakeView(nil), 3, &it, &errMsg)
	assert.Equal(bridge.GoErrorBadArgument, status)

	ts := bridge.NewTableStorage(db)
	_, err = ts.CreateIterator(types.TableHandle{}, nil, nil, types.Ascending)
	assert.NoError(err)
	_, err = ts.CreateIterator(types.TableHandle{}, nil, nil, types.Ascending)
	assert.ErrorIs(err, &bridge.BackendError{Kind: bridge.KindUser})
	assert.Contains(err.Error(), "reached iterator limit (1)")

	assert.NoError(h.EndCall(db))
	assert.Error(h.EndCall(db))

	// Callbacks of an ended call are rejected.
	var value bridge.UnmanagedVector
	errMsg = bridge.UnmanagedVector{}
	status = db.VTable.ReadDB(db.State, bridge.MakeView([]byte{1}), &value, &errMsg)
	assert.Equal(bridge.GoErrorBadArgument, status)
}

type failingStore struct {
	KVStore
	err error
}

func (f *failingStore) Get([]byte) ([]byte, error) { return nil, f.err }
func (f *failingStore) Set([]byte, []byte) error   { panic("set is not supported") }

func TestCallbackFailures(t *testing.T) {
	assert := assert.New(t)

	h := New(0)
	db := h.StartCall(&failingStore{err: errors.New("disk failure")})
	s := bridge.NewStorage(db)

	_, err := s.GetRaw([]byte{1})
	assert.Equal(&bridge.BackendError{Kind: bridge.KindUnknown, Msg: "disk failure"}, err)

	err = s.Set([]byte{1}, []byte{1})
	assert.Equal(&bridge.BackendError{Kind: bridge.KindForeignPanic}, err)

	var errMsg bridge.UnmanagedVector
	status := db.VTable.ReadDB(db.State, bridge.MakeView([]byte{1}), nil, &errMsg)
	assert.Equal(bridge.GoErrorBadArgument, status)

	used := bridge.NewUnmanagedVector([]byte("stale"))
	var value bridge.UnmanagedVector
	status = db.VTable.ReadDB(db.State, bridge.MakeView([]byte{1}), &value, &used)
	assert.Equal(bridge.GoErrorPanic, status)

	var key bridge.UnmanagedVector
	errMsg = bridge.UnmanagedVector{}
	status = h.nextDB(bridge.IteratorRef{CallID: uint64(db.State), Index: 0}, &key, &errMsg)
	assert.Equal(bridge.GoErrorUser, status)

	assert.NoError(h.EndCall(db))
}

func TestPrefixEndBytes(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(prefixEndBytes(nil))
	assert.Equal([]byte{1, 3}, prefixEndBytes([]byte{1, 2}))
	assert.Equal([]byte{2}, prefixEndBytes([]byte{1, 0xff}))
	assert.Nil(prefixEndBytes([]byte{0xff, 0xff}))

	prefix := []byte{1, 2}
	prefixEndBytes(prefix)
	assert.Equal([]byte{1, 2}, prefix)
}

func TestState(t *testing.T) {
	assert := assert.New(t)

	base := memdb.New()
	s := NewState(base)

	height, err := s.Height()
	assert.NoError(err)
	assert.Zero(height)
	initialized, err := s.IsInitialized()
	assert.NoError(err)
	assert.False(initialized)

	assert.NoError(s.Store().Set([]byte("k"), []byte("v")))
	assert.NoError(s.SetHeight(7))
	assert.NoError(s.SetInitialized())
	has, err := base.Has([]byte("k"))
	assert.NoError(err)
	assert.False(has)
	assert.NoError(s.Commit())

	reopened := NewState(base)
	height, err = reopened.Height()
	assert.NoError(err)
	assert.EqualValues(7, height)
	v, err := reopened.Store().Get([]byte("k"))
	assert.NoError(err)
	assert.Equal([]byte("v"), v)
	initialized, err = reopened.IsInitialized()
	assert.NoError(err)
	assert.True(initialized)

	assert.NoError(reopened.Store().Set([]byte("k"), []byte("dropped")))
	reopened.Abort()
	v, err = reopened.Store().Get([]byte("k"))
	assert.NoError(err)
	assert.Equal([]byte("v"), v)
}
