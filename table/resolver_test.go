// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package table_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/codevm/internal/vmtest"
	"github.com/ava-labs/codevm/table"
	"github.com/ava-labs/codevm/types"
)

var (
	handle  = types.TableHandle{0x01}
	session = []byte("session")
)

func insert(v string) table.Op { return table.Op{Kind: table.Insert, Value: []byte(v)} }
func update(v string) table.Op { return table.Op{Kind: table.Update, Value: []byte(v)} }
func remove() table.Op         { return table.Op{Kind: table.Remove} }

func TestReadYourWrites(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	r := table.NewResolver(view, session, 0)

	assert.NoError(r.ApplyOp(handle, []byte("k"), insert("v")))
	v, err := r.ResolveEntry(handle, []byte("k"))
	assert.NoError(err)
	assert.Equal([]byte("v"), v)
	assert.Zero(view.Resolutions)

	assert.NoError(r.ApplyOp(handle, []byte("k"), remove()))
	ok, err := r.Contains(handle, []byte("k"))
	assert.NoError(err)
	assert.False(ok)
}

func TestEmptyValueExists(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r := table.NewResolver(vmtest.NewTables(), session, 0)
	require.NoError(r.ApplyOp(handle, []byte("k"), table.Op{Kind: table.Insert}))

	v, err := r.ResolveEntry(handle, []byte("k"))
	assert.NoError(err)
	assert.NotNil(v)
	assert.Empty(v)
	ok, err := r.Contains(handle, []byte("k"))
	assert.NoError(err)
	assert.True(ok)
	err = r.ApplyOp(handle, []byte("k"), table.Op{Kind: table.Insert})
	assert.True(types.HasStatusCode(err, types.StatusAlreadyExists))

	require.NoError(r.ApplyOp(handle, []byte("k"), table.Op{Kind: table.Update}))
	ok, err = r.Contains(handle, []byte("k"))
	assert.NoError(err)
	assert.True(ok)

	tables, err := r.Finish()
	require.NoError(err)
	assert.Equal(types.NewOp([]byte{}), tables.Changes[handle].Entries["k"])
}

func TestResolveFallsBackToView(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	view.Set(handle, []byte("k"), []byte("chain"))
	r := table.NewResolver(view, session, 0)

	v, err := r.ResolveEntry(handle, []byte("k"))
	assert.NoError(err)
	assert.Equal([]byte("chain"), v)
	v, err = r.ResolveEntry(handle, []byte("missing"))
	assert.NoError(err)
	assert.Nil(v)

	_, err = r.ResolveEntry(handle, []byte("k"))
	assert.NoError(err)
	assert.Equal(2, view.Resolutions)
}

func TestKnownStateValidation(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	view.Set(handle, []byte("present"), []byte("v"))
	r := table.NewResolver(view, session, 0)

	_, err := r.ResolveEntry(handle, []byte("present"))
	assert.NoError(err)
	_, err = r.ResolveEntry(handle, []byte("absent"))
	assert.NoError(err)

	err = r.ApplyOp(handle, []byte("present"), insert("x"))
	assert.True(types.HasStatusCode(err, types.StatusAlreadyExists))
	err = r.ApplyOp(handle, []byte("absent"), update("x"))
	assert.True(types.HasStatusCode(err, types.StatusNotFound))
	err = r.ApplyOp(handle, []byte("absent"), remove())
	assert.True(types.HasStatusCode(err, types.StatusNotFound))

	// Unknown keys are not validated.
	assert.NoError(r.ApplyOp(handle, []byte("unread"), update("x")))
}

func TestFinishEffects(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	view.Set(handle, []byte("modified"), []byte("old"))
	view.Set(handle, []byte("deleted"), []byte("old"))
	r := table.NewResolver(view, session, 0)

	_, err := r.ResolveEntry(handle, []byte("modified"))
	assert.NoError(err)
	assert.NoError(r.ApplyOp(handle, []byte("modified"), update("new")))
	assert.NoError(r.ApplyOp(handle, []byte("deleted"), remove()))
	assert.NoError(r.ApplyOp(handle, []byte("created"), insert("new")))
	assert.NoError(r.ApplyOp(handle, []byte("transient"), insert("new")))
	assert.NoError(r.ApplyOp(handle, []byte("transient"), remove()))
	_, err = r.ResolveEntry(handle, []byte("read_only"))
	assert.NoError(err)

	cs, err := r.Finish()
	require.NoError(t, err)
	tc := cs.Changes[handle]
	require.NotNil(t, tc)
	assert.Equal(map[string]types.Op{
		"modified": types.ModifyOp([]byte("new")),
		"deleted":  types.DeleteOp(),
		"created":  types.NewOp([]byte("new")),
	}, tc.Entries)
	assert.Equal(map[string]int{"modified": 3}, tc.PriorSizes)
}

func TestFinishExactlyOnce(t *testing.T) {
	r := table.NewResolver(vmtest.NewTables(), session, 0)
	_, err := r.Finish()
	require.NoError(t, err)

	calls := map[string]func() error{
		"finish": func() error { _, err := r.Finish(); return err },
		"resolve": func() error {
			_, err := r.ResolveEntry(handle, []byte("k"))
			return err
		},
		"apply":   func() error { return r.ApplyOp(handle, []byte("k"), insert("v")) },
		"destroy": func() error { return r.DestroyTable(handle) },
		"handle": func() error {
			_, err := r.NewHandle(types.TableInfo{})
			return err
		},
		"iterator": func() error {
			_, err := r.NewIterator(handle, nil, nil, types.Ascending)
			return err
		},
		"advance": func() error { _, err := r.Advance(0); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.True(t, types.HasStatusCode(call(), types.StatusResolverFinished))
		})
	}
}

func TestIterators(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	for _, k := range []byte{1, 2, 3} {
		view.Set(handle, []byte{k}, []byte{k})
	}
	r := table.NewResolver(view, session, 2)

	desc, err := r.NewIterator(handle, nil, nil, types.Descending)
	assert.NoError(err)
	for _, want := range []byte{3, 2, 1} {
		key, err := r.Advance(desc)
		assert.NoError(err)
		assert.Equal([]byte{want}, key)
	}
	for i := 0; i < 3; i++ {
		key, err := r.Advance(desc)
		assert.NoError(err)
		assert.Nil(key)
	}

	empty, err := r.NewIterator(handle, []byte{3}, []byte{1}, types.Ascending)
	assert.NoError(err)
	assert.NotEqual(desc, empty)
	key, err := r.Advance(empty)
	assert.NoError(err)
	assert.Nil(key)

	_, err = r.NewIterator(handle, nil, nil, types.Ascending)
	assert.True(types.HasStatusCode(err, types.StatusIteratorLimit))
	_, err = r.Advance(7)
	assert.True(types.HasStatusCode(err, types.StatusIteratorNotFound))
}

func TestIteratorIgnoresPendingWrites(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	view.Set(handle, []byte{1}, []byte{1})
	r := table.NewResolver(view, session, 0)
	assert.NoError(r.ApplyOp(handle, []byte{2}, insert("pending")))

	id, err := r.NewIterator(handle, nil, nil, types.Ascending)
	assert.NoError(err)
	key, err := r.Advance(id)
	assert.NoError(err)
	assert.Equal([]byte{1}, key)
	key, err = r.Advance(id)
	assert.NoError(err)
	assert.Nil(key)
}

func TestNewAndDestroyTables(t *testing.T) {
	assert := assert.New(t)

	view := vmtest.NewTables()
	r := table.NewResolver(view, session, 0)
	info := types.TableInfo{KeyType: "u64", ValueType: "u64"}

	h1, err := r.NewHandle(info)
	assert.NoError(err)
	h2, err := r.NewHandle(info)
	assert.NoError(err)
	assert.NotEqual(h1, h2)

	replay := table.NewResolver(vmtest.NewTables(), session, 0)
	h1Again, err := replay.NewHandle(info)
	assert.NoError(err)
	assert.Equal(h1, h1Again)

	// Items of a new table are known to be absent.
	err = r.ApplyOp(h1, []byte("k"), update("v"))
	assert.True(types.HasStatusCode(err, types.StatusNotFound))
	assert.NoError(r.ApplyOp(h1, []byte("k"), insert("v")))
	assert.NoError(r.ApplyOp(h2, []byte("k"), insert("v")))
	assert.Zero(view.Resolutions)

	assert.NoError(r.DestroyTable(h2))
	assert.NoError(r.DestroyTable(handle))
	err = r.DestroyTable(handle)
	assert.True(types.HasStatusCode(err, types.StatusTableExtensionFail))
	_, err = r.ResolveEntry(h2, []byte("k"))
	assert.True(types.HasStatusCode(err, types.StatusTableExtensionFail))

	cs, err := r.Finish()
	require.NoError(t, err)
	assert.Equal(map[types.TableHandle]types.TableInfo{h1: info}, cs.NewTables)
	assert.Equal(map[types.TableHandle]struct{}{handle: {}}, cs.RemovedTables)
	assert.Len(cs.Changes, 1)
	assert.Equal(types.NewOp([]byte("v")), cs.Changes[h1].Entries["k"])
}

func TestViewErrorsPropagate(t *testing.T) {
	assert := assert.New(t)

	errHost := errors.New("host failure")
	view := vmtest.NewTables()
	view.FailWith(errHost)
	r := table.NewResolver(view, session, 0)

	_, err := r.ResolveEntry(handle, []byte("k"))
	assert.ErrorIs(err, errHost)
	assert.True(types.HasStatusCode(err, types.StatusStorageError))
	_, err = r.NewIterator(handle, nil, nil, types.Ascending)
	assert.ErrorIs(err, errHost)

	// A failed read leaves the key unknown.
	view.FailWith(nil)
	view.Set(handle, []byte("k"), []byte("v"))
	v, err := r.ResolveEntry(handle, []byte("k"))
	assert.NoError(err)
	assert.Equal([]byte("v"), v)
}
