// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ava-labs/codevm/internal/vmtest"
	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
)

func TestFetchChecksum(t *testing.T) {
	assert := assert.New(t)

	state := vmtest.NewState()
	id := moduleID(t, "0x1", "m")
	want := state.Publish(id, vmtest.ModuleBytes(id))
	s := storage.NewChecksumStorage(state)

	got, ok, err := s.FetchChecksum(id)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(want, got)

	_, ok, err = s.FetchChecksum(moduleID(t, "0x2", "m"))
	assert.NoError(err)
	assert.False(ok)

	state.Set(types.ChecksumAccessPath(id), want[:16])
	_, _, err = s.FetchChecksum(id)
	assert.True(types.HasStatusCode(err, types.StatusStorageError))
}
