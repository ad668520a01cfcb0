// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"testing"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/codevm/internal/vmtest"
	"github.com/ava-labs/codevm/types"
)

func TestServiceChecksum(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	s := &Service{vm: newTestVM(t)}
	code := []byte("module bytes")
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, code)
	require.NoError(err)

	reply := ChecksumReply{}
	require.NoError(s.Checksum(nil, &ChecksumArgs{Code: encoded, Encoding: formatting.Hex}, &reply))
	assert.Equal(formatting.Hex, reply.Encoding)

	checksum, err := decodeChecksum(reply.Encoding, reply.Checksum)
	require.NoError(err)
	assert.Equal(types.ComputeChecksum(code), checksum)
}

func TestServiceEvictRejectsBadChecksums(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	s := &Service{vm: newTestVM(t)}

	short, err := formatting.EncodeWithChecksum(formatting.Hex, []byte{1, 2, 3})
	require.NoError(err)
	err = s.EvictModule(nil, &EvictArgs{Checksum: short, Encoding: formatting.Hex}, &EvictReply{})
	assert.True(types.HasStatusCode(err, types.StatusStorageError))

	err = s.EvictScript(nil, &EvictArgs{Checksum: "not hex", Encoding: formatting.Hex}, &EvictReply{})
	assert.Error(err)
}

func TestServiceStats(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	v := newTestVM(t)
	s := &Service{vm: v}

	state := vmtest.NewState()
	id := types.NewModuleID(types.AccountAddress{2}, "m")
	state.Publish(id, vmtest.ModuleBytes(id))
	_, err := v.NewSession(state, vmtest.NewTables(), nil).Code.LoadModule(id)
	require.NoError(err)

	reply := StatsReply{}
	require.NoError(s.Stats(nil, nil, &reply))
	assert.Equal(1, reply.Modules.Entries)
	assert.Positive(reply.Modules.Weight)
}
