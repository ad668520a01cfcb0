// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package writeset

import (
	"github.com/ava-labs/avalanchego/utils/units"

	"github.com/ava-labs/codevm/types"
)

// FreeWriteBytes is the size of a write that is not billed per byte.
const FreeWriteBytes = units.KiB

// WriteOpSize returns the billable size of writing [value] at [ap].
func WriteOpSize(ap types.AccessPath, value []byte) uint64 {
	size := ap.Size() + len(value)
	if size <= FreeWriteBytes {
		return 0
	}
	return uint64(size - FreeWriteBytes)
}

// StorageParams prices the writes of a write set.
type StorageParams struct {
	PerItemRead   uint64 `json:"perItemRead"`
	PerItemCreate uint64 `json:"perItemCreate"`
	PerItemWrite  uint64 `json:"perItemWrite"`
	PerByteRead   uint64 `json:"perByteRead"`
	PerByteCreate uint64 `json:"perByteCreate"`
	PerByteWrite  uint64 `json:"perByteWrite"`
}

func DefaultStorageParams() StorageParams {
	return StorageParams{
		PerItemRead:   1_000,
		PerItemCreate: 50_000,
		PerItemWrite:  2_000,
		PerByteRead:   3,
		PerByteCreate: 50,
		PerByteWrite:  30,
	}
}

// ReadCost prices reading [n] bytes.
func (p StorageParams) ReadCost(n int) uint64 {
	return p.PerItemRead + uint64(n)*p.PerByteRead
}

// WriteOpCost prices a single write. Deletions are free.
func (p StorageParams) WriteOpCost(ap types.AccessPath, op types.Op) uint64 {
	switch op.Kind {
	case types.OpNew:
		return p.PerItemCreate + WriteOpSize(ap, op.Value)*p.PerByteCreate
	case types.OpModify:
		return p.PerItemWrite + WriteOpSize(ap, op.Value)*p.PerByteWrite
	default:
		return 0
	}
}

// WriteSetCost prices every write of [ws].
func (p StorageParams) WriteSetCost(ws *WriteSet) uint64 {
	var cost uint64
	for _, e := range ws.entries {
		cost += p.WriteOpCost(e.AccessPath, e.Op)
	}
	return cost
}
