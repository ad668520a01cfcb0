// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/ava-labs/codevm/types"
)

// ChecksumStorage reads the checksum metadata published next to each module.
type ChecksumStorage struct {
	state StateView
}

func NewChecksumStorage(state StateView) *ChecksumStorage {
	return &ChecksumStorage{state: state}
}

// FetchChecksum returns the stored checksum of [id] and false if [id] has no
// checksum metadata.
func (s *ChecksumStorage) FetchChecksum(id types.ModuleID) (types.Checksum, bool, error) {
	ap := types.ChecksumAccessPath(id)
	b, err := s.state.Get(ap)
	if err != nil {
		return types.Checksum{}, false, types.NewStorageError(err).At(ap.String())
	}
	if b == nil {
		return types.Checksum{}, false, nil
	}
	checksum, err := types.ChecksumFromBytes(b)
	if err != nil {
		return types.Checksum{}, false, err
	}
	return checksum, true, nil
}
