// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// ChecksumLen is the length of a bytecode checksum
const ChecksumLen = hashing.HashLen

// Checksum identifies a module or script by the hash of its canonical bytecode.
// It is the key of both code caches and of the on-chain checksum metadata.
type Checksum = ids.ID

// ComputeChecksum returns the checksum of [code].
// Different encodings of the same program produce different checksums.
func ComputeChecksum(code []byte) Checksum {
	return Checksum(hashing.ComputeHash256Array(code))
}

// ChecksumFromBytes parses a checksum read back from storage.
func ChecksumFromBytes(b []byte) (Checksum, error) {
	if len(b) != ChecksumLen {
		return Checksum{}, NewVMError(
			StatusStorageError,
			fmt.Sprintf("Checksum has an invalid length: %d", len(b)),
		)
	}
	return ids.ToID(b)
}
