// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	isInitializedKey byte = iota
	heightKey
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	storePrefix    = []byte("store")
	metadataPrefix = []byte("metadata")

	errInvalidHeight = errors.New("invalid height bytes")
)

// State is the host persistence of a chain. Writes pushed through the store
// are buffered until Commit and dropped by Abort.
type State struct {
	baseDB     *versiondb.Database
	store      *DatabaseStore
	metadataDB database.Database
}

func NewState(db database.Database) *State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	return &State{
		baseDB:     baseDB,
		store:      NewDatabaseStore(prefixdb.New(storePrefix, baseDB)),
		metadataDB: prefixdb.New(metadataPrefix, baseDB),
	}
}

// Store returns the store that execution writes are pushed to.
func (s *State) Store() *DatabaseStore { return s.store }

func (s *State) IsInitialized() (bool, error) {
	return s.metadataDB.Has([]byte{isInitializedKey})
}

func (s *State) SetInitialized() error {
	return s.metadataDB.Put([]byte{isInitializedKey}, nil)
}

// Height returns the last committed block height, or zero before the first
// commit.
func (s *State) Height() (uint64, error) {
	b, err := s.metadataDB.Get([]byte{heightKey})
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	p := wrappers.Packer{Bytes: b}
	height := p.UnpackLong()
	if p.Errored() {
		return 0, errInvalidHeight
	}
	return height, nil
}

func (s *State) SetHeight(height uint64) error {
	p := wrappers.Packer{MaxSize: wrappers.LongLen}
	p.PackLong(height)
	return s.metadataDB.Put([]byte{heightKey}, p.Bytes)
}

// Commit commits pending operations to baseDB
func (s *State) Commit() error {
	return s.baseDB.Commit()
}

// Abort drops pending operations
func (s *State) Abort() {
	s.baseDB.Abort()
}

// Close closes the underlying base database
func (s *State) Close() error {
	return s.baseDB.Close()
}
