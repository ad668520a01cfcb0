// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"encoding/hex"

	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
	"github.com/ava-labs/codevm/writeset"
)

var (
	_ storage.StateView = (*Storage)(nil)
	_ writeset.Writer   = (*Storage)(nil)
)

// Storage reads and writes the host store through its callbacks.
type Storage struct {
	db DB
}

func NewStorage(db DB) *Storage {
	return &Storage{db: db}
}

// Get implements storage.StateView.
func (s *Storage) Get(ap types.AccessPath) ([]byte, error) {
	key, err := ap.Bytes()
	if err != nil {
		return nil, err
	}
	return s.get(key, ap.String)
}

// GetRaw reads an already encoded key.
func (s *Storage) GetRaw(key []byte) ([]byte, error) {
	return s.get(key, func() string { return hex.EncodeToString(key) })
}

func (s *Storage) get(key []byte, name func() string) ([]byte, error) {
	if s.db.VTable.ReadDB == nil {
		return nil, &BackendError{Kind: KindUnimplemented}
	}
	var (
		output UnmanagedVector
		errMsg UnmanagedVector
	)
	status := s.db.VTable.ReadDB(s.db.State, MakeView(key), &output, &errMsg)
	value := output.Consume()

	if err := status.IntoResult(&errMsg, func() string {
		return "Failed to read a key in the db: " + name()
	}); err != nil {
		return nil, err
	}
	return value, nil
}

// Set implements writeset.Writer.
func (s *Storage) Set(key, value []byte) error {
	if s.db.VTable.WriteDB == nil {
		return &BackendError{Kind: KindUnimplemented}
	}
	var errMsg UnmanagedVector
	status := s.db.VTable.WriteDB(s.db.State, MakeView(key), MakeView(value), &errMsg)
	return status.IntoResult(&errMsg, func() string {
		return "Failed to set a key in the db: " + hex.EncodeToString(key)
	})
}

// Remove implements writeset.Writer.
func (s *Storage) Remove(key []byte) error {
	if s.db.VTable.RemoveDB == nil {
		return &BackendError{Kind: KindUnimplemented}
	}
	var errMsg UnmanagedVector
	status := s.db.VTable.RemoveDB(s.db.State, MakeView(key), &errMsg)
	return status.IntoResult(&errMsg, func() string {
		return "Failed to delete a key in the db: " + hex.EncodeToString(key)
	})
}
