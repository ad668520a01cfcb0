// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vmtest

import (
	"sync"

	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
)

var _ storage.StateView = (*State)(nil)

// State is an in-memory state view.
type State struct {
	lock sync.RWMutex
	data map[string][]byte
	err  error
}

func NewState() *State {
	return &State{data: make(map[string][]byte)}
}

func (s *State) Get(ap types.AccessPath) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	return s.data[ap.MapKey()], nil
}

func (s *State) Set(ap types.AccessPath, value []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.data[ap.MapKey()] = value
}

func (s *State) Delete(ap types.AccessPath) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.data, ap.MapKey())
}

// Publish stores [code] and its checksum under [id].
func (s *State) Publish(id types.ModuleID, code []byte) types.Checksum {
	checksum := types.ComputeChecksum(code)
	s.Set(types.CodeAccessPath(id), code)
	s.Set(types.ChecksumAccessPath(id), checksum[:])
	return checksum
}

// FailWith makes every following read return [err].
func (s *State) FailWith(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.err = err
}
