// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"encoding/hex"
	"sort"
)

// TableHandleLen is the length of a table handle
const TableHandleLen = 32

// TableHandle identifies a table instance. Items of one table share the handle
// as the address part of their access path.
type TableHandle [TableHandleLen]byte

func TableHandleFromBytes(b []byte) (TableHandle, error) {
	var h TableHandle
	if len(b) != TableHandleLen {
		return h, NewVMErrorf(StatusEncodingError, "table handle has an invalid length: %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h TableHandle) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h TableHandle) Compare(other TableHandle) int { return bytes.Compare(h[:], other[:]) }

// TableInfo is the metadata stored under a new table's info path.
type TableInfo struct {
	KeyType   string `serialize:"true" json:"keyType"`
	ValueType string `serialize:"true" json:"valueType"`
}

// Bytes returns the codec encoding of the table info.
func (ti TableInfo) Bytes() ([]byte, error) {
	b, err := Codec.Marshal(CodecVersion, &ti)
	if err != nil {
		return nil, WrapVMError(StatusEncodingError, err)
	}
	return b, nil
}

func ParseTableInfo(b []byte) (TableInfo, error) {
	var ti TableInfo
	version, err := Codec.Unmarshal(b, &ti)
	if err != nil {
		return TableInfo{}, WrapVMError(StatusEncodingError, err)
	}
	if version != CodecVersion {
		return TableInfo{}, WrapVMError(StatusEncodingError, errWrongCodecVersion)
	}
	return ti, nil
}

// TableChange holds the operations recorded against the items of one table.
// PriorSizes carries the size of the on-chain value of keys that were loaded
// from the host before being written.
type TableChange struct {
	Entries    map[string]Op
	PriorSizes map[string]int
}

func NewTableChange() *TableChange {
	return &TableChange{
		Entries:    make(map[string]Op),
		PriorSizes: make(map[string]int),
	}
}

// SortedKeys returns the changed keys in ascending byte order.
func (tc *TableChange) SortedKeys() [][]byte {
	keys := make([][]byte, 0, len(tc.Entries))
	for k := range tc.Entries {
		keys = append(keys, []byte(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	return keys
}

// TableChangeSet is the immutable result of finishing a table resolver.
type TableChangeSet struct {
	NewTables     map[TableHandle]TableInfo
	RemovedTables map[TableHandle]struct{}
	Changes       map[TableHandle]*TableChange
}

func NewTableChangeSet() *TableChangeSet {
	return &TableChangeSet{
		NewTables:     make(map[TableHandle]TableInfo),
		RemovedTables: make(map[TableHandle]struct{}),
		Changes:       make(map[TableHandle]*TableChange),
	}
}

func (cs *TableChangeSet) SortedNewTables() []TableHandle {
	handles := make([]TableHandle, 0, len(cs.NewTables))
	for h := range cs.NewTables {
		handles = append(handles, h)
	}
	sortHandles(handles)
	return handles
}

func (cs *TableChangeSet) SortedRemovedTables() []TableHandle {
	handles := make([]TableHandle, 0, len(cs.RemovedTables))
	for h := range cs.RemovedTables {
		handles = append(handles, h)
	}
	sortHandles(handles)
	return handles
}

func (cs *TableChangeSet) SortedChanges() []TableHandle {
	handles := make([]TableHandle, 0, len(cs.Changes))
	for h := range cs.Changes {
		handles = append(handles, h)
	}
	sortHandles(handles)
	return handles
}

// Len returns the number of table item operations in the change set.
func (cs *TableChangeSet) Len() int {
	n := 0
	for _, tc := range cs.Changes {
		n += len(tc.Entries)
	}
	return n
}

func sortHandles(handles []TableHandle) {
	sort.Slice(handles, func(i, j int) bool { return handles[i].Compare(handles[j]) < 0 })
}
