// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"errors"
)

var errIteratorVTableNotSet = errors.New("iterator vtable not set")

// HostRef is an opaque reference to host state. It is only meaningful to the
// callbacks it is passed to.
type HostRef uint64

// IteratorRef identifies an iterator held by the host.
type IteratorRef struct {
	CallID uint64
	Index  uint64
}

type (
	ReadDBFn   func(state HostRef, key U8SliceView, value *UnmanagedVector, errOut *UnmanagedVector) GoError
	WriteDBFn  func(state HostRef, key U8SliceView, value U8SliceView, errOut *UnmanagedVector) GoError
	RemoveDBFn func(state HostRef, key U8SliceView, errOut *UnmanagedVector) GoError
	ScanDBFn   func(state HostRef, prefix, start, end U8SliceView, order int32, out *GoIter, errOut *UnmanagedVector) GoError
	NextDBFn   func(it IteratorRef, key *UnmanagedVector, errOut *UnmanagedVector) GoError
)

// DBVTable holds the storage callbacks of the host.
type DBVTable struct {
	ReadDB   ReadDBFn
	WriteDB  WriteDBFn
	RemoveDB RemoveDBFn
	ScanDB   ScanDBFn
}

// DB is the host store as seen from the VM.
type DB struct {
	State  HostRef
	VTable DBVTable
}

type IteratorVTable struct {
	NextDB NextDBFn
}

// GoIter is a host iterator over the keys sharing a prefix. The host fills
// State and VTable when scanning. Keys are returned without their first
// PrefixLen bytes.
type GoIter struct {
	State     IteratorRef
	VTable    IteratorVTable
	PrefixLen int
}

// NextKey returns the next key of the iterator, or nil once it is exhausted.
func (it *GoIter) NextKey() ([]byte, error) {
	if it.VTable.NextDB == nil {
		return nil, errIteratorVTableNotSet
	}

	var (
		key    UnmanagedVector
		errMsg UnmanagedVector
	)
	status := it.VTable.NextDB(it.State, &key, &errMsg)
	output := key.Consume()

	if err := status.IntoResult(&errMsg, func() string {
		return "Failed to fetch next item from iterator"
	}); err != nil {
		return nil, err
	}
	if output == nil {
		return nil, nil
	}
	if len(output) < it.PrefixLen {
		return nil, &BackendError{Kind: KindUnknown, Msg: "iterator key shorter than its prefix"}
	}
	return output[it.PrefixLen:], nil
}
