// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package host

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	log "github.com/inconshreveable/log15"
	"go.uber.org/multierr"

	"github.com/ava-labs/codevm/bridge"
	"github.com/ava-labs/codevm/types"
)

// DefaultFrameLenLimit bounds the number of iterators of one call.
const DefaultFrameLenLimit = 32768

var (
	errEmptyPrefix     = errors.New("iterator prefix should not be empty")
	errUnknownIterator = errors.New("iterator does not exist")
)

// frame holds the store and the open iterators of one call.
type frame struct {
	store     KVStore
	iterators []Iterator
}

// Host serves the storage callbacks of the VM. Every call gets its own frame
// holding the store it reads and the iterators it opened. Frames are released
// when the call ends.
type Host struct {
	frameLenLimit int

	lock       sync.Mutex
	lastCallID uint64
	frames     map[uint64]*frame
}

func New(frameLenLimit int) *Host {
	if frameLenLimit <= 0 {
		frameLenLimit = DefaultFrameLenLimit
	}
	return &Host{
		frameLenLimit: frameLenLimit,
		frames:        make(map[uint64]*frame),
	}
}

// StartCall opens a frame over [store] and returns the DB to hand to the VM.
func (h *Host) StartCall(store KVStore) bridge.DB {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastCallID++
	h.frames[h.lastCallID] = &frame{store: store}
	return bridge.DB{
		State: bridge.HostRef(h.lastCallID),
		VTable: bridge.DBVTable{
			ReadDB:   h.readDB,
			WriteDB:  h.writeDB,
			RemoveDB: h.removeDB,
			ScanDB:   h.scanDB,
		},
	}
}

// EndCall releases the frame of [db] and every iterator opened in it.
func (h *Host) EndCall(db bridge.DB) error {
	h.lock.Lock()
	f, ok := h.frames[uint64(db.State)]
	delete(h.frames, uint64(db.State))
	h.lock.Unlock()

	if !ok {
		return fmt.Errorf("call %d is not running", db.State)
	}
	var errs error
	for _, it := range f.iterators {
		errs = multierr.Append(errs, it.Error())
		it.Release()
	}
	return errs
}

// OpenCalls returns the number of calls that have not ended.
func (h *Host) OpenCalls() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.frames)
}

func (h *Host) store(ref bridge.HostRef) KVStore {
	h.lock.Lock()
	defer h.lock.Unlock()

	f, ok := h.frames[uint64(ref)]
	if !ok {
		return nil
	}
	return f.store
}

// storeIterator appends [it] to the frame of [callID] and returns its index.
// Indexes start at 1.
func (h *Host) storeIterator(callID uint64, it Iterator) (uint64, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	f, ok := h.frames[callID]
	if !ok {
		return 0, fmt.Errorf("call %d is not running", callID)
	}
	if len(f.iterators) >= h.frameLenLimit {
		return 0, fmt.Errorf("reached iterator limit (%d)", h.frameLenLimit)
	}
	f.iterators = append(f.iterators, it)
	return uint64(len(f.iterators)), nil
}

func (h *Host) retrieveIterator(ref bridge.IteratorRef) Iterator {
	h.lock.Lock()
	defer h.lock.Unlock()

	f, ok := h.frames[ref.CallID]
	if !ok {
		return nil
	}
	pos := int(ref.Index) - 1
	if pos < 0 || pos >= len(f.iterators) {
		return nil
	}
	return f.iterators[pos]
}

func recoverPanic(ret *bridge.GoError) {
	if rec := recover(); rec != nil {
		log.Error("panic in storage callback", "panic", rec, "stack", string(debug.Stack()))
		*ret = bridge.GoErrorPanic
	}
}

func checkUnset(vectors ...*bridge.UnmanagedVector) {
	for _, v := range vectors {
		if !v.IsNone() {
			panic("got a non-none UnmanagedVector about to be overwritten")
		}
	}
}

func fail(errOut *bridge.UnmanagedVector, status bridge.GoError, err error) bridge.GoError {
	*errOut = bridge.NewUnmanagedVector([]byte(err.Error()))
	return status
}

func (h *Host) readDB(ref bridge.HostRef, key bridge.U8SliceView, value *bridge.UnmanagedVector, errOut *bridge.UnmanagedVector) (ret bridge.GoError) {
	defer recoverPanic(&ret)

	if value == nil || errOut == nil {
		return bridge.GoErrorBadArgument
	}
	checkUnset(value, errOut)
	store := h.store(ref)
	if store == nil {
		return bridge.GoErrorBadArgument
	}

	k, _ := key.Read()
	v, err := store.Get(k)
	if err != nil {
		return fail(errOut, bridge.GoErrorOther, err)
	}
	*value = bridge.NewUnmanagedVector(v)
	return bridge.GoErrorNone
}

func (h *Host) writeDB(ref bridge.HostRef, key bridge.U8SliceView, value bridge.U8SliceView, errOut *bridge.UnmanagedVector) (ret bridge.GoError) {
	defer recoverPanic(&ret)

	if errOut == nil {
		return bridge.GoErrorBadArgument
	}
	checkUnset(errOut)
	store := h.store(ref)
	if store == nil {
		return bridge.GoErrorBadArgument
	}

	k, _ := key.Read()
	v, _ := value.Read()
	if v == nil {
		v = []byte{}
	}
	if err := store.Set(k, v); err != nil {
		return fail(errOut, bridge.GoErrorOther, err)
	}
	return bridge.GoErrorNone
}

func (h *Host) removeDB(ref bridge.HostRef, key bridge.U8SliceView, errOut *bridge.UnmanagedVector) (ret bridge.GoError) {
	defer recoverPanic(&ret)

	if errOut == nil {
		return bridge.GoErrorBadArgument
	}
	checkUnset(errOut)
	store := h.store(ref)
	if store == nil {
		return bridge.GoErrorBadArgument
	}

	k, _ := key.Read()
	if err := store.Delete(k); err != nil {
		return fail(errOut, bridge.GoErrorOther, err)
	}
	return bridge.GoErrorNone
}

// scanDB opens an iterator over the keys starting with [prefix]. The bounds
// are relative to the prefix and an absent end scans to the end of the prefix.
func (h *Host) scanDB(ref bridge.HostRef, prefix, start, end bridge.U8SliceView, order int32, out *bridge.GoIter, errOut *bridge.UnmanagedVector) (ret bridge.GoError) {
	defer recoverPanic(&ret)

	if out == nil || errOut == nil {
		return bridge.GoErrorBadArgument
	}
	checkUnset(errOut)
	store := h.store(ref)
	if store == nil {
		return bridge.GoErrorBadArgument
	}

	p, _ := prefix.Read()
	s, _ := start.Read()
	e, _ := end.Read()
	if len(p) == 0 {
		return fail(errOut, bridge.GoErrorUser, errEmptyPrefix)
	}
	o, err := types.OrderFromInt32(order)
	if err != nil {
		return bridge.GoErrorBadArgument
	}

	startBytes := append(append([]byte{}, p...), s...)
	var endBytes []byte
	if len(e) == 0 {
		endBytes = prefixEndBytes(p)
	} else {
		endBytes = append(append([]byte{}, p...), e...)
	}

	it, err := store.Iterator(startBytes, endBytes, o)
	if err != nil {
		return fail(errOut, bridge.GoErrorOther, err)
	}
	idx, err := h.storeIterator(uint64(ref), it)
	if err != nil {
		it.Release()
		return fail(errOut, bridge.GoErrorUser, err)
	}

	out.State = bridge.IteratorRef{CallID: uint64(ref), Index: idx}
	out.VTable = bridge.IteratorVTable{NextDB: h.nextDB}
	return bridge.GoErrorNone
}

func (h *Host) nextDB(ref bridge.IteratorRef, key *bridge.UnmanagedVector, errOut *bridge.UnmanagedVector) (ret bridge.GoError) {
	defer recoverPanic(&ret)

	if key == nil || errOut == nil {
		return bridge.GoErrorBadArgument
	}
	checkUnset(key, errOut)

	it := h.retrieveIterator(ref)
	if it == nil {
		return fail(errOut, bridge.GoErrorUser, errUnknownIterator)
	}
	if !it.Next() {
		if err := it.Error(); err != nil {
			return fail(errOut, bridge.GoErrorOther, err)
		}
		return bridge.GoErrorNone
	}
	*key = bridge.NewUnmanagedVector(it.Key())
	return bridge.GoErrorNone
}
