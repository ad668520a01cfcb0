// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package table

import (
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
)

// DefaultMaxIterators is the number of iterators one execution may open.
const DefaultMaxIterators = 32768

// OpKind is the kind of a table mutation requested by an execution.
type OpKind uint8

const (
	Insert OpKind = iota
	Update
	Remove
)

// Op is a table mutation. Value is ignored for removals.
type Op struct {
	Kind  OpKind
	Value []byte
}

type presence uint8

const (
	unknown presence = iota
	absent
	present
)

// entry is the execution local view of a table item.
type entry struct {
	// on-chain state before the execution
	orig      presence
	priorSize int
	loaded    bool

	// current state
	exists bool
	value  []byte
	dirty  bool
}

func (e *entry) known() bool { return e.loaded || e.dirty }

type iterator struct {
	hostID    uint32
	exhausted bool
}

// Resolver mediates the table accesses of one execution. Writes are buffered
// and visible to later reads of the same execution. The host table view is
// never written.
//
// A Resolver is used by a single execution and is not safe for concurrent use.
// It is discarded once finished.
type Resolver struct {
	view         storage.TableView
	sessionID    []byte
	maxIterators int

	handleCounter uint64
	newTables     map[types.TableHandle]types.TableInfo
	removedTables map[types.TableHandle]struct{}
	destroyed     map[types.TableHandle]struct{}
	pending       map[types.TableHandle]map[string]*entry
	iterators     []*iterator

	finished bool
}

// NewResolver returns an open resolver over [view]. [sessionID] seeds the
// handles of the tables created by the execution.
func NewResolver(view storage.TableView, sessionID []byte, maxIterators int) *Resolver {
	if maxIterators <= 0 {
		maxIterators = DefaultMaxIterators
	}
	return &Resolver{
		view:          view,
		sessionID:     sessionID,
		maxIterators:  maxIterators,
		newTables:     make(map[types.TableHandle]types.TableInfo),
		removedTables: make(map[types.TableHandle]struct{}),
		destroyed:     make(map[types.TableHandle]struct{}),
		pending:       make(map[types.TableHandle]map[string]*entry),
	}
}

func (r *Resolver) checkOpen(op string) error {
	if !r.finished {
		return nil
	}
	log.Error("table resolver used after finish", "op", op)
	return types.NewVMError(types.StatusResolverFinished, "table resolver already finished").At(op)
}

func (r *Resolver) checkLive(handle types.TableHandle) error {
	if _, ok := r.destroyed[handle]; ok {
		return types.NewVMError(types.StatusTableExtensionFail, "table was destroyed").At(handle.String())
	}
	return nil
}

// NewHandle registers a new table described by [info] and returns its handle.
// Handles are derived from the session id and the number of tables created so
// far, so replaying an execution creates the same handles.
func (r *Resolver) NewHandle(info types.TableInfo) (types.TableHandle, error) {
	if err := r.checkOpen("new_table_handle"); err != nil {
		return types.TableHandle{}, err
	}
	p := wrappers.Packer{MaxSize: len(r.sessionID) + wrappers.LongLen}
	p.PackFixedBytes(r.sessionID)
	p.PackLong(r.handleCounter)
	if p.Errored() {
		return types.TableHandle{}, types.WrapVMError(types.StatusEncodingError, p.Err)
	}
	r.handleCounter++

	handle := types.TableHandle(hashing.ComputeHash256Array(p.Bytes))
	r.newTables[handle] = info
	return handle, nil
}

// DestroyTable removes the table [handle]. Destroying a table created by the
// same execution leaves no trace of it.
func (r *Resolver) DestroyTable(handle types.TableHandle) error {
	if err := r.checkOpen("destroy_table"); err != nil {
		return err
	}
	if err := r.checkLive(handle); err != nil {
		return err
	}
	r.destroyed[handle] = struct{}{}
	if _, ok := r.newTables[handle]; ok {
		delete(r.newTables, handle)
		delete(r.pending, handle)
		return nil
	}
	r.removedTables[handle] = struct{}{}
	return nil
}

func (r *Resolver) isNew(handle types.TableHandle) bool {
	_, ok := r.newTables[handle]
	return ok
}

func (r *Resolver) entries(handle types.TableHandle) map[string]*entry {
	entries, ok := r.pending[handle]
	if !ok {
		entries = make(map[string]*entry)
		r.pending[handle] = entries
	}
	return entries
}

// lookup returns the execution local entry of [key], loading it from the host
// when [load] is set and the entry is unknown.
func (r *Resolver) lookup(handle types.TableHandle, key []byte, load bool) (*entry, error) {
	entries := r.entries(handle)
	if e, ok := entries[string(key)]; ok {
		return e, nil
	}
	e := &entry{}
	switch {
	case r.isNew(handle):
		e.orig = absent
		e.loaded = true
	case load:
		value, err := r.view.ResolveTableEntry(handle, key)
		if err != nil {
			return nil, types.NewStorageError(err).At(types.TableItemAccessPath(handle, key).String())
		}
		e.loaded = true
		if value == nil {
			e.orig = absent
		} else {
			e.orig = present
			e.priorSize = len(value)
			e.exists = true
			e.value = value
		}
	default:
		return e, nil
	}
	entries[string(key)] = e
	return e, nil
}

// ResolveEntry returns the current value of [key] in [handle], or nil if it
// does not exist. Pending writes of the execution are observed.
func (r *Resolver) ResolveEntry(handle types.TableHandle, key []byte) ([]byte, error) {
	if err := r.checkOpen("resolve_table_entry"); err != nil {
		return nil, err
	}
	if err := r.checkLive(handle); err != nil {
		return nil, err
	}
	e, err := r.lookup(handle, key, true)
	if err != nil || !e.exists {
		return nil, err
	}
	return e.value, nil
}

// Contains returns true if [key] currently exists in [handle].
func (r *Resolver) Contains(handle types.TableHandle, key []byte) (bool, error) {
	value, err := r.ResolveEntry(handle, key)
	return value != nil, err
}

// ApplyOp records [op] against [key] of [handle]. The host view is never
// consulted. If the execution already knows whether [key] exists, inserting an
// existing key fails with AlreadyExists and updating or removing a missing key
// fails with NotFound.
func (r *Resolver) ApplyOp(handle types.TableHandle, key []byte, op Op) error {
	if err := r.checkOpen("apply_table_op"); err != nil {
		return err
	}
	if err := r.checkLive(handle); err != nil {
		return err
	}
	e, err := r.lookup(handle, key, false)
	if err != nil {
		return err
	}
	location := types.TableItemAccessPath(handle, key).String()

	if e.known() {
		switch {
		case op.Kind == Insert && e.exists:
			return types.NewVMError(types.StatusAlreadyExists, "table entry already exists").At(location)
		case op.Kind != Insert && !e.exists:
			return types.NewVMError(types.StatusNotFound, "table entry not found").At(location)
		}
	} else {
		// The first write of an unread key implies its on-chain state.
		if op.Kind == Insert {
			e.orig = absent
		} else {
			e.orig = present
		}
		r.entries(handle)[string(key)] = e
	}

	switch op.Kind {
	case Insert, Update:
		e.exists = true
		e.value = op.Value
		if e.value == nil {
			// nil reads as a missing entry
			e.value = []byte{}
		}
	case Remove:
		e.exists = false
		e.value = nil
	default:
		return types.NewVMErrorf(types.StatusTableExtensionFail, "unknown table op %d", op.Kind).At(location)
	}
	e.dirty = true
	return nil
}

// NewIterator opens an iterator over the items of [handle] between [start] and
// [end] as stored by the host. Pending writes of the execution are not
// observed.
func (r *Resolver) NewIterator(handle types.TableHandle, start, end []byte, order types.Order) (uint32, error) {
	if err := r.checkOpen("new_table_iterator"); err != nil {
		return 0, err
	}
	if err := r.checkLive(handle); err != nil {
		return 0, err
	}
	if len(r.iterators) >= r.maxIterators {
		return 0, types.NewVMErrorf(types.StatusIteratorLimit, "reached the limit of %d iterators", r.maxIterators)
	}
	hostID, err := r.view.CreateIterator(handle, start, end, order)
	if err != nil {
		return 0, types.NewStorageError(err).At(handle.String())
	}
	id := uint32(len(r.iterators))
	r.iterators = append(r.iterators, &iterator{hostID: hostID})
	return id, nil
}

// Advance returns the next key of iterator [id], or nil once it is exhausted.
func (r *Resolver) Advance(id uint32) ([]byte, error) {
	if err := r.checkOpen("advance_table_iterator"); err != nil {
		return nil, err
	}
	if int(id) >= len(r.iterators) {
		return nil, types.NewVMErrorf(types.StatusIteratorNotFound, "iterator %d does not exist", id)
	}
	it := r.iterators[id]
	if it.exhausted {
		return nil, nil
	}
	key, err := r.view.NextKey(it.hostID)
	if err != nil {
		return nil, types.NewStorageError(err)
	}
	if key == nil {
		it.exhausted = true
	}
	return key, nil
}

// Finish closes the resolver and returns the table changes of the execution.
func (r *Resolver) Finish() (*types.TableChangeSet, error) {
	if err := r.checkOpen("finish"); err != nil {
		return nil, err
	}
	r.finished = true

	cs := types.NewTableChangeSet()
	for handle, info := range r.newTables {
		cs.NewTables[handle] = info
	}
	for handle := range r.removedTables {
		cs.RemovedTables[handle] = struct{}{}
	}
	for handle, entries := range r.pending {
		var tc *types.TableChange
		for key, e := range entries {
			op, ok := e.effect()
			if !ok {
				continue
			}
			if tc == nil {
				tc = types.NewTableChange()
				cs.Changes[handle] = tc
			}
			tc.Entries[key] = op
			if e.loaded && e.orig == present {
				tc.PriorSizes[key] = e.priorSize
			}
		}
	}
	r.pending = nil
	r.iterators = nil
	return cs, nil
}

// effect is the storage operation resulting from the writes to an entry.
func (e *entry) effect() (types.Op, bool) {
	if !e.dirty {
		return types.Op{}, false
	}
	switch {
	case e.exists && e.orig == present:
		return types.ModifyOp(e.value), true
	case e.exists:
		return types.NewOp(e.value), true
	case e.orig == present:
		return types.DeleteOp(), true
	default:
		return types.Op{}, false
	}
}
