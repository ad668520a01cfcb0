// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package writeset

import (
	"sort"

	"github.com/ava-labs/codevm/types"
)

// Entry is a single write of a write set.
type Entry struct {
	AccessPath types.AccessPath
	Op         types.Op
}

// Writer applies raw writes to the host store.
type Writer interface {
	Set(key, value []byte) error
	Remove(key []byte) error
}

// WriteSet is the deduplicated set of storage writes of an execution. Entries
// are ordered by access path regardless of the order they were added in.
type WriteSet struct {
	entries map[string]Entry
}

func New() *WriteSet {
	return &WriteSet{entries: make(map[string]Entry)}
}

// Add records [op] at [ap]. Adding a second op for the same path is an
// invariant violation and leaves the first op in place.
func (ws *WriteSet) Add(ap types.AccessPath, op types.Op) error {
	key := ap.MapKey()
	if _, ok := ws.entries[key]; ok {
		return types.NewVMError(types.StatusDuplicateWrite, "access path written twice").At(ap.String())
	}
	ws.entries[key] = Entry{AccessPath: ap, Op: op}
	return nil
}

func (ws *WriteSet) Len() int { return len(ws.entries) }

func (ws *WriteSet) Get(ap types.AccessPath) (types.Op, bool) {
	e, ok := ws.entries[ap.MapKey()]
	return e.Op, ok
}

// Entries returns the writes ordered by access path.
func (ws *WriteSet) Entries() []Entry {
	entries := make([]Entry, 0, len(ws.entries))
	for _, e := range ws.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessPath.Compare(entries[j].AccessPath) < 0
	})
	return entries
}

// Push applies every write to [w] with exactly one Set or Remove per entry.
func (ws *WriteSet) Push(w Writer) error {
	for _, e := range ws.Entries() {
		key, err := e.AccessPath.Bytes()
		if err != nil {
			return err
		}
		if e.Op.IsDeletion() {
			err = w.Remove(key)
		} else {
			err = w.Set(key, e.Op.Value)
		}
		if err != nil {
			return types.NewStorageError(err).At(e.AccessPath.String())
		}
	}
	return nil
}
