// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package writeset

import (
	"github.com/ava-labs/codevm/types"
)

// Materialize merges the global effects and the table effects of an execution
// into one write set. Either argument may be nil.
//
// Module writes also write the checksum of the new code. Table items created
// by the execution are written as modifications so that implicitly created
// slots are billed as writes rather than creations. New tables store their
// info and removed tables delete it.
func Materialize(changes *types.ChangeSet, tables *types.TableChangeSet) (*WriteSet, error) {
	ws := New()
	if changes != nil {
		if err := addGlobalChanges(ws, changes); err != nil {
			return nil, err
		}
	}
	if tables != nil {
		if err := addTableChanges(ws, tables); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

func addGlobalChanges(ws *WriteSet, changes *types.ChangeSet) error {
	for _, addr := range changes.Accounts() {
		account := changes.Account(addr)
		for _, tag := range types.SortedNames(account.Resources) {
			if err := ws.Add(types.ResourceAccessPath(addr, tag), account.Resources[tag]); err != nil {
				return err
			}
		}
		for _, name := range types.SortedNames(account.Modules) {
			id := types.NewModuleID(addr, name)
			op := account.Modules[name]
			if err := ws.Add(types.CodeAccessPath(id), op); err != nil {
				return err
			}
			checksumOp := types.DeleteOp()
			if !op.IsDeletion() {
				checksum := types.ComputeChecksum(op.Value)
				checksumOp = types.Op{Kind: op.Kind, Value: checksum[:]}
			}
			if err := ws.Add(types.ChecksumAccessPath(id), checksumOp); err != nil {
				return err
			}
		}
	}
	return nil
}

func addTableChanges(ws *WriteSet, tables *types.TableChangeSet) error {
	for _, handle := range tables.SortedChanges() {
		tc := tables.Changes[handle]
		for _, key := range tc.SortedKeys() {
			op := tc.Entries[string(key)]
			if op.Kind == types.OpNew {
				op.Kind = types.OpModify
			}
			if err := ws.Add(types.TableItemAccessPath(handle, key), op); err != nil {
				return err
			}
		}
	}
	for _, handle := range tables.SortedNewTables() {
		info, err := tables.NewTables[handle].Bytes()
		if err != nil {
			return err
		}
		if err := ws.Add(types.TableInfoAccessPath(handle), types.NewOp(info)); err != nil {
			return err
		}
	}
	for _, handle := range tables.SortedRemovedTables() {
		if err := ws.Add(types.TableInfoAccessPath(handle), types.DeleteOp()); err != nil {
			return err
		}
	}
	return nil
}
