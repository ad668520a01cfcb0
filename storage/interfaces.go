// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/ava-labs/codevm/codecache"
	"github.com/ava-labs/codevm/types"
)

// StateView is a read-only snapshot of global storage. Get returns a nil slice
// for absent paths. The snapshot must be stable for one execution.
type StateView interface {
	Get(ap types.AccessPath) ([]byte, error)
}

// TableView resolves table items and opens range iterators over them.
//
// A nil bound is unbounded. A range whose start is not below its end is empty
// regardless of order. NextKey returns nil once the iterator is exhausted.
type TableView interface {
	ResolveTableEntry(handle types.TableHandle, key []byte) ([]byte, error)
	CreateIterator(handle types.TableHandle, start, end []byte, order types.Order) (uint32, error)
	NextKey(id uint32) ([]byte, error)
}

// Sizer reports the in-memory footprint of a value in bytes.
type Sizer interface {
	SizeInBytes() int
}

// CompiledModule is a deserialized, not yet verified module.
type CompiledModule interface {
	Sizer
	Self() types.ModuleID
	Dependencies() []types.ModuleID
}

// CompiledScript is a deserialized, not yet verified script.
type CompiledScript interface {
	Sizer
	Dependencies() []types.ModuleID
}

// Module is a verified module ready for execution.
type Module interface {
	Sizer
}

// Script is a verified script ready for execution.
type Script interface {
	Sizer
}

// RuntimeEnvironment deserializes and verifies bytecode. Implementations must
// be safe for concurrent use.
type RuntimeEnvironment interface {
	DeserializeModule(code []byte) (CompiledModule, error)
	DeserializeScript(code []byte) (CompiledScript, error)
	VerifyModule(compiled CompiledModule, deps []Module) (Module, error)
	VerifyScript(compiled CompiledScript, deps []Module) (Script, error)
}

type (
	ModuleCache = codecache.Cache[CompiledModule, Module]
	ScriptCache = codecache.Cache[CompiledScript, Script]
)
