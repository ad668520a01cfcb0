// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"encoding/hex"
	"errors"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/version"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/codevm/bridge"
	"github.com/ava-labs/codevm/codecache"
	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/table"
	"github.com/ava-labs/codevm/types"
	"github.com/ava-labs/codevm/writeset"
)

const Name = "codevm"

var (
	ID      = ids.ID{'c', 'o', 'd', 'e', 'v', 'm'}
	Version = version.NewDefaultVersion(0, 1, 0)

	errNoRuntimeEnvironment = errors.New("runtime environment is required")
)

// VM owns the code caches shared by every execution. Executions only borrow
// them through the sessions they are given.
type VM struct {
	config  Config
	runtime *storage.Runtime
}

// New builds both code caches and registers their metrics with [registerer]
// unless it is nil.
func New(config Config, env storage.RuntimeEnvironment, registerer prometheus.Registerer) (*VM, error) {
	if env == nil {
		return nil, errNoRuntimeEnvironment
	}
	if err := config.Verify(); err != nil {
		return nil, err
	}

	modules, err := codecache.NewModuleCache[storage.CompiledModule, storage.Module](
		config.ModuleCacheCapacity,
		config.MetricsNamespace,
		registerer,
	)
	if err != nil {
		return nil, err
	}
	scripts, err := codecache.NewScriptCache[storage.CompiledScript, storage.Script](
		config.ScriptCacheCapacity,
		config.MetricsNamespace,
		registerer,
	)
	if err != nil {
		return nil, err
	}

	log.Info("initializing code VM",
		"version", Version,
		"moduleCacheMiB", config.ModuleCacheCapacity,
		"scriptCacheMiB", config.ScriptCacheCapacity,
	)
	return &VM{
		config:  config,
		runtime: storage.NewRuntime(modules, scripts, env),
	}, nil
}

func (vm *VM) Config() Config { return vm.config }

func (vm *VM) Runtime() *storage.Runtime { return vm.runtime }

// Session is the state of one execution. It must not be shared between
// executions.
type Session struct {
	ID     []byte
	Code   *storage.CodeStorage
	Tables *table.Resolver
}

// NewSession returns a session reading code from [state] and table entries
// from [tables]. [sessionID] seeds the handles of the tables it creates.
func (vm *VM) NewSession(state storage.StateView, tables storage.TableView, sessionID []byte) *Session {
	return &Session{
		ID:     sessionID,
		Code:   vm.runtime.NewCodeStorage(state),
		Tables: table.NewResolver(tables, sessionID, vm.config.MaxIterators),
	}
}

// Finish closes the table resolver and merges its effects with [changes] into
// a write set. The session can not be used afterwards.
func (s *Session) Finish(changes *types.ChangeSet) (*writeset.WriteSet, error) {
	tables, err := s.Tables.Finish()
	if err != nil {
		return nil, err
	}
	if changes == nil {
		changes = types.NewChangeSet()
	}
	return writeset.Materialize(changes, tables)
}

// Execute runs [fn] against the host store behind [db], then materializes its
// effects and writes them back through [db]. A failure only aborts this
// execution.
func (vm *VM) Execute(
	db bridge.DB,
	sessionID []byte,
	fn func(*Session) (*types.ChangeSet, error),
) (*writeset.WriteSet, error) {
	store := bridge.NewStorage(db)
	session := vm.NewSession(store, bridge.NewTableStorage(db), sessionID)

	changes, err := fn(session)
	if err != nil {
		log.Debug("execution failed", "session", hex.EncodeToString(sessionID), "err", err)
		return nil, err
	}
	ws, err := session.Finish(changes)
	if err != nil {
		log.Debug("materializing write set failed", "session", hex.EncodeToString(sessionID), "err", err)
		return nil, err
	}
	if err := ws.Push(store); err != nil {
		log.Error("writing back write set failed", "session", hex.EncodeToString(sessionID), "err", err)
		return nil, err
	}
	return ws, nil
}

// FlushCaches empties both code caches.
func (vm *VM) FlushCaches() {
	vm.FlushModuleCache()
	vm.FlushScriptCache()
}

func (vm *VM) FlushModuleCache() { vm.runtime.Modules.Flush() }

func (vm *VM) FlushScriptCache() { vm.runtime.Scripts.Flush() }

func (vm *VM) EvictModule(checksum types.Checksum) bool {
	return vm.runtime.Modules.Evict(checksum)
}

func (vm *VM) EvictScript(checksum types.Checksum) bool {
	return vm.runtime.Scripts.Evict(checksum)
}

// CommitBlock drops the cached modules whose checksums were published again by
// the committed block. It returns the number of entries evicted.
func (vm *VM) CommitBlock(republished []types.Checksum) int {
	evicted := 0
	for _, checksum := range republished {
		if vm.EvictModule(checksum) {
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug("evicted republished modules", "count", evicted)
	}
	return evicted
}

// Stats is a snapshot of both code caches.
type Stats struct {
	Modules codecache.Stats `json:"modules"`
	Scripts codecache.Stats `json:"scripts"`
}

func (vm *VM) Stats() Stats {
	return Stats{
		Modules: vm.runtime.Modules.Stats(),
		Scripts: vm.runtime.Scripts.Stats(),
	}
}
