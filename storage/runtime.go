// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/ava-labs/avalanchego/cache"
	"golang.org/x/sync/singleflight"
)

// Runtime holds the state shared by every execution of a VM: both code caches,
// the runtime environment and the in-flight loads.
type Runtime struct {
	Modules *ModuleCache
	Scripts *ScriptCache
	Env     RuntimeEnvironment

	flight singleflight.Group
}

func NewRuntime(modules *ModuleCache, scripts *ScriptCache, env RuntimeEnvironment) *Runtime {
	return &Runtime{
		Modules: modules,
		Scripts: scripts,
		Env:     env,
	}
}

// NewCodeStorage returns the code storage of one execution reading from
// [state].
func (r *Runtime) NewCodeStorage(state StateView) *CodeStorage {
	return &CodeStorage{
		runtime:   r,
		state:     state,
		checksums: NewChecksumStorage(state),
		memo:      &cache.LRU{Size: checksumCacheSize},
	}
}
