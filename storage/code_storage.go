// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/ava-labs/avalanchego/cache"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/codevm/types"
)

const checksumCacheSize = 1024

// CodeStorage loads modules and scripts for one execution. Lookups go through
// the shared code caches first and fall back to the state view and the runtime
// environment on a miss.
//
// CodeStorage is not safe for concurrent use. Concurrent executions each use
// their own CodeStorage over the same Runtime.
type CodeStorage struct {
	runtime   *Runtime
	state     StateView
	checksums *ChecksumStorage

	// module id -> checksum, for the duration of the execution
	memo cache.Cacher
}

type loadResult struct {
	module Module
	script Script
}

// LoadModule returns the verified form of [id], verifying it and its
// transitive dependencies if needed. Concurrent loads of the same checksum
// share one verification. A caller that joined a failed load retries against
// its own state view.
func (s *CodeStorage) LoadModule(id types.ModuleID) (Module, error) {
	checksum, err := s.moduleChecksum(id)
	if err != nil {
		return nil, err
	}
	leader := false
	res, err, _ := s.runtime.flight.Do("module/"+checksum.Hex(), func() (interface{}, error) {
		leader = true
		m, err := s.loadModule(id, checksum, make(map[types.ModuleID]struct{}))
		return loadResult{module: m}, err
	})
	if err != nil && !leader {
		// The failure came from the view of another execution.
		return s.loadModule(id, checksum, make(map[types.ModuleID]struct{}))
	}
	if err != nil {
		return nil, err
	}
	return res.(loadResult).module, nil
}

// CheckModuleExists returns true if code is published under [id].
func (s *CodeStorage) CheckModuleExists(id types.ModuleID) (bool, error) {
	code, err := s.FetchModuleBytes(id)
	return code != nil, err
}

// FetchModuleBytes returns the bytecode of [id] or nil if none is published.
func (s *CodeStorage) FetchModuleBytes(id types.ModuleID) ([]byte, error) {
	ap := types.CodeAccessPath(id)
	code, err := s.state.Get(ap)
	if err != nil {
		return nil, types.NewStorageError(err).At(ap.String())
	}
	return code, nil
}

// FetchModuleSize returns the length of the bytecode of [id].
func (s *CodeStorage) FetchModuleSize(id types.ModuleID) (int, bool, error) {
	code, err := s.FetchModuleBytes(id)
	if err != nil || code == nil {
		return 0, false, err
	}
	return len(code), true, nil
}

// FetchDeserializedModule returns the deserialized form of [id] without
// verifying it. It returns false if [id] is not published.
func (s *CodeStorage) FetchDeserializedModule(id types.ModuleID) (CompiledModule, bool, error) {
	checksum, ok, err := s.lookupChecksum(id)
	if err != nil || !ok {
		return nil, false, err
	}
	if entry, ok := s.runtime.Modules.Get(checksum); ok {
		return entry.Deserialized(), true, nil
	}
	compiled, err := s.deserializeModule(id, checksum)
	if err != nil {
		return nil, false, err
	}
	entry := s.runtime.Modules.InsertDeserialized(checksum, compiled, compiled.SizeInBytes())
	return entry.Deserialized(), true, nil
}

// DeserializeScript returns the deserialized form of [code].
func (s *CodeStorage) DeserializeScript(code []byte) (CompiledScript, error) {
	checksum := types.ComputeChecksum(code)
	if entry, ok := s.runtime.Scripts.Get(checksum); ok {
		return entry.Deserialized(), nil
	}
	compiled, err := s.deserializeScript(checksum, code)
	if err != nil {
		return nil, err
	}
	return s.runtime.Scripts.InsertDeserialized(checksum, compiled, compiled.SizeInBytes()).Deserialized(), nil
}

// LoadScript returns the verified form of [code], verifying it and the modules
// it depends on if needed.
func (s *CodeStorage) LoadScript(code []byte) (Script, error) {
	checksum := types.ComputeChecksum(code)
	leader := false
	res, err, _ := s.runtime.flight.Do("script/"+checksum.Hex(), func() (interface{}, error) {
		leader = true
		script, err := s.loadScript(checksum, code)
		return loadResult{script: script}, err
	})
	if err != nil && !leader {
		return s.loadScript(checksum, code)
	}
	if err != nil {
		return nil, err
	}
	return res.(loadResult).script, nil
}

func (s *CodeStorage) loadScript(checksum types.Checksum, code []byte) (Script, error) {
	var compiled CompiledScript
	if entry, ok := s.runtime.Scripts.Get(checksum); ok {
		if script, ok := entry.Verified(); ok {
			return script, nil
		}
		compiled = entry.Deserialized()
	} else {
		var err error
		compiled, err = s.deserializeScript(checksum, code)
		if err != nil {
			return nil, err
		}
		compiled = s.runtime.Scripts.InsertDeserialized(checksum, compiled, compiled.SizeInBytes()).Deserialized()
	}

	deps, err := s.loadDependencies(compiled.Dependencies(), make(map[types.ModuleID]struct{}))
	if err != nil {
		return nil, err
	}
	verified, err := s.runtime.Env.VerifyScript(compiled, deps)
	if err != nil {
		return nil, types.WrapVMError(types.StatusVerificationError, err).At("script " + checksum.Hex())
	}
	entry := s.runtime.Scripts.InsertVerified(checksum, compiled, verified, compiled.SizeInBytes()+verified.SizeInBytes())
	script, _ := entry.Verified()
	return script, nil
}

func (s *CodeStorage) deserializeScript(checksum types.Checksum, code []byte) (CompiledScript, error) {
	compiled, err := s.runtime.Env.DeserializeScript(code)
	if err != nil {
		return nil, types.WrapVMError(types.StatusDeserializationError, err).At("script " + checksum.Hex())
	}
	return compiled, nil
}

// loadModule is the uncollapsed load of a module. Dependencies are loaded
// through it directly, so a cycle spanning two concurrent top level loads
// cannot wait on itself.
func (s *CodeStorage) loadModule(id types.ModuleID, checksum types.Checksum, visiting map[types.ModuleID]struct{}) (Module, error) {
	var compiled CompiledModule
	if entry, ok := s.runtime.Modules.Get(checksum); ok {
		if m, ok := entry.Verified(); ok {
			return m, nil
		}
		compiled = entry.Deserialized()
	} else {
		var err error
		compiled, err = s.deserializeModule(id, checksum)
		if err != nil {
			return nil, err
		}
		compiled = s.runtime.Modules.InsertDeserialized(checksum, compiled, compiled.SizeInBytes()).Deserialized()
	}

	if _, ok := visiting[id]; ok {
		return nil, types.NewVMError(types.StatusCyclicModuleDependency, "cyclic module dependency").At(id.String())
	}
	visiting[id] = struct{}{}
	defer delete(visiting, id)

	deps, err := s.loadDependencies(compiled.Dependencies(), visiting)
	if err != nil {
		return nil, err
	}
	verified, err := s.runtime.Env.VerifyModule(compiled, deps)
	if err != nil {
		return nil, types.WrapVMError(types.StatusVerificationError, err).At(id.String())
	}
	entry := s.runtime.Modules.InsertVerified(checksum, compiled, verified, compiled.SizeInBytes()+verified.SizeInBytes())
	m, _ := entry.Verified()
	log.Debug("verified module", "module", id, "checksum", checksum)
	return m, nil
}

func (s *CodeStorage) loadDependencies(depIDs []types.ModuleID, visiting map[types.ModuleID]struct{}) ([]Module, error) {
	deps := make([]Module, 0, len(depIDs))
	for _, dep := range depIDs {
		checksum, err := s.moduleChecksum(dep)
		if err != nil {
			return nil, err
		}
		m, err := s.loadModule(dep, checksum, visiting)
		if err != nil {
			return nil, err
		}
		deps = append(deps, m)
	}
	return deps, nil
}

// deserializeModule reads and deserializes the bytecode of [id] and checks it
// against the published checksum.
func (s *CodeStorage) deserializeModule(id types.ModuleID, checksum types.Checksum) (CompiledModule, error) {
	code, err := s.FetchModuleBytes(id)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, types.NewVMError(types.StatusLinkerError, "module not found").At(id.String())
	}
	if computed := types.ComputeChecksum(code); computed != checksum {
		return nil, types.NewVMErrorf(
			types.StatusChecksumMismatch,
			"stored checksum %s does not match computed checksum %s", checksum.Hex(), computed.Hex(),
		).At(id.String())
	}
	compiled, err := s.runtime.Env.DeserializeModule(code)
	if err != nil {
		return nil, types.WrapVMError(types.StatusDeserializationError, err).At(id.String())
	}
	if self := compiled.Self(); self != id {
		return nil, types.NewVMErrorf(types.StatusLinkerError, "bytecode declares module %s", self).At(id.String())
	}
	return compiled, nil
}

// moduleChecksum is lookupChecksum with absence reported as a linker error.
func (s *CodeStorage) moduleChecksum(id types.ModuleID) (types.Checksum, error) {
	checksum, ok, err := s.lookupChecksum(id)
	if err != nil {
		return types.Checksum{}, err
	}
	if !ok {
		return types.Checksum{}, types.NewVMError(types.StatusLinkerError, "module not found").At(id.String())
	}
	return checksum, nil
}

func (s *CodeStorage) lookupChecksum(id types.ModuleID) (types.Checksum, bool, error) {
	if v, ok := s.memo.Get(id); ok {
		return v.(types.Checksum), true, nil
	}
	checksum, ok, err := s.checksums.FetchChecksum(id)
	if err != nil || !ok {
		return types.Checksum{}, false, err
	}
	s.memo.Put(id, checksum)
	return checksum, true, nil
}
