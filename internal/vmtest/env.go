// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vmtest provides a runtime environment and state for tests. Bytecode
// is a codec encoded description of the module instead of real instructions.
package vmtest

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ava-labs/codevm/storage"
	"github.com/ava-labs/codevm/types"
)

// verifiedOverhead is added to the size of verified code.
const verifiedOverhead = 64

var (
	ErrRejected   = errors.New("bytecode rejected by verifier")
	errMissingDep = errors.New("missing dependency")
	errNotAModule = errors.New("bytecode is a script")
	errNotAScript = errors.New("bytecode is a module")

	_ storage.RuntimeEnvironment = (*Env)(nil)
	_ storage.CompiledModule     = (*Compiled)(nil)
	_ storage.CompiledScript     = (*Compiled)(nil)
	_ storage.Module             = (*Verified)(nil)
	_ storage.Script             = (*Verified)(nil)
)

type Dependency struct {
	Address types.AccountAddress `serialize:"true"`
	Name    string               `serialize:"true"`
}

type code struct {
	IsScript bool                 `serialize:"true"`
	Address  types.AccountAddress `serialize:"true"`
	Name     string               `serialize:"true"`
	Deps     []Dependency         `serialize:"true"`
	Reject   bool                 `serialize:"true"`
	Payload  []byte               `serialize:"true"`
}

func encode(c code) []byte {
	b, err := types.Codec.Marshal(types.CodecVersion, &c)
	if err != nil {
		panic(err)
	}
	return b
}

func toDeps(ids []types.ModuleID) []Dependency {
	deps := make([]Dependency, len(ids))
	for i, id := range ids {
		deps[i] = Dependency{Address: id.Address, Name: id.Name}
	}
	return deps
}

// ModuleBytes returns the bytecode of module [id] depending on [deps].
func ModuleBytes(id types.ModuleID, deps ...types.ModuleID) []byte {
	return encode(code{Address: id.Address, Name: id.Name, Deps: toDeps(deps)})
}

// SizedModuleBytes returns module bytecode padded with [payload] bytes.
func SizedModuleBytes(id types.ModuleID, payload int) []byte {
	return encode(code{Address: id.Address, Name: id.Name, Payload: make([]byte, payload)})
}

// RejectedModuleBytes returns module bytecode the verifier rejects.
func RejectedModuleBytes(id types.ModuleID) []byte {
	return encode(code{Address: id.Address, Name: id.Name, Reject: true})
}

// ScriptBytes returns the bytecode of a script depending on [deps]. [nonce]
// distinguishes otherwise identical scripts.
func ScriptBytes(nonce string, deps ...types.ModuleID) []byte {
	return encode(code{IsScript: true, Name: nonce, Deps: toDeps(deps)})
}

// Compiled is deserialized test bytecode.
type Compiled struct {
	code
	size int
}

func (c *Compiled) SizeInBytes() int { return c.size }

func (c *Compiled) Self() types.ModuleID { return types.NewModuleID(c.Address, c.Name) }

func (c *Compiled) Dependencies() []types.ModuleID {
	ids := make([]types.ModuleID, len(c.Deps))
	for i, dep := range c.Deps {
		ids[i] = types.NewModuleID(dep.Address, dep.Name)
	}
	return ids
}

// Verified is verified test bytecode.
type Verified struct {
	Compiled *Compiled
	Deps     []storage.Module
}

func (v *Verified) SizeInBytes() int { return v.Compiled.size + verifiedOverhead }

// Env deserializes and verifies test bytecode and counts the calls it serves.
type Env struct {
	deserializations atomic.Int64
	verifications    atomic.Int64

	// Gate, if not nil, is received from before every verification.
	Gate chan struct{}
}

func NewEnv() *Env { return &Env{} }

func (e *Env) Deserializations() int64 { return e.deserializations.Load() }
func (e *Env) Verifications() int64    { return e.verifications.Load() }

func (e *Env) deserialize(b []byte) (*Compiled, error) {
	e.deserializations.Add(1)
	var c code
	if _, err := types.Codec.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &Compiled{code: c, size: len(b)}, nil
}

func (e *Env) DeserializeModule(b []byte) (storage.CompiledModule, error) {
	c, err := e.deserialize(b)
	if err != nil {
		return nil, err
	}
	if c.IsScript {
		return nil, errNotAModule
	}
	return c, nil
}

func (e *Env) DeserializeScript(b []byte) (storage.CompiledScript, error) {
	c, err := e.deserialize(b)
	if err != nil {
		return nil, err
	}
	if !c.IsScript {
		return nil, errNotAScript
	}
	return c, nil
}

func (e *Env) verify(c *Compiled, deps []storage.Module) (*Verified, error) {
	if e.Gate != nil {
		<-e.Gate
	}
	e.verifications.Add(1)
	if c.Reject {
		return nil, ErrRejected
	}
	if len(deps) != len(c.Deps) {
		return nil, fmt.Errorf("%w: have %d of %d", errMissingDep, len(deps), len(c.Deps))
	}
	return &Verified{Compiled: c, Deps: deps}, nil
}

func (e *Env) VerifyModule(compiled storage.CompiledModule, deps []storage.Module) (storage.Module, error) {
	return e.verify(compiled.(*Compiled), deps)
}

func (e *Env) VerifyScript(compiled storage.CompiledScript, deps []storage.Module) (storage.Script, error) {
	return e.verify(compiled.(*Compiled), deps)
}
