// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/snow/engine/common"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/ava-labs/codevm/types"
)

const (
	moduleCache = "module"
	scriptCache = "script"
)

var errUnknownCache = errors.New("unknown cache")

// Service is the admin API of the code caches
type Service struct {
	vm *VM
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func (vm *VM) CreateHandlers() (map[string]*common.HTTPHandler, error) {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")

	return map[string]*common.HTTPHandler{
		"": {LockOptions: common.NoLock, Handler: server},
	}, server.RegisterService(&Service{vm: vm}, Name)
}

// StatsReply is the reply from Stats
type StatsReply struct {
	Stats
}

// Stats returns the counters of both caches
func (s *Service) Stats(_ *http.Request, _ *struct{}, reply *StatsReply) error {
	reply.Stats = s.vm.Stats()
	return nil
}

// FlushCachesArgs are arguments for FlushCaches
// An empty Cache flushes both caches.
type FlushCachesArgs struct {
	Cache string `json:"cache"`
}

// FlushCaches empties the module cache, the script cache or both
func (s *Service) FlushCaches(_ *http.Request, args *FlushCachesArgs, reply *api.SuccessResponse) error {
	switch args.Cache {
	case "":
		s.vm.FlushCaches()
	case moduleCache:
		s.vm.FlushModuleCache()
	case scriptCache:
		s.vm.FlushScriptCache()
	default:
		return fmt.Errorf("%w: %q", errUnknownCache, args.Cache)
	}
	log.Info("flushed code caches", "cache", args.Cache)
	reply.Success = true
	return nil
}

// EvictArgs are arguments for EvictModule and EvictScript
type EvictArgs struct {
	Checksum string              `json:"checksum"`
	Encoding formatting.Encoding `json:"encoding"`
}

// EvictReply is the reply from EvictModule and EvictScript
type EvictReply struct {
	Evicted bool `json:"evicted"`
}

// EvictModule drops the cached module with the given checksum
func (s *Service) EvictModule(_ *http.Request, args *EvictArgs, reply *EvictReply) error {
	checksum, err := decodeChecksum(args.Encoding, args.Checksum)
	if err != nil {
		return err
	}
	reply.Evicted = s.vm.EvictModule(checksum)
	return nil
}

// EvictScript drops the cached script with the given checksum
func (s *Service) EvictScript(_ *http.Request, args *EvictArgs, reply *EvictReply) error {
	checksum, err := decodeChecksum(args.Encoding, args.Checksum)
	if err != nil {
		return err
	}
	reply.Evicted = s.vm.EvictScript(checksum)
	return nil
}

// ChecksumArgs are arguments for Checksum
type ChecksumArgs struct {
	Code     string              `json:"code"`
	Encoding formatting.Encoding `json:"encoding"`
}

// ChecksumReply is the reply from Checksum
type ChecksumReply struct {
	Checksum string              `json:"checksum"`
	Encoding formatting.Encoding `json:"encoding"`
}

// Checksum returns the checksum the caches key [args.Code] by
func (s *Service) Checksum(_ *http.Request, args *ChecksumArgs, reply *ChecksumReply) error {
	code, err := formatting.Decode(args.Encoding, args.Code)
	if err != nil {
		return fmt.Errorf("couldn't decode code: %w", err)
	}
	checksum := types.ComputeChecksum(code)
	reply.Checksum, err = formatting.EncodeWithChecksum(args.Encoding, checksum[:])
	if err != nil {
		return fmt.Errorf("couldn't encode checksum: %w", err)
	}
	reply.Encoding = args.Encoding
	return nil
}

func decodeChecksum(encoding formatting.Encoding, s string) (types.Checksum, error) {
	b, err := formatting.Decode(encoding, s)
	if err != nil {
		return types.Checksum{}, fmt.Errorf("couldn't decode checksum: %w", err)
	}
	return types.ChecksumFromBytes(b)
}
