// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"

	"github.com/ava-labs/avalanchego/api"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/codevm/types"
	"github.com/ava-labs/codevm/vm"
)

// Client defines codevm admin operations.
type Client interface {
	// Stats fetches the counters of both code caches
	Stats(ctx context.Context) (vm.Stats, error)

	// FlushCaches empties the named cache, or both if [cache] is empty
	FlushCaches(ctx context.Context, cache string) error

	// EvictModule drops a cached module
	EvictModule(ctx context.Context, checksum types.Checksum) (bool, error)

	// EvictScript drops a cached script
	EvictScript(ctx context.Context, checksum types.Checksum) (bool, error)

	// Checksum computes the checksum the caches key [code] by
	Checksum(ctx context.Context, code []byte) (types.Checksum, error)
}

// New creates a new client object talking to the endpoint at [uri].
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, "", vm.Name)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Stats(ctx context.Context) (vm.Stats, error) {
	resp := new(vm.StatsReply)
	if err := cli.req.SendRequest(ctx, "stats", &struct{}{}, resp); err != nil {
		return vm.Stats{}, err
	}
	return resp.Stats, nil
}

func (cli *client) FlushCaches(ctx context.Context, cache string) error {
	resp := new(api.SuccessResponse)
	return cli.req.SendRequest(ctx, "flushCaches", &vm.FlushCachesArgs{Cache: cache}, resp)
}

func (cli *client) evict(ctx context.Context, method string, checksum types.Checksum) (bool, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, checksum[:])
	if err != nil {
		return false, err
	}
	resp := new(vm.EvictReply)
	err = cli.req.SendRequest(ctx, method, &vm.EvictArgs{
		Checksum: encoded,
		Encoding: formatting.Hex,
	}, resp)
	if err != nil {
		return false, err
	}
	return resp.Evicted, nil
}

func (cli *client) EvictModule(ctx context.Context, checksum types.Checksum) (bool, error) {
	return cli.evict(ctx, "evictModule", checksum)
}

func (cli *client) EvictScript(ctx context.Context, checksum types.Checksum) (bool, error) {
	return cli.evict(ctx, "evictScript", checksum)
}

func (cli *client) Checksum(ctx context.Context, code []byte) (types.Checksum, error) {
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, code)
	if err != nil {
		return types.Checksum{}, err
	}
	resp := new(vm.ChecksumReply)
	err = cli.req.SendRequest(ctx, "checksum", &vm.ChecksumArgs{
		Code:     encoded,
		Encoding: formatting.Hex,
	}, resp)
	if err != nil {
		return types.Checksum{}, err
	}
	b, err := formatting.Decode(formatting.Hex, resp.Checksum)
	if err != nil {
		return types.Checksum{}, err
	}
	return types.ChecksumFromBytes(b)
}
