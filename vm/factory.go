// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/snow"
	"github.com/ava-labs/avalanchego/vms"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/codevm/storage"
)

var _ vms.Factory = &Factory{}

// Factory builds VMs sharing one configuration and runtime environment
type Factory struct {
	Config     Config
	Env        storage.RuntimeEnvironment
	Registerer prometheus.Registerer
}

// New ...
func (f *Factory) New(*snow.Context) (interface{}, error) {
	return New(f.Config, f.Env, f.Registerer)
}
