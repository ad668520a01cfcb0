// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/codevm/table"
)

const (
	defaultModuleCacheCapacity = 500
	defaultScriptCacheCapacity = 500
	defaultMetricsNamespace    = "codevm"
)

var (
	errNegativeCapacity     = errors.New("cache capacity must not be negative")
	errInvalidMaxIterators  = errors.New("max iterators must be positive")
	errEmptyMetricNamespace = errors.New("metrics namespace must not be empty")
)

// Config is the configuration of a VM.
// Cache capacities are expressed in MiB.
type Config struct {
	ModuleCacheCapacity int    `mapstructure:"module-cache-capacity" json:"moduleCacheCapacity"`
	ScriptCacheCapacity int    `mapstructure:"script-cache-capacity" json:"scriptCacheCapacity"`
	MaxIterators        int    `mapstructure:"max-iterators" json:"maxIterators"`
	MetricsNamespace    string `mapstructure:"metrics-namespace" json:"metricsNamespace"`
}

func DefaultConfig() Config {
	return Config{
		ModuleCacheCapacity: defaultModuleCacheCapacity,
		ScriptCacheCapacity: defaultScriptCacheCapacity,
		MaxIterators:        table.DefaultMaxIterators,
		MetricsNamespace:    defaultMetricsNamespace,
	}
}

// Verify returns an error if the config can not be used to build a VM.
func (c Config) Verify() error {
	switch {
	case c.ModuleCacheCapacity < 0:
		return fmt.Errorf("%w: module cache capacity %d", errNegativeCapacity, c.ModuleCacheCapacity)
	case c.ScriptCacheCapacity < 0:
		return fmt.Errorf("%w: script cache capacity %d", errNegativeCapacity, c.ScriptCacheCapacity)
	case c.MaxIterators <= 0:
		return fmt.Errorf("%w: %d", errInvalidMaxIterators, c.MaxIterators)
	case c.MetricsNamespace == "":
		return errEmptyMetricNamespace
	default:
		return nil
	}
}
