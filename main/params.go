// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/codevm/vm"
)

const (
	versionKey     = "version"
	vmIDKey        = "vm-id"
	checksumKey    = "checksum"
	printConfigKey = "print-config"
	configFileKey  = "config-file"

	moduleCacheCapacityKey = "module-cache-capacity"
	scriptCacheCapacityKey = "script-cache-capacity"
	maxIteratorsKey        = "max-iterators"
	metricsNamespaceKey    = "metrics-namespace"

	envPrefix = "codevm"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(vm.Name, flag.ContinueOnError)
	defaults := vm.DefaultConfig()

	fs.Bool(versionKey, false, "If true, prints the version and quit")
	fs.Bool(vmIDKey, false, "If true, prints vmID and quit")
	fs.String(checksumKey, "", "Prints the checksum of the code in the given file and quit")
	fs.Bool(printConfigKey, false, "If true, prints the effective config and quit")
	fs.String(configFileKey, "", "Specifies a config file")

	fs.Int(moduleCacheCapacityKey, defaults.ModuleCacheCapacity, "Capacity of the module cache in MiB")
	fs.Int(scriptCacheCapacityKey, defaults.ScriptCacheCapacity, "Capacity of the script cache in MiB")
	fs.Int(maxIteratorsKey, defaults.MaxIterators, "Maximum number of table iterators of one execution")
	fs.String(metricsNamespaceKey, defaults.MetricsNamespace, "Namespace of the cache metrics")

	return fs
}

// getViper returns the viper environment for the binary
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet(vm.Name, pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// getConfig reads the VM config out of [v]
func getConfig(v *viper.Viper) (vm.Config, error) {
	config := vm.DefaultConfig()
	if err := v.Unmarshal(&config); err != nil {
		return vm.Config{}, err
	}
	return config, config.Verify()
}
