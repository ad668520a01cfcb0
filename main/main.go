// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/ava-labs/codevm/types"
	"github.com/ava-labs/codevm/vm"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	v, err := getViper(args)
	if err != nil {
		return fmt.Errorf("couldn't get config: %w", err)
	}

	switch {
	case v.GetBool(versionKey):
		_, err = fmt.Fprintf(out, "%s@%s\n", vm.Name, vm.Version)
		return err
	case v.GetBool(vmIDKey):
		_, err = fmt.Fprintln(out, vm.ID)
		return err
	case v.GetString(checksumKey) != "":
		return printChecksum(v.GetString(checksumKey), out)
	}

	config, err := getConfig(v)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !v.GetBool(printConfigKey) {
		return nil
	}
	b, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

func printChecksum(path string, out io.Writer) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("couldn't read code: %w", err)
	}
	checksum := types.ComputeChecksum(code)
	encoded, err := formatting.EncodeWithChecksum(formatting.Hex, checksum[:])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s %s\n", encoded, path)
	return err
}
