// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressLen is the length of an account address
const AddressLen = 32

var errInvalidAddress = errors.New("invalid account address")

// AccountAddress is the 32 byte address of an account.
type AccountAddress [AddressLen]byte

// ParseAccountAddress parses a hex address with an optional 0x prefix.
// Short forms such as 0x1 are left padded.
func ParseAccountAddress(s string) (AccountAddress, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) == 0 || len(s) > 2*AddressLen {
		return AccountAddress{}, fmt.Errorf("%w: %q", errInvalidAddress, s)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return AccountAddress{}, fmt.Errorf("%w: %s", errInvalidAddress, err)
	}
	var addr AccountAddress
	copy(addr[AddressLen-len(b):], b)
	return addr, nil
}

func (a AccountAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a AccountAddress) Compare(other AccountAddress) int {
	return bytes.Compare(a[:], other[:])
}

// ModuleID names a module published under an account.
type ModuleID struct {
	Address AccountAddress
	Name    string
}

func NewModuleID(addr AccountAddress, name string) ModuleID {
	return ModuleID{Address: addr, Name: name}
}

func (id ModuleID) String() string {
	return fmt.Sprintf("%s::%s", id.Address, id.Name)
}
