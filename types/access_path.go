// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

// DataType selects the address space of an access path. The type byte follows
// the address in the encoded key so the address spaces never overlap.
type DataType byte

const (
	CodeDataType DataType = iota
	CodeChecksumDataType
	ResourceDataType
	TableItemDataType
	TableInfoDataType
)

const (
	dataTypeLen     = 1
	namePrefixLen   = wrappers.ShortLen
	maxAccessPathSz = AddressLen + dataTypeLen + namePrefixLen + 1<<16
)

var (
	errEmptyAccessPath  = errors.New("empty access path bytes")
	errInvalidDataType  = errors.New("invalid data type")
	errTrailingPathData = errors.New("unexpected trailing bytes in access path")
)

func (t DataType) String() string {
	switch t {
	case CodeDataType:
		return "code"
	case CodeChecksumDataType:
		return "checksum"
	case ResourceDataType:
		return "resource"
	case TableItemDataType:
		return "table_item"
	case TableInfoDataType:
		return "table_info"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

func (t DataType) Valid() bool { return t <= TableInfoDataType }

// AccessPath is the canonical storage key of a module, a resource, a table item
// or a table's metadata.
//
// Path holds the module name for code and checksum paths, the struct tag for
// resources and the raw key for table items. It is empty for table info.
type AccessPath struct {
	Address AccountAddress
	Type    DataType
	Path    []byte
}

func CodeAccessPath(id ModuleID) AccessPath {
	return AccessPath{Address: id.Address, Type: CodeDataType, Path: []byte(id.Name)}
}

func ChecksumAccessPath(id ModuleID) AccessPath {
	return AccessPath{Address: id.Address, Type: CodeChecksumDataType, Path: []byte(id.Name)}
}

func ResourceAccessPath(addr AccountAddress, structTag string) AccessPath {
	return AccessPath{Address: addr, Type: ResourceDataType, Path: []byte(structTag)}
}

func TableItemAccessPath(handle TableHandle, key []byte) AccessPath {
	return AccessPath{Address: AccountAddress(handle), Type: TableItemDataType, Path: key}
}

func TableInfoAccessPath(handle TableHandle) AccessPath {
	return AccessPath{Address: AccountAddress(handle), Type: TableInfoDataType}
}

// TableItemPrefix returns the encoded prefix shared by every item of [handle].
func TableItemPrefix(handle TableHandle) []byte {
	prefix := make([]byte, 0, AddressLen+dataTypeLen)
	prefix = append(prefix, handle[:]...)
	return append(prefix, byte(TableItemDataType))
}

func (ap AccessPath) namedPath() bool {
	return ap.Type == CodeDataType || ap.Type == CodeChecksumDataType || ap.Type == ResourceDataType
}

// Bytes encodes the access path for physical storage.
func (ap AccessPath) Bytes() ([]byte, error) {
	if !ap.Type.Valid() {
		return nil, NewVMErrorf(StatusEncodingError, "%s: %d", errInvalidDataType, ap.Type)
	}
	p := wrappers.Packer{MaxSize: maxAccessPathSz}
	p.PackFixedBytes(ap.Address[:])
	p.PackByte(byte(ap.Type))
	switch {
	case ap.namedPath():
		p.PackStr(string(ap.Path))
	case ap.Type == TableItemDataType:
		p.PackFixedBytes(ap.Path)
	}
	if p.Errored() {
		return nil, WrapVMError(StatusEncodingError, p.Err).At(ap.String())
	}
	return p.Bytes, nil
}

// Size is the length of the encoded access path.
func (ap AccessPath) Size() int {
	size := AddressLen + dataTypeLen + len(ap.Path)
	if ap.namedPath() {
		size += namePrefixLen
	}
	return size
}

// ParseAccessPath decodes bytes produced by [AccessPath.Bytes].
func ParseAccessPath(b []byte) (AccessPath, error) {
	if len(b) == 0 {
		return AccessPath{}, WrapVMError(StatusEncodingError, errEmptyAccessPath)
	}
	p := wrappers.Packer{Bytes: b}
	var ap AccessPath
	copy(ap.Address[:], p.UnpackFixedBytes(AddressLen))
	ap.Type = DataType(p.UnpackByte())
	if p.Errored() {
		return AccessPath{}, WrapVMError(StatusEncodingError, p.Err)
	}
	if !ap.Type.Valid() {
		return AccessPath{}, NewVMErrorf(StatusEncodingError, "%s: %d", errInvalidDataType, ap.Type)
	}
	switch {
	case ap.namedPath():
		ap.Path = []byte(p.UnpackStr())
		if p.Errored() {
			return AccessPath{}, WrapVMError(StatusEncodingError, p.Err)
		}
		if p.Offset != len(b) {
			return AccessPath{}, WrapVMError(StatusEncodingError, errTrailingPathData)
		}
	case ap.Type == TableItemDataType:
		ap.Path = append([]byte{}, b[p.Offset:]...)
	default:
		if p.Offset != len(b) {
			return AccessPath{}, WrapVMError(StatusEncodingError, errTrailingPathData)
		}
	}
	return ap, nil
}

// Compare orders access paths by address, then data type, then path.
func (ap AccessPath) Compare(other AccessPath) int {
	if c := ap.Address.Compare(other.Address); c != 0 {
		return c
	}
	if ap.Type != other.Type {
		if ap.Type < other.Type {
			return -1
		}
		return 1
	}
	return bytes.Compare(ap.Path, other.Path)
}

func (ap AccessPath) Equal(other AccessPath) bool { return ap.Compare(other) == 0 }

// key is a comparable representation used to deduplicate access paths in maps.
func (ap AccessPath) key() string {
	return string(ap.Address[:]) + string([]byte{byte(ap.Type)}) + string(ap.Path)
}

// MapKey returns a string uniquely identifying [ap], suitable as a map key.
func (ap AccessPath) MapKey() string { return ap.key() }

// ModuleID returns the module addressed by a code or checksum path.
func (ap AccessPath) ModuleID() (ModuleID, bool) {
	if ap.Type != CodeDataType && ap.Type != CodeChecksumDataType {
		return ModuleID{}, false
	}
	return ModuleID{Address: ap.Address, Name: string(ap.Path)}, true
}

func (ap AccessPath) String() string {
	switch ap.Type {
	case TableItemDataType:
		return fmt.Sprintf("%s/%d/%s", ap.Address, ap.Type, hex.EncodeToString(ap.Path))
	case TableInfoDataType:
		return fmt.Sprintf("%s/%d/0", ap.Address, ap.Type)
	default:
		return fmt.Sprintf("%s/%d/%s", ap.Address, ap.Type, ap.Path)
	}
}
