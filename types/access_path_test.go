// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessPathRoundTrip(t *testing.T) {
	addr, err := ParseAccountAddress("0x1")
	require.NoError(t, err)
	handle := TableHandle{0xaa, 0x01}

	paths := []AccessPath{
		CodeAccessPath(NewModuleID(addr, "coin")),
		ChecksumAccessPath(NewModuleID(addr, "coin")),
		ResourceAccessPath(addr, "0x1::coin::CoinStore<0x1::native::Native>"),
		TableItemAccessPath(handle, []byte{1, 2, 3}),
		TableItemAccessPath(handle, nil),
		TableInfoAccessPath(handle),
	}
	for _, ap := range paths {
		t.Run(ap.Type.String(), func(t *testing.T) {
			assert := assert.New(t)

			b, err := ap.Bytes()
			assert.NoError(err)
			assert.Len(b, ap.Size())

			parsed, err := ParseAccessPath(b)
			assert.NoError(err)
			assert.True(ap.Equal(parsed), "%s != %s", ap, parsed)
		})
	}
}

func TestAccessPathSpacesDisjoint(t *testing.T) {
	assert := assert.New(t)

	var addr AccountAddress
	id := NewModuleID(addr, "m")
	code, err := CodeAccessPath(id).Bytes()
	assert.NoError(err)
	sum, err := ChecksumAccessPath(id).Bytes()
	assert.NoError(err)
	res, err := ResourceAccessPath(addr, "m").Bytes()
	assert.NoError(err)
	item, err := TableItemAccessPath(TableHandle(addr), []byte("m")).Bytes()
	assert.NoError(err)

	assert.NotEqual(code, sum)
	assert.NotEqual(code, res)
	assert.NotEqual(sum, res)
	assert.NotEqual(res, item)
}

func TestTableItemPrefix(t *testing.T) {
	assert := assert.New(t)

	handle := TableHandle{7}
	b, err := TableItemAccessPath(handle, []byte("key")).Bytes()
	assert.NoError(err)
	prefix := TableItemPrefix(handle)
	assert.True(bytes.HasPrefix(b, prefix))
	assert.Equal([]byte("key"), b[len(prefix):])
}

func TestAccessPathCompare(t *testing.T) {
	assert := assert.New(t)

	a1, _ := ParseAccountAddress("0x1")
	a2, _ := ParseAccountAddress("0x2")
	assert.Negative(ResourceAccessPath(a1, "z").Compare(ResourceAccessPath(a2, "a")))
	assert.Negative(CodeAccessPath(NewModuleID(a1, "z")).Compare(ResourceAccessPath(a1, "a")))
	assert.Positive(ResourceAccessPath(a1, "b").Compare(ResourceAccessPath(a1, "a")))
	assert.Zero(ResourceAccessPath(a1, "a").Compare(ResourceAccessPath(a1, "a")))
}

func TestParseAccessPathErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseAccessPath(nil)
	assert.True(HasStatusCode(err, StatusEncodingError))

	bad := make([]byte, AddressLen+1)
	bad[AddressLen] = 9
	_, err = ParseAccessPath(bad)
	assert.True(HasStatusCode(err, StatusEncodingError))

	info, err := TableInfoAccessPath(TableHandle{}).Bytes()
	assert.NoError(err)
	_, err = ParseAccessPath(append(info, 0))
	assert.True(HasStatusCode(err, StatusEncodingError))

	_, err = AccessPath{Type: DataType(42)}.Bytes()
	assert.True(HasStatusCode(err, StatusEncodingError))
}
