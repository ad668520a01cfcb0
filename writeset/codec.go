// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package writeset

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/ava-labs/codevm/types"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

type wireEntry struct {
	_     struct{} `cbor:",toarray"`
	Key   []byte
	Kind  uint8
	Value []byte
}

// Marshal returns the canonical encoding of the write set. Equal write sets
// always encode to the same bytes.
func (ws *WriteSet) Marshal() ([]byte, error) {
	entries := ws.Entries()
	wire := make([]wireEntry, len(entries))
	for i, e := range entries {
		key, err := e.AccessPath.Bytes()
		if err != nil {
			return nil, err
		}
		wire[i] = wireEntry{Key: key, Kind: uint8(e.Op.Kind), Value: e.Op.Value}
	}
	b, err := encMode.Marshal(wire)
	if err != nil {
		return nil, types.WrapVMError(types.StatusEncodingError, err)
	}
	return b, nil
}

// Unmarshal parses a write set encoded by Marshal.
func Unmarshal(b []byte) (*WriteSet, error) {
	var wire []wireEntry
	if err := decMode.Unmarshal(b, &wire); err != nil {
		return nil, types.WrapVMError(types.StatusEncodingError, err)
	}
	ws := New()
	for _, w := range wire {
		ap, err := types.ParseAccessPath(w.Key)
		if err != nil {
			return nil, err
		}
		kind := types.OpKind(w.Kind)
		if kind > types.OpDelete {
			return nil, types.NewVMErrorf(types.StatusEncodingError, "invalid op kind %d", w.Kind).At(ap.String())
		}
		if err := ws.Add(ap, types.Op{Kind: kind, Value: w.Value}); err != nil {
			return nil, err
		}
	}
	return ws, nil
}
