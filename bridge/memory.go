// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

// U8SliceView is an optional byte slice borrowed for the duration of a call.
// The callee must copy it to keep it.
type U8SliceView struct {
	isSome bool
	data   []byte
}

// MakeView returns a view of [b]. A nil slice is an absent view.
func MakeView(b []byte) U8SliceView {
	if b == nil {
		return U8SliceView{}
	}
	return U8SliceView{isSome: true, data: b}
}

// Read returns a copy of the viewed bytes and false if the view is absent.
func (v U8SliceView) Read() ([]byte, bool) {
	if !v.isSome {
		return nil, false
	}
	return append([]byte{}, v.data...), true
}

// UnmanagedVector is an optional output buffer filled by the host. The side
// that receives it owns it and must consume it exactly once.
type UnmanagedVector struct {
	isSome   bool
	data     []byte
	consumed bool
}

// NewUnmanagedVector returns a buffer holding a copy of [data]. A nil slice is
// an absent buffer.
func NewUnmanagedVector(data []byte) UnmanagedVector {
	if data == nil {
		return UnmanagedVector{}
	}
	return UnmanagedVector{isSome: true, data: append([]byte{}, data...)}
}

func (v *UnmanagedVector) IsNone() bool { return !v.isSome }

// Consume releases the buffer and returns its content, or nil if it was
// absent. Consuming a buffer twice is a bug and panics.
func (v *UnmanagedVector) Consume() []byte {
	if v.consumed {
		panic("UnmanagedVector consumed twice")
	}
	v.consumed = true
	data := v.data
	v.data = nil
	if !v.isSome {
		return nil
	}
	return data
}
