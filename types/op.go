// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// OpKind is the kind of a storage mutation.
type OpKind uint8

const (
	OpNew OpKind = iota
	OpModify
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpNew:
		return "New"
	case OpModify:
		return "Modify"
	case OpDelete:
		return "Delete"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Op is a single mutation of a storage slot. Value is nil for deletions.
type Op struct {
	Kind  OpKind
	Value []byte
}

func NewOp(value []byte) Op    { return Op{Kind: OpNew, Value: value} }
func ModifyOp(value []byte) Op { return Op{Kind: OpModify, Value: value} }
func DeleteOp() Op             { return Op{Kind: OpDelete} }

func (op Op) IsDeletion() bool { return op.Kind == OpDelete }

func (op Op) String() string {
	if op.Kind == OpDelete {
		return op.Kind.String()
	}
	return fmt.Sprintf("%s(%d bytes)", op.Kind, len(op.Value))
}
