// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// Order is the traversal direction of a table iterator.
type Order int32

const (
	Ascending  Order = 1
	Descending Order = 2
)

// OrderFromInt32 parses an order received across the host boundary.
func OrderFromInt32(v int32) (Order, error) {
	switch o := Order(v); o {
	case Ascending, Descending:
		return o, nil
	default:
		return 0, NewVMErrorf(StatusEncodingError, "invalid iterator order: %d", v)
	}
}

func (o Order) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Order(%d)", int32(o))
	}
}
