// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package codecache

// Entry holds a module or script either deserialized only or fully verified.
// Verified entries keep the deserialized form they were verified from.
//
// Entries are immutable. Promotion replaces the entry of a checksum with a new
// verified one.
type Entry[D, V any] struct {
	deserialized D
	verified     V
	isVerified   bool
	weight       int
}

func NewDeserializedEntry[D, V any](deserialized D, weight int) *Entry[D, V] {
	return &Entry[D, V]{deserialized: deserialized, weight: weight}
}

func NewVerifiedEntry[D, V any](deserialized D, verified V, weight int) *Entry[D, V] {
	return &Entry[D, V]{
		deserialized: deserialized,
		verified:     verified,
		isVerified:   true,
		weight:       weight,
	}
}

// Deserialized returns the deserialized form of either variant.
func (e *Entry[D, V]) Deserialized() D { return e.deserialized }

// Verified returns the verified form if the entry has been promoted.
func (e *Entry[D, V]) Verified() (V, bool) { return e.verified, e.isVerified }

func (e *Entry[D, V]) IsVerified() bool { return e.isVerified }

// Weight is the in-memory size of the entry in bytes.
func (e *Entry[D, V]) Weight() int { return e.weight }
