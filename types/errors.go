// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"errors"
	"fmt"
)

// StatusCode classifies the errors raised while loading code, resolving storage
// and materializing effects.
type StatusCode uint16

func (sc StatusCode) String() string {
	if name, ok := statusNames[sc]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_%d", uint16(sc))
}

const (
	// storage errors 4000 - 4049
	StatusStorageError  StatusCode = 4001
	StatusEncodingError StatusCode = 4002

	// code errors 4050 - 4099
	StatusDeserializationError   StatusCode = 4050
	StatusVerificationError      StatusCode = 4051
	StatusLinkerError            StatusCode = 4052
	StatusCyclicModuleDependency StatusCode = 4053
	StatusChecksumMismatch       StatusCode = 4054

	// table extension errors 4100 - 4149
	StatusResolverFinished   StatusCode = 4100
	StatusIteratorNotFound   StatusCode = 4101
	StatusIteratorLimit      StatusCode = 4102
	StatusAlreadyExists      StatusCode = 4103
	StatusNotFound           StatusCode = 4104
	StatusTableExtensionFail StatusCode = 4105

	// invariant violations 4900 - 4999
	StatusDuplicateWrite     StatusCode = 4900
	StatusInvariantViolation StatusCode = 4901
)

var statusNames = map[StatusCode]string{
	StatusStorageError:           "STORAGE_ERROR",
	StatusEncodingError:          "ENCODING_ERROR",
	StatusDeserializationError:   "CODE_DESERIALIZATION_ERROR",
	StatusVerificationError:      "VERIFICATION_ERROR",
	StatusLinkerError:            "LINKER_ERROR",
	StatusCyclicModuleDependency: "CYCLIC_MODULE_DEPENDENCY",
	StatusChecksumMismatch:       "CHECKSUM_MISMATCH",
	StatusResolverFinished:       "TABLE_RESOLVER_FINISHED",
	StatusIteratorNotFound:       "TABLE_ITERATOR_NOT_FOUND",
	StatusIteratorLimit:          "TABLE_ITERATOR_LIMIT",
	StatusAlreadyExists:          "TABLE_ENTRY_ALREADY_EXISTS",
	StatusNotFound:               "TABLE_ENTRY_NOT_FOUND",
	StatusTableExtensionFail:     "VM_EXTENSION_ERROR",
	StatusDuplicateWrite:         "DUPLICATE_WRITE",
	StatusInvariantViolation:     "UNKNOWN_INVARIANT_VIOLATION_ERROR",
}

// IsCodeError returns true for failures caused by the bytecode being loaded
// rather than by the storage it was loaded from.
func (sc StatusCode) IsCodeError() bool {
	return sc >= StatusDeserializationError && sc < StatusResolverFinished
}

// VMError is the error type returned by every component of this repository.
// The wrapped error, if any, is the cause reported by a collaborator.
type VMError struct {
	Code     StatusCode
	Message  string
	Location string
	Err      error
}

func NewVMError(code StatusCode, msg string) *VMError {
	return &VMError{Code: code, Message: msg}
}

func NewVMErrorf(code StatusCode, format string, args ...interface{}) *VMError {
	return &VMError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapVMError attaches [code] to [err]. The message of [err] is preserved.
func WrapVMError(code StatusCode, err error) *VMError {
	return &VMError{Code: code, Message: err.Error(), Err: err}
}

// NewStorageError wraps a failure reported by a state or table view.
func NewStorageError(err error) *VMError {
	return WrapVMError(StatusStorageError, err)
}

// At returns a copy of the error annotated with the location it was raised for.
func (e *VMError) At(location string) *VMError {
	cpy := *e
	cpy.Location = location
	return &cpy
}

func (e *VMError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s at %s: %s", e.Code, e.Location, e.Message)
}

func (e *VMError) Unwrap() error { return e.Err }

// Is lets errors.Is match on the status code of sentinel VMErrors.
func (e *VMError) Is(target error) bool {
	t, ok := target.(*VMError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// StatusOf returns the status code of the first VMError in the chain of [err].
func StatusOf(err error) (StatusCode, bool) {
	var vmErr *VMError
	if errors.As(err, &vmErr) {
		return vmErr.Code, true
	}
	return 0, false
}

// HasStatusCode returns true if [err] carries [code].
func HasStatusCode(err error, code StatusCode) bool {
	sc, ok := StatusOf(err)
	return ok && sc == code
}
