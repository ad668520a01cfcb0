// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"fmt"
	"unicode/utf8"
)

// MaxErrorMessageLen is the number of error message bytes kept from the host.
const MaxErrorMessageLen = 8192

// GoError is the status returned by every host callback.
type GoError int32

const (
	GoErrorNone            GoError = 0
	GoErrorBadArgument     GoError = 1
	GoErrorPanic           GoError = 2
	GoErrorUnimplemented   GoError = 3
	GoErrorUser            GoError = 4
	GoErrorCannotSerialize GoError = 5
	GoErrorOther           GoError = -1
)

// ErrorKind classifies a failure reported by the host.
type ErrorKind uint8

const (
	KindForeignPanic ErrorKind = iota
	KindBadArgument
	KindInvalidUtf8
	KindUnimplemented
	KindUnknown
	KindUser
)

// BackendError is a failure reported by the host through a callback status.
type BackendError struct {
	Kind ErrorKind
	Msg  string
}

func (e *BackendError) Error() string {
	switch e.Kind {
	case KindForeignPanic:
		return "Panic in FFI call"
	case KindBadArgument:
		return "Bad argument"
	case KindInvalidUtf8:
		return "VM received invalid UTF-8 data from backend"
	case KindUnimplemented:
		return "Unimplemented"
	case KindUser:
		return "User error during call into backend: " + e.Msg
	default:
		return "Unknown error during call into backend: " + e.Msg
	}
}

// Is matches backend errors of the same kind.
func (e *BackendError) Is(target error) bool {
	t, ok := target.(*BackendError)
	return ok && t.Kind == e.Kind
}

// IntoResult converts a callback status into an error. [errMsg] is consumed
// whatever the status. User and unknown failures carry the host message, or
// [defaultMsg] if the host gave none.
func (status GoError) IntoResult(errMsg *UnmanagedVector, defaultMsg func() string) error {
	msg := errMsg.Consume()
	if len(msg) > MaxErrorMessageLen {
		msg = msg[:MaxErrorMessageLen]
	}

	message := func() (string, error) {
		if len(msg) == 0 {
			return defaultMsg(), nil
		}
		if !utf8.Valid(msg) {
			return "", &BackendError{Kind: KindInvalidUtf8}
		}
		return string(msg), nil
	}

	switch status {
	case GoErrorNone:
		return nil
	case GoErrorPanic:
		return &BackendError{Kind: KindForeignPanic}
	case GoErrorBadArgument:
		return &BackendError{Kind: KindBadArgument}
	case GoErrorUnimplemented:
		return &BackendError{Kind: KindUnimplemented}
	case GoErrorCannotSerialize:
		return &BackendError{Kind: KindUnknown, Msg: "Cannot serialize"}
	case GoErrorUser:
		m, err := message()
		if err != nil {
			return err
		}
		return &BackendError{Kind: KindUser, Msg: m}
	default:
		m, err := message()
		if err != nil {
			return err
		}
		if status != GoErrorOther {
			m = fmt.Sprintf("unknown status %d: %s", int32(status), m)
		}
		return &BackendError{Kind: KindUnknown, Msg: m}
	}
}
