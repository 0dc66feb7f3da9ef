// internal/status/error.go
package status

import (
	"errors"
	"fmt"
)

// Error tags a failure with its taxonomy code.
type Error struct {
	Op  string
	Err error

	code uint16
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the taxonomy code.
func (e *Error) Code() uint16 { return e.code }

// Wrap tags err with code. A nil err stays nil.
func Wrap(code uint16, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err, code: code}
}

// CodeOf extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns CodeGeneric.
func CodeOf(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	return CodeGeneric
}
