// Package abort implements the fatal error model of the guest boundary.
//
// A contract violation at the boundary is not reported to the guest. It ends
// the whole execution: the host function panics with an [*Error], wazero
// recovers the panic and fails the guest call with an error wrapping it, and
// the executor discards everything the execution produced.
package abort

import (
	"errors"
	"fmt"
)

// Error describes why an execution was aborted.
type Error struct {
	Op  string // boundary operation that detected the violation, e.g. "car"
	Err error
}

func (e *Error) Error() string {
	return "abort: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fail aborts the current execution. It never returns.
func Fail(op string, err error) {
	panic(&Error{Op: op, Err: err})
}

// Failf is Fail with a formatted cause.
func Failf(op, format string, args ...any) {
	Fail(op, fmt.Errorf(format, args...))
}

// Catch runs fn and converts an abort raised inside it into an error.
// Panics that are not aborts propagate unchanged.
func Catch(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ae, ok := r.(*Error); ok {
			err = ae
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

// As reports whether err is or wraps an abort and returns it.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
