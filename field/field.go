// Package field resolves record fields through runtime-supplied accessors.
//
// A record's layout need not be known where the field is used. Instead a
// Descriptor hands out, per field, a Reader and a Writer. The descriptor runs
// every time the field is accessed; slots it leaves untouched resolve to
// sentinels that abort the execution.
package field

import (
	"errors"

	"github.com/caffeineduck/sexprbox/abort"
)

var (
	ErrUnresolvedReader = errors.New("descriptor did not provide a reader")
	ErrUnresolvedWriter = errors.New("descriptor did not provide a writer")
)

// Reader extracts a field from a record.
type Reader[R, F any] func(record R) F

// Writer returns a copy of record with the field replaced. The original
// record is not modified.
type Writer[R, F any] func(record R, value F) R

// Descriptor fills in the reader and writer for one field.
type Descriptor[R, F any] func(read *Reader[R, F], write *Writer[R, F])

// Accessor is the static form of a descriptor.
type Accessor[R, F any] interface {
	Read(record R) F
	Write(record R, value F) R
}

// Resolve runs d and returns the functions it provided. Slots d did not
// fill abort when called.
func Resolve[R, F any](d Descriptor[R, F]) (Reader[R, F], Writer[R, F]) {
	read := Reader[R, F](unresolvedReader[R, F])
	write := Writer[R, F](unresolvedWriter[R, F])
	if d != nil {
		d(&read, &write)
	}
	if read == nil {
		read = unresolvedReader[R, F]
	}
	if write == nil {
		write = unresolvedWriter[R, F]
	}
	return read, write
}

// Get reads the field described by d.
func Get[R, F any](record R, d Descriptor[R, F]) F {
	read, _ := Resolve(d)
	return read(record)
}

// Put returns a record with the field described by d set to value.
func Put[R, F any](record R, d Descriptor[R, F], value F) R {
	_, write := Resolve(d)
	return write(record, value)
}

// Modify returns a record with fn applied to the field described by d.
func Modify[R, F any](record R, d Descriptor[R, F], fn func(F) F) R {
	read, write := Resolve(d)
	return write(record, fn(read(record)))
}

// FromAccessor adapts a to a descriptor.
func FromAccessor[R, F any](a Accessor[R, F]) Descriptor[R, F] {
	return func(read *Reader[R, F], write *Writer[R, F]) {
		*read = a.Read
		*write = a.Write
	}
}

func unresolvedReader[R, F any](R) F {
	abort.Fail("field_get", ErrUnresolvedReader)
	panic("unreachable")
}

func unresolvedWriter[R, F any](R, F) R {
	abort.Fail("field_put", ErrUnresolvedWriter)
	panic("unreachable")
}
