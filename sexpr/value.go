// Package sexpr implements the S-expression value model exchanged with
// sandboxed guests: integers, text, the empty list and pairs.
package sexpr

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

var (
	ErrNotPair         = errors.New("not a pair")
	ErrNotInteger      = errors.New("not an integer")
	ErrNotText         = errors.New("not a string")
	ErrInvalidText     = errors.New("invalid UTF-8")
	ErrImproperList    = errors.New("improper list")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Value is a sealed interface: only Integer, Text, Empty and *Pair implement it.
type Value interface {
	String() string
	value()
}

// Integer is a signed 32-bit scalar.
type Integer int32

func (Integer) value() {}

func (n Integer) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// Text is an owned string. Values built through NewText are valid UTF-8.
type Text string

func (Text) value() {}

func (s Text) String() string {
	return strconv.Quote(string(s))
}

// Empty terminates proper lists.
type Empty struct{}

func (Empty) value() {}

func (Empty) String() string {
	return "()"
}

// Nil is the shared Empty value.
var Nil Value = Empty{}

// Pair is a two-slot node. It is always used through a pointer so that
// SetHead and SetTail are visible to every holder of the node.
type Pair struct {
	Head Value
	Tail Value
}

func (*Pair) value() {}

func (p *Pair) String() string {
	return Render(p)
}

// Cons allocates a pair holding head and tail as given. It does not copy;
// use Clone first when the pair must not share nodes with its arguments.
func Cons(head, tail Value) *Pair {
	return &Pair{Head: orNil(head), Tail: orNil(tail)}
}

// List builds a proper list from vals.
func List(vals ...Value) Value {
	var out Value = Nil
	for i := len(vals) - 1; i >= 0; i-- {
		out = Cons(vals[i], out)
	}
	return out
}

// NewText validates b and copies it into a Text.
func NewText(b []byte) (Text, error) {
	if !utf8.Valid(b) {
		return "", ErrInvalidText
	}
	return Text(b), nil
}

func orNil(v Value) Value {
	if v == nil {
		return Nil
	}
	return v
}
