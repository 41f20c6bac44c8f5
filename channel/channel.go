// Package channel binds values to the one-shot input/output exchange of a
// single guest execution.
//
// The host supplies input as a sequence of wire records before the
// execution starts. Every read consumes the next record; there is no
// rewinding. Commits append records to the journal, the execution's public
// output. Once the exchange is sealed further commits fail.
package channel

import (
	"errors"
	"fmt"

	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

var ErrSealed = errors.New("channel sealed")

// Channel is not safe for concurrent use.
type Channel struct {
	in      *wire.Decoder
	journal []byte
	commits int
	sealed  bool
}

// New returns a channel reading the records encoded in input.
func New(input []byte) *Channel {
	return &Channel{in: wire.NewDecoder(input)}
}

// ReadValue consumes the next input record, which must be a value.
func (c *Channel) ReadValue() (sexpr.Value, error) {
	v, err := c.in.Value()
	if err != nil {
		return nil, fmt.Errorf("read value: %w", err)
	}
	return v, nil
}

// ReadVector consumes the next input record, which must be a vector.
func (c *Channel) ReadVector() (*sexpr.Vector, error) {
	v, err := c.in.Vector()
	if err != nil {
		return nil, fmt.Errorf("read vector: %w", err)
	}
	return v, nil
}

// ReadInteger consumes the next input record, which must be a scalar.
func (c *Channel) ReadInteger() (int32, error) {
	n, err := c.in.Scalar()
	if err != nil {
		return 0, fmt.Errorf("read integer: %w", err)
	}
	return n, nil
}

// Pending returns the number of unread input bytes.
func (c *Channel) Pending() int {
	return c.in.Remaining()
}

// CommitValue appends v to the journal and returns it.
func (c *Channel) CommitValue(v sexpr.Value) (sexpr.Value, error) {
	if c.sealed {
		return nil, fmt.Errorf("commit value: %w", ErrSealed)
	}
	c.journal = wire.AppendValue(c.journal, v)
	c.commits++
	return v, nil
}

// CommitVector appends v to the journal and returns it.
func (c *Channel) CommitVector(v *sexpr.Vector) (*sexpr.Vector, error) {
	if c.sealed {
		return nil, fmt.Errorf("commit vector: %w", ErrSealed)
	}
	c.journal = wire.AppendVector(c.journal, v)
	c.commits++
	return v, nil
}

// CommitInteger appends n to the journal and returns it.
func (c *Channel) CommitInteger(n int32) (int32, error) {
	if c.sealed {
		return 0, fmt.Errorf("commit integer: %w", ErrSealed)
	}
	c.journal = wire.AppendScalar(c.journal, n)
	c.commits++
	return n, nil
}

// Seal ends the exchange and returns the journal.
func (c *Channel) Seal() []byte {
	c.sealed = true
	return c.Journal()
}

// Sealed reports whether Seal was called.
func (c *Channel) Sealed() bool {
	return c.sealed
}

// Journal returns a copy of the committed records.
func (c *Channel) Journal() []byte {
	return append([]byte(nil), c.journal...)
}

// Commits returns the number of committed records.
func (c *Channel) Commits() int {
	return c.commits
}
