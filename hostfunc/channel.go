package hostfunc

import (
	"fmt"

	"github.com/caffeineduck/sexprbox/abort"
)

// ReadValue returns the next input value as an owned handle.
func (s *State) ReadValue() uint32 {
	v, err := s.ch.ReadValue()
	if err != nil {
		abort.Fail("read_value", err)
	}
	return s.insert("read_value", v)
}

// CommitValue appends the value behind v to the journal and returns v.
func (s *State) CommitValue(v uint32) uint32 {
	if _, err := s.ch.CommitValue(s.value("commit_value", v)); err != nil {
		abort.Fail("commit_value", err)
	}
	return v
}

// ReadVector returns the next input vector as an owned handle.
func (s *State) ReadVector() uint32 {
	vec, err := s.ch.ReadVector()
	if err != nil {
		abort.Fail("read_vector", err)
	}
	if vec.Len() > s.maxVectorLen {
		abort.Fail("read_vector", fmt.Errorf("%w: %d words (limit %d)", ErrVectorTooLarge, vec.Len(), s.maxVectorLen))
	}
	return s.insertVector("read_vector", vec)
}

func (s *State) CommitVector(v uint32) uint32 {
	if _, err := s.ch.CommitVector(s.vector("commit_vector", v)); err != nil {
		abort.Fail("commit_vector", err)
	}
	return v
}

// ReadInteger returns the next input scalar, reinterpreted as unsigned.
func (s *State) ReadInteger() uint32 {
	n, err := s.ch.ReadInteger()
	if err != nil {
		abort.Fail("read_integer", err)
	}
	return uint32(n)
}

func (s *State) CommitInteger(n uint32) uint32 {
	if _, err := s.ch.CommitInteger(int32(n)); err != nil {
		abort.Fail("commit_integer", err)
	}
	return n
}
