package hostfunc

import (
	"fmt"

	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/handle"
	"github.com/caffeineduck/sexprbox/sexpr"
)

// VectorNew returns an owned zero-filled vector of length n.
func (s *State) VectorNew(n uint32) uint32 {
	length := size("vector_new", n)
	if length > s.maxVectorLen {
		abort.Fail("vector_new", fmt.Errorf("%w: %d words (limit %d)", ErrVectorTooLarge, length, s.maxVectorLen))
	}
	vec, err := sexpr.NewVector(length)
	if err != nil {
		abort.Fail("vector_new", err)
	}
	return s.insertVector("vector_new", vec)
}

func (s *State) VectorLen(v uint32) uint32 {
	return uint32(s.vector("vector_len", v).Len())
}

func (s *State) VectorGet(v, index uint32) uint32 {
	x, err := s.vector("vector_get", v).At(size("vector_get", index))
	if err != nil {
		abort.Fail("vector_get", err)
	}
	return x
}

// VectorSet stores x at index and returns x.
func (s *State) VectorSet(v, index, x uint32) uint32 {
	x, err := s.vector("vector_set", v).Set(size("vector_set", index), x)
	if err != nil {
		abort.Fail("vector_set", err)
	}
	return x
}

func (s *State) VectorFill(v, x uint32) {
	s.vector("vector_fill", v).Fill(x)
}

func (s *State) VectorDrop(v uint32) {
	if err := s.vectors.Release(handle.Handle(v)); err != nil {
		abort.Fail("vector_drop", err)
	}
}

func (s *State) vector(op string, h uint32) *sexpr.Vector {
	v, err := s.vectors.Get(handle.Handle(h))
	if err != nil {
		abort.Fail(op, err)
	}
	return v
}

func (s *State) insertVector(op string, v *sexpr.Vector) uint32 {
	h, err := s.vectors.Insert(v)
	if err != nil {
		abort.Fail(op, err)
	}
	return uint32(h)
}
