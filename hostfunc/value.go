package hostfunc

import (
	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/handle"
	"github.com/caffeineduck/sexprbox/sexpr"
)

// Cons returns an owned pair holding copies of the values behind head and
// tail. The new pair shares no nodes with either argument.
func (s *State) Cons(head, tail uint32) uint32 {
	h := s.value("cons", head)
	t := s.value("cons", tail)
	return s.insert("cons", sexpr.Cons(sexpr.Clone(h), sexpr.Clone(t)))
}

// Car returns a borrowed handle to the head of a pair.
func (s *State) Car(v uint32) uint32 {
	head, err := sexpr.Head(s.value("car", v))
	if err != nil {
		abort.Fail("car", err)
	}
	return s.borrow("car", v, head)
}

// Cdr returns a borrowed handle to the tail of a pair.
func (s *State) Cdr(v uint32) uint32 {
	tail, err := sexpr.Tail(s.value("cdr", v))
	if err != nil {
		abort.Fail("cdr", err)
	}
	return s.borrow("cdr", v, tail)
}

// SetCar replaces the head of a pair with a copy of the value behind head.
// Every handle to the pair observes the change.
func (s *State) SetCar(v, head uint32) {
	p := s.value("set_car", v)
	if err := sexpr.SetHead(p, sexpr.Clone(s.value("set_car", head))); err != nil {
		abort.Fail("set_car", err)
	}
}

// SetCdr replaces the tail of a pair with a copy of the value behind tail.
func (s *State) SetCdr(v, tail uint32) {
	p := s.value("set_cdr", v)
	if err := sexpr.SetTail(p, sexpr.Clone(s.value("set_cdr", tail))); err != nil {
		abort.Fail("set_cdr", err)
	}
}

func (s *State) IsPair(v uint32) uint32 {
	return b2u(sexpr.IsPair(s.value("is_pair", v)))
}

func (s *State) IsNull(v uint32) uint32 {
	return b2u(sexpr.IsEmpty(s.value("is_null", v)))
}

func (s *State) IsInteger(v uint32) uint32 {
	return b2u(sexpr.IsInteger(s.value("is_integer", v)))
}

func (s *State) IsString(v uint32) uint32 {
	return b2u(sexpr.IsText(s.value("is_string", v)))
}

func (s *State) IsEqual(a, b uint32) uint32 {
	return b2u(sexpr.Equal(s.value("is_equal", a), s.value("is_equal", b)))
}

// Drop releases an owned handle together with every handle borrowed from
// it. Dropping a borrowed or released handle aborts.
func (s *State) Drop(v uint32) {
	if err := s.values.Release(handle.Handle(v)); err != nil {
		abort.Fail("drop", err)
	}
}

// Integer returns an owned integer. n is reinterpreted as signed.
func (s *State) Integer(n uint32) uint32 {
	return s.insert("integer", sexpr.Integer(int32(n)))
}

// Null returns the shared empty value. Its handle is valid for the whole
// execution and must not be dropped.
func (s *State) Null() uint32 {
	return uint32(s.empty)
}

func (s *State) AsInteger(v uint32) uint32 {
	n, err := sexpr.AsInteger(s.value("as_integer", v))
	if err != nil {
		abort.Fail("as_integer", err)
	}
	return uint32(n)
}

func (s *State) value(op string, h uint32) sexpr.Value {
	v, err := s.values.Get(handle.Handle(h))
	if err != nil {
		abort.Fail(op, err)
	}
	return v
}

func (s *State) insert(op string, v sexpr.Value) uint32 {
	h, err := s.values.Insert(v)
	if err != nil {
		abort.Fail(op, err)
	}
	return uint32(h)
}

func (s *State) borrow(op string, parent uint32, v sexpr.Value) uint32 {
	if sexpr.IsEmpty(v) {
		return uint32(s.empty)
	}
	h, err := s.values.Borrow(handle.Handle(parent), v)
	if err != nil {
		abort.Fail(op, err)
	}
	return uint32(h)
}
