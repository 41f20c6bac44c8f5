package hostfunc

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/caffeineduck/sexprbox/abort"
)

// op is one boundary function. All parameters and results are i32.
type op struct {
	name    string
	params  int
	results int
	call    func(ctx context.Context, s *State, g Guest, args []uint32) uint32
}

func (o op) hostFunc() Func {
	return Func{
		Params:  i32s(o.params),
		Results: i32s(o.results),
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			s, ok := StateFrom(ctx)
			if !ok {
				abort.Fail(o.name, ErrNoState)
			}
			var buf [3]uint32
			args := buf[:o.params]
			for i := range args {
				args[i] = api.DecodeU32(stack[i])
			}
			r := o.call(ctx, s, ModuleGuest(mod), args)
			if o.results == 1 {
				stack[0] = api.EncodeU32(r)
			}
		},
	}
}

func i32s(n int) []api.ValueType {
	types := make([]api.ValueType, n)
	for i := range types {
		types[i] = api.ValueTypeI32
	}
	return types
}

var abi = []op{
	// values
	{"cons", 2, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.Cons(a[0], a[1]) }},
	{"car", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.Car(a[0]) }},
	{"cdr", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.Cdr(a[0]) }},
	{"set_car", 2, 0, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { s.SetCar(a[0], a[1]); return 0 }},
	{"set_cdr", 2, 0, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { s.SetCdr(a[0], a[1]); return 0 }},
	{"is_pair", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.IsPair(a[0]) }},
	{"is_null", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.IsNull(a[0]) }},
	{"is_integer", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.IsInteger(a[0]) }},
	{"is_string", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.IsString(a[0]) }},
	{"is_equal", 2, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.IsEqual(a[0], a[1]) }},
	{"drop", 1, 0, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { s.Drop(a[0]); return 0 }},
	{"integer", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.Integer(a[0]) }},
	{"null", 0, 1, func(_ context.Context, s *State, _ Guest, _ []uint32) uint32 { return s.Null() }},
	{"as_integer", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.AsInteger(a[0]) }},

	// text
	{"string", 1, 1, func(_ context.Context, s *State, g Guest, a []uint32) uint32 { return s.Text(g, a[0]) }},
	{"alloc_string", 1, 1, func(ctx context.Context, s *State, g Guest, a []uint32) uint32 { return s.AllocText(ctx, g, a[0]) }},
	{"drop_string", 1, 0, func(ctx context.Context, s *State, g Guest, a []uint32) uint32 { s.DropText(ctx, g, a[0]); return 0 }},

	// vectors
	{"vector_new", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.VectorNew(a[0]) }},
	{"vector_len", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.VectorLen(a[0]) }},
	{"vector_get", 2, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.VectorGet(a[0], a[1]) }},
	{"vector_set", 3, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.VectorSet(a[0], a[1], a[2]) }},
	{"vector_fill", 2, 0, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { s.VectorFill(a[0], a[1]); return 0 }},
	{"vector_drop", 1, 0, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { s.VectorDrop(a[0]); return 0 }},

	// channel
	{"read_value", 0, 1, func(_ context.Context, s *State, _ Guest, _ []uint32) uint32 { return s.ReadValue() }},
	{"commit_value", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.CommitValue(a[0]) }},
	{"read_vector", 0, 1, func(_ context.Context, s *State, _ Guest, _ []uint32) uint32 { return s.ReadVector() }},
	{"commit_vector", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.CommitVector(a[0]) }},
	{"read_integer", 0, 1, func(_ context.Context, s *State, _ Guest, _ []uint32) uint32 { return s.ReadInteger() }},
	{"commit_integer", 1, 1, func(_ context.Context, s *State, _ Guest, a []uint32) uint32 { return s.CommitInteger(a[0]) }},

	// fields
	{"field_get", 2, 1, func(ctx context.Context, s *State, g Guest, a []uint32) uint32 { return s.FieldGet(ctx, g, a[0], a[1]) }},
	{"field_put", 3, 1, func(ctx context.Context, s *State, g Guest, a []uint32) uint32 { return s.FieldPut(ctx, g, a[0], a[1], a[2]) }},
}
