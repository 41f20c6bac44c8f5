package hostfunc

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/field"
)

// Unset marks a descriptor output slot the descriptor did not fill.
const Unset uint32 = 0xFFFFFFFF

var (
	descriptorParams = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	readerParams     = []api.ValueType{api.ValueTypeI32}
	writerParams     = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	i32Result        = []api.ValueType{api.ValueTypeI32}
)

// FieldGet reads a field of record through the descriptor at index desc of
// the guest's function table.
func (s *State) FieldGet(ctx context.Context, g Guest, record, desc uint32) uint32 {
	return field.Get(record, s.descriptor(ctx, g, "field_get", desc))
}

// FieldPut returns the record produced by the descriptor's writer.
func (s *State) FieldPut(ctx context.Context, g Guest, record, desc, value uint32) uint32 {
	return field.Put(record, s.descriptor(ctx, g, "field_put", desc), value)
}

// descriptor adapts a guest descriptor function to field.Descriptor.
//
// The guest descriptor has type (i32 outReader, i32 outWriter) -> () and
// stores table indices of the reader (i32) -> i32 and the writer
// (i32, i32) -> i32 into the two slots. Slots are 8 bytes of guest memory
// pre-filled with Unset; a slot still Unset afterwards keeps the aborting
// default installed by field.Resolve.
func (s *State) descriptor(ctx context.Context, g Guest, op string, desc uint32) field.Descriptor[uint32, uint32] {
	return func(read *field.Reader[uint32, uint32], write *field.Writer[uint32, uint32]) {
		fn := s.tableFunc(op, g, desc, descriptorParams, nil)
		mem := s.memory(op, g)

		slots := s.alloc(ctx, op, g, 8)
		if !mem.WriteUint32Le(slots, Unset) || !mem.WriteUint32Le(slots+4, Unset) {
			abort.Fail(op, ErrOutOfBounds)
		}
		call(ctx, op, fn, slots, slots+4)
		r, ok1 := mem.ReadUint32Le(slots)
		w, ok2 := mem.ReadUint32Le(slots + 4)
		if !ok1 || !ok2 {
			abort.Fail(op, ErrOutOfBounds)
		}
		s.release(ctx, op, g, slots)

		if r != Unset {
			reader := s.tableFunc(op, g, r, readerParams, i32Result)
			*read = func(record uint32) uint32 {
				return call(ctx, op, reader, record)
			}
		}
		if w != Unset {
			writer := s.tableFunc(op, g, w, writerParams, i32Result)
			*write = func(record, value uint32) uint32 {
				return call(ctx, op, writer, record, value)
			}
		}
	}
}

func (s *State) tableFunc(op string, g Guest, index uint32, params, results []api.ValueType) Function {
	fn, err := g.Table(index, params, results)
	if err != nil {
		abort.Fail(op, err)
	}
	return fn
}
