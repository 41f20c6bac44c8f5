package hostfunc

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental/table"

	"github.com/caffeineduck/sexprbox/abort"
)

var (
	ErrNoMemory      = errors.New("guest has no memory")
	ErrMissingExport = errors.New("guest does not export")
	ErrOutOfBounds   = errors.New("guest memory access out of bounds")
	ErrBadFunction   = errors.New("invalid function reference")
	ErrAllocFailed   = errors.New("guest allocation failed")
)

// Guest is the part of a running guest the boundary calls back into.
type Guest interface {
	// Memory returns the guest's linear memory, nil if it has none.
	Memory() Memory
	// Export returns an exported function, nil if there is none.
	Export(name string) Function
	// Table returns the function at index in table 0 if its signature
	// matches params and results.
	Table(index uint32, params, results []api.ValueType) (Function, error)
}

// Memory is satisfied by api.Memory.
type Memory interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	ReadUint32Le(offset uint32) (uint32, bool)
	WriteUint32Le(offset, v uint32) bool
}

// Function is satisfied by api.Function.
type Function interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

type moduleGuest struct {
	mod api.Module
}

// ModuleGuest adapts a wazero module instance.
func ModuleGuest(mod api.Module) Guest {
	return moduleGuest{mod: mod}
}

func (g moduleGuest) Memory() Memory {
	if m := g.mod.Memory(); m != nil {
		return m
	}
	return nil
}

func (g moduleGuest) Export(name string) Function {
	if fn := g.mod.ExportedFunction(name); fn != nil {
		return fn
	}
	return nil
}

func (g moduleGuest) Table(index uint32, params, results []api.ValueType) (fn Function, err error) {
	// LookupFunction panics like call_indirect on a bad index or signature.
	defer func() {
		if r := recover(); r != nil {
			fn, err = nil, fmt.Errorf("%w: table[%d]: %v", ErrBadFunction, index, r)
		}
	}()
	return table.LookupFunction(g.mod, 0, index, params, results), nil
}

func (s *State) memory(op string, g Guest) Memory {
	mem := g.Memory()
	if mem == nil {
		abort.Fail(op, ErrNoMemory)
	}
	return mem
}

func (s *State) export(op string, g Guest, name string) Function {
	fn := g.Export(name)
	if fn == nil {
		abort.Fail(op, fmt.Errorf("%w %q", ErrMissingExport, name))
	}
	return fn
}

// call invokes fn and returns its single i32 result, if any.
func call(ctx context.Context, op string, fn Function, args ...uint32) uint32 {
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = api.EncodeU32(a)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		abort.Fail(op, err)
	}
	if len(res) == 0 {
		return 0
	}
	return api.DecodeU32(res[0])
}

// alloc obtains n bytes from the guest allocator.
func (s *State) alloc(ctx context.Context, op string, g Guest, n uint32) uint32 {
	ptr := call(ctx, op, s.export(op, g, s.malloc), n)
	if ptr == 0 {
		abort.Fail(op, fmt.Errorf("%w: %d bytes", ErrAllocFailed, n))
	}
	return ptr
}

func (s *State) release(ctx context.Context, op string, g Guest, ptr uint32) {
	call(ctx, op, s.export(op, g, s.free), ptr)
}
