package hostfunc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// fakeGuest is an in-process stand-in for a guest instance: a flat memory,
// a bump allocator exported as malloc/free and a function table.
type fakeGuest struct {
	mem     *fakeMemory
	exports map[string]Function
	table   []Function
	next    uint32
	freed   []uint32
}

func newFakeGuest() *fakeGuest {
	g := &fakeGuest{
		mem:     &fakeMemory{buf: make([]byte, 1<<16)},
		exports: make(map[string]Function),
		next:    1024,
	}
	g.exports["malloc"] = fakeFunc(func(_ context.Context, p ...uint64) ([]uint64, error) {
		ptr := g.next
		g.next += (api.DecodeU32(p[0]) + 7) &^ 7
		return []uint64{api.EncodeU32(ptr)}, nil
	})
	g.exports["free"] = fakeFunc(func(_ context.Context, p ...uint64) ([]uint64, error) {
		g.freed = append(g.freed, api.DecodeU32(p[0]))
		return nil, nil
	})
	return g
}

func (g *fakeGuest) Memory() Memory {
	if g.mem == nil {
		return nil
	}
	return g.mem
}

func (g *fakeGuest) Export(name string) Function {
	if fn, ok := g.exports[name]; ok {
		return fn
	}
	return nil
}

func (g *fakeGuest) Table(index uint32, _, _ []api.ValueType) (Function, error) {
	if int(index) >= len(g.table) || g.table[index] == nil {
		return nil, fmt.Errorf("%w: table[%d]", ErrBadFunction, index)
	}
	return g.table[index], nil
}

// cstring places s and a NUL terminator in guest memory.
func (g *fakeGuest) cstring(s string) uint32 {
	ptr := g.next
	copy(g.mem.buf[ptr:], s)
	g.mem.buf[ptr+uint32(len(s))] = 0
	g.next += uint32(len(s)) + 8
	return ptr
}

type fakeFunc func(ctx context.Context, params ...uint64) ([]uint64, error)

func (f fakeFunc) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return f(ctx, params...)
}

type fakeMemory struct {
	buf []byte
}

func (m *fakeMemory) Size() uint32 {
	return uint32(len(m.buf))
}

func (m *fakeMemory) Read(offset, n uint32) ([]byte, bool) {
	if uint64(offset)+uint64(n) > uint64(len(m.buf)) {
		return nil, false
	}
	return m.buf[offset : offset+n], true
}

func (m *fakeMemory) Write(offset uint32, v []byte) bool {
	if uint64(offset)+uint64(len(v)) > uint64(len(m.buf)) {
		return false
	}
	copy(m.buf[offset:], v)
	return true
}

func (m *fakeMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (m *fakeMemory) WriteUint32Le(offset, v uint32) bool {
	b, ok := m.Read(offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(b, v)
	return true
}
