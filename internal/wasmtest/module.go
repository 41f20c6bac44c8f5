// Package wasmtest assembles small WebAssembly modules for tests.
//
// Only what the tests need is supported: i32 functions, function imports,
// one memory, one function table filled from offset 0, and active data
// segments.
package wasmtest

import (
	"encoding/binary"
	"slices"
)

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secTable    = 4
	secMemory   = 5
	secExport   = 7
	secElement  = 9
	secCode     = 10
	secData     = 11

	i32     = 0x7f
	funcRef = 0x70
)

type sig struct {
	params, results int
}

type imp struct {
	module, name string
	typ          int
}

type fn struct {
	typ    int
	locals int
	body   []byte
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type data struct {
	offset uint32
	b      []byte
}

// Module is a module under construction.
type Module struct {
	types   []sig
	imports []imp
	funcs   []fn
	exports []export
	memory  *uint32
	elems   []uint32
	data    []data
}

func New() *Module {
	return &Module{}
}

// Import declares an imported function and returns its index. Imports must
// be declared before any Func.
func (m *Module) Import(module, name string, params, results int) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmtest: Import after Func")
	}
	m.imports = append(m.imports, imp{module: module, name: name, typ: m.typeOf(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function with params i32 parameters, results i32 results
// and locals extra i32 locals, and returns its index. The trailing end
// opcode is added.
func (m *Module) Func(params, results, locals int, body ...[]byte) uint32 {
	m.funcs = append(m.funcs, fn{typ: m.typeOf(params, results), locals: locals, body: slices.Concat(body...)})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Export exports function idx as name.
func (m *Module) Export(name string, idx uint32) *Module {
	m.exports = append(m.exports, export{name: name, kind: 0x00, idx: idx})
	return m
}

// Memory declares a memory of pages 64KiB pages exported as "memory".
func (m *Module) Memory(pages uint32) *Module {
	m.memory = &pages
	m.exports = append(m.exports, export{name: "memory", kind: 0x02})
	return m
}

// Table declares table 0 holding fns at indices 0, 1, ...
func (m *Module) Table(fns ...uint32) *Module {
	m.elems = fns
	return m
}

// Data places b at offset in memory when the module is instantiated.
func (m *Module) Data(offset uint32, b []byte) *Module {
	m.data = append(m.data, data{offset: offset, b: b})
	return m
}

func (m *Module) typeOf(params, results int) int {
	s := sig{params, results}
	if i := slices.Index(m.types, s); i >= 0 {
		return i
	}
	m.types = append(m.types, s)
	return len(m.types) - 1
}

// Bytes encodes the module.
func (m *Module) Bytes() []byte {
	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	out = section(out, secType, len(m.types), func(b []byte) []byte {
		for _, s := range m.types {
			b = append(b, 0x60)
			b = vecI32(b, s.params)
			b = vecI32(b, s.results)
		}
		return b
	})
	out = section(out, secImport, len(m.imports), func(b []byte) []byte {
		for _, im := range m.imports {
			b = name(b, im.module)
			b = name(b, im.name)
			b = append(b, 0x00)
			b = uleb(b, uint64(im.typ))
		}
		return b
	})
	out = section(out, secFunction, len(m.funcs), func(b []byte) []byte {
		for _, f := range m.funcs {
			b = uleb(b, uint64(f.typ))
		}
		return b
	})
	if len(m.elems) > 0 {
		out = section(out, secTable, 1, func(b []byte) []byte {
			b = append(b, funcRef, 0x00)
			return uleb(b, uint64(len(m.elems)))
		})
	}
	if m.memory != nil {
		out = section(out, secMemory, 1, func(b []byte) []byte {
			b = append(b, 0x00)
			return uleb(b, uint64(*m.memory))
		})
	}
	out = section(out, secExport, len(m.exports), func(b []byte) []byte {
		for _, e := range m.exports {
			b = name(b, e.name)
			b = append(b, e.kind)
			b = uleb(b, uint64(e.idx))
		}
		return b
	})
	if len(m.elems) > 0 {
		out = section(out, secElement, 1, func(b []byte) []byte {
			b = append(b, 0x00)
			b = append(b, I32Const(0)...)
			b = append(b, opEnd)
			b = uleb(b, uint64(len(m.elems)))
			for _, idx := range m.elems {
				b = uleb(b, uint64(idx))
			}
			return b
		})
	}
	out = section(out, secCode, len(m.funcs), func(b []byte) []byte {
		for _, f := range m.funcs {
			var body []byte
			if f.locals > 0 {
				body = uleb(body, 1)
				body = uleb(body, uint64(f.locals))
				body = append(body, i32)
			} else {
				body = uleb(body, 0)
			}
			body = append(body, f.body...)
			body = append(body, opEnd)
			b = uleb(b, uint64(len(body)))
			b = append(b, body...)
		}
		return b
	})
	out = section(out, secData, len(m.data), func(b []byte) []byte {
		for _, d := range m.data {
			b = append(b, 0x00)
			b = append(b, I32Const(int32(d.offset))...)
			b = append(b, opEnd)
			b = uleb(b, uint64(len(d.b)))
			b = append(b, d.b...)
		}
		return b
	})
	return out
}

// section appends a section holding n entries written by fill. Empty
// sections are omitted.
func section(out []byte, id byte, n int, fill func([]byte) []byte) []byte {
	if n == 0 {
		return out
	}
	content := fill(uleb(nil, uint64(n)))
	out = append(out, id)
	out = uleb(out, uint64(len(content)))
	return append(out, content...)
}

func vecI32(b []byte, n int) []byte {
	b = uleb(b, uint64(n))
	for i := 0; i < n; i++ {
		b = append(b, i32)
	}
	return b
}

func name(b []byte, s string) []byte {
	b = uleb(b, uint64(len(s)))
	return append(b, s...)
}

func uleb(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

func sleb(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

// LE32 encodes v as four little endian bytes, for data segments.
func LE32(vs ...uint32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// CString returns s followed by NUL, for data segments.
func CString(s string) []byte {
	return append([]byte(s), 0)
}
