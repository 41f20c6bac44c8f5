package executor_test

import (
	"github.com/caffeineduck/sexprbox/executor"
	"github.com/caffeineduck/sexprbox/hostfunc"
	w "github.com/caffeineduck/sexprbox/internal/wasmtest"
)

// Test guests are assembled with wasmtest so the suite needs no wasm
// toolchain. Each imports only the boundary functions it uses.

type imports struct {
	m   *w.Module
	idx map[string]uint32
}

func newGuest(names ...string) *imports {
	sigs := map[string][2]int{
		"read_value": {0, 1}, "commit_value": {1, 1},
		"read_vector": {0, 1}, "commit_vector": {1, 1},
		"read_integer": {0, 1}, "commit_integer": {1, 1},
		"integer": {1, 1}, "car": {1, 1}, "cdr": {1, 1}, "cons": {2, 1},
		"null": {0, 1}, "is_null": {1, 1}, "is_pair": {1, 1}, "drop": {1, 0}, "is_equal": {2, 1},
		"string": {1, 1}, "alloc_string": {1, 1}, "drop_string": {1, 0},
		"vector_new": {1, 1}, "vector_fill": {2, 0}, "vector_set": {3, 1},
		"vector_get": {2, 1}, "vector_drop": {1, 0},
		"field_get": {2, 1}, "field_put": {3, 1},
	}
	g := &imports{m: w.New(), idx: make(map[string]uint32)}
	for _, name := range names {
		s := sigs[name]
		g.idx[name] = g.m.Import(hostfunc.ModuleName, name, s[0], s[1])
	}
	return g
}

func (g *imports) call(name string) []byte {
	idx, ok := g.idx[name]
	if !ok {
		panic("guest does not import " + name)
	}
	return w.Call(idx)
}

func (g *imports) start(locals int, body ...[]byte) *imports {
	g.m.Export("_start", g.m.Func(0, 0, locals, body...))
	return g
}

func (g *imports) guest(name string) executor.Guest {
	return executor.Binary(name, g.m.Bytes())
}

// echoGuest commits the value it reads.
func echoGuest() executor.Guest {
	g := newGuest("read_value", "commit_value")
	return g.start(0,
		g.call("read_value"), g.call("commit_value"), w.Drop,
	).guest("echo")
}

// reverseGuest reads a proper list and commits it reversed.
func reverseGuest() executor.Guest {
	g := newGuest("read_value", "commit_value", "null", "is_null", "car", "cdr", "cons", "drop")
	// locals: 0 list, 1 reversed so far, 2 next reversed, 3 cursor
	return g.start(4,
		g.call("read_value"), w.LocalSet(0),
		g.call("null"), w.LocalSet(1),
		w.LocalGet(0), w.LocalSet(3),
		w.Block(w.Loop(
			w.LocalGet(3), g.call("is_null"), w.BrIf(1),
			w.LocalGet(3), g.call("car"), w.LocalGet(1), g.call("cons"), w.LocalSet(2),
			w.LocalGet(1), g.call("null"), w.I32Ne, w.If(w.LocalGet(1), g.call("drop")),
			w.LocalGet(2), w.LocalSet(1),
			w.LocalGet(3), g.call("cdr"), w.LocalSet(3),
			w.Br(0),
		)),
		w.LocalGet(1), g.call("commit_value"), w.Drop,
		w.LocalGet(1), g.call("null"), w.I32Ne, w.If(w.LocalGet(1), g.call("drop")),
		w.LocalGet(0), g.call("drop"),
	).guest("reverse")
}

// lengthGuest walks the list it reads, taking the car of every pair twice,
// and commits the number of pairs.
func lengthGuest() executor.Guest {
	g := newGuest("read_value", "commit_integer", "is_pair", "car", "cdr", "drop")
	// locals: 0 list, 1 cursor, 2 count
	return g.start(3,
		g.call("read_value"), w.LocalSet(0),
		w.LocalGet(0), w.LocalSet(1),
		w.Block(w.Loop(
			w.LocalGet(1), g.call("is_pair"), w.I32Eqz, w.BrIf(1),
			w.LocalGet(1), g.call("car"), w.Drop,
			w.LocalGet(1), g.call("car"), w.Drop,
			w.LocalGet(2), w.I32Const(1), w.I32Add, w.LocalSet(2),
			w.LocalGet(1), g.call("cdr"), w.LocalSet(1),
			w.Br(0),
		)),
		w.LocalGet(2), g.call("commit_integer"), w.Drop,
		w.LocalGet(0), g.call("drop"),
	).guest("length")
}

// carGuest commits 7, then takes the car of an integer.
func carGuest() executor.Guest {
	g := newGuest("commit_integer", "integer", "car")
	return g.start(0,
		w.I32Const(7), g.call("commit_integer"), w.Drop,
		w.I32Const(5), g.call("integer"), g.call("car"), w.Drop,
	).guest("car-of-integer")
}

// vectorGuest builds #[7 9 7], commits the word at the index it reads,
// then commits the vector.
func vectorGuest() executor.Guest {
	g := newGuest("read_integer", "commit_integer", "commit_vector",
		"vector_new", "vector_fill", "vector_set", "vector_get", "vector_drop")
	return g.start(1,
		w.I32Const(3), g.call("vector_new"), w.LocalSet(0),
		w.LocalGet(0), w.I32Const(7), g.call("vector_fill"),
		w.LocalGet(0), w.I32Const(1), w.I32Const(9), g.call("vector_set"), w.Drop,
		w.LocalGet(0), g.call("read_integer"), g.call("vector_get"), g.call("commit_integer"), w.Drop,
		w.LocalGet(0), g.call("commit_vector"), w.Drop,
		w.LocalGet(0), g.call("vector_drop"),
	).guest("vector")
}

// Field guest layout: a record (x, y) lives at recordAddr. Table 0 holds
// the descriptor for x, its reader and writer, and a descriptor that only
// provides the reader.
const (
	recordAddr    = 256
	descX         = 0
	descXReadOnly = 3
)

func fieldGuest() executor.Guest {
	g := newGuest("commit_integer", "field_get", "field_put")
	g.m.Memory(1)
	malloc, _ := g.m.Allocator()
	g.m.Data(recordAddr, w.LE32(3, 4))

	desc := g.m.Func(2, 0, 0,
		w.LocalGet(0), w.I32Const(1), w.I32Store(0),
		w.LocalGet(1), w.I32Const(2), w.I32Store(0),
	)
	readX := g.m.Func(1, 1, 0, w.LocalGet(0), w.I32Load(0))
	writeX := g.m.Func(2, 1, 1,
		w.I32Const(8), w.Call(malloc), w.LocalSet(2),
		w.LocalGet(2), w.LocalGet(1), w.I32Store(0),
		w.LocalGet(2), w.LocalGet(0), w.I32Load(4), w.I32Store(4),
		w.LocalGet(2),
	)
	readOnly := g.m.Func(2, 0, 0,
		w.LocalGet(0), w.I32Const(1), w.I32Store(0),
	)
	g.m.Table(desc, readX, writeX, readOnly)

	putReadOnly := g.m.Func(0, 0, 0,
		w.I32Const(recordAddr), w.I32Const(descXReadOnly), w.I32Const(1), g.call("field_put"), w.Drop,
	)
	g.m.Export("put_read_only", putReadOnly)

	return g.start(1,
		w.I32Const(recordAddr), w.I32Const(descX), g.call("field_get"), g.call("commit_integer"), w.Drop,
		w.I32Const(recordAddr), w.I32Const(descX), w.I32Const(11), g.call("field_put"), w.LocalSet(0),
		w.LocalGet(0), w.I32Const(descX), g.call("field_get"), g.call("commit_integer"), w.Drop,
		w.LocalGet(0), w.I32Load(4), g.call("commit_integer"), w.Drop,
		w.I32Const(recordAddr), w.I32Const(descX), g.call("field_get"), g.call("commit_integer"), w.Drop,
	).guest("field")
}

// textGuest commits "héllo", then commits 1 if the text survives a trip
// through alloc_string and string.
func textGuest() executor.Guest {
	g := newGuest("commit_value", "commit_integer", "string", "alloc_string",
		"drop_string", "is_equal", "drop")
	g.m.Memory(1)
	g.m.Allocator()
	g.m.Data(64, w.CString("héllo"))

	// locals: 0 text, 1 buffer, 2 copy
	return g.start(3,
		w.I32Const(64), g.call("string"), w.LocalSet(0),
		w.LocalGet(0), g.call("commit_value"), w.Drop,
		w.LocalGet(0), g.call("alloc_string"), w.LocalSet(1),
		w.LocalGet(1), g.call("string"), w.LocalSet(2),
		w.LocalGet(0), w.LocalGet(2), g.call("is_equal"), g.call("commit_integer"), w.Drop,
		w.LocalGet(1), g.call("drop_string"),
		w.LocalGet(2), g.call("drop"),
		w.LocalGet(0), g.call("drop"),
	).guest("text")
}

// badTextGuest passes invalid UTF-8 to string.
func badTextGuest() executor.Guest {
	g := newGuest("string")
	g.m.Memory(1)
	g.m.Data(64, []byte{'a', 0xff, 0})
	return g.start(0, w.I32Const(64), g.call("string"), w.Drop).guest("bad-text")
}

// handlesGuest allocates n integers without dropping them.
func handlesGuest(n int) executor.Guest {
	g := newGuest("integer")
	var body [][]byte
	for i := 0; i < n; i++ {
		body = append(body, w.I32Const(int32(i)), g.call("integer"), w.Drop)
	}
	return g.start(0, body...).guest("handles")
}

// outputGuest writes to stdout and stderr through WASI, commits 1 and
// exits with code.
func outputGuest(code int32) executor.Guest {
	m := w.New()
	fdWrite := m.Import("wasi_snapshot_preview1", "fd_write", 4, 1)
	procExit := m.Import("wasi_snapshot_preview1", "proc_exit", 1, 0)
	commit := m.Import(hostfunc.ModuleName, "commit_integer", 1, 1)
	m.Memory(1)
	m.Data(16, w.LE32(32, 6, 48, 5))
	m.Data(32, []byte("hello\n"))
	m.Data(48, []byte("oops\n"))
	m.Export("_start", m.Func(0, 0, 0,
		w.I32Const(1), w.I32Const(16), w.I32Const(1), w.I32Const(8), w.Call(fdWrite), w.Drop,
		w.I32Const(2), w.I32Const(24), w.I32Const(1), w.I32Const(8), w.Call(fdWrite), w.Drop,
		w.I32Const(1), w.Call(commit), w.Drop,
		w.I32Const(code), w.Call(procExit),
	))
	return executor.Binary("output", m.Bytes())
}

func loopGuest() executor.Guest {
	m := w.New()
	m.Export("_start", m.Func(0, 0, 0, w.Forever()))
	return executor.Binary("loop", m.Bytes())
}

func trapGuest() executor.Guest {
	m := w.New()
	m.Export("_start", m.Func(0, 0, 0, w.Unreachable))
	return executor.Binary("trap", m.Bytes())
}
