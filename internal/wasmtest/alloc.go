package wasmtest

// HeapBase is the first address handed out by Allocator. The heap pointer
// is kept at address 0 and the number of frees at address 4.
const HeapBase = 1024

// Allocator defines and exports malloc and free backed by a bump allocator
// and returns their indices. free only counts calls. The module must
// declare a memory, and all imports must be declared first.
func (m *Module) Allocator() (malloc, free uint32) {
	malloc = m.Func(1, 1, 0,
		I32Const(0), I32Const(0), I32Load(0), LocalGet(0), I32Add, I32Store(0),
		I32Const(0), I32Load(0), LocalGet(0), I32Sub,
	)
	free = m.Func(1, 0, 0,
		I32Const(4), I32Const(4), I32Load(0), I32Const(1), I32Add, I32Store(0),
	)
	m.Export("malloc", malloc).
		Export("free", free).
		Data(0, LE32(HeapBase))
	return malloc, free
}
