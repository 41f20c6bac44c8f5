package wasmtest

const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opEnd         = 0x0b
	opBr          = 0x0c
	opBrIf        = 0x0d
	opCall        = 0x10
	opDrop        = 0x1a
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opI32Load     = 0x28
	opI32Store    = 0x36
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Ne       = 0x47
	opI32Add      = 0x6a
	opI32Sub      = 0x6b

	blockEmpty = 0x40
)

var (
	Unreachable = []byte{opUnreachable}
	Drop        = []byte{opDrop}
	I32Eqz      = []byte{opI32Eqz}
	I32Ne       = []byte{opI32Ne}
	I32Add      = []byte{opI32Add}
	I32Sub      = []byte{opI32Sub}
)

func I32Const(n int32) []byte {
	return sleb([]byte{opI32Const}, int64(n))
}

func LocalGet(i uint32) []byte {
	return uleb([]byte{opLocalGet}, uint64(i))
}

func LocalSet(i uint32) []byte {
	return uleb([]byte{opLocalSet}, uint64(i))
}

func Call(fn uint32) []byte {
	return uleb([]byte{opCall}, uint64(fn))
}

// I32Load loads from the address on the stack plus offset.
func I32Load(offset uint32) []byte {
	return uleb([]byte{opI32Load, 0x02}, uint64(offset))
}

// I32Store stores the value on top of the stack at the address below it
// plus offset.
func I32Store(offset uint32) []byte {
	return uleb([]byte{opI32Store, 0x02}, uint64(offset))
}

// Block wraps body in a block without results. Br(n) from inside jumps
// past its end.
func Block(body ...[]byte) []byte {
	return structured(opBlock, body)
}

// Loop wraps body in a loop. Br(n) from inside jumps back to its start.
func Loop(body ...[]byte) []byte {
	return structured(opLoop, body)
}

// If runs body when the i32 on the stack is non-zero.
func If(body ...[]byte) []byte {
	return structured(opIf, body)
}

func Br(depth uint32) []byte {
	return uleb([]byte{opBr}, uint64(depth))
}

func BrIf(depth uint32) []byte {
	return uleb([]byte{opBrIf}, uint64(depth))
}

// Forever loops until the execution is interrupted.
func Forever() []byte {
	return Loop(Br(0))
}

func structured(op byte, body [][]byte) []byte {
	out := []byte{op, blockEmpty}
	out = append(out, Seq(body...)...)
	return append(out, opEnd)
}

// Seq concatenates instructions.
func Seq(ins ...[]byte) []byte {
	var out []byte
	for _, in := range ins {
		out = append(out, in...)
	}
	return out
}
