//go:build wasip1

package guest

import "unsafe"

// Value is a handle to a host value.
type Value uint32

// Vector is a handle to a host vector of 32-bit words.
type Vector uint32

//go:wasmimport sexpr cons
func cons(head, tail Value) Value

//go:wasmimport sexpr car
func car(v Value) Value

//go:wasmimport sexpr cdr
func cdr(v Value) Value

//go:wasmimport sexpr set_car
func setCar(v, head Value)

//go:wasmimport sexpr set_cdr
func setCdr(v, tail Value)

//go:wasmimport sexpr is_pair
func isPair(v Value) uint32

//go:wasmimport sexpr is_null
func isNull(v Value) uint32

//go:wasmimport sexpr is_integer
func isInteger(v Value) uint32

//go:wasmimport sexpr is_string
func isString(v Value) uint32

//go:wasmimport sexpr is_equal
func isEqual(a, b Value) uint32

//go:wasmimport sexpr drop
func drop(v Value)

//go:wasmimport sexpr integer
func integer(n int32) Value

//go:wasmimport sexpr null
func null() Value

//go:wasmimport sexpr as_integer
func asInteger(v Value) int32

//go:wasmimport sexpr string
func newString(ptr *byte) Value

//go:wasmimport sexpr alloc_string
func allocString(v Value) uint32

//go:wasmimport sexpr drop_string
func dropString(ptr uint32)

//go:wasmimport sexpr vector_new
func vectorNew(n uint32) Vector

//go:wasmimport sexpr vector_len
func vectorLen(v Vector) uint32

//go:wasmimport sexpr vector_get
func vectorGet(v Vector, i uint32) uint32

//go:wasmimport sexpr vector_set
func vectorSet(v Vector, i, x uint32) uint32

//go:wasmimport sexpr vector_fill
func vectorFill(v Vector, x uint32)

//go:wasmimport sexpr vector_drop
func vectorDrop(v Vector)

//go:wasmimport sexpr read_value
func readValue() Value

//go:wasmimport sexpr commit_value
func commitValue(v Value) Value

//go:wasmimport sexpr read_vector
func readVector() Vector

//go:wasmimport sexpr commit_vector
func commitVector(v Vector) Vector

//go:wasmimport sexpr read_integer
func readInteger() int32

//go:wasmimport sexpr commit_integer
func commitInteger(n int32) int32

//go:wasmimport sexpr field_get
func fieldGet(record, desc uint32) uint32

//go:wasmimport sexpr field_put
func fieldPut(record, desc, x uint32) uint32

// Cons returns an owned pair of copies of head and tail.
func Cons(head, tail Value) Value { return cons(head, tail) }

// Car borrows the head of a pair.
func (v Value) Car() Value { return car(v) }

// Cdr borrows the tail of a pair.
func (v Value) Cdr() Value { return cdr(v) }

func (v Value) SetCar(head Value) { setCar(v, head) }
func (v Value) SetCdr(tail Value) { setCdr(v, tail) }

func (v Value) IsPair() bool { return isPair(v) != 0 }
func (v Value) IsNull() bool { return isNull(v) != 0 }
func (v Value) IsInteger() bool { return isInteger(v) != 0 }
func (v Value) IsString() bool { return isString(v) != 0 }

func (v Value) Equal(o Value) bool { return isEqual(v, o) != 0 }

// Drop releases an owned handle and everything borrowed from it.
func (v Value) Drop() { drop(v) }

func Integer(n int32) Value { return integer(n) }

// Null returns the shared empty list. It must not be dropped.
func Null() Value { return null() }

func (v Value) Int() int32 { return asInteger(v) }

// String returns an owned text value holding s. s must not contain NUL.
func String(s string) Value {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return newString(&b[0])
}

// Text copies the text behind v into a Go string.
func (v Value) Text() string {
	ptr := allocString(v)
	defer dropString(ptr)

	p := unsafe.Pointer(uintptr(ptr))
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// Length counts the pairs of a list.
func Length(v Value) int {
	n := 0
	for ; v.IsPair(); v = v.Cdr() {
		n++
	}
	return n
}

func NewVector(n uint32) Vector { return vectorNew(n) }

func (v Vector) Len() uint32 { return vectorLen(v) }
func (v Vector) At(i uint32) uint32 { return vectorGet(v, i) }
func (v Vector) Set(i, x uint32) uint32 { return vectorSet(v, i, x) }
func (v Vector) Fill(x uint32) { vectorFill(v, x) }
func (v Vector) Drop() { vectorDrop(v) }

func ReadValue() Value { return readValue() }
func CommitValue(v Value) Value { return commitValue(v) }
func ReadVector() Vector { return readVector() }
func CommitVector(v Vector) Vector { return commitVector(v) }
func ReadInteger() int32 { return readInteger() }
func CommitInteger(n int32) int32 { return commitInteger(n) }

// FieldGet reads a field of the record at address record through the
// descriptor at table index desc.
func FieldGet(record, desc uint32) uint32 { return fieldGet(record, desc) }

// FieldPut returns the address of a copy of record with the field set to x.
func FieldPut(record, desc, x uint32) uint32 { return fieldPut(record, desc, x) }
