package sexpr

import "fmt"

// Vector is a fixed-length sequence of unsigned 32-bit words.
// Its length never changes after creation.
type Vector struct {
	words []uint32
}

// NewVector returns a zero-filled vector of length n.
func NewVector(n int) (*Vector, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative vector length %d", n)
	}
	return &Vector{words: make([]uint32, n)}, nil
}

// VectorOf returns a vector holding a copy of words.
func VectorOf(words ...uint32) *Vector {
	return &Vector{words: append([]uint32(nil), words...)}
}

func (v *Vector) Len() int {
	return len(v.words)
}

// At returns the word at index i.
func (v *Vector) At(i int) (uint32, error) {
	if err := v.check(i); err != nil {
		return 0, err
	}
	return v.words[i], nil
}

// Set stores x at index i and returns x.
func (v *Vector) Set(i int, x uint32) (uint32, error) {
	if err := v.check(i); err != nil {
		return 0, err
	}
	v.words[i] = x
	return x, nil
}

// Fill overwrites every slot with x.
func (v *Vector) Fill(x uint32) {
	for i := range v.words {
		v.words[i] = x
	}
}

// Words returns a copy of the contents.
func (v *Vector) Words() []uint32 {
	return append([]uint32(nil), v.words...)
}

// Equal reports whether v and o hold the same words.
func (v *Vector) Equal(o *Vector) bool {
	if len(v.words) != len(o.words) {
		return false
	}
	for i, w := range v.words {
		if o.words[i] != w {
			return false
		}
	}
	return true
}

func (v *Vector) String() string {
	return fmt.Sprintf("#%v", v.words)
}

func (v *Vector) check(i int) error {
	if i < 0 || i >= len(v.words) {
		return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, len(v.words))
	}
	return nil
}
