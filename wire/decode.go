package wire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/caffeineduck/sexprbox/sexpr"
)

// Decoder reads consecutive records from a byte slice. A failed read leaves
// the decoder positioned at the start of the record that failed.
type Decoder struct {
	buf      []byte
	pos      int
	maxDepth int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth changes the head nesting limit.
func (d *Decoder) SetMaxDepth(n int) {
	d.maxDepth = n
}

// Remaining returns the number of undecoded bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// More reports whether another record follows.
func (d *Decoder) More() bool {
	return d.pos < len(d.buf)
}

// Peek returns the tag of the next record without consuming it.
func (d *Decoder) Peek() (byte, error) {
	if !d.More() {
		return 0, ErrNoRecord
	}
	return d.buf[d.pos], nil
}

// Value decodes the next record, which must be a value.
func (d *Decoder) Value() (sexpr.Value, error) {
	start := d.pos
	if err := d.expect(isValueTag, "value"); err != nil {
		return nil, err
	}
	v, err := d.value(0)
	if err != nil {
		d.pos = start
		return nil, err
	}
	return v, nil
}

// Vector decodes the next record, which must be a vector.
func (d *Decoder) Vector() (*sexpr.Vector, error) {
	start := d.pos
	if err := d.expect(func(t byte) bool { return t == TagVector }, "vector"); err != nil {
		return nil, err
	}
	d.pos++
	v, err := d.vector()
	if err != nil {
		d.pos = start
		return nil, err
	}
	return v, nil
}

// Scalar decodes the next record, which must be a scalar.
func (d *Decoder) Scalar() (int32, error) {
	start := d.pos
	if err := d.expect(func(t byte) bool { return t == TagScalar }, "scalar"); err != nil {
		return 0, err
	}
	d.pos++
	n, err := d.uint32()
	if err != nil {
		d.pos = start
		return 0, err
	}
	return int32(n), nil
}

func (d *Decoder) expect(ok func(byte) bool, want string) error {
	tag, err := d.Peek()
	if err != nil {
		return err
	}
	if !ok(tag) {
		if isValueTag(tag) || tag == TagVector || tag == TagScalar {
			return fmt.Errorf("%w: want %s, found %s", ErrKindMismatch, want, TagName(tag))
		}
		return fmt.Errorf("%w 0x%02x at offset %d", ErrUnknownTag, tag, d.pos)
	}
	return nil
}

// value decodes one value. Tails are followed in a loop; only heads recurse.
func (d *Decoder) value(depth int) (sexpr.Value, error) {
	if depth > d.maxDepth {
		return nil, ErrTooDeep
	}

	var root sexpr.Value
	var last *sexpr.Pair
	link := func(v sexpr.Value) {
		if last == nil {
			root = v
		} else {
			last.Tail = v
		}
	}

	for {
		if !d.More() {
			return nil, ErrTruncated
		}
		tag := d.buf[d.pos]
		d.pos++

		switch tag {
		case TagPair:
			head, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			p := &sexpr.Pair{Head: head}
			link(p)
			last = p
		case TagInteger:
			n, err := d.uint32()
			if err != nil {
				return nil, err
			}
			link(sexpr.Integer(int32(n)))
			return root, nil
		case TagText:
			s, err := d.text()
			if err != nil {
				return nil, err
			}
			link(s)
			return root, nil
		case TagEmpty:
			link(sexpr.Nil)
			return root, nil
		default:
			return nil, fmt.Errorf("%w 0x%02x at offset %d", ErrUnknownTag, tag, d.pos-1)
		}
	}
}

func (d *Decoder) text() (sexpr.Text, error) {
	n, err := d.uint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(d.Remaining()) {
		return "", ErrTruncated
	}
	b := d.buf[d.pos : d.pos+int(n)]
	if !utf8.Valid(b) {
		return "", fmt.Errorf("text at offset %d: %w", d.pos, sexpr.ErrInvalidText)
	}
	d.pos += int(n)
	return sexpr.Text(b), nil
}

func (d *Decoder) vector() (*sexpr.Vector, error) {
	n, err := d.uint32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*4 > uint64(d.Remaining()) {
		return nil, ErrTruncated
	}
	words := make([]uint32, n)
	for i := range words {
		if words[i], err = d.uint32(); err != nil {
			return nil, err
		}
	}
	return sexpr.VectorOf(words...), nil
}

func (d *Decoder) uint32() (uint32, error) {
	if d.Remaining() < 4 {
		return 0, ErrTruncated
	}
	n := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return n, nil
}
