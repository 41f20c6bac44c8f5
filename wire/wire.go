// Package wire defines the tagged binary form of values crossing the guest
// channel and stored in execution journals.
//
// Every node starts with a tag byte. Fixed-width fields are little endian.
//
//	0x01 Integer  int32
//	0x02 Text     uint32 length, bytes
//	0x03 Empty    (no payload)
//	0x04 Pair     head record, tail record
//	0x10 Vector   uint32 length, length x uint32
//	0x11 Scalar   int32, a bare integer channel record
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/caffeineduck/sexprbox/sexpr"
)

const (
	TagInteger byte = 0x01
	TagText    byte = 0x02
	TagEmpty   byte = 0x03
	TagPair    byte = 0x04
	TagVector  byte = 0x10
	TagScalar  byte = 0x11
)

// DefaultMaxDepth bounds head nesting accepted by a Decoder.
const DefaultMaxDepth = 10000

var (
	ErrNoRecord     = errors.New("no more records")
	ErrTruncated    = errors.New("truncated record")
	ErrUnknownTag   = errors.New("unknown tag")
	ErrKindMismatch = errors.New("record kind mismatch")
	ErrTooDeep      = errors.New("value nested too deeply")
)

// AppendValue appends the encoding of v to dst.
func AppendValue(dst []byte, v sexpr.Value) []byte {
	for {
		switch x := v.(type) {
		case sexpr.Integer:
			dst = append(dst, TagInteger)
			return binary.LittleEndian.AppendUint32(dst, uint32(x))
		case sexpr.Text:
			dst = append(dst, TagText)
			dst = binary.LittleEndian.AppendUint32(dst, uint32(len(x)))
			return append(dst, x...)
		case *sexpr.Pair:
			dst = append(dst, TagPair)
			dst = AppendValue(dst, x.Head)
			v = x.Tail
		default:
			return append(dst, TagEmpty)
		}
	}
}

// AppendVector appends the encoding of v to dst.
func AppendVector(dst []byte, v *sexpr.Vector) []byte {
	words := v.Words()
	dst = append(dst, TagVector)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(words)))
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint32(dst, w)
	}
	return dst
}

// AppendScalar appends a bare integer record to dst.
func AppendScalar(dst []byte, n int32) []byte {
	dst = append(dst, TagScalar)
	return binary.LittleEndian.AppendUint32(dst, uint32(n))
}

// Marshal encodes a single value.
func Marshal(v sexpr.Value) []byte {
	return AppendValue(nil, v)
}

// Unmarshal decodes exactly one value record from b.
func Unmarshal(b []byte) (sexpr.Value, error) {
	d := NewDecoder(b)
	v, err := d.Value()
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after value", d.Remaining())
	}
	return v, nil
}

// TagName names a record tag for messages.
func TagName(tag byte) string {
	switch tag {
	case TagInteger:
		return "integer"
	case TagText:
		return "text"
	case TagEmpty:
		return "empty"
	case TagPair:
		return "pair"
	case TagVector:
		return "vector"
	case TagScalar:
		return "scalar"
	default:
		return fmt.Sprintf("tag 0x%02x", tag)
	}
}

func isValueTag(tag byte) bool {
	return tag >= TagInteger && tag <= TagPair
}
