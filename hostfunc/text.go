package hostfunc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/caffeineduck/sexprbox/abort"
	"github.com/caffeineduck/sexprbox/sexpr"
)

var (
	ErrUnterminated = errors.New("string is not NUL-terminated")
	ErrEmbeddedNUL  = errors.New("string contains NUL")
	ErrUnknownText  = errors.New("pointer was not returned by alloc_string")
)

// Text returns an owned text value read from the NUL-terminated bytes at
// ptr in guest memory.
func (s *State) Text(g Guest, ptr uint32) uint32 {
	mem := s.memory("string", g)
	size := mem.Size()
	if ptr >= size {
		abort.Fail("string", fmt.Errorf("%w: %#x", ErrOutOfBounds, ptr))
	}
	buf, ok := mem.Read(ptr, size-ptr)
	if !ok {
		abort.Fail("string", fmt.Errorf("%w: %#x", ErrOutOfBounds, ptr))
	}
	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		abort.Fail("string", ErrUnterminated)
	}
	t, err := sexpr.NewText(buf[:end])
	if err != nil {
		abort.Fail("string", err)
	}
	return s.insert("string", t)
}

// AllocText copies a text value and a NUL terminator into a buffer from the
// guest allocator. The guest returns the buffer with DropText.
func (s *State) AllocText(ctx context.Context, g Guest, v uint32) uint32 {
	str, err := sexpr.AsText(s.value("alloc_string", v))
	if err != nil {
		abort.Fail("alloc_string", err)
	}
	if strings.IndexByte(str, 0) >= 0 {
		abort.Fail("alloc_string", ErrEmbeddedNUL)
	}
	if uint64(len(str)) >= math.MaxUint32 {
		abort.Fail("alloc_string", fmt.Errorf("%w: %d bytes", ErrSizeOverflow, len(str)))
	}

	n := uint32(len(str) + 1)
	ptr := s.alloc(ctx, "alloc_string", g, n)
	buf := make([]byte, n)
	copy(buf, str)
	if !s.memory("alloc_string", g).Write(ptr, buf) {
		abort.Fail("alloc_string", fmt.Errorf("%w: %d bytes at %#x", ErrOutOfBounds, n, ptr))
	}
	s.texts[ptr] = len(str)
	return ptr
}

// DropText returns a buffer obtained from AllocText to the guest allocator.
func (s *State) DropText(ctx context.Context, g Guest, ptr uint32) {
	if _, ok := s.texts[ptr]; !ok {
		abort.Fail("drop_string", fmt.Errorf("%w: %#x", ErrUnknownText, ptr))
	}
	delete(s.texts, ptr)
	s.release(ctx, "drop_string", g, ptr)
}
