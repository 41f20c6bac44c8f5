// Package handle maps opaque 32-bit handles to host objects for one guest
// execution.
//
// A handle packs a slot index (low 20 bits) and the slot's generation (high
// 12 bits). Releasing a slot bumps its generation, so a handle kept after
// release no longer resolves. Index 0 is never allocated: handle 0 is
// always invalid.
//
// Entries are owned, borrowed or pinned. Owned entries come from
// constructors and must be released exactly once. Borrowed entries point
// into an owned or pinned tree; they are dropped together with their root
// and cannot be released on their own. Borrowing the same item from the
// same root twice yields the same handle, so a root holds at most one
// borrowed entry per distinct item reachable from it. Pinned entries live
// until Reset.
//
// The table limit bounds owned and pinned entries. Borrowed entries are
// bounded only by MaxEntries.
package handle

import (
	"errors"
	"fmt"
)

// Handle identifies a table entry.
type Handle uint32

// Invalid is never returned by a Table.
const Invalid Handle = 0

const (
	indexBits = 20
	indexMask = 1<<indexBits - 1
	genMask   = 1<<(32-indexBits) - 1

	// MaxEntries is the largest number of live entries a table can hold.
	MaxEntries = indexMask
)

// Kind describes who is responsible for an entry.
type Kind uint8

const (
	Owned Kind = iota + 1
	Borrowed
	Pinned
)

func (k Kind) String() string {
	switch k {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	case Pinned:
		return "pinned"
	default:
		return "unknown"
	}
}

var (
	ErrInvalid  = errors.New("invalid handle")
	ErrStale    = errors.New("stale handle")
	ErrNotOwned = errors.New("handle is not owned")
	ErrFull     = errors.New("handle table full")
)

type entry[T comparable] struct {
	item    T
	gen     uint32
	kind    Kind
	live    bool
	root    uint32       // owning entry of a borrowed entry
	borrows map[T]uint32 // borrowed entries rooted here, by item
}

// Table is not safe for concurrent use.
type Table[T comparable] struct {
	entries []entry[T]
	free    []uint32
	live    int
	held    int // live owned and pinned entries
	limit   int
}

// NewTable returns a table holding at most limit owned and pinned entries.
// A limit outside (0, MaxEntries] means MaxEntries.
func NewTable[T comparable](limit int) *Table[T] {
	if limit <= 0 || limit > MaxEntries {
		limit = MaxEntries
	}
	return &Table[T]{entries: make([]entry[T], 1), limit: limit}
}

// Insert adds an owned entry.
func (t *Table[T]) Insert(item T) (Handle, error) {
	return t.alloc(item, Owned, 0)
}

// Pin adds an entry that is never released.
func (t *Table[T]) Pin(item T) (Handle, error) {
	return t.alloc(item, Pinned, 0)
}

// Borrow returns a borrowed handle for item, which must be reachable from
// the entry behind parent. The entry is dropped when parent's root is. If
// item was already borrowed from the same root, its handle is returned.
func (t *Table[T]) Borrow(parent Handle, item T) (Handle, error) {
	pidx, err := t.lookup(parent)
	if err != nil {
		return Invalid, err
	}

	root := pidx
	if p := &t.entries[pidx]; p.kind == Borrowed {
		root = p.root
	}
	if idx, ok := t.entries[root].borrows[item]; ok {
		return pack(idx, t.entries[idx].gen), nil
	}

	h, err := t.alloc(item, Borrowed, root)
	if err != nil {
		return Invalid, err
	}
	r := &t.entries[root]
	if r.borrows == nil {
		r.borrows = make(map[T]uint32)
	}
	r.borrows[item] = index(h)
	return h, nil
}

// Get resolves h.
func (t *Table[T]) Get(h Handle) (T, error) {
	idx, err := t.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.entries[idx].item, nil
}

// Kind reports the kind of the entry behind h.
func (t *Table[T]) Kind(h Handle) (Kind, error) {
	idx, err := t.lookup(h)
	if err != nil {
		return 0, err
	}
	return t.entries[idx].kind, nil
}

// Release frees an owned entry and every borrowed entry rooted at it.
func (t *Table[T]) Release(h Handle) error {
	idx, err := t.lookup(h)
	if err != nil {
		return err
	}
	e := &t.entries[idx]
	if e.kind != Owned {
		return fmt.Errorf("%w: %s", ErrNotOwned, e.kind)
	}

	for _, b := range e.borrows {
		if be := &t.entries[b]; be.live && be.root == idx {
			t.drop(b)
		}
	}
	t.drop(idx)
	return nil
}

// Len returns the number of live entries of every kind.
func (t *Table[T]) Len() int {
	return t.live
}

// Held returns the number of live owned and pinned entries.
func (t *Table[T]) Held() int {
	return t.held
}

// Reset drops every entry. Handles issued before Reset never resolve again
// unless their slot happens to be reissued with the same generation.
func (t *Table[T]) Reset() {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].live {
			t.drop(uint32(i))
		}
	}
}

func (t *Table[T]) alloc(item T, kind Kind, root uint32) (Handle, error) {
	if kind != Borrowed && t.held >= t.limit {
		return Invalid, fmt.Errorf("%w: %d live entries", ErrFull, t.held)
	}
	if t.live >= MaxEntries {
		return Invalid, fmt.Errorf("%w: %d entries including borrowed", ErrFull, t.live)
	}

	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.entries))
		t.entries = append(t.entries, entry[T]{})
	}

	e := &t.entries[idx]
	e.item = item
	e.kind = kind
	e.live = true
	e.root = root
	t.live++
	if kind != Borrowed {
		t.held++
	}
	return pack(idx, e.gen), nil
}

func (t *Table[T]) drop(idx uint32) {
	e := &t.entries[idx]
	if e.kind != Borrowed {
		t.held--
	}
	var zero T
	e.item = zero
	e.live = false
	e.gen = (e.gen + 1) & genMask
	e.root = 0
	e.borrows = nil
	t.free = append(t.free, idx)
	t.live--
}

func (t *Table[T]) lookup(h Handle) (uint32, error) {
	idx := index(h)
	if idx == 0 || int(idx) >= len(t.entries) {
		return 0, fmt.Errorf("%w: %#x", ErrInvalid, uint32(h))
	}
	e := &t.entries[idx]
	if !e.live || e.gen != generation(h) {
		return 0, fmt.Errorf("%w: %#x", ErrStale, uint32(h))
	}
	return idx, nil
}

func pack(idx, gen uint32) Handle {
	return Handle(gen<<indexBits | idx)
}

func index(h Handle) uint32 {
	return uint32(h) & indexMask
}

func generation(h Handle) uint32 {
	return uint32(h) >> indexBits
}
