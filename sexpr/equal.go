package sexpr

// Equal reports whether a and b are structurally equal. Integers compare by
// value, text by exact bytes, pairs by head and tail. Tails are walked in a
// loop, so long lists do not grow the stack; only nested heads recurse.
// Values must be acyclic.
func Equal(a, b Value) bool {
	a, b = orNil(a), orNil(b)
	for {
		switch x := a.(type) {
		case Integer:
			y, ok := b.(Integer)
			return ok && x == y
		case Text:
			y, ok := b.(Text)
			return ok && x == y
		case Empty:
			_, ok := b.(Empty)
			return ok
		case *Pair:
			y, ok := b.(*Pair)
			if !ok {
				return false
			}
			if x == y {
				return true
			}
			if !Equal(x.Head, y.Head) {
				return false
			}
			a, b = orNil(x.Tail), orNil(y.Tail)
		default:
			return false
		}
	}
}

// Clone returns a deep copy of v that shares no pairs with it.
func Clone(v Value) Value {
	p, ok := v.(*Pair)
	if !ok {
		return orNil(v)
	}

	root := &Pair{Head: Clone(p.Head)}
	last := root
	for {
		next, ok := p.Tail.(*Pair)
		if !ok {
			last.Tail = orNil(p.Tail)
			return root
		}
		n := &Pair{Head: Clone(next.Head)}
		last.Tail = n
		last = n
		p = next
	}
}
