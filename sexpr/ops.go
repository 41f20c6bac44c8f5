package sexpr

import "fmt"

func IsPair(v Value) bool {
	_, ok := v.(*Pair)
	return ok
}

func IsEmpty(v Value) bool {
	_, ok := v.(Empty)
	return ok
}

func IsInteger(v Value) bool {
	_, ok := v.(Integer)
	return ok
}

func IsText(v Value) bool {
	_, ok := v.(Text)
	return ok
}

// Head returns the first slot of a pair.
func Head(v Value) (Value, error) {
	p, err := asPair(v)
	if err != nil {
		return nil, err
	}
	return p.Head, nil
}

// Tail returns the second slot of a pair.
func Tail(v Value) (Value, error) {
	p, err := asPair(v)
	if err != nil {
		return nil, err
	}
	return p.Tail, nil
}

// SetHead replaces the head of v in place.
func SetHead(v, head Value) error {
	p, err := asPair(v)
	if err != nil {
		return err
	}
	p.Head = orNil(head)
	return nil
}

// SetTail replaces the tail of v in place.
func SetTail(v, tail Value) error {
	p, err := asPair(v)
	if err != nil {
		return err
	}
	p.Tail = orNil(tail)
	return nil
}

func AsInteger(v Value) (int32, error) {
	n, ok := v.(Integer)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotInteger, kindOf(v))
	}
	return int32(n), nil
}

func AsText(v Value) (string, error) {
	s, ok := v.(Text)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotText, kindOf(v))
	}
	return string(s), nil
}

// Slice returns the elements of a proper list.
func Slice(v Value) ([]Value, error) {
	var out []Value
	for {
		switch n := v.(type) {
		case Empty:
			return out, nil
		case *Pair:
			out = append(out, n.Head)
			v = n.Tail
		default:
			return nil, ErrImproperList
		}
	}
}

func asPair(v Value) (*Pair, error) {
	p, ok := v.(*Pair)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotPair, kindOf(v))
	}
	return p, nil
}

// kindOf names the variant of v for error messages.
func kindOf(v Value) string {
	switch v.(type) {
	case Integer:
		return "integer"
	case Text:
		return "string"
	case Empty:
		return "null"
	case *Pair:
		return "pair"
	default:
		return "nil value"
	}
}
