package wire

import (
	"strconv"

	"github.com/caffeineduck/sexprbox/sexpr"
)

// Item is one decoded record of any kind.
type Item struct {
	Tag    byte
	Value  sexpr.Value   // set for value tags
	Vector *sexpr.Vector // set for TagVector
	Scalar int32         // set for TagScalar
}

func (it Item) String() string {
	switch it.Tag {
	case TagVector:
		return it.Vector.String()
	case TagScalar:
		return strconv.FormatInt(int64(it.Scalar), 10)
	default:
		return sexpr.Render(it.Value)
	}
}

// Next decodes the next record whatever its kind.
func (d *Decoder) Next() (Item, error) {
	tag, err := d.Peek()
	if err != nil {
		return Item{}, err
	}
	switch tag {
	case TagVector:
		v, err := d.Vector()
		return Item{Tag: tag, Vector: v}, err
	case TagScalar:
		n, err := d.Scalar()
		return Item{Tag: tag, Scalar: n}, err
	default:
		v, err := d.Value()
		return Item{Tag: tag, Value: v}, err
	}
}

// DecodeAll decodes every record in b.
func DecodeAll(b []byte) ([]Item, error) {
	d := NewDecoder(b)
	var items []Item
	for d.More() {
		it, err := d.Next()
		if err != nil {
			return items, err
		}
		items = append(items, it)
	}
	return items, nil
}
