package channel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

// Item is one input record in a YAML fixture. Exactly one field is set.
//
//	- value: '(1 "two" (3 . 4))'
//	- integer: 42
//	- vector: [1, 2, 3]
type Item struct {
	Value   *string   `yaml:"value,omitempty"`
	Integer *int32    `yaml:"integer,omitempty"`
	Vector  *[]uint32 `yaml:"vector,omitempty"`
}

// Encode appends the record for it to dst.
func (it Item) Encode(dst []byte) ([]byte, error) {
	set := 0
	for _, ok := range []bool{it.Value != nil, it.Integer != nil, it.Vector != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("item must set exactly one of value, integer, vector (found %d)", set)
	}

	switch {
	case it.Value != nil:
		v, err := sexpr.Parse(*it.Value)
		if err != nil {
			return nil, err
		}
		return wire.AppendValue(dst, v), nil
	case it.Integer != nil:
		return wire.AppendScalar(dst, *it.Integer), nil
	default:
		return wire.AppendVector(dst, sexpr.VectorOf(*it.Vector...)), nil
	}
}

// ParseInput encodes a YAML list of items into channel input.
func ParseInput(data []byte) ([]byte, error) {
	var items []Item
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&items); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	var out []byte
	for i, it := range items {
		var err error
		if out, err = it.Encode(out); err != nil {
			return nil, fmt.Errorf("input[%d]: %w", i, err)
		}
	}
	return out, nil
}

// LoadInput reads a YAML input fixture from path.
func LoadInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return ParseInput(data)
}
