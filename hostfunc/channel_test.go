package hostfunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeineduck/sexprbox/channel"
	"github.com/caffeineduck/sexprbox/sexpr"
	"github.com/caffeineduck/sexprbox/wire"
)

func TestChannelValueRoundTrip(t *testing.T) {
	in := sexpr.MustParse(`(1 "two" (3 . 4) ())`)
	s := newTestState(wire.Marshal(in))

	h := s.ReadValue()
	assert.Equal(t, h, s.CommitValue(h), "commit returns its argument")

	out, err := wire.Unmarshal(s.Channel().Seal())
	require.NoError(t, err)
	assert.True(t, sexpr.Equal(in, out))
}

func TestChannelVectorAndInteger(t *testing.T) {
	var input []byte
	input = wire.AppendVector(input, sexpr.VectorOf(4, 5))
	input = wire.AppendScalar(input, -2)
	s := newTestState(input)

	v := s.ReadVector()
	assert.Equal(t, uint32(5), s.VectorGet(v, 1))
	s.VectorSet(v, 0, 9)
	assert.Equal(t, v, s.CommitVector(v))

	n := s.ReadInteger()
	assert.Equal(t, int32(-2), int32(n))
	assert.Equal(t, uint32(42), s.CommitInteger(42))

	items, err := wire.DecodeAll(s.Channel().Journal())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "#[9 5]", items[0].String())
	assert.Equal(t, "42", items[1].String())
}

func TestChannelAborts(t *testing.T) {
	s := newTestState(wire.AppendScalar(nil, 1))

	ae := mustAbort(t, func() { s.ReadValue() })
	assert.Equal(t, "read_value", ae.Op)
	assert.ErrorIs(t, ae, wire.ErrKindMismatch)

	s.ReadInteger()
	assert.ErrorIs(t, mustAbort(t, func() { s.ReadInteger() }), wire.ErrNoRecord)

	s.Channel().Seal()
	assert.ErrorIs(t, mustAbort(t, func() { s.CommitInteger(1) }), channel.ErrSealed)
	assert.ErrorIs(t, mustAbort(t, func() { s.CommitValue(s.Null()) }), channel.ErrSealed)
}

func TestReadVectorLimit(t *testing.T) {
	input := wire.AppendVector(nil, sexpr.VectorOf(1, 2, 3))
	input = wire.AppendVector(input, sexpr.VectorOf(1, 2))
	s := newTestState(input, WithMaxVectorLen(2))

	ae := mustAbort(t, func() { s.ReadVector() })
	assert.Equal(t, "read_vector", ae.Op)
	assert.ErrorIs(t, ae, ErrVectorTooLarge)

	_, vectors, _ := s.Live()
	assert.Zero(t, vectors)
	assert.Equal(t, uint32(2), s.VectorLen(s.ReadVector()))
}
