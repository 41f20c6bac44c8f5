package abort

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCatchReturnsAbort(t *testing.T) {
	err := Catch(func() {
		Fail("car", errBoom)
	})
	require.Error(t, err)

	ae, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "car", ae.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "abort: car: boom", err.Error())
}

func TestCatchNoAbort(t *testing.T) {
	ran := false
	err := Catch(func() { ran = true })
	assert.NoError(t, err)
	assert.True(t, ran)
}

func TestCatchRepanicsForeignPanics(t *testing.T) {
	assert.PanicsWithValue(t, "not an abort", func() {
		_ = Catch(func() { panic("not an abort") })
	})
}

func TestFailf(t *testing.T) {
	err := Catch(func() {
		Failf("vector_get", "index %d out of range", 3)
	})
	assert.EqualError(t, err, "abort: vector_get: index 3 out of range")
}

func TestAsThroughWrapping(t *testing.T) {
	inner := &Error{Op: "drop", Err: errBoom}
	wrapped := fmt.Errorf("%w (recovered by wazero)", inner)

	ae, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, ae)

	_, ok = As(errBoom)
	assert.False(t, ok)
}
