package replay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessRegistryShutdownRunsInReverseOrder(t *testing.T) {
	r := NewProcessRegistry()
	var order []int

	r.Register(func() error { order = append(order, 1); return nil })
	r.Register(func() error { order = append(order, 2); return nil })
	r.Register(func() error { order = append(order, 3); return nil })

	require.NoError(t, r.Shutdown())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestProcessRegistryShutdownIsIdempotent(t *testing.T) {
	r := NewProcessRegistry()
	calls := 0
	r.Register(func() error { calls++; return nil })

	require.NoError(t, r.Shutdown())
	require.NoError(t, r.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestProcessRegistryShutdownCollectsFirstError(t *testing.T) {
	r := NewProcessRegistry()
	boom := errors.New("boom")
	r.Register(func() error { return boom })
	r.Register(func() error { return nil })

	err := r.Shutdown()
	require.ErrorIs(t, err, boom)
}

func TestProcessRegistryRegisterAfterShutdownIsNoOp(t *testing.T) {
	r := NewProcessRegistry()
	require.NoError(t, r.Shutdown())

	called := false
	r.Register(func() error { called = true; return nil })
	require.NoError(t, r.Shutdown())
	assert.False(t, called)
}
