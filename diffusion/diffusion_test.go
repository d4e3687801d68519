//go:build unit
// +build unit

package diffusion

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	op, err := New(3)
	require.Nil(t, err)
	assert.Equal(t, 3, op.Qubits())

	_, err = New(0)
	assert.True(t, errors.Is(err, core.ErrOutOfRange))
}

func TestGatesEqualMeanInversionUpToSign(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		e := statevec.NewEngine(statevec.WithChunkSize(4))
		op, err := New(n)
		require.Nil(t, err)

		a, err := e.Initialize(n)
		require.Nil(t, err)
		// a non-uniform state: mark a few indices first
		require.Nil(t, e.ApplyPhaseFlip(a, func(i int) bool { return i%3 == 1 }))
		b := a.Snapshot()

		require.Nil(t, op.Apply(e, a))
		require.Nil(t, op.ApplyGates(e, b))
		for i := 0; i < a.Len(); i++ {
			assert.InDelta(t, real(a.Amplitude(i)), -real(b.Amplitude(i)), 1e-9, "n=%d index=%d", n, i)
			assert.InDelta(t, imag(a.Amplitude(i)), -imag(b.Amplitude(i)), 1e-9, "n=%d index=%d", n, i)
		}
	}
}

func TestWidthMismatch(t *testing.T) {
	e := statevec.NewEngine()
	reg, err := e.Initialize(2)
	require.Nil(t, err)
	op, err := New(3)
	require.Nil(t, err)
	assert.True(t, errors.Is(op.Apply(e, reg), core.ErrOutOfRange))
	assert.True(t, errors.Is(op.ApplyGates(e, reg), core.ErrOutOfRange))
	assert.EqualError(t, op.Apply(e, nil), "register is nil")
}
