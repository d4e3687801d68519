//go:build unit
// +build unit

package statevec

import (
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallChunkEngine splits even tiny registers across several goroutines.
func smallChunkEngine(opts ...Option) *Engine {
	return NewEngine(append([]Option{WithChunkSize(3), WithWorkers(4)}, opts...)...)
}

func TestInitialize(t *testing.T) {
	for _, n := range []int{1, 2, 4, 7} {
		e := smallChunkEngine()
		reg, err := e.Initialize(n)
		require.Nil(t, err)
		assert.Equal(t, n, reg.Qubits())
		assert.Equal(t, 1<<n, reg.Len())
		want := 1 / math.Sqrt(float64(int(1)<<n))
		for i := 0; i < reg.Len(); i++ {
			assert.InDelta(t, want, real(reg.Amplitude(i)), 1e-12)
			assert.Equal(t, 0.0, imag(reg.Amplitude(i)))
		}
		assert.Nil(t, e.CheckNormalization(reg))
	}
}

func TestZero(t *testing.T) {
	e := smallChunkEngine()
	reg, err := e.Zero(3)
	require.Nil(t, err)
	assert.Equal(t, complex(1, 0), reg.Amplitude(0))
	for i := 1; i < reg.Len(); i++ {
		assert.Equal(t, complex(0, 0), reg.Amplitude(i))
	}
	_, err = e.Zero(0)
	assert.True(t, errors.Is(err, core.ErrOutOfRange))
}

func TestInitializeErrors(t *testing.T) {
	tests := []struct {
		name    string
		engine  *Engine
		n       int
		wantErr error
	}{
		{name: "zero qubits", engine: NewEngine(), n: 0, wantErr: core.ErrOutOfRange},
		{name: "negative qubits", engine: NewEngine(), n: -3, wantErr: core.ErrOutOfRange},
		{name: "over max qubits", engine: NewEngine(), n: DefaultMaxQubits + 1, wantErr: core.ErrCapacityExceeded},
		{
			name:    "over memory limit",
			engine:  NewEngine(WithMaxQubits(40), WithMemoryLimit(1<<20)),
			n:       17,
			wantErr: core.ErrCapacityExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := tt.engine.Initialize(tt.n)
			assert.Nil(t, reg)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestMemoryLimitBoundary(t *testing.T) {
	e := NewEngine(WithMemoryLimit(16 << 10))
	_, err := e.Initialize(10)
	assert.Nil(t, err)
	_, err = e.Initialize(11)
	assert.True(t, errors.Is(err, core.ErrCapacityExceeded))
	assert.Equal(t, uint64(16<<10), e.MemoryLimit())
}

func TestOptions(t *testing.T) {
	e := NewEngine(WithEpsilon(1e-6), WithWorkers(3), WithChunkSize(8), WithMaxQubits(12))
	assert.Equal(t, 1e-6, e.Epsilon())
	assert.Equal(t, 3, e.Workers())
	assert.Equal(t, 12, e.MaxQubits())

	d := NewEngine(WithEpsilon(-1), WithWorkers(0), WithChunkSize(0), WithMaxQubits(0))
	assert.Equal(t, DefaultEpsilon, d.Epsilon())
	assert.Equal(t, DefaultMaxQubits, d.MaxQubits())
	assert.Positive(t, d.Workers())
}

func TestBitString(t *testing.T) {
	tests := []struct {
		index int
		n     int
		want  string
	}{
		{index: 5, n: 4, want: "0101"},
		{index: 0, n: 3, want: "000"},
		{index: 1, n: 3, want: "001"},
		{index: 23533, n: 15, want: "101101111101101"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, BitString(tt.index, tt.n))
			idx, err := ParseBitString(tt.want)
			assert.Nil(t, err)
			assert.Equal(t, tt.index, idx)
		})
	}

	_, err := ParseBitString("")
	assert.True(t, errors.Is(err, core.ErrOutOfRange))
	_, err = ParseBitString("01x1")
	assert.EqualError(t, err, `invalid bit 'x' in 01x1`)
}

func TestCheckIndex(t *testing.T) {
	assert.Nil(t, CheckIndex(15, 4))
	assert.True(t, errors.Is(CheckIndex(16, 4), core.ErrOutOfRange))
	assert.True(t, errors.Is(CheckIndex(-1, 4), core.ErrOutOfRange))
}

func TestSnapshotIsIndependent(t *testing.T) {
	e := NewEngine()
	reg, err := e.Initialize(2)
	require.Nil(t, err)
	snap := reg.Snapshot()
	require.Nil(t, e.ApplyPhaseFlip(reg, func(i int) bool { return i == 1 }))
	assert.Equal(t, complex(0.5, 0), snap.Amplitude(1))
	assert.Equal(t, complex(-0.5, 0), reg.Amplitude(1))
	amps := reg.Amplitudes()
	amps[0] = 0
	assert.Equal(t, complex(0.5, 0), reg.Amplitude(0))
}
