//go:build unit
// +build unit

package circuit

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/amplify"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/oracle"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroverErrors(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		marked  []int
		r       int
		wantErr error
	}{
		{name: "no qubits", n: 0, marked: []int{0}, r: 1, wantErr: core.ErrOutOfRange},
		{name: "negative rounds", n: 2, marked: []int{0}, r: -1, wantErr: core.ErrOutOfRange},
		{name: "no marked", n: 2, marked: nil, r: 1, wantErr: core.ErrNoMarkedStates},
		{name: "index out of range", n: 2, marked: []int{4}, r: 1, wantErr: core.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Grover(tt.n, tt.marked, tt.r)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestCircuitMatchesDriver(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		marked []int
		r      int
	}{
		{name: "single target", n: 4, marked: []int{5}, r: 3},
		{name: "two targets", n: 5, marked: []int{0, 19}, r: 2},
		{name: "one qubit", n: 1, marked: []int{1}, r: 1},
		{name: "zero rounds", n: 3, marked: []int{6}, r: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := statevec.NewEngine(statevec.WithChunkSize(4))
			c, err := Grover(tt.n, tt.marked, tt.r)
			require.Nil(t, err)
			reg, err := engine.Zero(tt.n)
			require.Nil(t, err)
			require.Nil(t, Run(engine, reg, c.Gates()))

			o, err := oracle.Build(tt.marked, tt.n, oracle.TargetMode)
			require.Nil(t, err)
			out, err := amplify.NewDriver(engine).RunIterations(context.Background(), tt.n, o, tt.r, 0, rand.New(rand.NewSource(1)))
			require.Nil(t, err)

			sign := complex(math.Pow(-1, float64(tt.r)), 0)
			for i := 0; i < reg.Len(); i++ {
				diff := cmplx.Abs(reg.Amplitude(i) - sign*out.Register.Amplitude(i))
				assert.Less(t, diff, 1e-9, "index %d", i)
			}
		})
	}
}

func TestTwoQubitSearchIsExact(t *testing.T) {
	engine := statevec.NewEngine()
	c, err := Grover(2, []int{3}, 1)
	require.Nil(t, err)
	reg, err := engine.Zero(2)
	require.Nil(t, err)
	require.Nil(t, Run(engine, reg, c.Gates()))
	assert.InDelta(t, 1.0, engine.Probabilities(reg)[3], 1e-12)
}

func TestRunErrors(t *testing.T) {
	engine := statevec.NewEngine()
	reg, err := engine.Zero(2)
	require.Nil(t, err)
	assert.EqualError(t, Run(engine, reg, []Gate{{Name: "swap", Qubits: []int{0, 1}}}), "gate 0 (swap): unknown gate swap")
	assert.NotNil(t, Run(engine, reg, []Gate{{Name: GateH, Qubits: []int{0, 1}}}))
	err = Run(engine, reg, []Gate{{Name: GateX, Qubits: []int{2}}})
	assert.True(t, errors.Is(err, core.ErrOutOfRange))
}

func TestQASM(t *testing.T) {
	c, err := Grover(2, []int{3}, 1)
	require.Nil(t, err)
	want := heredoc.Doc(`
		OPENQASM 3.0;
		include "stdgates.inc";
		// grover search: 2 qubits, 1 rounds, marked [3]
		qubit[2] q;
		bit[2] c;
		h q[0];
		h q[1];
		cz q[0], q[1];
		h q[0];
		h q[1];
		x q[0];
		x q[1];
		cz q[0], q[1];
		x q[0];
		x q[1];
		h q[0];
		h q[1];
		c = measure q;
	`)
	assert.Equal(t, want, QASM(c))
}

func TestQASMMultiControlled(t *testing.T) {
	c, err := Grover(3, []int{6}, 1)
	require.Nil(t, err)
	out := QASM(c)
	assert.Contains(t, out, "x q[0];\nctrl(2) @ z q[0], q[1], q[2];\nx q[0];\n")
	assert.Contains(t, out, "qubit[3] q;")

	one, err := Grover(1, []int{1}, 1)
	require.Nil(t, err)
	assert.Contains(t, QASM(one), "z q[0];")
}

func TestStats(t *testing.T) {
	c, err := Grover(4, []int{5}, 3)
	require.Nil(t, err)
	s := c.Stats()
	assert.Equal(t, 4, s.Qubits)
	assert.Equal(t, 3, s.Rounds)
	assert.Equal(t, map[string]int{GateH: 28, GateX: 36, GateCZ: 6, GateMeasure: 1}, s.Counts)
	assert.Equal(t, 70, s.Total)
	assert.LessOrEqual(t, s.Depth, s.Total)

	one, err := Grover(1, []int{1}, 1)
	require.Nil(t, err)
	assert.Equal(t, 7, one.Stats().Depth)
	assert.Equal(t, 7, one.Stats().Total)
}

func TestGatesIsACopy(t *testing.T) {
	c, err := Grover(2, []int{1, 1}, 1)
	require.Nil(t, err)
	assert.Equal(t, []int{1}, c.Marked())
	g := c.Gates()
	g[0].Qubits[0] = 7
	assert.Equal(t, 0, c.Gates()[0].Qubits[0])
}
