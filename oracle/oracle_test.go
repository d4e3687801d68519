//go:build unit
// +build unit

package oracle

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/prefilter"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		indices   []int
		n         int
		mode      Mode
		wantSet   []int
		wantErr   error
		wantCount int
	}{
		{name: "single target", indices: []int{5}, n: 4, mode: TargetMode, wantSet: []int{5}},
		{name: "duplicates collapse", indices: []int{9, 5, 9}, n: 4, mode: TargetMode, wantSet: []int{5, 9}},
		{name: "boundary indices", indices: []int{0, 15}, n: 4, mode: TargetMode, wantSet: []int{0, 15}},
		{name: "empty", indices: nil, n: 4, mode: TargetMode, wantErr: core.ErrNoMarkedStates},
		{name: "index too large", indices: []int{16}, n: 4, mode: TargetMode, wantErr: core.ErrOutOfRange},
		{name: "negative index", indices: []int{-1}, n: 4, mode: CandidateMode, wantErr: core.ErrOutOfRange},
		{name: "zero qubits", indices: []int{0}, n: 0, mode: TargetMode, wantErr: core.ErrOutOfRange},
		{
			name:    "too many targets",
			indices: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			n:       5, mode: TargetMode, wantErr: core.ErrOutOfRange,
		},
		{
			name:    "too many targets in candidate mode",
			indices: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
			n:       5, mode: CandidateMode, wantErr: core.ErrOutOfRange,
		},
		{
			name:    "sixteen targets in candidate mode",
			indices: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			n:       5, mode: CandidateMode,
			wantSet: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := Build(tt.indices, tt.n, tt.mode)
			if tt.wantErr != nil {
				assert.Nil(t, o)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.wantSet, o.Indices())
			assert.Equal(t, len(tt.wantSet), o.Count())
			assert.Equal(t, tt.mode, o.Mode())
			assert.Equal(t, SetMembership, o.Kind())
			assert.Equal(t, tt.n, o.Qubits())
		})
	}
}

func TestBuildAggregatesRangeErrors(t *testing.T) {
	_, err := Build([]int{3, 16, -2, 40}, 4, TargetMode)
	assert.Len(t, multierr.Errors(err), 3)
	assert.True(t, errors.Is(err, core.ErrOutOfRange))
}

func TestApplyIsInvolutory(t *testing.T) {
	e := statevec.NewEngine(statevec.WithChunkSize(4))
	reg, err := e.Initialize(4)
	require.Nil(t, err)
	before := reg.Amplitudes()

	o, err := Build([]int{5, 9}, 4, TargetMode)
	require.Nil(t, err)
	require.Nil(t, o.Apply(e, reg))
	for i := 0; i < reg.Len(); i++ {
		if i == 5 || i == 9 {
			assert.Equal(t, -before[i], reg.Amplitude(i))
		} else {
			assert.Equal(t, before[i], reg.Amplitude(i))
		}
	}
	require.Nil(t, o.Apply(e, reg))
	assert.Equal(t, before, reg.Amplitudes())
}

func TestApplyWidthMismatch(t *testing.T) {
	e := statevec.NewEngine()
	reg, err := e.Initialize(3)
	require.Nil(t, err)
	o, err := Build([]int{5}, 4, TargetMode)
	require.Nil(t, err)
	assert.True(t, errors.Is(o.Apply(e, reg), core.ErrOutOfRange))
	assert.EqualError(t, o.Apply(e, nil), "register is nil")
}

func TestBuildFromCandidates(t *testing.T) {
	cs, err := prefilter.Filter(4, prefilter.HammingWeight{K: 2})
	require.Nil(t, err)
	o, err := BuildFromCandidates(cs)
	require.Nil(t, err)
	assert.Equal(t, CandidateMode, o.Mode())
	assert.Equal(t, 6, o.Count())
	assert.True(t, o.Marks(10))
	assert.False(t, o.Marks(11))

	_, err = BuildFromCandidates(nil)
	assert.True(t, errors.Is(err, core.ErrNoMarkedStates))
}

func TestBuildFromConstraint(t *testing.T) {
	c := prefilter.All(prefilter.HammingWeight{K: 2}, prefilter.FixedBit{Position: 0, Value: 1})
	o, err := BuildFromConstraint(c, 4)
	require.Nil(t, err)
	assert.Equal(t, StructuralPredicate, o.Kind())
	assert.Equal(t, CandidateMode, o.Mode())
	assert.Equal(t, []int{3, 5, 9}, o.Indices())
	for i := 0; i < 16; i++ {
		assert.Equal(t, c.Satisfied(i), o.Marks(i))
	}
	assert.Contains(t, o.String(), "constraint:(weight==2 && bit[0]==1)")

	_, err = BuildFromConstraint(prefilter.Any(), 4)
	assert.True(t, errors.Is(err, core.ErrNoMarkedStates))

	_, err = BuildFromConstraint(prefilter.HammingWeight{K: 5}, 4)
	assert.True(t, errors.Is(err, core.ErrNoMarkedStates))

	_, err = BuildFromConstraint(prefilter.FixedBit{Position: 7, Value: 1}, 4)
	assert.True(t, errors.Is(err, core.ErrOutOfRange))
}

func TestBuildFromConstraintWithLimitFlipsOnlyCounted(t *testing.T) {
	o, err := BuildFromConstraint(prefilter.HammingWeight{K: 2}, 4, prefilter.WithLimit(2, nil))
	require.Nil(t, err)
	assert.Equal(t, []int{3, 5}, o.Indices())

	e := statevec.NewEngine()
	reg, err := e.Initialize(4)
	require.Nil(t, err)
	require.Nil(t, o.Apply(e, reg))
	flipped := 0
	for i := 0; i < reg.Len(); i++ {
		if real(reg.Amplitude(i)) < 0 {
			flipped++
			assert.True(t, o.Marks(i), "index %d", i)
		}
	}
	assert.Equal(t, o.Count(), flipped)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: TargetMode},
		{in: "target", want: TargetMode},
		{in: "Candidate", want: CandidateMode},
		{in: "quantum", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.EqualError(t, err, "unknown mode:"+tt.in)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
	assert.Equal(t, "candidate", CandidateMode.String())
	assert.Equal(t, "structural_predicate", StructuralPredicate.String())
}
