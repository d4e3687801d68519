package statevec

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/zap"
)

// Sample draws count independent basis indices with probability |a_i|^2. The register is
// not modified; the same rng state and register always give the same sequence.
func (e *Engine) Sample(reg *Register, rng *rand.Rand, count int) ([]int, error) {
	if reg == nil {
		return nil, errors.New("register is nil")
	}
	if rng == nil {
		return nil, errors.New("rng is nil")
	}
	if count < 0 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "sample count %d is negative", count)
	}
	samples := make([]int, count)
	if count == 0 {
		return samples, nil
	}
	cdf := cumulative(reg.Snapshot().amps)
	total := cdf[len(cdf)-1]
	if total <= 0 {
		return nil, errors.Wrap(core.ErrNumericalInstability, "register has zero norm")
	}
	for k := range samples {
		samples[k] = searchCDF(cdf, rng.Float64()*total)
	}
	return samples, nil
}

func cumulative(amps []complex128) []float64 {
	cdf := make([]float64, len(amps))
	var acc float64
	for i, a := range amps {
		acc += probability(a)
		cdf[i] = acc
	}
	return cdf
}

func searchCDF(cdf []float64, u float64) int {
	idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
	if idx == len(cdf) {
		idx = len(cdf) - 1
	}
	return idx
}

func probability(a complex128) float64 {
	return real(a)*real(a) + imag(a)*imag(a)
}

// Probabilities returns |a_i|^2 for every index, or nil for a nil register.
func (e *Engine) Probabilities(reg *Register) []float64 {
	if reg == nil {
		zap.L().Warn("register is nil")
		return nil
	}
	probs := make([]float64, reg.Len())
	_ = e.forEachChunk(reg.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			probs[i] = probability(reg.amps[i])
		}
		return nil
	})
	return probs
}

// MarkedProbability is the total probability of the indices selected by marked.
func (e *Engine) MarkedProbability(reg *Register, marked func(int) bool) float64 {
	return e.sumProbability(reg, marked)
}

// Norm returns the squared norm, sum of |a_i|^2.
func (e *Engine) Norm(reg *Register) float64 {
	return e.sumProbability(reg, nil)
}

func (e *Engine) sumProbability(reg *Register, marked func(int) bool) float64 {
	if reg == nil {
		return 0
	}
	partial := make([]float64, e.chunks(reg.Len()))
	_ = e.forEachChunk(reg.Len(), func(chunk, lo, hi int) error {
		var s float64
		for i := lo; i < hi; i++ {
			if marked == nil || marked(i) {
				s += probability(reg.amps[i])
			}
		}
		partial[chunk] = s
		return nil
	})
	var sum float64
	for _, s := range partial {
		sum += s
	}
	return sum
}

func (e *Engine) CheckNormalization(reg *Register) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	drift := e.Norm(reg) - 1
	if math.IsNaN(drift) || math.Abs(drift) > e.epsilon {
		return errors.Wrapf(core.ErrNumericalInstability, "norm drift %g exceeds %g", drift, e.epsilon)
	}
	return nil
}

// Renormalize rescales reg to unit norm and returns the drift it corrected.
func (e *Engine) Renormalize(reg *Register) (float64, error) {
	if reg == nil {
		return 0, errors.New("register is nil")
	}
	norm := e.Norm(reg)
	if norm <= 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return 0, errors.Wrapf(core.ErrNumericalInstability, "cannot renormalize a register with norm %g", norm)
	}
	drift := norm - 1
	scale := complex(1/math.Sqrt(norm), 0)
	_ = e.forEachChunk(reg.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			reg.amps[i] *= scale
		}
		return nil
	})
	zap.L().Warn(fmt.Sprintf("renormalized register/qubits:%d/drift:%g", reg.n, drift))
	return drift, nil
}
