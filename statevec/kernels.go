package statevec

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
)

// ApplyPhaseFlip negates the amplitude of every index for which marked returns true.
// marked is called concurrently and must be safe for that.
func (e *Engine) ApplyPhaseFlip(reg *Register, marked func(int) bool) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	err := e.forEachChunk(reg.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if marked(i) {
				reg.amps[i] = -reg.amps[i]
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return e.CheckNormalization(reg)
}

// ApplyDiffusion reflects every amplitude about the mean: a <- 2*mean - a.
func (e *Engine) ApplyDiffusion(reg *Register) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	size := reg.Len()
	partial := make([]complex128, e.chunks(size))
	err := e.forEachChunk(size, func(chunk, lo, hi int) error {
		var s complex128
		for i := lo; i < hi; i++ {
			s += reg.amps[i]
		}
		partial[chunk] = s
		return nil
	})
	if err != nil {
		return err
	}
	var sum complex128
	for _, s := range partial {
		sum += s
	}
	twoMean := 2 * sum / complex(float64(size), 0)
	err = e.forEachChunk(size, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			reg.amps[i] = twoMean - reg.amps[i]
		}
		return nil
	})
	if err != nil {
		return err
	}
	return e.CheckNormalization(reg)
}

func (e *Engine) ApplyHadamard(reg *Register, q int) error {
	if err := checkQubit(reg, q); err != nil {
		return err
	}
	bit := 1 << q
	s := complex(1/math.Sqrt2, 0)
	err := e.forEachChunk(reg.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if i&bit != 0 {
				continue
			}
			j := i | bit
			a, b := reg.amps[i], reg.amps[j]
			reg.amps[i] = (a + b) * s
			reg.amps[j] = (a - b) * s
		}
		return nil
	})
	if err != nil {
		return err
	}
	return e.CheckNormalization(reg)
}

func (e *Engine) ApplyX(reg *Register, q int) error {
	if err := checkQubit(reg, q); err != nil {
		return err
	}
	bit := 1 << q
	return e.forEachChunk(reg.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if i&bit == 0 {
				j := i | bit
				reg.amps[i], reg.amps[j] = reg.amps[j], reg.amps[i]
			}
		}
		return nil
	})
}

func (e *Engine) ApplyZ(reg *Register, q int) error {
	if err := checkQubit(reg, q); err != nil {
		return err
	}
	return e.ApplyControlledZ(reg, []int{q})
}

// ApplyControlledZ negates the amplitudes whose bits are all set on the listed qubits.
// A single qubit is a plain Z gate.
func (e *Engine) ApplyControlledZ(reg *Register, qubits []int) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	if len(qubits) == 0 {
		return errors.New("controlled-Z needs at least one qubit")
	}
	mask := 0
	for _, q := range qubits {
		if err := checkQubit(reg, q); err != nil {
			return err
		}
		if mask&(1<<q) != 0 {
			return errors.Errorf("qubit %d is listed twice", q)
		}
		mask |= 1 << q
	}
	return e.forEachChunk(reg.Len(), func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if i&mask == mask {
				reg.amps[i] = -reg.amps[i]
			}
		}
		return nil
	})
}

func checkQubit(reg *Register, q int) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	if q < 0 || q >= reg.n {
		return errors.Wrapf(core.ErrOutOfRange, "qubit %d is not in [0, %d)", q, reg.n)
	}
	return nil
}
