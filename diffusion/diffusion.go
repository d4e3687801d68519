package diffusion

import (
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
)

// Operator is the inversion about the mean of an n-qubit register.
type Operator struct {
	n int
}

func New(n int) (*Operator, error) {
	if n < 1 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "qubits(%d) must be at least 1", n)
	}
	return &Operator{n: n}, nil
}

func (o *Operator) Qubits() int {
	return o.n
}

func (o *Operator) check(reg *statevec.Register) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	if reg.Qubits() != o.n {
		return errors.Wrapf(core.ErrOutOfRange, "register has %d qubits, operator expects %d", reg.Qubits(), o.n)
	}
	return nil
}

// Apply maps every amplitude a to 2*mean - a.
func (o *Operator) Apply(engine *statevec.Engine, reg *statevec.Register) error {
	if err := o.check(reg); err != nil {
		return err
	}
	return engine.ApplyDiffusion(reg)
}

// ApplyGates realizes the operator as H X C^(n-1)Z X H on every qubit. The result equals
// Apply up to a global phase of -1.
func (o *Operator) ApplyGates(engine *statevec.Engine, reg *statevec.Register) error {
	if err := o.check(reg); err != nil {
		return err
	}
	all := make([]int, o.n)
	for q := range all {
		all[q] = q
	}
	layer := func(gate func(*statevec.Register, int) error) error {
		for _, q := range all {
			if err := gate(reg, q); err != nil {
				return err
			}
		}
		return nil
	}
	if err := layer(engine.ApplyHadamard); err != nil {
		return err
	}
	if err := layer(engine.ApplyX); err != nil {
		return err
	}
	if err := engine.ApplyControlledZ(reg, all); err != nil {
		return err
	}
	if err := layer(engine.ApplyX); err != nil {
		return err
	}
	if err := layer(engine.ApplyHadamard); err != nil {
		return err
	}
	return engine.CheckNormalization(reg)
}
