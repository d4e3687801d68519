// Package circuit expresses a Grover search as an explicit gate list that can be executed on the
// statevector engine or exported as OpenQASM 3.
package circuit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"go.uber.org/multierr"
)

const (
	GateH       = "h"
	GateX       = "x"
	GateZ       = "z"
	GateCZ      = "cz"
	GateMeasure = "measure"
)

// Gate acts on the listed qubits. A cz gate flips the phase when all of its qubits are 1,
// so a single-qubit cz is a z.
type Gate struct {
	Name   string
	Qubits []int
}

type Circuit struct {
	n      int
	rounds int
	marked []int
	gates  []Gate
}

// Grover builds the H layer, r rounds of oracle and diffusion gates and a final measurement.
// Each marked index becomes an X-conjugated multi-controlled Z.
func Grover(n int, marked []int, r int) (_ *Circuit, err error) {
	if n < 1 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "qubits(%d) must be at least 1", n)
	}
	if r < 0 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "iterations(%d) must not be negative", r)
	}
	if len(marked) == 0 {
		return nil, errors.Wrap(core.ErrNoMarkedStates, "circuit needs at least one marked index")
	}
	for _, m := range marked {
		err = multierr.Append(err, statevec.CheckIndex(m, n))
	}
	if err != nil {
		return nil, err
	}
	c := &Circuit{n: n, rounds: r, marked: unique(marked)}
	all := c.allQubits()
	c.layer(GateH)
	for i := 0; i < r; i++ {
		for _, m := range c.marked {
			zeros := zeroBits(m, n)
			c.each(GateX, zeros)
			c.gates = append(c.gates, Gate{Name: GateCZ, Qubits: all})
			c.each(GateX, zeros)
		}
		c.layer(GateH)
		c.layer(GateX)
		c.gates = append(c.gates, Gate{Name: GateCZ, Qubits: all})
		c.layer(GateX)
		c.layer(GateH)
	}
	c.gates = append(c.gates, Gate{Name: GateMeasure, Qubits: all})
	return c, nil
}

func unique(indices []int) []int {
	set := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := set[i]; ok {
			continue
		}
		set[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func zeroBits(index, n int) []int {
	zeros := []int{}
	for q := 0; q < n; q++ {
		if index&(1<<q) == 0 {
			zeros = append(zeros, q)
		}
	}
	return zeros
}

func (c *Circuit) allQubits() []int {
	all := make([]int, c.n)
	for q := range all {
		all[q] = q
	}
	return all
}

func (c *Circuit) layer(name string) {
	c.each(name, c.allQubits())
}

func (c *Circuit) each(name string, qubits []int) {
	for _, q := range qubits {
		c.gates = append(c.gates, Gate{Name: name, Qubits: []int{q}})
	}
}

func (c *Circuit) Qubits() int {
	return c.n
}

func (c *Circuit) Rounds() int {
	return c.rounds
}

func (c *Circuit) Marked() []int {
	out := make([]int, len(c.marked))
	copy(out, c.marked)
	return out
}

// Gates returns a copy of the gate list.
func (c *Circuit) Gates() []Gate {
	out := make([]Gate, len(c.gates))
	for i, g := range c.gates {
		out[i] = Gate{Name: g.Name, Qubits: append([]int(nil), g.Qubits...)}
	}
	return out
}

// Run applies gates to reg in order. Measurements are left to the caller's sampler.
func Run(engine *statevec.Engine, reg *statevec.Register, gates []Gate) error {
	for i, g := range gates {
		var err error
		switch g.Name {
		case GateH:
			err = single(g, func(q int) error { return engine.ApplyHadamard(reg, q) })
		case GateX:
			err = single(g, func(q int) error { return engine.ApplyX(reg, q) })
		case GateZ:
			err = single(g, func(q int) error { return engine.ApplyZ(reg, q) })
		case GateCZ:
			err = engine.ApplyControlledZ(reg, g.Qubits)
		case GateMeasure:
		default:
			err = errors.Errorf("unknown gate %s", g.Name)
		}
		if err != nil {
			return errors.Wrapf(err, "gate %d (%s)", i, g.Name)
		}
	}
	return engine.CheckNormalization(reg)
}

func single(g Gate, apply func(q int) error) error {
	if len(g.Qubits) != 1 {
		return errors.Errorf("%s takes one qubit, got %d", g.Name, len(g.Qubits))
	}
	return apply(g.Qubits[0])
}

// QASM renders c as an OpenQASM 3 program over qubit[n] q and bit[n] c.
func QASM(c *Circuit) string {
	var sb strings.Builder
	sb.WriteString(heredoc.Docf(`
		OPENQASM 3.0;
		include "stdgates.inc";
		// grover search: %d qubits, %d rounds, marked %v
		qubit[%d] q;
		bit[%d] c;
	`, c.n, c.rounds, c.marked, c.n, c.n))
	for _, g := range c.gates {
		sb.WriteString(statement(g))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func statement(g Gate) string {
	operands := make([]string, len(g.Qubits))
	for i, q := range g.Qubits {
		operands[i] = fmt.Sprintf("q[%d]", q)
	}
	args := strings.Join(operands, ", ")
	switch {
	case g.Name == GateMeasure:
		return "c = measure q;"
	case g.Name == GateCZ && len(g.Qubits) == 1:
		return fmt.Sprintf("z %s;", args)
	case g.Name == GateCZ && len(g.Qubits) > 2:
		return fmt.Sprintf("ctrl(%d) @ z %s;", len(g.Qubits)-1, args)
	default:
		return fmt.Sprintf("%s %s;", g.Name, args)
	}
}

type Stats struct {
	Qubits int
	Rounds int
	Counts map[string]int
	Total  int
	// Depth is the number of layers when gates on disjoint qubits share a layer.
	Depth int
}

func (c *Circuit) Stats() Stats {
	s := Stats{Qubits: c.n, Rounds: c.rounds, Counts: map[string]int{}}
	level := make([]int, c.n)
	for _, g := range c.gates {
		s.Counts[g.Name]++
		if g.Name == GateMeasure {
			continue
		}
		s.Total++
		top := 0
		for _, q := range g.Qubits {
			top = max(top, level[q])
		}
		for _, q := range g.Qubits {
			level[q] = top + 1
		}
		s.Depth = max(s.Depth, top+1)
	}
	return s
}
