package prefilter

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/multierr"
)

// Masks over a 3x5 bitmap whose row r occupies bits 5r..5r+4.
const (
	EdgeMask3x5   = 0b111110000011111
	CenterMask3x5 = 0b000001110000000
)

// Constraint is a classical predicate over basis indices. Satisfied is called concurrently.
type Constraint interface {
	Satisfied(index int) bool
	Validate(n int) error
	String() string
}

func weight(index int) int {
	return bits.OnesCount64(uint64(index))
}

func Distance(a, b int) int {
	return weight(a ^ b)
}

type HammingWeight struct {
	K int
}

func (h HammingWeight) Satisfied(index int) bool {
	return weight(index) == h.K
}

// Validate rejects only a negative weight. A weight above n is a valid predicate that no
// index satisfies.
func (h HammingWeight) Validate(n int) error {
	if h.K < 0 {
		return errors.Wrapf(core.ErrOutOfRange, "hamming weight %d is negative", h.K)
	}
	return nil
}

func (h HammingWeight) String() string {
	return fmt.Sprintf("weight==%d", h.K)
}

type WeightRange struct {
	Min int
	Max int
}

func (w WeightRange) Satisfied(index int) bool {
	c := weight(index)
	return w.Min <= c && c <= w.Max
}

func (w WeightRange) Validate(n int) error {
	if w.Min > w.Max {
		return fmt.Errorf("min weight %d is greater than max weight %d", w.Min, w.Max)
	}
	return nil
}

func (w WeightRange) String() string {
	return fmt.Sprintf("%d<=weight<=%d", w.Min, w.Max)
}

type FixedBit struct {
	Position int
	Value    int
}

func (f FixedBit) Satisfied(index int) bool {
	return index>>f.Position&1 == f.Value
}

func (f FixedBit) Validate(n int) error {
	var err error
	if f.Position < 0 || f.Position >= n {
		err = multierr.Append(err, errors.Wrapf(core.ErrOutOfRange, "bit position %d is not in [0, %d)", f.Position, n))
	}
	if f.Value != 0 && f.Value != 1 {
		err = multierr.Append(err, fmt.Errorf("bit value %d must be 0 or 1", f.Value))
	}
	return err
}

func (f FixedBit) String() string {
	return fmt.Sprintf("bit[%d]==%d", f.Position, f.Value)
}

// MaskWeight bounds the number of set bits inside Mask.
type MaskWeight struct {
	Mask uint64
	Min  int
	Max  int
}

func (m MaskWeight) Satisfied(index int) bool {
	c := bits.OnesCount64(uint64(index) & m.Mask)
	return m.Min <= c && c <= m.Max
}

func (m MaskWeight) Validate(n int) error {
	if m.Mask>>uint(n) != 0 {
		return errors.Wrapf(core.ErrOutOfRange, "mask %#x has bits beyond qubit %d", m.Mask, n-1)
	}
	if m.Min > m.Max {
		return fmt.Errorf("min weight %d is greater than max weight %d", m.Min, m.Max)
	}
	return nil
}

func (m MaskWeight) String() string {
	return fmt.Sprintf("%d<=weight(%#x)<=%d", m.Min, m.Mask, m.Max)
}

// NearAny holds for indices within MaxDistance bit flips of at least one reference.
type NearAny struct {
	References  []int
	MaxDistance int
}

func (a NearAny) Satisfied(index int) bool {
	for _, r := range a.References {
		if Distance(index, r) <= a.MaxDistance {
			return true
		}
	}
	return false
}

func (a NearAny) Validate(n int) error {
	var err error
	if len(a.References) == 0 {
		err = multierr.Append(err, errors.New("no reference patterns"))
	}
	for _, r := range a.References {
		if r < 0 || r >= 1<<n {
			err = multierr.Append(err, errors.Wrapf(core.ErrOutOfRange, "reference %d is not in [0, %d)", r, 1<<n))
		}
	}
	if a.MaxDistance < 0 {
		err = multierr.Append(err, fmt.Errorf("max distance %d is negative", a.MaxDistance))
	}
	return err
}

func (a NearAny) String() string {
	return fmt.Sprintf("distance(%v)<=%d", a.References, a.MaxDistance)
}

// RowSymmetry scores each Width-bit row of a Width x Height bitmap: 2 for a palindrome,
// 1 when the row and its mirror differ in at most two bits. It holds when the total reaches MinScore.
type RowSymmetry struct {
	Width    int
	Height   int
	MinScore int
}

func (s RowSymmetry) Satisfied(index int) bool {
	score := 0
	rowMask := 1<<s.Width - 1
	for row := 0; row < s.Height; row++ {
		r := index >> (row * s.Width) & rowMask
		m := mirror(r, s.Width)
		switch {
		case r == m:
			score += 2
		case Distance(r, m) <= 2:
			score++
		}
	}
	return score >= s.MinScore
}

func mirror(row, width int) int {
	m := 0
	for i := 0; i < width; i++ {
		m = m<<1 | row>>i&1
	}
	return m
}

func (s RowSymmetry) Validate(n int) error {
	if s.Width < 1 || s.Height < 1 || s.Width*s.Height > n {
		return errors.Wrapf(core.ErrOutOfRange, "%dx%d bitmap does not fit %d qubits", s.Width, s.Height, n)
	}
	return nil
}

func (s RowSymmetry) String() string {
	return fmt.Sprintf("symmetry(%dx%d)>=%d", s.Width, s.Height, s.MinScore)
}

type conjunction []Constraint

// All is the conjunction of cs. All() holds for every index.
func All(cs ...Constraint) Constraint {
	return conjunction(cs)
}

func (a conjunction) Satisfied(index int) bool {
	for _, c := range a {
		if !c.Satisfied(index) {
			return false
		}
	}
	return true
}

func (a conjunction) Validate(n int) (err error) {
	for _, c := range a {
		err = multierr.Append(err, c.Validate(n))
	}
	return err
}

func (a conjunction) String() string {
	if len(a) == 0 {
		return "true"
	}
	return join(a, " && ")
}

type disjunction []Constraint

// Any is the disjunction of cs. Any() holds for no index.
func Any(cs ...Constraint) Constraint {
	return disjunction(cs)
}

func (a disjunction) Satisfied(index int) bool {
	for _, c := range a {
		if c.Satisfied(index) {
			return true
		}
	}
	return false
}

func (a disjunction) Validate(n int) (err error) {
	for _, c := range a {
		err = multierr.Append(err, c.Validate(n))
	}
	return err
}

func (a disjunction) String() string {
	if len(a) == 0 {
		return "false"
	}
	return join(a, " || ")
}

func join(cs []Constraint, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// FromTargets builds the target-derived heuristic: weight within slack of the targets' weight
// range and within maxDistance of some target. Every target satisfies it for slack, maxDistance >= 0.
func FromTargets(targets []int, weightSlack, maxDistance int) Constraint {
	if len(targets) == 0 {
		return Any()
	}
	lo, hi := weight(targets[0]), weight(targets[0])
	for _, t := range targets[1:] {
		lo = min(lo, weight(t))
		hi = max(hi, weight(t))
	}
	refs := make([]int, len(targets))
	copy(refs, targets)
	return All(
		WeightRange{Min: lo - weightSlack, Max: hi + weightSlack},
		NearAny{References: refs, MaxDistance: maxDistance},
	)
}
