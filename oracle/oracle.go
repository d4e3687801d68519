package oracle

import (
	"fmt"
	"sort"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/common"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/prefilter"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MaxTargets bounds the size of a target set.
const MaxTargets = 16

type Mode int

const (
	TargetMode    Mode = iota // marks exactly the targets
	CandidateMode             // marks every member of a candidate set
)

func (m Mode) String() string {
	switch m {
	case TargetMode:
		return core.TargetModeName
	case CandidateMode:
		return core.CandidateModeName
	default:
		return "unknown"
	}
}

// ParseMode accepts the mode names case-insensitively. An empty name is TargetMode.
func ParseMode(s string) (Mode, error) {
	switch common.NormalizeName(s) {
	case "", core.TargetModeName:
		return TargetMode, nil
	case core.CandidateModeName:
		return CandidateMode, nil
	default:
		return 0, fmt.Errorf("unknown mode:%s", s)
	}
}

type Kind int

const (
	SetMembership Kind = iota
	StructuralPredicate
)

func (k Kind) String() string {
	switch k {
	case SetMembership:
		return "set_membership"
	case StructuralPredicate:
		return "structural_predicate"
	default:
		return "unknown"
	}
}

type PhaseFlipper interface {
	ApplyPhaseFlip(reg *statevec.Register, marked func(int) bool) error
}

// Oracle flips the phase of its marked basis states. Applying it twice is the identity.
type Oracle struct {
	kind       Kind
	mode       Mode
	n          int
	indices    []int
	constraint prefilter.Constraint
}

// Build marks the given target indices. Duplicates collapse into one marked state. The target
// set is bounded by MaxTargets in both modes; larger marked sets come from BuildFromCandidates.
func Build(indices []int, n int, mode Mode) (*Oracle, error) {
	if n < 1 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "qubits(%d) must be at least 1", n)
	}
	var err error
	for _, i := range indices {
		if e := statevec.CheckIndex(i, n); e != nil {
			err = multierr.Append(err, e)
		}
	}
	if err != nil {
		return nil, err
	}
	set := sortedSet(indices)
	if len(set) == 0 {
		return nil, errors.Wrap(core.ErrNoMarkedStates, "no index to mark")
	}
	if len(set) > MaxTargets {
		return nil, errors.Wrapf(core.ErrOutOfRange, "%d targets exceed the limit %d", len(set), MaxTargets)
	}
	o := &Oracle{kind: SetMembership, mode: mode, n: n, indices: set}
	zap.L().Debug(fmt.Sprintf("built oracle/%s", o))
	return o, nil
}

func BuildFromCandidates(cs *prefilter.CandidateSet) (*Oracle, error) {
	if cs == nil || cs.Len() == 0 {
		return nil, errors.Wrap(core.ErrNoMarkedStates, "candidate set is empty")
	}
	return &Oracle{kind: SetMembership, mode: CandidateMode, n: cs.Qubits(), indices: cs.Indices()}, nil
}

// BuildFromConstraint marks every index satisfying c. The marked count is found by enumeration.
// When opts limit the enumeration, only the enumerated indices are marked.
func BuildFromConstraint(c prefilter.Constraint, n int, opts ...prefilter.FilterOption) (*Oracle, error) {
	cs, err := prefilter.Filter(n, c, opts...)
	if errors.Is(err, core.ErrEmptyCandidateSet) {
		return nil, errors.Wrapf(core.ErrNoMarkedStates, "no index satisfies %s", c)
	}
	if err != nil {
		return nil, err
	}
	return &Oracle{kind: StructuralPredicate, mode: CandidateMode, n: n, indices: cs.Indices(), constraint: c}, nil
}

func sortedSet(indices []int) []int {
	s := make([]int, len(indices))
	copy(s, indices)
	sort.Ints(s)
	out := s[:0]
	for k, i := range s {
		if k == 0 || i != s[k-1] {
			out = append(out, i)
		}
	}
	return out
}

func (o *Oracle) Marks(index int) bool {
	switch o.kind {
	case StructuralPredicate:
		return o.constraint.Satisfied(index) && o.enumerated(index)
	default:
		return o.enumerated(index)
	}
}

func (o *Oracle) enumerated(index int) bool {
	k := sort.SearchInts(o.indices, index)
	return k < len(o.indices) && o.indices[k] == index
}

func (o *Oracle) Apply(engine PhaseFlipper, reg *statevec.Register) error {
	if reg == nil {
		return errors.New("register is nil")
	}
	if reg.Qubits() != o.n {
		return errors.Wrapf(core.ErrOutOfRange, "register has %d qubits, oracle expects %d", reg.Qubits(), o.n)
	}
	return engine.ApplyPhaseFlip(reg, o.Marks)
}

// Count is the number of marked states, M.
func (o *Oracle) Count() int {
	return len(o.indices)
}

func (o *Oracle) Indices() []int {
	out := make([]int, len(o.indices))
	copy(out, o.indices)
	return out
}

func (o *Oracle) Qubits() int {
	return o.n
}

func (o *Oracle) Mode() Mode {
	return o.mode
}

func (o *Oracle) Kind() Kind {
	return o.kind
}

func (o *Oracle) String() string {
	if o.kind == StructuralPredicate {
		return fmt.Sprintf("kind:%s/mode:%s/qubits:%d/marked:%d/constraint:%s", o.kind, o.mode, o.n, o.Count(), o.constraint)
	}
	return fmt.Sprintf("kind:%s/mode:%s/qubits:%d/marked:%d", o.kind, o.mode, o.n, o.Count())
}
