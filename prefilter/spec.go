package prefilter

import (
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
)

// Spec is the TOML/JSON form of a constraint. Set fields are combined by conjunction.
type Spec = core.PrefilterSpec

// FromSpec builds the constraint described by s. targets feed near_targets.
func FromSpec(s *Spec, targets []int) (Constraint, error) {
	if s == nil {
		return All(), nil
	}
	var cs []Constraint
	if s.HammingWeight != nil {
		cs = append(cs, HammingWeight{K: *s.HammingWeight})
	}
	if s.MinWeight != nil || s.MaxWeight != nil {
		w := WeightRange{Min: 0, Max: 64}
		if s.MinWeight != nil {
			w.Min = *s.MinWeight
		}
		if s.MaxWeight != nil {
			w.Max = *s.MaxWeight
		}
		cs = append(cs, w)
	}
	for _, f := range s.FixedBits {
		cs = append(cs, FixedBit{Position: f.Position, Value: f.Value})
	}
	for _, m := range s.MaskWeights {
		if m.Mask < 0 {
			return nil, errors.Errorf("mask %d is negative", m.Mask)
		}
		cs = append(cs, MaskWeight{Mask: uint64(m.Mask), Min: m.Min, Max: m.Max})
	}
	if s.NearTargets != nil {
		cs = append(cs, FromTargets(targets, s.NearTargets.WeightSlack, s.NearTargets.MaxDistance))
	}
	if s.RowSymmetry != nil {
		cs = append(cs, RowSymmetry{Width: s.RowSymmetry.Width, Height: s.RowSymmetry.Height, MinScore: s.RowSymmetry.MinScore})
	}
	return All(cs...), nil
}

// FilterSpec runs Filter with the constraint of s and its candidate limit. Targets that satisfy
// the constraint survive the limit; the others stay out and fail AssertCovers.
func FilterSpec(n int, s *Spec, targets []int, opts ...FilterOption) (*CandidateSet, error) {
	c, err := FromSpec(s, targets)
	if err != nil {
		return nil, err
	}
	if s != nil && s.MaxCandidates > 0 {
		opts = append(opts, WithLimit(s.MaxCandidates, targets))
	}
	return Filter(n, c, opts...)
}
