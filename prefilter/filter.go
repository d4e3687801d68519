package prefilter

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultChunkSize = 1 << 14

// CandidateSet is a sorted, duplicate-free, non-empty set of basis indices of an n-qubit register.
type CandidateSet struct {
	n       int
	indices []int
}

// NewCandidateSet validates, sorts and deduplicates indices.
func NewCandidateSet(n int, indices []int) (*CandidateSet, error) {
	if n < 1 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "qubits(%d) must be at least 1", n)
	}
	var err error
	for _, i := range indices {
		if i < 0 || i >= 1<<n {
			err = multierr.Append(err, errors.Wrapf(core.ErrOutOfRange, "candidate %d is not in [0, %d)", i, 1<<n))
		}
	}
	if err != nil {
		return nil, err
	}
	sorted := dedup(indices)
	if len(sorted) == 0 {
		return nil, core.ErrEmptyCandidateSet
	}
	return &CandidateSet{n: n, indices: sorted}, nil
}

func dedup(indices []int) []int {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)
	out := sorted[:0]
	for k, i := range sorted {
		if k == 0 || i != sorted[k-1] {
			out = append(out, i)
		}
	}
	return out
}

func (c *CandidateSet) Len() int {
	return len(c.indices)
}

func (c *CandidateSet) Qubits() int {
	return c.n
}

func (c *CandidateSet) Contains(index int) bool {
	k := sort.SearchInts(c.indices, index)
	return k < len(c.indices) && c.indices[k] == index
}

// Indices returns a copy of the members in ascending order.
func (c *CandidateSet) Indices() []int {
	out := make([]int, len(c.indices))
	copy(out, c.indices)
	return out
}

// Fraction is the share of the search space kept, Len / 2^n.
func (c *CandidateSet) Fraction() float64 {
	return float64(len(c.indices)) / float64(int(1)<<c.n)
}

type filterOptions struct {
	workers   int
	chunkSize int
	limit     int
	keep      []int
}

type FilterOption func(*filterOptions)

func WithWorkers(workers int) FilterOption {
	return func(o *filterOptions) {
		if workers > 0 {
			o.workers = workers
		}
	}
}

func WithChunkSize(size int) FilterOption {
	return func(o *filterOptions) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithLimit caps the set at limit members. Indices in keep that satisfy the constraint are
// always members; the remaining places go to the lowest matching indices. An index in keep
// that does not satisfy the constraint is never added.
func WithLimit(limit int, keep []int) FilterOption {
	return func(o *filterOptions) {
		o.limit = limit
		o.keep = keep
	}
}

// Filter enumerates [0, 2^n) in index order and keeps the indices satisfying c.
// The result depends only on n, c and the options, never on scheduling.
func Filter(n int, c Constraint, opts ...FilterOption) (*CandidateSet, error) {
	o := &filterOptions{workers: runtime.NumCPU(), chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(o)
	}
	if n < 1 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "qubits(%d) must be at least 1", n)
	}
	if err := c.Validate(n); err != nil {
		return nil, err
	}
	size := 1 << n
	chunks := make([][]int, (size+o.chunkSize-1)/o.chunkSize)
	var g errgroup.Group
	g.SetLimit(o.workers)
	for k := range chunks {
		k := k
		g.Go(func() error {
			lo := k * o.chunkSize
			hi := min(lo+o.chunkSize, size)
			var found []int
			for i := lo; i < hi; i++ {
				if c.Satisfied(i) {
					found = append(found, i)
				}
			}
			chunks[k] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var matched []int
	for _, found := range chunks {
		matched = append(matched, found...)
	}
	if o.limit > 0 {
		var err error
		matched, err = applyLimit(n, matched, o.limit, o.keep)
		if err != nil {
			return nil, err
		}
	}
	if len(matched) == 0 {
		return nil, errors.Wrapf(core.ErrEmptyCandidateSet, "no index of %d qubits satisfies %s", n, c)
	}
	zap.L().Debug(fmt.Sprintf("prefilter kept %d of %d states/constraint:%s", len(matched), size, c))
	return &CandidateSet{n: n, indices: matched}, nil
}

func applyLimit(n int, matched []int, limit int, keep []int) ([]int, error) {
	for _, k := range keep {
		if k < 0 || k >= 1<<n {
			return nil, errors.Wrapf(core.ErrOutOfRange, "kept index %d is not in [0, %d)", k, 1<<n)
		}
	}
	var kept []int
	for _, k := range dedup(keep) {
		if pos := sort.SearchInts(matched, k); pos < len(matched) && matched[pos] == k {
			kept = append(kept, k)
		}
	}
	if len(kept) > limit {
		return nil, fmt.Errorf("%d kept indices exceed the candidate limit %d", len(kept), limit)
	}
	out := append([]int(nil), kept...)
	set := make(map[int]struct{}, len(kept))
	for _, k := range kept {
		set[k] = struct{}{}
	}
	for _, m := range matched {
		if len(out) >= limit {
			break
		}
		if _, ok := set[m]; !ok {
			out = append(out, m)
		}
	}
	sort.Ints(out)
	return out, nil
}

// AssertCovers reports ErrUncoveredTarget naming every target missing from cs.
func AssertCovers(cs *CandidateSet, targets []int) error {
	var missing []int
	for _, t := range targets {
		if !cs.Contains(t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(core.ErrUncoveredTarget, "missing %v", missing)
	}
	return nil
}
