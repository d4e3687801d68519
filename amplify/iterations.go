package amplify

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
)

// OptimalIterations returns floor(pi/4 * sqrt(2^n / m)), at least 1.
func OptimalIterations(n, m int) (int, error) {
	if m < 1 {
		return 0, errors.Wrapf(core.ErrNoMarkedStates, "marked count %d", m)
	}
	if n < 1 || n > 62 {
		return 0, errors.Wrapf(core.ErrOutOfRange, "qubits(%d)", n)
	}
	size := 1 << n
	if m > size {
		return 0, errors.Wrapf(core.ErrOutOfRange, "marked count %d exceeds %d states", m, size)
	}
	r := int(math.Floor(math.Pi / 4 * math.Sqrt(float64(size)/float64(m))))
	return max(r, 1), nil
}

// SuccessProbability is the probability of measuring a marked state after r rounds
// with m of 2^n states marked: sin^2((2r+1) * asin(sqrt(m / 2^n))).
func SuccessProbability(n, m, r int) float64 {
	if n < 1 || m < 1 || r < 0 {
		return 0
	}
	ratio := math.Min(float64(m)/math.Pow(2, float64(n)), 1)
	theta := math.Asin(math.Sqrt(ratio))
	s := math.Sin(float64(2*r+1) * theta)
	return s * s
}
