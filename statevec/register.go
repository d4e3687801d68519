// Package statevec simulates a noiseless register of n boolean qubits as 2^n complex amplitudes.
//
// Qubit q is bit q of a basis index, so qubit 0 is the least significant bit. Bitstrings are
// written with qubit n-1 first: index 5 of a 4-qubit register is "0101".
package statevec

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
)

type Register struct {
	n    int
	amps []complex128
}

func (r *Register) Qubits() int {
	return r.n
}

func (r *Register) Len() int {
	return len(r.amps)
}

func (r *Register) Amplitude(i int) complex128 {
	return r.amps[i]
}

// Snapshot returns a deep copy that later operations on r do not affect.
func (r *Register) Snapshot() *Register {
	amps := make([]complex128, len(r.amps))
	copy(amps, r.amps)
	return &Register{n: r.n, amps: amps}
}

// Amplitudes returns a copy of the amplitude vector.
func (r *Register) Amplitudes() []complex128 {
	return r.Snapshot().amps
}

func BitString(index, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for q := n - 1; q >= 0; q-- {
		if index>>q&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func ParseBitString(s string) (int, error) {
	if len(s) == 0 || len(s) > 62 {
		return 0, errors.Wrapf(core.ErrOutOfRange, "bitstring length %d", len(s))
	}
	index := 0
	for _, c := range s {
		index <<= 1
		switch c {
		case '0':
		case '1':
			index |= 1
		default:
			return 0, errors.Errorf("invalid bit %q in %s", c, s)
		}
	}
	return index, nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= 1<<n {
		return errors.Wrapf(core.ErrOutOfRange, "index %d is not in [0, %d)", index, 1<<n)
	}
	return nil
}

// CheckIndex reports ErrOutOfRange when index is not a basis state of an n-qubit register.
func CheckIndex(index, n int) error {
	return checkIndex(index, n)
}
