package statevec

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultEpsilon   = 1e-9
	DefaultChunkSize = 1 << 14
	DefaultMaxQubits = 30

	bytesPerAmplitude = 16
)

// Sampler draws basis indices from a register's measurement distribution.
type Sampler interface {
	Sample(reg *Register, rng *rand.Rand, count int) ([]int, error)
}

type Engine struct {
	epsilon     float64
	workers     int
	chunkSize   int
	maxQubits   int
	memoryLimit uint64
}

type Option func(*Engine)

func WithEpsilon(eps float64) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.epsilon = eps
		}
	}
}

func WithWorkers(workers int) Option {
	return func(e *Engine) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

func WithChunkSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}

func WithMaxQubits(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxQubits = n
		}
	}
}

// WithMemoryLimit bounds the register size in bytes. Zero disables the bound.
func WithMemoryLimit(bytes uint64) Option {
	return func(e *Engine) {
		e.memoryLimit = bytes
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		epsilon:     DefaultEpsilon,
		workers:     runtime.NumCPU(),
		chunkSize:   DefaultChunkSize,
		maxQubits:   DefaultMaxQubits,
		memoryLimit: availableMemory(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func availableMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		zap.L().Warn(fmt.Sprintf("failed to read available memory, register size is bounded by qubits only/reason:%s", err))
		return 0
	}
	return vm.Available
}

func (e *Engine) Epsilon() float64 {
	return e.epsilon
}

func (e *Engine) Workers() int {
	return e.workers
}

func (e *Engine) MaxQubits() int {
	return e.maxQubits
}

func (e *Engine) MemoryLimit() uint64 {
	return e.memoryLimit
}

// CheckCapacity reports whether an n-qubit register may be allocated.
func (e *Engine) CheckCapacity(n int) error {
	if n < 1 {
		return errors.Wrapf(core.ErrOutOfRange, "qubits(%d) must be at least 1", n)
	}
	if n > e.maxQubits {
		return errors.Wrapf(core.ErrCapacityExceeded, "qubits(%d) is over the limit(%d)", n, e.maxQubits)
	}
	need := uint64(bytesPerAmplitude) << uint(n)
	if e.memoryLimit > 0 && need > e.memoryLimit {
		return errors.Wrapf(core.ErrCapacityExceeded, "register needs %d bytes, limit is %d", need, e.memoryLimit)
	}
	return nil
}

// Initialize allocates an n-qubit register in the uniform superposition.
func (e *Engine) Initialize(n int) (*Register, error) {
	if err := e.CheckCapacity(n); err != nil {
		return nil, err
	}
	size := 1 << n
	reg := &Register{n: n, amps: make([]complex128, size)}
	a := complex(1/math.Sqrt(float64(size)), 0)
	err := e.forEachChunk(size, func(_, lo, hi int) error {
		for i := lo; i < hi; i++ {
			reg.amps[i] = a
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Debug(fmt.Sprintf("initialized register/qubits:%d/amplitudes:%d", n, size))
	return reg, nil
}

// Zero allocates an n-qubit register in the basis state |0...0>.
func (e *Engine) Zero(n int) (*Register, error) {
	if err := e.CheckCapacity(n); err != nil {
		return nil, err
	}
	reg := &Register{n: n, amps: make([]complex128, 1<<n)}
	reg.amps[0] = 1
	return reg, nil
}

// forEachChunk runs fn over contiguous [lo, hi) chunks of [0, length) and waits for all of them.
func (e *Engine) forEachChunk(length int, fn func(chunk, lo, hi int) error) error {
	var g errgroup.Group
	g.SetLimit(e.workers)
	for chunk, lo := 0, 0; lo < length; chunk, lo = chunk+1, lo+e.chunkSize {
		chunk, lo := chunk, lo
		hi := min(lo+e.chunkSize, length)
		g.Go(func() error {
			return fn(chunk, lo, hi)
		})
	}
	return g.Wait()
}

func (e *Engine) chunks(length int) int {
	return (length + e.chunkSize - 1) / e.chunkSize
}
