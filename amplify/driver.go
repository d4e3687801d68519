package amplify

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/diffusion"
	"github.com/oqtopus-team/oqtopus-grover/oracle"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const DefaultIterationCeiling = 4096

type Driver struct {
	engine  *statevec.Engine
	sampler statevec.Sampler
	ceiling int
}

type Option func(*Driver)

// WithSampler replaces the engine as the source of samples.
func WithSampler(s statevec.Sampler) Option {
	return func(d *Driver) {
		if s != nil {
			d.sampler = s
		}
	}
}

// WithIterationCeiling sets the round count above which a run logs a warning.
func WithIterationCeiling(c int) Option {
	return func(d *Driver) {
		if c > 0 {
			d.ceiling = c
		}
	}
}

func NewDriver(engine *statevec.Engine, opts ...Option) *Driver {
	d := &Driver{
		engine:  engine,
		sampler: engine,
		ceiling: DefaultIterationCeiling,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) IterationCeiling() int {
	return d.ceiling
}

type Outcome struct {
	Register          *statevec.Register
	Samples           []int
	Planned           int
	Completed         int
	UnderIterated     bool
	MarkedProbability float64
	Theoretical       float64
	Duration          time.Duration
}

// Run amplifies the states marked by o for the optimal number of rounds and draws shots samples.
func (d *Driver) Run(ctx context.Context, n int, o *oracle.Oracle, shots int, rng *rand.Rand) (*Outcome, error) {
	if o == nil {
		return nil, errors.New("oracle is nil")
	}
	r, err := OptimalIterations(n, o.Count())
	if err != nil {
		return nil, err
	}
	return d.RunIterations(ctx, n, o, r, shots, rng)
}

// RunIterations runs exactly r rounds unless ctx is done. ctx is only checked between rounds;
// a cancelled run still samples the state after the last completed round and reports
// UnderIterated without an error.
func (d *Driver) RunIterations(ctx context.Context, n int, o *oracle.Oracle, r, shots int, rng *rand.Rand) (_ *Outcome, err error) {
	if o == nil {
		return nil, errors.New("oracle is nil")
	}
	if o.Qubits() != n {
		return nil, errors.Wrapf(core.ErrOutOfRange, "oracle has %d qubits, register has %d", o.Qubits(), n)
	}
	if r < 0 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "iterations(%d) must not be negative", r)
	}
	if shots < 0 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "shots(%d) must not be negative", shots)
	}
	if r > d.ceiling {
		zap.L().Warn(fmt.Sprintf("iteration count %d exceeds the ceiling %d/qubits:%d/marked:%d",
			r, d.ceiling, n, o.Count()))
	}

	ins := getInstruments()
	start := time.Now()
	ctx, span := ins.tracer.Start(ctx, "grover.run", trace.WithAttributes(
		attribute.Int("grover.qubits", n),
		attribute.Int("grover.marked", o.Count()),
		attribute.Int("grover.planned_rounds", r),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	reg, err := d.engine.Initialize(n)
	if err != nil {
		return nil, err
	}
	diff, err := diffusion.New(n)
	if err != nil {
		return nil, err
	}

	completed := 0
	for completed < r {
		if ctx.Err() != nil {
			zap.L().Info(fmt.Sprintf("amplification stopped between rounds/completed:%d/planned:%d/reason:%s",
				completed, r, ctx.Err()))
			break
		}
		if err := o.Apply(d.engine, reg); err != nil {
			return nil, errors.Wrapf(err, "oracle in round %d", completed+1)
		}
		if err := diff.Apply(d.engine, reg); err != nil {
			return nil, errors.Wrapf(err, "diffusion in round %d", completed+1)
		}
		completed++
		ins.rounds.Add(ctx, 1)
	}

	samples, err := d.sampler.Sample(reg, rng, shots)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Register:          reg,
		Samples:           samples,
		Planned:           r,
		Completed:         completed,
		UnderIterated:     completed < r,
		MarkedProbability: d.engine.MarkedProbability(reg, o.Marks),
		Theoretical:       SuccessProbability(n, o.Count(), completed),
		Duration:          time.Since(start),
	}
	attrs := metric.WithAttributes(attribute.Bool("under_iterated", out.UnderIterated))
	ins.runs.Add(context.WithoutCancel(ctx), 1, attrs)
	ins.duration.Record(context.WithoutCancel(ctx), out.Duration.Seconds(), attrs)
	span.SetAttributes(
		attribute.Int("grover.completed_rounds", completed),
		attribute.Float64("grover.marked_probability", out.MarkedProbability),
	)
	zap.L().Debug(fmt.Sprintf("amplification finished/qubits:%d/marked:%d/rounds:%d/%d/marked probability:%.4f/theoretical:%.4f",
		n, o.Count(), completed, r, out.MarkedProbability, out.Theoretical))
	return out, nil
}
