package amplify

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "oqtopus.grover.amplify"

type instruments struct {
	tracer   trace.Tracer
	rounds   metric.Int64Counter
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

var (
	instrumentsOnce sync.Once
	amplifyInstr    *instruments
)

// getInstruments resolves the instruments from the global providers on first use.
func getInstruments() *instruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		ins := &instruments{tracer: otel.Tracer(instrumentationName)}
		var err error
		ins.rounds, err = meter.Int64Counter("grover_rounds_total",
			metric.WithDescription("Completed oracle and diffusion rounds"))
		logInstrumentError("grover_rounds_total", err)
		ins.runs, err = meter.Int64Counter("grover_runs_total",
			metric.WithDescription("Finished amplification runs"))
		logInstrumentError("grover_runs_total", err)
		ins.duration, err = meter.Float64Histogram("grover_run_duration_seconds",
			metric.WithDescription("Wall time of an amplification run"),
			metric.WithUnit("s"))
		logInstrumentError("grover_run_duration_seconds", err)
		amplifyInstr = ins
	})
	return amplifyInstr
}

func logInstrumentError(name string, err error) {
	if err != nil {
		zap.L().Warn(fmt.Sprintf("failed to create instrument %s/reason:%s", name, err))
	}
}
