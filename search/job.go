// Package search runs one amplitude-amplification search as a core.Job.
package search

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"github.com/oqtopus-team/oqtopus-grover/amplify"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/oracle"
	"github.com/oqtopus-team/oqtopus-grover/prefilter"
	"github.com/oqtopus-team/oqtopus-grover/qpu"
	"github.com/oqtopus-team/oqtopus-grover/report"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const DriverSettingName = "driver"

// DriverSetting is decoded from [com.driver].
type DriverSetting struct {
	IterationCeiling int `toml:"iteration_ceiling"`
}

func NewDriverSetting() *DriverSetting {
	return &DriverSetting{IterationCeiling: amplify.DefaultIterationCeiling}
}

func getDriverSetting() *DriverSetting {
	if v, ok := core.GetComponentSetting(DriverSettingName); ok {
		if ds, ok := v.(*DriverSetting); ok {
			return ds
		}
	}
	return NewDriverSetting()
}

type GroverJob struct {
	jobData    *core.JobData
	jobContext *core.JobContext

	targets    []int
	oracle     *oracle.Oracle
	candidates int
	outcome    *amplify.Outcome
}

func (j *GroverJob) New(jd *core.JobData, jc *core.JobContext) core.Job {
	return &GroverJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *GroverJob) PreProcess() {
	if err := j.preProcessImpl(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to pre-process a job(%s)/reason:%s", j.JobData().ID, err))
		core.SetFailureWithError(j, err)
	}
}

func (j *GroverJob) preProcessImpl() error {
	jd := j.JobData()
	b, err := backend()
	if err != nil {
		return err
	}
	param := &core.JobParam{JobID: jd.ID, Shots: jd.Shots, Search: jd.Search, JobType: j.JobType()}
	if err := core.ValidateJobParam(param, b.GetDeviceInfo()); err != nil {
		return err
	}
	s := jd.Search
	if err := validateLabels(s.Labels, s.Qubits); err != nil {
		return err
	}
	mode, err := oracle.ParseMode(s.Mode)
	if err != nil {
		return err
	}
	targetOracle, err := oracle.Build(s.Targets, s.Qubits, mode)
	if err != nil {
		return err
	}
	j.targets = targetOracle.Indices()
	j.oracle = targetOracle
	j.candidates = len(j.targets)

	if s.Prefilter == nil && mode == oracle.TargetMode {
		zap.L().Debug(fmt.Sprintf("job(%s) runs without a prefilter", jd.ID))
		return nil
	}
	cs, err := prefilter.FilterSpec(s.Qubits, s.Prefilter, j.targets, prefilter.WithWorkers(b.Engine().Workers()))
	if err != nil {
		return err
	}
	if err := prefilter.AssertCovers(cs, j.targets); err != nil {
		return err
	}
	j.candidates = cs.Len()
	zap.L().Debug(fmt.Sprintf("job(%s) prefilter kept %d of %d states (%.4f)",
		jd.ID, cs.Len(), 1<<s.Qubits, cs.Fraction()))
	if mode == oracle.CandidateMode {
		if j.oracle, err = oracle.BuildFromCandidates(cs); err != nil {
			return err
		}
	}
	return nil
}

func validateLabels(labels map[string]int, n int) (err error) {
	for name, idx := range labels {
		if e := statevec.CheckIndex(idx, n); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "label %s", name))
		}
	}
	return err
}

func (j *GroverJob) Process() {
	if err := j.processImpl(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to process a job(%s)/reason:%s", j.JobData().ID, err))
		core.SetFailureWithError(j, err)
		return
	}
	zap.L().Debug(fmt.Sprintf("finished to process a job(%s)/status:%s", j.JobData().ID, j.JobData().Status))
}

func (j *GroverJob) processImpl() error {
	jd := j.JobData()
	if j.oracle == nil {
		return errors.New("job is not pre-processed")
	}
	b, err := backend()
	if err != nil {
		return err
	}
	driver := amplify.NewDriver(b.Engine(),
		amplify.WithSampler(b.Sampler()),
		amplify.WithIterationCeiling(getDriverSetting().IterationCeiling))

	s := jd.Search
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
		zap.L().Info(fmt.Sprintf("job(%s) has no seed, using %d", jd.ID, s.Seed))
	}
	rng := rand.New(rand.NewSource(s.Seed))
	ctx := runContext()
	if s.Iterations > 0 {
		j.outcome, err = driver.RunIterations(ctx, s.Qubits, j.oracle, s.Iterations, jd.Shots, rng)
	} else {
		j.outcome, err = driver.Run(ctx, s.Qubits, j.oracle, jd.Shots, rng)
	}
	return err
}

func (j *GroverJob) PostProcess() {
	jd := j.JobData()
	if j.outcome == nil {
		core.SetFailureWithError(j, errors.New("job has no outcome"))
		return
	}
	out := j.outcome
	n := jd.Search.Qubits
	labels := LabelsByIndex(jd.Search.Labels)
	entries := report.Rank(out.Samples, j.targets)

	res := jd.Result
	res.Counts = report.ToCounts(out.Samples, n)
	res.Ranked = make([]core.RankedOutcome, 0, len(entries))
	for _, e := range entries {
		res.Ranked = append(res.Ranked, core.RankedOutcome{
			Index:     e.Index,
			BitString: statevec.BitString(e.Index, n),
			Count:     uint32(e.Count),
			Frequency: e.Frequency,
			IsTarget:  e.IsTarget,
			Label:     labels[e.Index],
		})
	}
	res.Samples = out.Samples
	res.PlannedIterations = out.Planned
	res.CompletedIterations = out.Completed
	res.UnderIterated = out.UnderIterated
	res.CandidateCount = j.candidates
	res.SuccessRate = report.SuccessRate(out.Samples, j.targets)
	res.MarkedProbability = out.MarkedProbability
	res.TheoreticalProbability = out.Theoretical
	res.ExecutionTime = out.Duration
	res.Message = message(res, n, labels)

	jd.Status = core.SUCCEEDED
	jd.Ended = strfmt.DateTime(time.Now())
	zap.L().Info(fmt.Sprintf("job(%s) finished/%s", jd.ID, res.Message))
}

func message(res *core.Result, n int, labels map[int]string) string {
	msg := fmt.Sprintf("success rate:%.4f over %d marked states", res.SuccessRate, res.CandidateCount)
	if len(res.Ranked) > 0 {
		top := res.Ranked[0]
		name := top.BitString
		if l := labels[top.Index]; l != "" {
			name = fmt.Sprintf("%s(%s)", top.BitString, l)
		}
		msg = fmt.Sprintf("most frequent:%s/frequency:%.4f/%s", name, top.Frequency, msg)
	}
	if res.UnderIterated {
		msg = fmt.Sprintf("%s/stopped after %d of %d rounds", msg, res.CompletedIterations, res.PlannedIterations)
	}
	return msg
}

// LabelsByIndex inverts a label table. An index with several labels keeps the smallest name.
func LabelsByIndex(labels map[string]int) map[int]string {
	out := make(map[int]string, len(labels))
	for name, idx := range labels {
		if prev, ok := out[idx]; !ok || name < prev {
			out[idx] = name
		}
	}
	return out
}

func (j *GroverJob) IsFinished() bool {
	return core.IsFinishedStatus(j.JobData().Status)
}

func (j *GroverJob) JobData() *core.JobData {
	return j.jobData
}

func (j *GroverJob) JobType() string {
	return core.GROVER_JOB
}

func (j *GroverJob) JobContext() *core.JobContext {
	return j.jobContext
}

func (j *GroverJob) Clone() core.Job {
	return &GroverJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
		targets:    j.targets,
		oracle:     j.oracle,
		candidates: j.candidates,
		outcome:    j.outcome,
	}
}

func backend() (qpu.Backend, error) {
	sc := core.GetSystemComponents()
	if sc == nil {
		return nil, errors.New("system components is not initialized")
	}
	var b qpu.Backend
	if err := sc.Invoke(func(backend qpu.Backend) { b = backend }); err != nil {
		return nil, errors.Wrap(err, "no backend")
	}
	if b.Engine() == nil {
		return nil, errors.New("backend is not set up")
	}
	return b, nil
}

func runContext() context.Context {
	if rc := core.GetRunContext(); rc != nil && rc.Context != nil {
		return rc.Context
	}
	return context.Background()
}
