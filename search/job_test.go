//go:build unit
// +build unit

package search

import (
	"context"
	"testing"
	"time"

	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/qpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSystem(t *testing.T, b qpu.Backend) *core.SystemComponents {
	core.ResetSetting()
	conf := &core.Conf{Epsilon: 1e-9, MaxQubits: 16, DeviceMaxShots: 100000}
	s, err := core.SCWithBackend(b, conf, func() qpu.Backend { return b })
	require.Nil(t, err)
	return s
}

func newTestJob(t *testing.T, id string, shots int, sp *core.SearchParams) core.Job {
	jm, err := core.NewJobManager(&GroverJob{})
	require.Nil(t, err)
	jd := core.NewJobData()
	jd.ID = id
	jd.Shots = shots
	jd.Search = sp
	jd.Status = core.READY
	jc, err := core.NewJobContext()
	require.Nil(t, err)
	j, err := jm.NewJobFromJobData(jd, jc)
	require.Nil(t, err)
	return j
}

func runLifecycle(j core.Job) {
	j.PreProcess()
	if j.IsFinished() {
		return
	}
	j.Process()
	if j.IsFinished() {
		return
	}
	j.PostProcess()
}

func intPtr(i int) *int {
	return &i
}

func TestGroverJobFindsTarget(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	j := newTestJob(t, "single", 2000, &core.SearchParams{Qubits: 4, Targets: []int{5}, Seed: 1})
	assert.Equal(t, core.GROVER_JOB, j.JobType())
	runLifecycle(j)

	jd := j.JobData()
	require.Equal(t, core.SUCCEEDED, jd.Status, jd.Result.Message)
	res := jd.Result
	require.NotEmpty(t, res.Ranked)
	assert.Equal(t, 5, res.Ranked[0].Index)
	assert.Equal(t, "0101", res.Ranked[0].BitString)
	assert.True(t, res.Ranked[0].IsTarget)
	assert.Equal(t, res.Counts["0101"], res.Ranked[0].Count)
	assert.Equal(t, 3, res.PlannedIterations)
	assert.Equal(t, 3, res.CompletedIterations)
	assert.False(t, res.UnderIterated)
	assert.Equal(t, 1, res.CandidateCount)
	assert.Greater(t, res.SuccessRate, 0.8)
	assert.InDelta(t, 0.9613, res.TheoreticalProbability, 1e-3)
	assert.Len(t, res.Samples, 2000)
	assert.Contains(t, res.Message, "most frequent:0101")
	assert.False(t, time.Time(jd.Ended).IsZero())
}

func TestGroverJobCandidateMode(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	j := newTestJob(t, "candidate", 1000, &core.SearchParams{
		Qubits:    6,
		Targets:   []int{5, 40},
		Mode:      core.CandidateModeName,
		Seed:      3,
		Labels:    map[string]int{"A": 5, "B": 40},
		Prefilter: &core.PrefilterSpec{HammingWeight: intPtr(2)},
	})
	runLifecycle(j)

	jd := j.JobData()
	require.Equal(t, core.SUCCEEDED, jd.Status, jd.Result.Message)
	res := jd.Result
	assert.Equal(t, 15, res.CandidateCount)
	assert.Equal(t, 1, res.PlannedIterations)
	assert.Greater(t, res.MarkedProbability, 0.99)
	for _, r := range res.Ranked {
		switch r.Index {
		case 5:
			assert.Equal(t, "A", r.Label)
			assert.True(t, r.IsTarget)
		case 40:
			assert.Equal(t, "B", r.Label)
		default:
			assert.Equal(t, "", r.Label)
			assert.False(t, r.IsTarget)
		}
	}
}

func TestGroverJobTargetModeWithPrefilter(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	j := newTestJob(t, "target-prefilter", 500, &core.SearchParams{
		Qubits:     4,
		Targets:    []int{5},
		Seed:       2,
		Iterations: 6,
		Prefilter:  &core.PrefilterSpec{HammingWeight: intPtr(2)},
	})
	runLifecycle(j)

	res := j.JobData().Result
	require.Equal(t, core.SUCCEEDED, j.JobData().Status, res.Message)
	assert.Equal(t, 6, res.CandidateCount)
	assert.Equal(t, 6, res.PlannedIterations)
	assert.Less(t, res.MarkedProbability, 0.5)
}

func TestGroverJobFailures(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	tests := []struct {
		name        string
		shots       int
		search      *core.SearchParams
		wantMessage string
	}{
		{
			name:        "no qubits",
			shots:       10,
			search:      &core.SearchParams{Qubits: 0, Targets: []int{0}},
			wantMessage: "qubits(0) must be at least 1",
		},
		{
			name:        "over device qubits",
			shots:       10,
			search:      &core.SearchParams{Qubits: 20, Targets: []int{1}},
			wantMessage: "qubits(20) is over the limit(16)",
		},
		{
			name:        "target out of range",
			shots:       10,
			search:      &core.SearchParams{Qubits: 3, Targets: []int{9}},
			wantMessage: "index out of range",
		},
		{
			name:        "uncovered target",
			shots:       10,
			search:      &core.SearchParams{Qubits: 4, Targets: []int{7}, Prefilter: &core.PrefilterSpec{HammingWeight: intPtr(2)}},
			wantMessage: "missing [7]",
		},
		{
			name:        "uncovered target under max candidates",
			shots:       10,
			search:      &core.SearchParams{Qubits: 4, Targets: []int{7}, Prefilter: &core.PrefilterSpec{HammingWeight: intPtr(2), MaxCandidates: 3}},
			wantMessage: "missing [7]",
		},
		{
			name:   "too many targets in candidate mode",
			shots:  10,
			search: &core.SearchParams{
				Qubits:  5,
				Targets: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
				Mode:    core.CandidateModeName,
			},
			wantMessage: "17 targets exceed the limit 16",
		},
		{
			name:        "label out of range",
			shots:       10,
			search:      &core.SearchParams{Qubits: 3, Targets: []int{1}, Labels: map[string]int{"Z": 8}},
			wantMessage: "label Z",
		},
		{
			name:        "unknown mode",
			shots:       10,
			search:      &core.SearchParams{Qubits: 3, Targets: []int{1}, Mode: "fuzzy"},
			wantMessage: "unknown mode:fuzzy",
		},
		{
			name:        "no shots",
			shots:       0,
			search:      &core.SearchParams{Qubits: 3, Targets: []int{1}},
			wantMessage: "shots(0) must be greater than 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestJob(t, tt.name, tt.shots, tt.search)
			j.PreProcess()
			assert.True(t, j.IsFinished())
			assert.Equal(t, core.FAILED, j.JobData().Status)
			assert.Contains(t, j.JobData().Result.Message, tt.wantMessage)
		})
	}
}

func TestProcessWithoutPreProcess(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	j := newTestJob(t, "raw", 10, &core.SearchParams{Qubits: 3, Targets: []int{1}})
	j.Process()
	assert.Equal(t, core.FAILED, j.JobData().Status)
	assert.Equal(t, "job is not pre-processed", j.JobData().Result.Message)
}

func TestSeedIsRecorded(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	j := newTestJob(t, "seedless", 10, &core.SearchParams{Qubits: 3, Targets: []int{1}})
	runLifecycle(j)
	assert.Equal(t, core.SUCCEEDED, j.JobData().Status)
	assert.NotEqual(t, int64(0), j.JobData().Search.Seed)
}

func TestDummyBackendIsBaseline(t *testing.T) {
	s := setupSystem(t, &qpu.DummyQPU{})
	defer s.TearDown()

	j := newTestJob(t, "dummy", 4000, &core.SearchParams{Qubits: 4, Targets: []int{5}, Seed: 1})
	runLifecycle(j)
	res := j.JobData().Result
	require.Equal(t, core.SUCCEEDED, j.JobData().Status, res.Message)
	assert.Less(t, res.SuccessRate, 0.2)
	assert.Greater(t, res.MarkedProbability, 0.9)
}

func TestCancelledRunIsUnderIterated(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	rc := core.NewRunContext()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rc.Context = ctx
	core.SetRunContext(rc)
	defer core.SetRunContext(nil)

	j := newTestJob(t, "cancelled", 100, &core.SearchParams{Qubits: 4, Targets: []int{5}, Seed: 1})
	runLifecycle(j)
	res := j.JobData().Result
	assert.Equal(t, core.SUCCEEDED, j.JobData().Status)
	assert.True(t, res.UnderIterated)
	assert.Equal(t, 0, res.CompletedIterations)
	assert.Contains(t, res.Message, "stopped after 0 of 3 rounds")
}

func TestDriverSettingFromRegistry(t *testing.T) {
	core.ResetSetting()
	assert.Equal(t, 4096, getDriverSetting().IterationCeiling)
	core.RegisterSetting(DriverSettingName, &DriverSetting{IterationCeiling: 10})
	assert.Equal(t, 10, getDriverSetting().IterationCeiling)
	core.ResetSetting()
}

func TestLabelsByIndex(t *testing.T) {
	got := LabelsByIndex(map[string]int{"H": 23533, "B": 27566, "alias": 27566})
	assert.Equal(t, map[int]string{23533: "H", 27566: "B"}, got)
}

func TestClone(t *testing.T) {
	s := setupSystem(t, &qpu.LocalSimulator{})
	defer s.TearDown()

	j := newTestJob(t, "clone", 10, &core.SearchParams{Qubits: 3, Targets: []int{1}, Seed: 1})
	c := j.Clone()
	c.JobData().Shots = 99
	assert.Equal(t, 10, j.JobData().Shots)
	assert.Equal(t, j.JobData().ID, c.JobData().ID)
}
