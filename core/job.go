package core

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var jobManager *JobManager

const GROVER_JOB = "grover"

type Job interface {
	// Job Control
	New(*JobData, *JobContext) Job
	PreProcess()
	Process()
	PostProcess()
	IsFinished() bool

	// Data Access
	JobData() *JobData // Get mutable JobData
	JobType() string
	JobContext() *JobContext
	Clone() Job
}

type JobContext struct {
	*Channels
}

func NewJobContext() (*JobContext, error) {
	s := GetSystemComponents()
	if s == nil {
		return nil, fmt.Errorf("system components is not initialized")
	}
	c := s.Channels
	if c == nil {
		return nil, fmt.Errorf("channels is not initialized")
	}
	return &JobContext{
		Channels: c,
	}, nil
}

type JobParam struct {
	JobID   string
	Shots   int
	Search  *SearchParams
	JobType string
}

// UnknownJob carries job data whose type is not registered so that it can still be stored.
type UnknownJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *UnknownJob) New(jd *JobData, jc *JobContext) Job {
	return &UnknownJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnknownJob) PreProcess() {
	SetFailureWithError(j, fmt.Errorf("job type %s is not registered", j.jobData.JobType))
}

func (j *UnknownJob) Process() {}

func (j *UnknownJob) PostProcess() {}

func (j *UnknownJob) IsFinished() bool {
	return IsFinishedStatus(j.JobData().Status)
}

func (j *UnknownJob) JobData() *JobData {
	return j.jobData
}

func (j *UnknownJob) JobType() string {
	// return unknown job type itself
	return j.jobData.JobType
}

func (j *UnknownJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnknownJob) Clone() Job {
	return &UnknownJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
}

func IsFinishedStatus(s Status) bool {
	return s == SUCCEEDED || s == FAILED || s == CANCELLED
}

func GetJob(id string) (job Job) {
	job = nil
	c := GetSystemComponents().Container
	err := c.Invoke(
		func(d DBManager) error {
			var getErr error
			job, getErr = d.Get(id)
			return getErr
		})
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to find a job(%s)", id))
		return nil
	}
	return job
}

// factory pattern
type JobManager struct {
	acceptableJobs []Job //empty jobs
}

func (j *JobManager) RegisterJob(jobs ...Job) error {
	for _, job := range jobs {
		for _, t := range j.acceptableJobs {
			if reflect.TypeOf(t) == reflect.TypeOf(job) {
				return fmt.Errorf("job:%s is already registered", job.JobType())
			}
		}
		zap.L().Debug(fmt.Sprintf("registering job type %s", job.JobType()))
		j.acceptableJobs = append(j.acceptableJobs, job)
	}
	return nil
}

func (j *JobManager) AcceptableJobTypes() []string {
	types := []string{}
	for _, job := range j.acceptableJobs {
		types = append(types, job.JobType())
	}
	return types
}

func (j *JobManager) NewJobWithValidation(param *JobParam, jc *JobContext) (Job, error) {
	if param.JobType == "" { // default job type
		param.JobType = GROVER_JOB
	}
	if err := ValidateJobParam(param, GetSystemComponents().GetDeviceInfo()); err != nil {
		zap.L().Info(fmt.Sprintf("failed to validate job param/jobID:%s/reason:%s", param.JobID, err))
		return nil, err
	}
	return j.NewJob(param, jc)
}

func (j *JobManager) NewJob(param *JobParam, jc *JobContext) (Job, error) {
	jd := NewJobData()
	jd.ID = param.JobID
	jd.Shots = param.Shots
	jd.Search = param.Search
	jd.JobType = param.JobType
	return j.NewJobFromJobData(jd, jc)
}

func (j *JobManager) NewJobFromJobData(jd *JobData, jc *JobContext) (Job, error) {
	if jd.JobType == "" { // default job type
		jd.JobType = GROVER_JOB
	}
	zap.L().Debug(fmt.Sprintf("creating a job from job data. Job ID:%s, Job Type:%s", jd.ID, jd.JobType))
	for _, j := range j.acceptableJobs {
		if j.JobType() == jd.JobType {
			// create a new job instance
			t := reflect.TypeOf(j)
			newInstance := reflect.New(t).Elem().Interface()
			job := newInstance.(Job).New(jd, jc)
			return job, nil
		}
	}
	return nil, fmt.Errorf("job type %s is not registered", jd.JobType)
}

// ValidateJobParam reports every problem of p at once. A nil device skips the device limits.
func ValidateJobParam(p *JobParam, device *DeviceInfo) (err error) {
	if p.JobID == "" {
		err = multierr.Append(err, fmt.Errorf("jobID is empty"))
	}
	if p.Shots <= 0 {
		err = multierr.Append(err, fmt.Errorf("shots(%d) must be greater than 0", p.Shots))
	} else if device != nil && device.MaxShots > 0 && p.Shots > device.MaxShots {
		err = multierr.Append(err, fmt.Errorf("shots(%d) is over the limit(%d)", p.Shots, device.MaxShots))
	}
	if p.JobType == GROVER_JOB {
		err = multierr.Append(err, validateSearchParams(p.Search, device))
	}
	return err
}

func validateSearchParams(s *SearchParams, device *DeviceInfo) (err error) {
	if s == nil {
		return fmt.Errorf("search parameters are missing")
	}
	if s.Qubits < 1 {
		err = multierr.Append(err, errors.Wrapf(ErrOutOfRange, "qubits(%d) must be at least 1", s.Qubits))
	} else if device != nil && device.MaxQubits > 0 && s.Qubits > device.MaxQubits {
		err = multierr.Append(err, errors.Wrapf(ErrCapacityExceeded, "qubits(%d) is over the limit(%d)",
			s.Qubits, device.MaxQubits))
	}
	if len(s.Targets) == 0 {
		err = multierr.Append(err, errors.Wrap(ErrNoMarkedStates, "targets are empty"))
	}
	switch s.Mode {
	case "", TargetModeName, CandidateModeName:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown mode:%s", s.Mode))
	}
	if s.Iterations < 0 {
		err = multierr.Append(err, errors.Wrapf(ErrOutOfRange, "iterations(%d) must not be negative", s.Iterations))
	}
	return err
}

func NewJobManager(jobs ...Job) (*JobManager, error) {
	jm := &JobManager{}
	for _, job := range jobs {
		err := jm.RegisterJob(job)
		if err != nil {
			return nil, err
		}
	}
	jobManager = jm
	return jm, nil
}

func GetJobManager() *JobManager {
	return jobManager
}

func SetFailureWithError(j Job, err error) (msg string) {
	jd := j.JobData()
	return SetFailureWithErrorToJobData(jd, err)
}

func SetFailureWithErrorToJobData(jd *JobData, err error) (msg string) {
	msg = err.Error()
	jd.Result.Message = msg
	jd.Status = FAILED
	jd.Ended = strfmt.DateTime(time.Now())
	return msg
}
