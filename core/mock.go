package core

import (
	"sync"

	"go.uber.org/dig"
)

const MockMaxQubits int = 10
const MockMaxShots int = 10000

// UnimplementedJob is registered by tests that only need the job lifecycle plumbing.
type UnimplementedJob struct {
	jobData    *JobData
	jobContext *JobContext
}

func (j *UnimplementedJob) New(jd *JobData, jc *JobContext) Job {
	return &UnimplementedJob{
		jobData:    jd,
		jobContext: jc,
	}
}

func (j *UnimplementedJob) PreProcess() {}

func (j *UnimplementedJob) Process() {
	j.jobData.Status = SUCCEEDED
}

func (j *UnimplementedJob) PostProcess() {}

func (j *UnimplementedJob) IsFinished() bool {
	return IsFinishedStatus(j.JobData().Status)
}

func (j *UnimplementedJob) JobData() *JobData {
	return j.jobData
}

func (j *UnimplementedJob) JobType() string {
	return "unimplemented"
}

func (j *UnimplementedJob) JobContext() *JobContext {
	return j.jobContext
}

func (j *UnimplementedJob) Clone() Job {
	return &UnimplementedJob{
		jobData:    j.jobData.Clone(),
		jobContext: j.jobContext,
	}
}

type UnimplementedBackend struct{}

func (u *UnimplementedBackend) Setup(*Conf) error {
	return nil
}

func (u *UnimplementedBackend) GetDeviceInfo() *DeviceInfo {
	return &DeviceInfo{
		DeviceName:   "unimplementedBackend",
		ProviderName: "oqtopus",
		Type:         "simulator",
		Status:       Available,
		MaxQubits:    MockMaxQubits,
		MaxShots:     MockMaxShots,
	}
}

type unimplementedScheduler struct{}

func (u *unimplementedScheduler) Setup(*Conf) error                  { return nil }
func (u *unimplementedScheduler) Start() error                       { return nil }
func (u *unimplementedScheduler) HandleJob(_ Job, _ *sync.WaitGroup) {}
func (u *unimplementedScheduler) GetCurrentQueueSize() int           { return 0 }
func (u *unimplementedScheduler) TearDown()                          {}

func SCWithUnimplementedContainer() *SystemComponents {
	c := dig.New()
	c.Provide(func() BackendManager { return &UnimplementedBackend{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Scheduler { return &unimplementedScheduler{} })
	s := NewSystemComponents(c)
	s.Setup(&Conf{})
	return s
}

func SCWithScheduler(sc Scheduler) *SystemComponents {
	c := dig.New()
	c.Provide(func() BackendManager { return &UnimplementedBackend{} })
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Scheduler { return sc })
	s := NewSystemComponents(c)
	s.Setup(&Conf{QueueMaxSize: 1000})
	return s
}

// SCWithBackend sets up components around b and conf. Every constructor is provided to the
// container as well.
func SCWithBackend(b BackendManager, conf *Conf, constructors ...interface{}) (*SystemComponents, error) {
	c := dig.New()
	if err := c.Provide(func() BackendManager { return b }); err != nil {
		return nil, err
	}
	c.Provide(func() DBManager { return &MemoryDB{} })
	c.Provide(func() Scheduler { return &unimplementedScheduler{} })
	for _, constructor := range constructors {
		if err := c.Provide(constructor); err != nil {
			return nil, err
		}
	}
	s := NewSystemComponents(c)
	if err := s.Setup(conf); err != nil {
		return nil, err
	}
	return s, nil
}
