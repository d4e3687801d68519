package core

import (
	"fmt"
	"sync"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

var systemComponents *SystemComponents

type DBChan chan Job

type Channels struct {
	DBChan
	// when more channel is needed, add here
}

func NewChannels() *Channels {
	return &Channels{
		DBChan: make(DBChan),
	}
}

func (c *Channels) Close() {
	close(c.DBChan)
}

func (c *Channels) Check() error {
	if c.DBChan == nil {
		return fmt.Errorf("DBChan is nil")
	}
	return nil
}

type DeviceInfo struct {
	DeviceName   string       `json:"device_name"`
	ProviderName string       `json:"provider_name"`
	Type         string       `json:"type"`
	Status       DeviceStatus `json:"status"`
	MaxQubits    int          `json:"max_qubits"`
	MaxShots     int          `json:"max_shots"`
	MemoryLimit  uint64       `json:"memory_limit"`
}

type DeviceStatus int

const (
	Available DeviceStatus = iota
	Unavailable
)

func (ds DeviceStatus) String() string {
	switch ds {
	case Available:
		return "Available"
	case Unavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// BackendManager is the configuration-facing side of a sampling backend.
type BackendManager interface {
	Setup(*Conf) error
	GetDeviceInfo() *DeviceInfo
}

type Scheduler interface {
	Setup(*Conf) error
	Start() error
	// HandleJob runs the job lifecycle asynchronously. wg, when not nil, is marked done
	// once the job reaches a finished status.
	HandleJob(Job, *sync.WaitGroup)
	GetCurrentQueueSize() int
	TearDown()
}

type DBManager interface {
	Setup(DBChan, *Conf) error
	Insert(Job) error
	Get(string) (Job, error)
	Update(Job) error
	Delete(string) error
	List() []Job
}

type SystemComponents struct {
	*dig.Container
	*Channels
}

func NewSystemComponents(con *dig.Container) *SystemComponents {
	return &SystemComponents{
		con,
		NewChannels(),
	}
}

func GetSystemComponents() *SystemComponents {
	return systemComponents
}

func (s *SystemComponents) Setup(conf *Conf) error {
	dbChan := s.DBChan

	zap.L().Debug("Setting up backend")
	err := s.Invoke(func(b BackendManager) error {
		return b.Setup(conf)
	})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up scheduler")
	err = s.Invoke(
		func(s Scheduler) error {
			return s.Setup(conf)
		})
	if err != nil {
		return err
	}

	zap.L().Debug("Setting up DB")
	err = s.Invoke(
		func(d DBManager) error {
			return d.Setup(dbChan, conf)
		})
	if err != nil {
		return err
	}
	systemComponents = s
	return nil
}

func (s *SystemComponents) TearDown() {
	_ = s.Invoke(
		func(sc Scheduler) {
			sc.TearDown()
		})
	s.Channels.Close()
}

func (s *SystemComponents) StartContainer() error {
	return s.Container.Invoke(
		func(s Scheduler) error {
			return s.Start()
		})
}

func (s *SystemComponents) GetDeviceInfo() *DeviceInfo {
	var deviceInfo *DeviceInfo
	err := s.Invoke(
		func(b BackendManager) {
			deviceInfo = b.GetDeviceInfo()
		})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to get device info/reason:%s", err))
	}
	return deviceInfo
}

func (s *SystemComponents) GetCurrentQueueSize() int {
	var size int
	_ = s.Invoke(
		func(sc Scheduler) {
			size = sc.GetCurrentQueueSize()
		})
	return size
}

func (s *SystemComponents) ListJobs() []Job {
	var jobs []Job
	_ = s.Invoke(
		func(d DBManager) {
			jobs = d.List()
		})
	return jobs
}
