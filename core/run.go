package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/oklog/run"
	"github.com/oqtopus-team/oqtopus-grover/common"
	"go.uber.org/zap"
)

var runContext *RunContext

type PeriodicTaskImplMap map[string]PeriodicTaskImpl
type PeriodicTaskMap map[string]*PeriodicTask

type RunnerImpl interface {
	GetEmptyParams() interface{}
	SetParams(interface{}) error
	Setup() error
}

type RunContext struct {
	*run.Group
	context.Context

	settingsPath  string
	PeriodicTasks PeriodicTaskMap
}

type rawRunGroup struct {
	RunGroup struct {
		PeriodicTasks map[string]rawPeriodicTask `toml:"periodic_tasks"`
	} `toml:"run_group"`
}

type rawPeriodicTask struct {
	Period time.Duration  `toml:"period"`
	Params toml.Primitive `toml:"params"`
}

func NewRunContext() *RunContext {
	return &RunContext{
		Group:         &run.Group{},
		Context:       context.Background(),
		PeriodicTasks: make(PeriodicTaskMap),
	}
}

// NewRunContextWithSettingPath adds every periodic task listed under [run_group.periodic_tasks]
// whose name is found in implMap. The task params table is decoded into the impl's empty params.
func NewRunContextWithSettingPath(settingsPath string, implMap PeriodicTaskImplMap) (*RunContext, error) {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read settings file/reason:%s", err))
		return nil, err
	}
	rc := NewRunContext()
	rc.settingsPath = settingsPath
	if err := rc.addPeriodicTasksFromTOML(tomlString, implMap); err != nil {
		return nil, err
	}
	zap.L().Info("Successfully initialized RunContext", zap.Int("periodic_tasks", len(rc.PeriodicTasks)))
	return rc, nil
}

func (rc *RunContext) addPeriodicTasksFromTOML(tomlString string, implMap PeriodicTaskImplMap) error {
	raw := &rawRunGroup{}
	md, err := toml.Decode(tomlString, raw)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode settings file/reason:%s", err))
		return err
	}
	for name, rt := range raw.RunGroup.PeriodicTasks {
		impl, ok := implMap[name]
		if !ok {
			msg := fmt.Sprintf("failed to find %s implementation", name)
			zap.L().Error(msg)
			return fmt.Errorf("%s", msg)
		}
		params := impl.GetEmptyParams()
		if md.IsDefined("run_group", "periodic_tasks", name, "params") {
			if err := md.PrimitiveDecode(rt.Params, params); err != nil {
				zap.L().Error(fmt.Sprintf("failed to decode params/name:%s/reason:%s", name, err))
				return err
			}
		}
		if err := impl.SetParams(params); err != nil {
			zap.L().Error(fmt.Sprintf("failed to set parameters/name:%s/reason:%s", name, err))
			return err
		}
		if err := impl.Setup(); err != nil {
			zap.L().Error(fmt.Sprintf("failed to setup/name:%s/reason:%s", name, err))
			return err
		}
		if rt.Period <= 0 {
			return fmt.Errorf("period of %s must be positive", name)
		}
		t := &PeriodicTask{Period: rt.Period, Params: params, PeriodicTaskImpl: impl}
		if err := rc.AddPeriodicTask(t, name); err != nil {
			return err
		}
		zap.L().Info(fmt.Sprintf("successfully added periodic task/name:%s/period:%s", name, rt.Period))
	}
	return nil
}

func GetRunContext() *RunContext {
	return runContext
}

func SetRunContext(rc *RunContext) {
	runContext = rc
}

type PeriodicTask struct {
	Period time.Duration
	Params interface{}
	PeriodicTaskImpl
}

func (t *PeriodicTask) GetParams() interface{} {
	return t.Params
}

type PeriodicTaskImpl interface {
	RunnerImpl
	RequirePeriodUpdate() (ok bool, duration time.Duration)
	Task()
	Cleanup()
}

type DefaultTaskImpl struct{}

func (v *DefaultTaskImpl) Setup() error {
	return nil
}

func (v *DefaultTaskImpl) GetEmptyParams() interface{} {
	return v
}

func (v *DefaultTaskImpl) SetParams(p interface{}) error {
	return nil
}

func (v *DefaultTaskImpl) RequirePeriodUpdate() (bool, time.Duration) {
	return false, 0
}

func (v *DefaultTaskImpl) Task() {}

func (v *DefaultTaskImpl) Cleanup() {}

func (rc *RunContext) AddPeriodicTask(t *PeriodicTask, taskName string) error {
	ctx, cancel := context.WithCancel(rc.Context)
	lastPeriod := t.Period
	rc.PeriodicTasks[taskName] = t
	rc.Group.Add(
		func() error {
			ticker := time.NewTicker(t.Period)
			zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/Start]", taskName))
			t.PeriodicTaskImpl.Task()
			for {
				select {
				case <-ctx.Done():
					zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]Cleaning up periodic task", taskName))
					ticker.Stop()
					t.PeriodicTaskImpl.Cleanup()
					return ctx.Err()
				case <-ticker.C:
					t.PeriodicTaskImpl.Task()
					ok, newPeriod := t.RequirePeriodUpdate()
					if ok && newPeriod != lastPeriod {
						zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/ResetPeriod]from %v to %v",
							taskName, lastPeriod, newPeriod))
						ticker.Reset(newPeriod)
						lastPeriod = newPeriod
					}
				}
			}
		},
		func(error) {
			zap.L().Info(fmt.Sprintf("[PeriodicTask/%s/TearDown]Cancelling periodic task", taskName))
			cancel()
		},
	)
	return nil
}

// AddActor runs fn until it returns or the group is interrupted. fn receives a context
// that is cancelled on interruption.
func (rc *RunContext) AddActor(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(rc.Context)
	rc.Group.Add(
		func() error {
			zap.L().Debug(fmt.Sprintf("[Actor/%s/Start]", name))
			err := fn(ctx)
			zap.L().Debug(fmt.Sprintf("[Actor/%s/Finished]", name))
			return err
		},
		func(error) {
			cancel()
		},
	)
}

func (rc *RunContext) AddSignalHandler(signals ...os.Signal) {
	rc.Group.Add(run.SignalHandler(rc.Context, signals...))
}
