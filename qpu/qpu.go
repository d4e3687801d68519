package qpu

import (
	"fmt"
	"math/rand"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"go.uber.org/zap"
)

const (
	LocalDeviceName   = "LocalSimulator"
	DummyDeviceName   = "DummyQPU"
	DummyProviderName = "DummyProvider"
	LocalProviderName = "oqtopus"
)

//go:generate mockgen -destination=mock_sampler.go -package=qpu github.com/oqtopus-team/oqtopus-grover/statevec Sampler

// Backend supplies the engine a search runs on and the sampler that measures it.
type Backend interface {
	Setup(*core.Conf) error
	Engine() *statevec.Engine
	Sampler() statevec.Sampler
	GetDeviceInfo() *core.DeviceInfo
}

// NewBackend returns the backend selected by name.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "local", "":
		return &LocalSimulator{}, nil
	case "dummy":
		return &DummyQPU{}, nil
	default:
		return nil, errors.Errorf("unknown backend:%s", name)
	}
}

// LocalSimulator samples the amplified register through the statevector engine.
type LocalSimulator struct {
	engine        *statevec.Engine
	deviceSetting *DeviceSetting
	maxShots      int
}

func (l *LocalSimulator) Setup(conf *core.Conf) error {
	zap.L().Debug("setting up local simulator")
	engine, ds, err := setupEngine(conf)
	if err != nil {
		return err
	}
	l.engine = engine
	l.deviceSetting = ds
	l.maxShots = maxShots(conf, ds)
	return nil
}

func (l *LocalSimulator) Engine() *statevec.Engine {
	return l.engine
}

func (l *LocalSimulator) Sampler() statevec.Sampler {
	return l.engine
}

func (l *LocalSimulator) DeviceSetting() *DeviceSetting {
	return l.deviceSetting
}

func (l *LocalSimulator) GetDeviceInfo() *core.DeviceInfo {
	return deviceInfo(l.engine, l.deviceSetting, LocalDeviceName, LocalProviderName, "simulator", l.maxShots)
}

// DummyQPU draws indices uniformly from [0, 2^n) and ignores the amplitudes. It is the
// no-amplification baseline a search result can be compared against.
type DummyQPU struct {
	engine        *statevec.Engine
	deviceSetting *DeviceSetting
	maxShots      int
}

func (d *DummyQPU) Setup(conf *core.Conf) error {
	zap.L().Debug("setting up Dummy-QPU")
	engine, ds, err := setupEngine(conf)
	if err != nil {
		return err
	}
	d.engine = engine
	d.deviceSetting = ds
	d.maxShots = maxShots(conf, ds)
	return nil
}

func (d *DummyQPU) Engine() *statevec.Engine {
	return d.engine
}

func (d *DummyQPU) Sampler() statevec.Sampler {
	return UniformSampler{}
}

func (d *DummyQPU) DeviceSetting() *DeviceSetting {
	return d.deviceSetting
}

func (d *DummyQPU) GetDeviceInfo() *core.DeviceInfo {
	return deviceInfo(d.engine, d.deviceSetting, DummyDeviceName, DummyProviderName, "DummyQPU", d.maxShots)
}

type UniformSampler struct{}

func (UniformSampler) Sample(reg *statevec.Register, rng *rand.Rand, count int) ([]int, error) {
	if reg == nil {
		return nil, errors.New("register is nil")
	}
	if rng == nil {
		return nil, errors.New("rng is nil")
	}
	if count < 0 {
		return nil, errors.Wrapf(core.ErrOutOfRange, "sample count(%d) must not be negative", count)
	}
	samples := make([]int, count)
	for i := range samples {
		samples[i] = rng.Intn(reg.Len())
	}
	zap.L().Debug(fmt.Sprintf("[Dummy] drew %d uniform samples over %d states", count, reg.Len()))
	return samples, nil
}

// setupEngine builds the engine from conf. Non-zero values of [com.engine] override conf and
// [com.device] max_qubits caps the register width.
func setupEngine(conf *core.Conf) (*statevec.Engine, *DeviceSetting, error) {
	ds := GetDeviceSetting()
	es := GetEngineSetting()
	maxQubits := conf.MaxQubits
	if es.MaxQubits > 0 {
		maxQubits = es.MaxQubits
	}
	if ds.MaxQubits > 0 && (maxQubits <= 0 || ds.MaxQubits < maxQubits) {
		maxQubits = ds.MaxQubits
	}
	if maxQubits < 0 {
		return nil, nil, errors.Wrapf(core.ErrOutOfRange, "max qubits(%d) must not be negative", maxQubits)
	}
	opts := []statevec.Option{
		statevec.WithEpsilon(conf.Epsilon),
		statevec.WithWorkers(conf.Workers),
		statevec.WithMaxQubits(maxQubits),
	}
	engine := statevec.NewEngine(append(opts, es.Options()...)...)
	zap.L().Debug(fmt.Sprintf("engine is ready/epsilon:%g/workers:%d/max qubits:%d/memory limit:%d",
		engine.Epsilon(), engine.Workers(), engine.MaxQubits(), engine.MemoryLimit()))
	return engine, ds, nil
}

func maxShots(conf *core.Conf, ds *DeviceSetting) int {
	if ds.MaxShots > 0 {
		return ds.MaxShots
	}
	return conf.DeviceMaxShots
}

func deviceInfo(engine *statevec.Engine, ds *DeviceSetting, name, provider, deviceType string, shots int) *core.DeviceInfo {
	if engine == nil {
		return &core.DeviceInfo{Status: core.Unavailable}
	}
	if ds.DeviceName != "" {
		name = ds.DeviceName
	}
	if ds.ProviderName != "" {
		provider = ds.ProviderName
	}
	return &core.DeviceInfo{
		DeviceName:   name,
		ProviderName: provider,
		Type:         deviceType,
		Status:       core.Available,
		MaxQubits:    engine.MaxQubits(),
		MaxShots:     shots,
		MemoryLimit:  engine.MemoryLimit(),
	}
}
