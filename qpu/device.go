package qpu

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/circuit"
	"github.com/oqtopus-team/oqtopus-grover/common"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/statevec"
	"go.uber.org/zap"
)

const (
	DeviceSettingName = "device"
	EngineSettingName = "engine"
)

// DeviceSetting is decoded from [com.device].
type DeviceSetting struct {
	DeviceName   string       `toml:"device_name"`
	ProviderName string       `toml:"provider_name"`
	MaxShots     int          `toml:"max_shots"`
	MaxQubits    int          `toml:"max_qubits"`
	GateSupport  *GateSupport `toml:"gate_support"`
}

type GateSupport struct {
	AllowList *GateFilter `toml:"allow_list"`
	DenyList  *GateFilter `toml:"deny_list"`
}

type GateFilter struct {
	Enabled bool     `toml:"enabled"`
	Gates   []string `toml:"gates"`
}

func NewDeviceSetting() *DeviceSetting {
	return &DeviceSetting{
		GateSupport: NewGateSupport(),
	}
}

func NewGateSupport() *GateSupport {
	return &GateSupport{
		AllowList: &GateFilter{},
		DenyList:  &GateFilter{},
	}
}

func NewGateSupportWithAllowList(f *GateFilter) *GateSupport {
	return &GateSupport{
		AllowList: f,
		DenyList:  &GateFilter{},
	}
}

func NewGateSupportWithDenyList(f *GateFilter) *GateSupport {
	return &GateSupport{
		AllowList: &GateFilter{},
		DenyList:  f,
	}
}

// EngineSetting is decoded from [com.engine].
type EngineSetting struct {
	Epsilon   float64 `toml:"epsilon"`
	MaxQubits int     `toml:"max_qubits"`
	ChunkSize int     `toml:"chunk_size"`
	Workers   int     `toml:"workers"`
}

func NewEngineSetting() *EngineSetting {
	return &EngineSetting{}
}

// Options returns the engine options for the non-zero fields except MaxQubits.
func (e *EngineSetting) Options() []statevec.Option {
	opts := []statevec.Option{}
	if e.Epsilon > 0 {
		opts = append(opts, statevec.WithEpsilon(e.Epsilon))
	}
	if e.ChunkSize > 0 {
		opts = append(opts, statevec.WithChunkSize(e.ChunkSize))
	}
	if e.Workers > 0 {
		opts = append(opts, statevec.WithWorkers(e.Workers))
	}
	return opts
}

// GetDeviceSetting returns the registered [com.device] setting, or the default one.
func GetDeviceSetting() *DeviceSetting {
	if v, ok := core.GetComponentSetting(DeviceSettingName); ok {
		if ds, ok := v.(*DeviceSetting); ok {
			if ds.GateSupport == nil {
				ds.GateSupport = NewGateSupport()
			}
			return ds
		}
		zap.L().Warn(fmt.Sprintf("setting %s has unexpected type %T", DeviceSettingName, v))
	}
	return NewDeviceSetting()
}

func GetEngineSetting() *EngineSetting {
	if v, ok := core.GetComponentSetting(EngineSettingName); ok {
		if es, ok := v.(*EngineSetting); ok {
			return es
		}
		zap.L().Warn(fmt.Sprintf("setting %s has unexpected type %T", EngineSettingName, v))
	}
	return NewEngineSetting()
}

// ValidateCircuit checks c against the device: it must be available, fit the register and use
// only supported gates.
func ValidateCircuit(c *circuit.Circuit, di *core.DeviceInfo, ds *DeviceSetting) error {
	if c == nil {
		return errors.New("no input circuit")
	}
	if di.Status != core.Available {
		msg := fmt.Sprintf("device is not available. status:%s", di.Status)
		zap.L().Info(msg)
		return errors.New(msg)
	}
	if c.Qubits() > di.MaxQubits {
		return errors.Wrapf(core.ErrCapacityExceeded, "too many qubits in the circuit, the device has %d", di.MaxQubits)
	}
	if ds == nil || ds.GateSupport == nil {
		return nil
	}
	if f := ds.GateSupport.AllowList; f != nil && f.Enabled {
		if err := filterGates(c, f.Gates, false); err != nil {
			zap.L().Info(fmt.Sprintf("[AllowList Error] %s", err))
			return err
		}
	}
	if f := ds.GateSupport.DenyList; f != nil && f.Enabled {
		if err := filterGates(c, f.Gates, true); err != nil {
			zap.L().Info(fmt.Sprintf("[DenyList Error] %s", err))
			return err
		}
	}
	return nil
}

func filterGates(c *circuit.Circuit, list []string, returnIfFiltered bool) error {
	names := make(map[string]struct{}, len(list))
	for _, g := range list {
		names[common.NormalizeName(g)] = struct{}{}
	}
	for _, g := range c.Gates() {
		_, listed := names[common.NormalizeName(g.Name)]
		if listed == returnIfFiltered {
			return errors.Errorf("gate:%s is not supported", g.Name)
		}
	}
	return nil
}
