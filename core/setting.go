package core

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/oqtopus-team/oqtopus-grover/common"
	"go.uber.org/zap"
)

var globalSetting *Setting

// Setting holds component settings keyed by name. Every registered value must be
// a pointer; ParseSettingFromPath decodes the matching [com.<name>] table into it.
type Setting struct {
	ComponentSetting map[string]interface{}
}

type rawSetting struct {
	ComponentSetting map[string]toml.Primitive `toml:"com,omitempty"`
}

func ResetSetting() {
	globalSetting = newSetting()
}

func RegisterSetting(settingName string, settingVal interface{}) {
	globalSetting.registerSetting(settingName, settingVal)
}

func ParseSettingFromPath(settingsPath string) error {
	tomlString, err := common.ReadSettingsFile(settingsPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read setting file/reason:%s", err))
		return err
	}
	return globalSetting.parseSetting(tomlString)
}

func GetGlobalSetting() *Setting {
	return globalSetting
}

func GetComponentSetting(name string) (interface{}, bool) {
	if globalSetting == nil {
		zap.L().Error("Setting is not initialized")
		return nil, false
	}
	val, ok := globalSetting.ComponentSetting[name]
	return val, ok
}

func newSetting() *Setting {
	return &Setting{
		ComponentSetting: make(map[string]interface{}),
	}
}

func (s *Setting) registerSetting(settingName string, settingVal interface{}) {
	s.ComponentSetting[settingName] = settingVal
}

func (s *Setting) parseSetting(tomlString string) error {
	raw := &rawSetting{}
	md, err := toml.Decode(tomlString, raw)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse setting/reason:%s", err))
		return err
	}
	for name, prim := range raw.ComponentSetting {
		target, ok := s.ComponentSetting[name]
		if !ok {
			zap.L().Warn(fmt.Sprintf("unknown setting:%s is ignored", name))
			continue
		}
		if err := md.PrimitiveDecode(prim, target); err != nil {
			zap.L().Error(fmt.Sprintf("failed to decode setting:%s/reason:%s", name, err))
			return err
		}
	}
	zap.L().Debug(fmt.Sprintf("Setting is %v", s.ComponentSetting))
	return nil
}
