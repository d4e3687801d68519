package log

import (
	"fmt"

	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/zap"
)

const VersionLogTaskName = "version_log"

type VersionLogTaskImpl struct {
	core.DefaultTaskImpl
}

func (v *VersionLogTaskImpl) Task() {
	zap.L().Info(fmt.Sprintf("grover version:%s", core.Version))
}

// PeriodicTasks maps the task names accepted under [run_group.periodic_tasks] to fresh impls.
func PeriodicTasks() core.PeriodicTaskImplMap {
	return core.PeriodicTaskImplMap{
		VersionLogTaskName: &VersionLogTaskImpl{},
		MetricsLogTaskName: &MetricsLogTaskImpl{},
	}
}
