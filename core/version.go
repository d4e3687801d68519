package core

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// Version is the resolved grover version, shown by the version log task and the CLI.
var Version string

const NoVersion = "no_version_info"

// develVersion is what the toolchain records for a binary built from a working tree.
const develVersion = "(devel)"

var readBuildInfo = debug.ReadBuildInfo

// SetVersion resolves Version from the -ldflags value, then the config file, then the
// module version stamped by `go install`.
func SetVersion(c *Conf, versionByBuildFlag string) {
	switch {
	case versionByBuildFlag != "":
		Version = versionByBuildFlag
	case c != nil && c.Version != "":
		Version = c.Version
	default:
		Version = moduleVersion()
	}
	zap.L().Info(fmt.Sprintf("resolved grover version/version:%s", Version))
}

func moduleVersion() string {
	info, ok := readBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == develVersion {
		return NoVersion
	}
	return info.Main.Version
}
