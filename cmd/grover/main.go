package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"

	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/qpu"
	"github.com/oqtopus-team/oqtopus-grover/scheduler"
	"github.com/oqtopus-team/oqtopus-grover/search"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var grover *Grover

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	}
	grover = &Grover{}
	setParser(grover)
}

type Grover struct {
	Conf *core.Conf
}

func setParser(g *Grover) {
	parser = flags.NewParser(g, flags.Default)
	parser.ShortDescription = "grover search engine"
	parser.LongDescription = "amplitude-amplification search over n-qubit basis states on a statevector engine."
	parser.AddCommand("search", "run one search", "run one search and print the ranked outcomes", &searchCmd{})
	parser.AddCommand("batch", "run searches from a file", "run every [[search]] of a TOML file through the scheduler", &batchCmd{})
	parser.AddCommand("qasm", "print a search circuit", "print the gate-level search circuit in OpenQASM 3", &qasmCmd{})
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Fprintf(os.Stderr, "failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

func main() {
	parse()
}

func (g *Grover) provideDIContainer() (*dig.Container, error) {
	c := dig.New()
	b, err := qpu.NewBackend(g.Conf.Backend)
	if err != nil {
		return nil, err
	}
	if err := c.Provide(func() qpu.Backend { return b }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.BackendManager { return b }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.Scheduler { return &scheduler.NormalScheduler{} }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.DBManager { return &core.MemoryDB{} }); err != nil {
		return nil, err
	}
	return c, nil
}

// startCore registers the job types and starts the scheduler worker.
func startCore(conf *core.Conf) (*core.JobManager, error) {
	jm, err := core.NewJobManager(&search.GroverJob{})
	if err != nil {
		return nil, err
	}
	if err := core.GetSystemComponents().StartContainer(); err != nil {
		return nil, err
	}
	core.SetInfo(conf)
	return jm, nil
}

func zapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder //Not use UnixTime
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	var level zap.AtomicLevel
	switch conf.LogLevel {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotater, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return &zap.Logger{}, err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotater), level))
	}
	if !conf.DisableStdoutLog {
		// stdout carries the report, so logs go to stderr
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return &rotate.RotateLogs{}, fmt.Errorf("directory:%s is not found", dirPath)
	}
	if info.Mode().Perm()&(1<<uint(7)) == 0 {
		return &rotate.RotateLogs{}, fmt.Errorf("%s is not a writable directory", dirPath)
	}
	return rotate.New(
		filepath.Join(dirPath, "grover-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
}

func setZap(conf *core.Conf) (*zap.Logger, error) {
	logger, err := zapLogger(conf)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	zap.L().Debug(fmt.Sprintf("DevMode is %t", conf.DevMode))
	zap.L().Debug(fmt.Sprintf("Log rotation max days is %d", conf.LogRotationMaxDays))
	return logger, nil
}

func registerSetting(conf *core.Conf) {
	core.RegisterSetting(qpu.EngineSettingName, qpu.NewEngineSetting())
	core.RegisterSetting(qpu.DeviceSettingName, qpu.NewDeviceSetting())
	ds := search.NewDriverSetting()
	if conf.IterationCeiling > 0 {
		ds.IterationCeiling = conf.IterationCeiling
	}
	core.RegisterSetting(search.DriverSettingName, ds)
}

// loadSetting parses the component settings. A missing file leaves the defaults in place.
func loadSetting(conf *core.Conf) error {
	core.ResetSetting()
	registerSetting(conf)
	if _, err := os.Stat(conf.SettingPath); os.IsNotExist(err) {
		zap.L().Info(fmt.Sprintf("no setting file at %s, using defaults", conf.SettingPath))
		return nil
	}
	if err := core.ParseSettingFromPath(conf.SettingPath); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return err
	}
	return nil
}

// prepare sets up logging, settings and the system components shared by every command.
func prepare(conf *core.Conf) (*zap.Logger, *core.SystemComponents, error) {
	logger, err := setZap(conf)
	if err != nil {
		return nil, nil, err
	}
	if err := loadSetting(conf); err != nil {
		return logger, nil, err
	}
	core.SetVersion(conf, versionByBuildFlag)

	container, err := grover.provideDIContainer()
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to set up DI container/reason:%s", err))
		return logger, nil, err
	}
	s := core.NewSystemComponents(container)
	if err := s.Setup(conf); err != nil {
		zap.L().Error(fmt.Sprintf("failed to set up system components/reason:%s", err))
		return logger, nil, err
	}
	return logger, s, nil
}
