package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/oklog/run"
	"go.uber.org/zap"

	"github.com/oqtopus-team/oqtopus-grover/common"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/log"
)

type batchCmd struct {
	Jobs   string        `long:"jobs" description:"TOML file with [[search]] entries" required:"true"`
	Output outputOptions `group:"output"`
}

type batchFile struct {
	Search []searchEntry `toml:"search"`
}

func loadBatch(tomlString string) ([]searchEntry, error) {
	f := &batchFile{}
	md, err := toml.Decode(tomlString, f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode batch file")
	}
	if un := md.Undecoded(); len(un) > 0 {
		zap.L().Warn(fmt.Sprintf("ignored keys in batch file:%v", un))
	}
	if len(f.Search) == 0 {
		return nil, errors.New("no [[search]] entry in batch file")
	}
	for i := range f.Search {
		if f.Search[i].Name == "" {
			f.Search[i].Name = fmt.Sprintf("search-%d", i+1)
		}
	}
	return f.Search, nil
}

// newRunContext builds the run group from the setting file, falling back to an empty one
// when there is no file.
func newRunContext(settingPath string) (*core.RunContext, error) {
	if _, err := os.Stat(settingPath); os.IsNotExist(err) {
		return core.NewRunContext(), nil
	}
	return core.NewRunContextWithSettingPath(settingPath, log.PeriodicTasks())
}

func (c *batchCmd) Execute(args []string) error {
	logger, s, err := prepare(grover.Conf)
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer s.TearDown()

	tomlString, err := common.ReadFile(c.Jobs)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read %s/reason:%s", c.Jobs, err))
		return err
	}
	entries, err := loadBatch(tomlString)
	if err != nil {
		return err
	}

	jm, err := startCore(grover.Conf)
	if err != nil {
		zap.L().Error(err.Error())
		return err
	}
	rc, err := newRunContext(grover.Conf.SettingPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to set up run context/reason:%s", err))
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc.Context = ctx
	core.SetRunContext(rc)

	var results []finishedSearch
	rc.AddActor("batch", func(context.Context) error {
		var err error
		results, err = runSearches(ctx, jm, entries)
		return err
	})
	// cancels the searches when any member of the group returns
	rc.Add(func() error {
		<-ctx.Done()
		return nil
	}, func(error) {
		cancel()
	})
	rc.AddSignalHandler(os.Interrupt)

	zap.L().Info(fmt.Sprintf("running %d searches", len(entries)))
	if err := rc.Run(); err != nil {
		var se run.SignalError
		if !errors.As(err, &se) {
			zap.L().Error(fmt.Sprintf("batch run failed/reason:%s", err))
			return err
		}
		zap.L().Info(fmt.Sprintf("batch interrupted/reason:%s", err))
	}
	if results == nil {
		return errors.New("batch stopped before any search ran")
	}
	if err := printSearches(os.Stdout, results, c.Output); err != nil {
		return err
	}
	return checkFailures(results)
}
