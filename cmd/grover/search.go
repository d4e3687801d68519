package main

import (
	"context"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/oqtopus-team/oqtopus-grover/core"
)

type searchCmd struct {
	Qubits     int            `long:"qubits" short:"n" description:"register width" required:"true"`
	Targets    []int          `long:"target" short:"t" description:"target index (repeatable)" required:"true"`
	Shots      int            `long:"shots" description:"number of samples" default:"1000"`
	Seed       int64          `long:"seed" description:"random seed (0: time based)" default:"0"`
	Mode       string         `long:"mode" description:"oracle mode" default:"target" choice:"target" choice:"candidate"`
	Iterations int            `long:"iterations" description:"rounds to run (0: optimal)" default:"0"`
	Labels     map[string]int `long:"label" description:"label for an index as name:index (repeatable)"`

	HammingWeight int `long:"hamming-weight" description:"keep indices of this weight (-1: off)" default:"-1"`
	MinWeight     int `long:"min-weight" description:"lower weight bound (-1: off)" default:"-1"`
	MaxWeight     int `long:"max-weight" description:"upper weight bound (-1: off)" default:"-1"`
	NearSlack     int `long:"near-slack" description:"weight slack around the targets (-1: off)" default:"-1"`
	NearDistance  int `long:"near-distance" description:"hamming distance to a target (-1: off)" default:"-1"`
	MaxCandidates int `long:"max-candidates" description:"candidate limit (0: none)" default:"0"`

	Output outputOptions `group:"output"`
}

func (c *searchCmd) params() core.SearchParams {
	p := core.SearchParams{
		Qubits:     c.Qubits,
		Targets:    c.Targets,
		Mode:       c.Mode,
		Iterations: c.Iterations,
		Seed:       c.Seed,
		Labels:     c.Labels,
	}
	if pf := c.prefilter(); pf != nil {
		p.Prefilter = pf
	}
	return p
}

// prefilter returns nil when no constraint flag is set.
func (c *searchCmd) prefilter() *core.PrefilterSpec {
	pf := &core.PrefilterSpec{MaxCandidates: c.MaxCandidates}
	set := c.MaxCandidates > 0
	if c.HammingWeight >= 0 {
		pf.HammingWeight = intPtr(c.HammingWeight)
		set = true
	}
	if c.MinWeight >= 0 {
		pf.MinWeight = intPtr(c.MinWeight)
		set = true
	}
	if c.MaxWeight >= 0 {
		pf.MaxWeight = intPtr(c.MaxWeight)
		set = true
	}
	if c.NearSlack >= 0 || c.NearDistance >= 0 {
		// an unset bound is as loose as the register allows
		pf.NearTargets = &core.NearTargetsSpec{WeightSlack: c.Qubits, MaxDistance: c.Qubits}
		if c.NearSlack >= 0 {
			pf.NearTargets.WeightSlack = c.NearSlack
		}
		if c.NearDistance >= 0 {
			pf.NearTargets.MaxDistance = c.NearDistance
		}
		set = true
	}
	if !set {
		return nil
	}
	return pf
}

func intPtr(v int) *int {
	return &v
}

func (c *searchCmd) Execute(args []string) error {
	logger, s, err := prepare(grover.Conf)
	if logger != nil {
		defer logger.Sync()
	}
	if err != nil {
		return err
	}
	defer s.TearDown()

	jm, err := startCore(grover.Conf)
	if err != nil {
		zap.L().Error(err.Error())
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rc := core.NewRunContext()
	rc.Context = ctx
	core.SetRunContext(rc)

	results, err := runSearches(ctx, jm, []searchEntry{{Shots: c.Shots, SearchParams: c.params()}})
	if err != nil {
		return err
	}
	if err := printSearches(os.Stdout, results, c.Output); err != nil {
		return err
	}
	return checkFailures(results)
}
