package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/oqtopus-team/oqtopus-grover/report"
	"github.com/oqtopus-team/oqtopus-grover/search"
)

// searchEntry is one [[search]] of a batch file.
type searchEntry struct {
	Name  string `toml:"name"`
	Shots int    `toml:"shots"`
	core.SearchParams
}

type outputOptions struct {
	Top     int  `long:"top" description:"number of ranked outcomes to print" default:"10"`
	Samples bool `long:"samples" description:"print the raw samples as JSON"`
}

type finishedSearch struct {
	name string
	job  core.Job
	err  error
}

// runSearches hands every entry to the scheduler and waits until all of them leave it.
// Cancelling ctx stops the running searches between rounds.
func runSearches(ctx context.Context, jm *core.JobManager, entries []searchEntry) ([]finishedSearch, error) {
	jc, err := core.NewJobContext()
	if err != nil {
		return nil, err
	}
	var sched core.Scheduler
	if err := core.GetSystemComponents().Invoke(func(s core.Scheduler) { sched = s }); err != nil {
		return nil, err
	}

	out := make([]finishedSearch, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		out[i].name = e.Name
		if ctx.Err() != nil {
			out[i].err = ctx.Err()
			continue
		}
		params := e.SearchParams
		job, err := jm.NewJobWithValidation(&core.JobParam{
			JobID:   uuid.NewString(),
			Shots:   e.Shots,
			Search:  &params,
			JobType: core.GROVER_JOB,
		}, jc)
		if err != nil {
			zap.L().Info(fmt.Sprintf("rejected search %s/reason:%s", e.Name, err))
			out[i].err = err
			continue
		}
		out[i].job = job
		wg.Add(1)
		sched.HandleJob(job, &wg)
	}
	wg.Wait()
	return out, nil
}

func printSearches(w io.Writer, results []finishedSearch, opts outputOptions) error {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := printSearch(w, r, opts); err != nil {
			return err
		}
	}
	return nil
}

func printSearch(w io.Writer, r finishedSearch, opts outputOptions) error {
	if r.name != "" {
		fmt.Fprintf(w, "== %s\n", r.name)
	}
	if r.err != nil {
		fmt.Fprintf(w, "rejected: %s\n", r.err)
		return nil
	}
	jd := r.job.JobData()
	fmt.Fprintf(w, "job %s %s: %s\n", jd.ID, jd.Status, jd.Result.Message)
	if jd.Status != core.SUCCEEDED {
		return nil
	}
	entries := report.Top(toEntries(jd.Result.Ranked), opts.Top)
	if err := report.Table(w, entries, jd.Search.Qubits, search.LabelsByIndex(jd.Search.Labels)); err != nil {
		return err
	}
	if opts.Samples {
		fmt.Fprintf(w, "samples: %s\n", report.EncodeSamples(jd.Result.Samples))
	}
	return nil
}

func toEntries(ranked []core.RankedOutcome) []report.Entry {
	entries := make([]report.Entry, 0, len(ranked))
	for _, o := range ranked {
		entries = append(entries, report.Entry{
			Index:     o.Index,
			Count:     int(o.Count),
			Frequency: o.Frequency,
			IsTarget:  o.IsTarget,
		})
	}
	return entries
}

// checkFailures reports how many searches did not succeed.
func checkFailures(results []finishedSearch) error {
	failed := 0
	for _, r := range results {
		if r.err != nil || r.job.JobData().Status != core.SUCCEEDED {
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d searches did not succeed", failed, len(results))
	}
	return nil
}
