package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

type MemoryDB struct {
	dbMap  map[string]Job
	dbChan <-chan Job
	mu     sync.RWMutex
}

func (d *MemoryDB) Setup(dbc DBChan, c *Conf) error {
	d.dbMap = make(map[string]Job)
	d.dbChan = dbc
	if dbc == nil {
		return nil
	}
	go func() {
		for job := range d.dbChan {
			if job == nil {
				continue
			}
			zap.L().Debug(fmt.Sprintf("[MemoryDB] Received %s/status:%s", job.JobData().ID, job.JobData().Status))
			if err := d.Update(job); err != nil {
				zap.L().Error(fmt.Sprintf("failed to update a job(%s). Reason:%s",
					job.JobData().ID, err.Error()))
			}
		}
		zap.L().Debug("[MemoryDB] DBChan is closed")
	}()
	return nil
}

func (d *MemoryDB) Insert(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := j.JobData().ID
	if _, ok := d.dbMap[id]; ok {
		return errors.Wrapf(ErrJobIDConflict, "jobID:%s", id)
	}
	d.dbMap[id] = j
	return nil
}

func (d *MemoryDB) Get(jobID string) (Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if val, ok := d.dbMap[jobID]; ok {
		return val, nil
	}
	err := fmt.Errorf("not found %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return nil, err
}

func (d *MemoryDB) Update(j Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dbMap[j.JobData().ID] = j
	return nil
}

func (d *MemoryDB) Delete(jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.dbMap[jobID]; ok {
		delete(d.dbMap, jobID)
		zap.L().Info(fmt.Sprintf("[MemoryDB] deleted %s from DB", jobID))
		return nil
	}
	err := fmt.Errorf("failed to find %s", jobID)
	zap.L().Info("[MemoryDB]", zap.Error(err))
	return err
}

// List returns the stored jobs ordered by creation time, then by ID.
func (d *MemoryDB) List() []Job {
	d.mu.RLock()
	defer d.mu.RUnlock()
	jobs := make([]Job, 0, len(d.dbMap))
	for _, j := range d.dbMap {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(a, b int) bool {
		ja, jb := jobs[a].JobData(), jobs[b].JobData()
		ta, tb := time.Time(ja.Created), time.Time(jb.Created)
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return ja.ID < jb.ID
	})
	return jobs
}
