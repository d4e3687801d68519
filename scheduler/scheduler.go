package scheduler

import (
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/zap"
)

type statusHistory map[string][]core.Status

type statusManager struct {
	mu      sync.RWMutex
	history statusHistory
}

func newStatusManager() *statusManager {
	return &statusManager{history: make(statusHistory)}
}

func (s *statusManager) record(jobID string, st core.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[jobID] = append(s.history[jobID], st)
}

func (s *statusManager) Get(jobID string) []core.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Status, len(s.history[jobID]))
	copy(out, s.history[jobID])
	return out
}

func (s *statusManager) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, jobID)
}

// NormalScheduler pre-processes jobs concurrently but processes them one at a time in
// arrival order, so two searches never hold a register at the same time.
type NormalScheduler struct {
	queue         *NormalQueue
	statusManager *statusManager
	keepHistory   bool
	worker        sync.WaitGroup
}

type jobInScheduler struct {
	job      core.Job
	finished *sync.WaitGroup
}

func (n *NormalScheduler) Setup(conf *core.Conf) error {
	n.queue = &NormalQueue{}
	if err := n.queue.Setup(conf); err != nil {
		return err
	}
	n.statusManager = newStatusManager()
	return nil
}

func (n *NormalScheduler) Start() error {
	if n.queue == nil {
		return errors.New("scheduler is not set up")
	}
	n.worker.Add(1)
	go func() {
		defer n.worker.Done()
		for {
			zap.L().Debug("checking the queue...")
			jis, err := n.queue.Dequeue(true)
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to get a job from queue/reason:%s", err))
				continue
			}
			if jis == nil {
				zap.L().Debug("scheduler worker is stopped")
				return
			}
			n.process(jis)
		}
	}()
	return nil
}

func (n *NormalScheduler) process(jis *jobInScheduler) {
	defer jis.finished.Done()
	j := jis.job
	jid := j.JobData().ID
	defer func() {
		if r := recover(); r != nil {
			msg := core.SetFailureWithError(j, errors.Errorf("panic in process: %v", r))
			zap.L().Error(fmt.Sprintf("recovered job(%s)/reason:%s", jid, msg))
		}
	}()
	zap.L().Debug(fmt.Sprintf("processing job:%s", jid))
	n.update(j, core.RUNNING)
	j.JobContext().DBChan <- j.Clone()
	j.Process()
	zap.L().Debug(fmt.Sprintf("finished to process job(%s), status:%s", jid, j.JobData().Status))
}

func (n *NormalScheduler) update(j core.Job, st core.Status) {
	j.JobData().Status = st
	n.statusManager.record(j.JobData().ID, st)
}

// HandleJob runs the lifecycle of j in a new goroutine. wg, when not nil, is done once j
// has left the scheduler.
func (n *NormalScheduler) HandleJob(j core.Job, wg *sync.WaitGroup) {
	zap.L().Debug(fmt.Sprintf("starting to handle job(%s) in %s", j.JobData().ID, j.JobData().Status))
	go func() {
		defer func() {
			jid := j.JobData().ID
			zap.L().Debug(fmt.Sprintf("status history job(%s): %v", jid, n.statusManager.Get(jid)))
			if !n.keepHistory {
				n.statusManager.Delete(jid)
			}
			if wg != nil {
				wg.Done()
			}
		}()
		n.handleImpl(j)
	}()
}

func (n *NormalScheduler) handleImpl(j core.Job) {
	jid := j.JobData().ID
	for {
		st := j.JobData().Status
		n.statusManager.record(jid, st)
		zap.L().Debug(fmt.Sprintf("handling job(%s) in %s", jid, st))
		if st != core.READY {
			zap.L().Error(fmt.Sprintf("finished to handle job(%s) with unexpected status:%s", jid, st))
			return
		}
		j.PreProcess()
		j.JobContext().DBChan <- j.Clone()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after pre-processing", jid))
			n.statusManager.record(jid, j.JobData().Status)
			return
		}
		var wg sync.WaitGroup
		wg.Add(1)
		n.queue.queueChan <- &jobInScheduler{
			job:      j,
			finished: &wg,
		}
		wg.Wait()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after processing with status:%s", jid, j.JobData().Status))
			n.statusManager.record(jid, j.JobData().Status)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		j.PostProcess()
		if j.IsFinished() {
			zap.L().Debug(fmt.Sprintf("finished to handle job(%s) after post-processing with status:%s", jid, j.JobData().Status))
			n.statusManager.record(jid, j.JobData().Status)
			j.JobContext().DBChan <- j.Clone()
			return
		}
		zap.L().Debug(fmt.Sprintf("one more loop for job(%s)", jid))
	}
}

func (n *NormalScheduler) GetCurrentQueueSize() int {
	if n.queue == nil {
		return 0
	}
	return n.queue.GetCurrentSize()
}

// TearDown stops the queue and waits for the worker to return.
func (n *NormalScheduler) TearDown() {
	if n.queue == nil {
		return
	}
	n.queue.TearDown()
	n.worker.Wait()
}
