package scheduler

import (
	"fmt"
	"sync"

	conq "github.com/enriquebris/goconcurrentqueue"
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/oqtopus-grover/core"
	"go.uber.org/zap"
)

type queueChan chan *jobInScheduler

type fifo interface {
	Enqueue(*jobInScheduler) error
	Dequeue() (*jobInScheduler, error)
	DequeueOrWaitForNextElement() (*jobInScheduler, error)
	Get(index int) (*jobInScheduler, error)
	GetLen() int
	Remove(index int) error
}

type conqFIFO struct {
	*conq.FIFO
}

func newConqFIFO() *conqFIFO {
	return &conqFIFO{
		FIFO: conq.NewFIFO(),
	}
}

func (c *conqFIFO) Enqueue(js *jobInScheduler) error {
	return c.FIFO.Enqueue(js)
}

func (c *conqFIFO) Dequeue() (*jobInScheduler, error) {
	tmp, err := c.FIFO.Dequeue()
	if err != nil {
		return nil, err
	}
	return tmp.(*jobInScheduler), nil
}

func (c *conqFIFO) DequeueOrWaitForNextElement() (*jobInScheduler, error) {
	tmp, err := c.FIFO.DequeueOrWaitForNextElement()
	if err != nil {
		return nil, err
	}
	return tmp.(*jobInScheduler), nil
}

func (c *conqFIFO) Get(index int) (*jobInScheduler, error) {
	tmp, err := c.FIFO.Get(index)
	if err != nil {
		return nil, err
	}
	return tmp.(*jobInScheduler), nil
}

func (c *conqFIFO) GetLen() int {
	return c.FIFO.GetLen()
}

func (c *conqFIFO) Remove(index int) error {
	return c.FIFO.Remove(index)
}

// NormalQueue receives jobs on queueChan and keeps them in FIFO order until the worker
// dequeues them.
type NormalQueue struct {
	fifo       fifo
	maxSize    int
	queueChan  queueChan
	cancelChan chan struct{}
	done       sync.WaitGroup
}

func (n *NormalQueue) Setup(conf *core.Conf) error {
	n.maxSize = conf.QueueMaxSize
	if n.maxSize <= 0 {
		return errors.Errorf("queue max size(%d) must be greater than 0", n.maxSize)
	}
	n.fifo = newConqFIFO()
	n.queueChan = make(queueChan)
	n.cancelChan = make(chan struct{})
	n.done.Add(1)
	go func() {
		defer n.done.Done()
		for {
			var jis *jobInScheduler
			select {
			case <-n.cancelChan:
				return
			case jis = <-n.queueChan:
			}
			n.put(jis)
		}
	}()
	return nil
}

func (n *NormalQueue) put(jis *jobInScheduler) {
	jd := jis.job.JobData()
	if n.maxSize <= n.fifo.GetLen() {
		msg := core.SetFailureWithError(jis.job, errors.Errorf("queue is full(%d)", n.maxSize))
		zap.L().Info(fmt.Sprintf("failed to put %s/reason:%s", jd.ID, msg))
		jis.finished.Done()
		return
	}
	zap.L().Debug(fmt.Sprintf("putting %s to normalQueue", jd.ID))
	if err := n.fifo.Enqueue(jis); err != nil {
		msg := core.SetFailureWithError(jis.job, err)
		zap.L().Error(fmt.Sprintf("failed to put %s to normalQueue/reason:%s", jd.ID, msg))
		jis.finished.Done()
	}
}

// TearDown stops receiving jobs and wakes a waiting worker with an empty element.
func (n *NormalQueue) TearDown() {
	close(n.cancelChan)
	n.done.Wait()
	if err := n.fifo.Enqueue((*jobInScheduler)(nil)); err != nil {
		zap.L().Error(fmt.Sprintf("failed to wake the worker/reason:%s", err))
	}
}

// Dequeue returns the head of the queue. With wait, it blocks until an element is enqueued.
func (n *NormalQueue) Dequeue(wait bool) (jis *jobInScheduler, err error) {
	if wait {
		jis, err = n.fifo.DequeueOrWaitForNextElement()
	} else {
		jis, err = n.fifo.Dequeue()
	}
	if err != nil {
		zap.L().Debug("no job in NormalQueue.", zap.Error(err))
		return nil, err
	}
	if jis != nil {
		zap.L().Debug(fmt.Sprintf("dequeued job:%s", jis.job.JobData().ID))
	}
	return jis, nil
}

func (n *NormalQueue) Delete(jobID string) error {
	zap.L().Debug(fmt.Sprintf("deleting %s from normalQueue", jobID))
	idx, err := n.getIdx(jobID)
	if err != nil {
		zap.L().Info(fmt.Sprintf("failed to delete %s/reason:%s", jobID, err))
		return err
	}
	if err := n.fifo.Remove(idx); err != nil {
		zap.L().Error(fmt.Sprintf("failed to remove idx:%d/reason:%s", idx, err))
		return err
	}
	return nil
}

func (n *NormalQueue) GetCurrentSize() int {
	return n.fifo.GetLen()
}

func (n *NormalQueue) getIdx(jobID string) (int, error) {
	for i := 0; i < n.fifo.GetLen(); i++ {
		js, err := n.fifo.Get(i)
		if err == nil && js != nil {
			if js.job.JobData().ID == jobID {
				return i, nil
			}
		}
	}
	return 0, errors.Errorf("no entry for %s", jobID)
}
