//go:build unit
// +build unit

package scheduler

import (
	"sync"
	"testing"

	"github.com/oqtopus-team/oqtopus-grover/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestFIFO struct {
	conqFIFO
	queuedChan chan struct{}
}

func newTestFIFO(queuedChan chan struct{}) *TestFIFO {
	return &TestFIFO{
		conqFIFO:   *newConqFIFO(),
		queuedChan: queuedChan,
	}
}

func (t *TestFIFO) Enqueue(js *jobInScheduler) error {
	err := t.FIFO.Enqueue(js)
	if js != nil {
		t.queuedChan <- struct{}{}
	}
	return err
}

func setUpTestNormalQueue(t *testing.T, maxSize int, queuedChan chan struct{}) *NormalQueue {
	n := &NormalQueue{}
	require.Nil(t, n.Setup(&core.Conf{QueueMaxSize: maxSize}))
	n.fifo = newTestFIFO(queuedChan)
	return n
}

func tearDownTestNormalQueue(n *NormalQueue) {
	n.TearDown()
	close(n.fifo.(*TestFIFO).queuedChan)
}

func TestQueueSetupRejectsZeroSize(t *testing.T) {
	n := &NormalQueue{}
	assert.EqualError(t, n.Setup(&core.Conf{}), "queue max size(0) must be greater than 0")
}

func TestPutNormalQueue(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	queuedChan := make(chan struct{})
	n := setUpTestNormalQueue(t, 1000, queuedChan)
	defer tearDownTestNormalQueue(n)

	n.queueChan <- newjobInScheduler(t, "test1", nil)
	<-queuedChan
	assert.Equal(t, 1, n.GetCurrentSize())
	js, err := n.Dequeue(false)
	assert.Nil(t, err)
	assert.Equal(t, "test1", js.job.JobData().ID)
}

func TestNormalQueueDelete(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	queuedChan := make(chan struct{})
	n := setUpTestNormalQueue(t, 1000, queuedChan)
	defer tearDownTestNormalQueue(n)

	for i, id := range []string{"test1", "test2", "test3", "test4"} {
		n.queueChan <- newjobInScheduler(t, id, nil)
		<-queuedChan
		assert.Equal(t, i+1, n.GetCurrentSize())
	}

	assert.Nil(t, n.Delete("test3"))
	assert.Equal(t, 3, n.GetCurrentSize())
	assert.EqualError(t, n.Delete("test3"), "no entry for test3")

	for _, want := range []string{"test1", "test2", "test4"} {
		jis, err := n.Dequeue(false)
		assert.Nil(t, err)
		assert.Equal(t, want, jis.job.JobData().ID)
	}
	jis, err := n.Dequeue(false)
	assert.EqualError(t, err, "empty queue")
	assert.Nil(t, jis)
}

func TestFullQueueFailsJob(t *testing.T) {
	s := core.SCWithUnimplementedContainer()
	defer s.TearDown()
	queuedChan := make(chan struct{})
	n := setUpTestNormalQueue(t, 1, queuedChan)
	defer tearDownTestNormalQueue(n)

	n.queueChan <- newjobInScheduler(t, "first", nil)
	<-queuedChan

	var wg sync.WaitGroup
	wg.Add(1)
	second := newjobInScheduler(t, "second", &wg)
	n.queueChan <- second
	wg.Wait()
	assert.Equal(t, 1, n.GetCurrentSize())
	assert.Equal(t, core.FAILED, second.job.JobData().Status)
	assert.Equal(t, "queue is full(1)", second.job.JobData().Result.Message)
}

func TestTearDownWakesWaitingDequeue(t *testing.T) {
	n := &NormalQueue{}
	require.Nil(t, n.Setup(&core.Conf{QueueMaxSize: 10}))
	got := make(chan *jobInScheduler)
	go func() {
		jis, _ := n.Dequeue(true)
		got <- jis
	}()
	n.TearDown()
	assert.Nil(t, <-got)
}

func newjobInScheduler(t *testing.T, id string, wg *sync.WaitGroup) *jobInScheduler {
	jm, err := core.NewJobManager(&core.UnimplementedJob{})
	require.Nil(t, err)
	jc, err := core.NewJobContext()
	require.Nil(t, err)
	jd := core.NewJobData()
	jd.ID = id
	jd.JobType = "unimplemented"
	nj, err := jm.NewJobFromJobData(jd, jc)
	require.Nil(t, err)
	return &jobInScheduler{
		job:      nj,
		finished: wg,
	}
}
