//go:build unit
// +build unit

package core

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
)

func newStoredJob(id string, created time.Time) Job {
	jd := NewJobData()
	jd.ID = id
	jd.Created = strfmt.DateTime(created)
	return (&UnimplementedJob{}).New(jd, nil)
}

func TestMemoryDB(t *testing.T) {
	db := &MemoryDB{}
	assert.Nil(t, db.Setup(nil, &Conf{}))

	now := time.Now()
	assert.Nil(t, db.Insert(newStoredJob("b", now)))
	assert.Nil(t, db.Insert(newStoredJob("a", now)))
	assert.Nil(t, db.Insert(newStoredJob("c", now.Add(-time.Second))))

	err := db.Insert(newStoredJob("a", now))
	assert.True(t, errors.Is(err, ErrJobIDConflict))

	j, err := db.Get("a")
	assert.Nil(t, err)
	assert.Equal(t, "a", j.JobData().ID)

	_, err = db.Get("x")
	assert.EqualError(t, err, "not found x")

	ids := []string{}
	for _, j := range db.List() {
		ids = append(ids, j.JobData().ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	assert.Nil(t, db.Delete("a"))
	assert.EqualError(t, db.Delete("a"), "failed to find a")
	assert.Len(t, db.List(), 2)
}

func TestMemoryDBReceivesFromChannel(t *testing.T) {
	db := &MemoryDB{}
	ch := make(DBChan)
	assert.Nil(t, db.Setup(ch, &Conf{}))
	defer close(ch)

	j := newStoredJob("from-chan", time.Now())
	j.JobData().Status = SUCCEEDED
	ch <- j

	assert.Eventually(t, func() bool {
		got, err := db.Get("from-chan")
		return err == nil && got.JobData().Status == SUCCEEDED
	}, time.Second, 10*time.Millisecond)
}
