package model

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionStoreIsolation(t *testing.T) {
	store := NewSessionStore(time.Hour, 5, "answers")
	a := store.Get("a")
	b := store.Get("b")
	require.NotSame(t, a, b)
	require.Same(t, a, store.Get("a"))
	require.Equal(t, 2, store.Len())

	a.History().Append(rec("x"))
	require.Zero(t, b.History().Len())

	store.Delete("a")
	_, ok := store.Peek("a")
	require.False(t, ok)
}

func TestBeginEvaluation(t *testing.T) {
	sess := NewSessionStore(time.Hour, 5, "answers").Get("s")

	_, err := sess.BeginEvaluation()
	require.ErrorIs(t, err, ErrNoDataset)
	require.False(t, sess.Evaluating())

	ds := newSampleDataset(t)
	require.NoError(t, sess.SetDataset(ds, nil))

	ev, err := sess.BeginEvaluation()
	require.NoError(t, err)
	require.Same(t, ds, ev.Dataset)
	require.True(t, sess.Evaluating())

	_, err = sess.BeginEvaluation()
	require.ErrorIs(t, err, ErrEvaluationInFlight)

	index, _, err := ev.Record(rec("a"))
	require.NoError(t, err)
	require.Zero(t, index)

	ev.Done()
	ev.Done()
	require.False(t, sess.Evaluating())

	ev2, err := sess.BeginEvaluation()
	require.NoError(t, err)
	index, _, err = ev2.Record(rec("b"))
	require.NoError(t, err)
	require.Equal(t, 1, index)
	ev2.Done()
}

func TestBeginEvaluationConcurrent(t *testing.T) {
	sess := NewSessionStore(time.Hour, 5, "answers").Get("s")
	require.NoError(t, sess.SetDataset(newSampleDataset(t), nil))

	var admitted int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := sess.BeginEvaluation(); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	require.EqualValues(t, 1, atomic.LoadInt32(&admitted))
}

func TestSetDatasetRejectedWhileEvaluating(t *testing.T) {
	sess := NewSessionStore(time.Hour, 5, "answers").Get("s")
	old := newSampleDataset(t)
	require.NoError(t, sess.SetDataset(old, nil))

	ev, err := sess.BeginEvaluation()
	require.NoError(t, err)

	require.ErrorIs(t, sess.SetDataset(newSampleDataset(t), nil), ErrEvaluationInFlight)
	active, _, err := sess.Dataset()
	require.NoError(t, err)
	require.Same(t, old, active)

	_, _, err = ev.Record(rec("old"))
	require.NoError(t, err)
	ev.Done()
	require.Equal(t, 1, sess.History().Len())

	require.NoError(t, sess.SetDataset(newSampleDataset(t), nil))
	require.Zero(t, sess.History().Len())
}

func TestResetDropsRunningRecord(t *testing.T) {
	sess := NewSessionStore(time.Hour, 5, "answers").Get("s")
	require.NoError(t, sess.SetDataset(newSampleDataset(t), nil))

	ev, err := sess.BeginEvaluation()
	require.NoError(t, err)
	sess.Reset()

	_, _, err = ev.Record(rec("stale"))
	require.ErrorIs(t, err, ErrStaleEvaluation)
	require.Zero(t, sess.History().Len())
	ev.Done()
	require.False(t, sess.Evaluating())
}

func TestSetDatasetClearsHistory(t *testing.T) {
	sess := NewSessionStore(time.Hour, 5, "answers").Get("s")
	_, _, err := sess.Dataset()
	require.ErrorIs(t, err, ErrNoDataset)

	require.NoError(t, sess.SetRefAnswerField("gold"))
	ds := newSampleDataset(t)
	require.NoError(t, sess.SetDataset(ds, nil))
	require.Equal(t, "gold", ds.RefAnswerField())

	sess.History().Append(rec("old"))
	require.NoError(t, sess.SetDataset(newSampleDataset(t), nil))
	require.Zero(t, sess.History().Len())

	sess.Reset()
	require.Equal(t, "answers", sess.RefAnswerField())
	_, _, err = sess.Dataset()
	require.ErrorIs(t, err, ErrNoDataset)
}
