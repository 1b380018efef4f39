package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	err      error

	sawCancelled atomic.Bool
}

func (f *fakeProcessor) ProcessScheduledNotifications(ctx context.Context) (ProcessSummary, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	f.calls.Add(1)
	if ctx.Err() != nil {
		f.sawCancelled.Store(true)
	}
	time.Sleep(f.delay)
	return ProcessSummary{Due: 2, Sent: 2}, f.err
}

func TestNewSchedulerValidation(t *testing.T) {
	_, err := NewScheduler(nil, "")
	require.Error(t, err)

	_, err = NewScheduler(&fakeProcessor{}, "every now and then")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reminder schedule")

	s, err := NewScheduler(&fakeProcessor{}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, s.Status().Schedule)

	_, err = NewScheduler(&fakeProcessor{}, "*/10 * * * *")
	require.NoError(t, err)
}

func TestSchedulerStartStop(t *testing.T) {
	s, err := NewScheduler(&fakeProcessor{}, "@every 1h")
	require.NoError(t, err)

	assert.False(t, s.Status().IsRunning)
	// stopping a stopped scheduler is a no-op with nothing to wait for
	assert.Error(t, s.Stop().Err())

	s.Start()
	s.Start()
	st := s.Status()
	assert.True(t, st.IsRunning)
	assert.Equal(t, "@every 1h", st.Schedule)
	assert.Eventually(t, func() bool {
		next := s.Status().NextExecution
		return next != nil && next.After(time.Now())
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	st = s.Status()
	assert.False(t, st.IsRunning)
	assert.Nil(t, st.NextExecution)

	s.Start()
	assert.True(t, s.Status().IsRunning)
	s.Stop()
}

func TestSchedulerProcessNow(t *testing.T) {
	p := &fakeProcessor{}
	s, err := NewScheduler(p, "")
	require.NoError(t, err)

	report := s.ProcessNow(context.Background())
	assert.True(t, report.Manual)
	assert.Equal(t, 2, report.Summary.Sent)
	assert.Empty(t, report.Error)
	assert.EqualValues(t, 1, p.calls.Load())

	st := s.Status()
	require.NotNil(t, st.LastRun)
	assert.Equal(t, report.StartedAt, st.LastRun.StartedAt)

	p.err = errors.New("database unavailable")
	report = s.ProcessNow(context.Background())
	assert.Equal(t, "database unavailable", report.Error)
	assert.Equal(t, "database unavailable", s.Status().LastRun.Error)
}

func TestSchedulerPassesDoNotOverlap(t *testing.T) {
	p := &fakeProcessor{delay: 20 * time.Millisecond}
	s, err := NewScheduler(p, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ProcessNow(context.Background())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 4, p.calls.Load())
	assert.EqualValues(t, 1, p.maxSeen.Load())
}

func TestSchedulerProcessNowIgnoresCancellation(t *testing.T) {
	p := &fakeProcessor{}
	s, err := NewScheduler(p, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := s.ProcessNow(ctx)
	assert.Empty(t, report.Error)
	assert.EqualValues(t, 1, p.calls.Load())
	assert.False(t, p.sawCancelled.Load())
}

func TestSchedulerStopWaitsForRunningPass(t *testing.T) {
	p := &fakeProcessor{delay: 300 * time.Millisecond}
	s, err := NewScheduler(p, "@every 1s")
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return p.inFlight.Load() == 1 }, 3*time.Second, 10*time.Millisecond)

	done := s.Stop()
	assert.False(t, s.Status().IsRunning)
	assert.NoError(t, done.Err(), "Stop must not block on the running pass")

	select {
	case <-done.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("running pass never finished")
	}
	assert.EqualValues(t, 0, p.inFlight.Load())
	assert.EqualValues(t, 1, p.calls.Load())
}
