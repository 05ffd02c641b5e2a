package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quotes/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	ticks []time.Time
	fail  bool
	ran   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ran: make(chan struct{}, 16)}
}

func (r *recorder) run(ctx context.Context, now time.Time) error {
	r.mu.Lock()
	r.ticks = append(r.ticks, now)
	fail := r.fail
	r.mu.Unlock()
	r.ran <- struct{}{}
	if fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

// advanceUntilRun keeps advancing the fake clock until the job reports a run;
// the job goroutine may not have reached its select yet on the first tick.
func advanceUntilRun(t *testing.T, c *clock.Fake, d time.Duration, r *recorder) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		c.Advance(d)
		select {
		case <-r.ran:
			return
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("job did not run")
		}
	}
}

func TestRunOnce(t *testing.T) {
	c := clock.NewFake(t0)
	ok := newRecorder()
	bad := newRecorder()
	bad.fail = true

	s := New(c, zap.NewNop(), []Job{
		{Name: "ok", Interval: time.Minute, Run: ok.run},
		{Name: "bad", Interval: time.Minute, Run: bad.run},
	})

	failed := s.RunOnce(context.Background())
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 1, bad.count())
	assert.Equal(t, []time.Time{t0}, ok.ticks)
}

func TestRunDrivenByClock(t *testing.T) {
	c := clock.NewFake(t0)
	sweep := newRecorder()

	s := New(c, zap.NewNop(), []Job{{Name: "sweep", Interval: time.Minute, Run: sweep.run}})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	advanceUntilRun(t, c, time.Minute, sweep)
	advanceUntilRun(t, c, time.Minute, sweep)
	assert.GreaterOrEqual(t, sweep.count(), 2)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	c := clock.NewFake(t0)
	job := newRecorder()
	job.fail = true

	s := New(c, zap.NewNop(), []Job{{Name: "flaky", Interval: time.Minute, Run: job.run}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	advanceUntilRun(t, c, time.Minute, job)

	job.mu.Lock()
	job.fail = false
	job.mu.Unlock()

	advanceUntilRun(t, c, time.Minute, job)
	require.GreaterOrEqual(t, job.count(), 2)
}

func TestJobTimeout(t *testing.T) {
	c := clock.NewFake(t0)
	var deadline time.Time
	var hasDeadline bool

	s := New(c, zap.NewNop(), []Job{{
		Name:     "slow",
		Interval: time.Minute,
		Run: func(ctx context.Context, now time.Time) error {
			deadline, hasDeadline = ctx.Deadline()
			return nil
		},
	}}, WithJobTimeout(3*time.Second))

	assert.Zero(t, s.RunOnce(context.Background()))
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(3*time.Second), deadline, time.Second)
}
