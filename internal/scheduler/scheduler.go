// Package scheduler drives periodic maintenance jobs from a clock.
package scheduler

import (
	"context"
	"time"

	"quotes/internal/clock"

	"go.uber.org/zap"
)

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	clock   clock.Clock
	log     *zap.Logger
	jobs    []Job
	timeout time.Duration
}

type option func(*Scheduler)

// WithJobTimeout bounds every single job run.
func WithJobTimeout(d time.Duration) option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

func New(c clock.Clock, log *zap.Logger, jobs []Job, opts ...option) *Scheduler {
	s := &Scheduler{
		clock:   c,
		log:     log,
		jobs:    jobs,
		timeout: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts one loop per job and blocks until ctx is cancelled.
// A failed run is logged and the job runs again on its next tick.
func (s *Scheduler) Run(ctx context.Context) {
	done := make(chan struct{}, len(s.jobs))

	for _, job := range s.jobs {
		ticker := s.clock.NewTicker(job.Interval)
		go func(job Job, ticker clock.Ticker) {
			defer func() { done <- struct{}{} }()
			defer ticker.Stop()

			s.log.Info("scheduler: job started", zap.String("job", job.Name), zap.Duration("interval", job.Interval))
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C():
					s.runJob(ctx, job)
				}
			}
		}(job, ticker)
	}

	for range s.jobs {
		<-done
	}
	s.log.Info("scheduler: stopped")
}

// RunOnce runs every job a single time, in order, and returns how many failed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	failed := 0
	for _, job := range s.jobs {
		if !s.runJob(ctx, job) {
			failed++
		}
	}
	return failed
}

func (s *Scheduler) runJob(ctx context.Context, job Job) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.clock.Now()
	started := time.Now()
	err := job.Run(ctx, now)
	if err != nil {
		s.log.Error("scheduler: job failed", zap.String("job", job.Name), zap.Time("tick", now), zap.Error(err))
		return false
	}
	s.log.Debug("scheduler: job done", zap.String("job", job.Name), zap.Time("tick", now), zap.Duration("took", time.Since(started)))
	return true
}
