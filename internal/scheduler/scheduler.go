// Package scheduler runs periodic jobs such as snapshot recording.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/verte-zerg/triviadash/internal/logger"
)

// MinInterval is the shortest accepted job interval.
const MinInterval = time.Second

// Job is a unit of periodic work.
type Job func(ctx context.Context) error

// Scheduler manages periodic jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *logger.Logger
	minEvery  time.Duration
}

// New creates a scheduler in UTC.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log.WithComponent("scheduler"),
		minEvery:  MinInterval,
	}
}

// Every registers job to run every interval, starting immediately. Runs never
// overlap; a run still in progress when the next is due is skipped.
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, job Job) error {
	if interval < s.minEvery {
		return fmt.Errorf("interval %s is shorter than %s", interval, s.minEvery)
	}
	_, err := s.scheduler.Every(interval).Tag(name).SingletonMode().Do(func() {
		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Warn("job failed", logger.F("job", name), logger.Err(err))
			return
		}
		s.log.Info("job finished", logger.F("job", name), logger.F("elapsed", time.Since(start).Round(time.Millisecond)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Run starts the jobs and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.scheduler.StartAsync()
	<-ctx.Done()
	s.Stop()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
}
