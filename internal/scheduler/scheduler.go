// Package scheduler drives the history refresh job, both on a fixed
// interval and on demand from the refresh endpoint.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"weather-lookup/internal/pipeline"
)

const runTimeout = 5 * time.Minute

// Scheduler owns the periodic refresh schedule. The refresh job itself is a
// plain method on pipeline.Refresh; nothing in it knows about gocron.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *pipeline.Refresh
	interval  time.Duration
}

func New(job *pipeline.Refresh, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		job:       job,
		interval:  interval,
	}
}

// Start schedules the periodic refresh and starts the underlying scheduler.
// A zero or negative interval disables the schedule; TriggerNow still works.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: no refresh interval configured; manual trigger only")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		id := uuid.NewString()
		log.Printf("scheduler: refresh run %s starting", id)
		s.run(id)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// TriggerNow starts a refresh run in the background and returns its id. The
// caller gets no completion signal; failures are only logged.
func (s *Scheduler) TriggerNow() string {
	id := uuid.NewString()
	log.Printf("scheduler: refresh run %s triggered", id)
	go s.run(id)
	return id
}

func (s *Scheduler) run(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.job.Run(ctx); err != nil {
		log.Printf("scheduler: refresh run %s failed: %v", id, err)
		return
	}
	log.Printf("scheduler: refresh run %s completed", id)
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
