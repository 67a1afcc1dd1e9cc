/*
scheduler.go - Recurring trigger and operator control

PURPOSE:
  Arms a cron recurrence per named job and exposes start/stop/
  trigger-now/status for the admin control surface. The scheduler has
  no business logic: firing just invokes the callback (the coordinator,
  whose single-flight guard handles overlap with a still-running
  previous invocation).

STATE MACHINE (per named job):
  Stopped   - registered, timer not armed
  Scheduled - timer armed; firing does not change the state

  Stopping a job does not cancel an in-flight run; it only prevents new
  firings. In-flight work finishes on the transaction engine's
  all-or-nothing guarantee.

RECURRENCE:
  Standard 5-field cron expressions ("0 0 * * *" = daily at midnight).
  The expression is configuration, not contract - callers hand the
  scheduler a recurrence description and a callback.
*/
package accrual

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnknownJob is returned for operations on an unregistered job name.
	ErrUnknownJob = errors.New("unknown job")

	// ErrJobRegistered is returned when registering a duplicate job name.
	ErrJobRegistered = errors.New("job already registered")
)

// =============================================================================
// SCHEDULER
// =============================================================================

type JobState string

const (
	JobStopped   JobState = "stopped"
	JobScheduled JobState = "scheduled"
)

// JobStatus is one job's operator-visible state.
type JobStatus struct {
	Name    string
	Spec    string
	State   JobState
	NextRun time.Time // zero when stopped
}

// Scheduler manages named recurring jobs on a shared cron runner.
type Scheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	spec    string
	fn      func()
	state   JobState
	entryID cron.EntryID
}

// NewScheduler creates a scheduler with its cron runner started. Jobs
// are registered Stopped and armed individually with Start.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		cron: cron.New(),
		jobs: make(map[string]*job),
	}
	s.cron.Start()
	return s
}

// Register adds a named job with a cron recurrence. The job starts in
// the Stopped state.
func (s *Scheduler) Register(name, spec string, fn func()) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return ErrJobRegistered
	}
	s.jobs[name] = &job{spec: spec, fn: fn, state: JobStopped}
	return nil
}

// Start arms the job's timer. Idempotent for an already-scheduled job.
func (s *Scheduler) Start(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return ErrUnknownJob
	}
	if j.state == JobScheduled {
		return nil
	}

	id, err := s.cron.AddFunc(j.spec, j.fn)
	if err != nil {
		return err
	}
	j.entryID = id
	j.state = JobScheduled

	log.WithFields(log.Fields{"job": name, "spec": j.spec}).Info("Job scheduled")
	return nil
}

// Stop disarms the job's timer. Idempotent for a stopped job. Does not
// cancel work already in flight.
func (s *Scheduler) Stop(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return ErrUnknownJob
	}
	if j.state == JobStopped {
		return nil
	}

	s.cron.Remove(j.entryID)
	j.entryID = 0
	j.state = JobStopped

	log.WithField("job", name).Info("Job stopped")
	return nil
}

// TriggerNow invokes the job's callback immediately, regardless of its
// scheduled state. The callback runs on its own goroutine; overlap with
// a scheduled firing is the callback's concern (the coordinator turns
// concurrent runs away).
func (s *Scheduler) TriggerNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return ErrUnknownJob
	}

	log.WithField("job", name).Info("Job triggered manually")
	go j.fn()
	return nil
}

// Status returns every registered job's state. Order is not
// guaranteed; callers sort if they need stability.
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.jobs))
	for name, j := range s.jobs {
		st := JobStatus{Name: name, Spec: j.spec, State: j.state}
		if j.state == JobScheduled {
			st.NextRun = s.cron.Entry(j.entryID).Next
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// Shutdown stops the cron runner and waits for in-flight firings to
// return.
func (s *Scheduler) Shutdown() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
