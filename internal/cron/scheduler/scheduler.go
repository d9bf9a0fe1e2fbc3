// Package scheduler runs cron jobs on a 1-second tick, dispatching due jobs
// onto a task pool. A callback's error or panic is logged and swallowed;
// scheduling continues unaffected.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"weblet/internal/concurrent/taskpool"
	"weblet/internal/cron/expr"
	"weblet/internal/eventbus"
	logx "weblet/internal/logx"
)

// Outcome is the explicit result of a scheduler mutation, replacing the
// exception-driven control flow of the original: callers branch on which
// variant came back instead of inspecting an error's type or message.
type Outcome int

const (
	// Added means the job was registered successfully.
	Added Outcome = iota
	// DuplicateId means the id is already in use by another job.
	DuplicateId
	// CronSyntax means the schedule string failed to parse.
	CronSyntax
	// Removed means an existing job was deleted.
	Removed
	// Updated means an existing job's enabled flag was changed.
	Updated
	// NotFound means no job with that id is registered.
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "Added"
	case DuplicateId:
		return "DuplicateId"
	case CronSyntax:
		return "CronSyntax"
	case Removed:
		return "Removed"
	case Updated:
		return "Updated"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Job is a scheduled unit of work.
type Job struct {
	ID          string
	Description string
	Schedule    string
	Enabled     bool

	nextRun time.Time
	expr    *expr.Expression
	fn      func(context.Context) error
}

// Snapshot is a read-only view of a job's state, safe to share outside the
// scheduler's lock.
type Snapshot struct {
	ID          string
	Description string
	Schedule    string
	Enabled     bool
	NextRun     time.Time
}

// Scheduler manages a set of cron jobs and dispatches due ones onto a
// worker pool once per second.
//
// A zero Scheduler is not usable; construct one with New.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]*Job

	pool *taskpool.Pool
	log  logx.Logger
	bus  eventbus.Bus

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger attaches a logger used to report job failures.
func WithLogger(log logx.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithPool uses an externally owned task pool to run due jobs instead of
// creating one internally.
func WithPool(pool *taskpool.Pool) Option {
	return func(s *Scheduler) { s.pool = pool }
}

// WithEventBus publishes "cron.job.dispatched" and "cron.job.completed"
// events as jobs run, letting other components observe scheduler activity
// without coupling to it directly.
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *Scheduler) { s.bus = bus }
}

// New creates a Scheduler. If no pool is supplied via WithPool, an internal
// pool with the given worker count is created (0 = runtime.NumCPU()).
func New(workers int, opts ...Option) *Scheduler {
	s := &Scheduler{jobs: map[string]*Job{}}
	for _, o := range opts {
		o(s)
	}
	if s.pool == nil {
		var poolOpts []taskpool.Option
		if !s.log.IsZero() {
			poolOpts = append(poolOpts, taskpool.WithLogger(s.log))
		}
		s.pool = taskpool.New(workers, poolOpts...)
	}
	return s
}

// Add registers a job. It returns DuplicateId if the id is already in use,
// CronSyntax if spec fails to parse, or Added on success.
func (s *Scheduler) Add(id, description, spec string, callback func(context.Context) error) (Outcome, error) {
	if id == "" {
		return CronSyntax, fmt.Errorf("cron: job id must not be empty")
	}

	s.mu.Lock()
	if _, exists := s.jobs[id]; exists {
		s.mu.Unlock()
		return DuplicateId, fmt.Errorf("cron: job %q already exists", id)
	}
	s.mu.Unlock()

	e, err := expr.Parse(spec)
	if err != nil {
		return CronSyntax, err
	}
	next, err := e.NextFire(time.Now().UTC())
	if err != nil {
		return CronSyntax, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; exists {
		return DuplicateId, fmt.Errorf("cron: job %q already exists", id)
	}
	s.jobs[id] = &Job{
		ID:          id,
		Description: description,
		Schedule:    spec,
		Enabled:     true,
		expr:        e,
		nextRun:     next,
		fn:          callback,
	}
	return Added, nil
}

// Remove deletes a job, returning Removed or NotFound.
func (s *Scheduler) Remove(id string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return NotFound
	}
	delete(s.jobs, id)
	return Removed
}

// SetEnabled toggles whether a job fires, returning Updated or NotFound.
func (s *Scheduler) SetEnabled(id string, enabled bool) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return NotFound
	}
	j.Enabled = enabled
	return Updated
}

// List returns a snapshot of every registered job.
func (s *Scheduler) List() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, Snapshot{
			ID:          j.ID,
			Description: j.Description,
			Schedule:    j.Schedule,
			Enabled:     j.Enabled,
			NextRun:     j.nextRun,
		})
	}
	return out
}

// Start begins the 1-second tick loop. It is a no-op if already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
}

// Stop halts the tick loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.pool.WaitIdle()
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now().UTC()

	s.mu.Lock()
	due := make([]*Job, 0)
	runCtx := s.runCtx
	for _, j := range s.jobs {
		if j.Enabled && !j.nextRun.After(now) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	if runCtx == nil {
		runCtx = context.Background()
	}
	for _, j := range due {
		job := j
		s.publish("cron.job.dispatched", job.ID)
		if err := s.pool.Submit(func() { s.runJob(runCtx, job) }); err != nil && !s.log.IsZero() {
			s.log.Error("cron: could not dispatch job", logx.String("job_id", job.ID), logx.Err(err))
		}
	}
}

func (s *Scheduler) publish(eventType, jobID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: eventType, Data: jobID})
}

func (s *Scheduler) runJob(ctx context.Context, j *Job) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				if !s.log.IsZero() {
					s.log.Error("cron job panicked", logx.String("job_id", j.ID), logx.Any("panic", r))
				}
			}
			s.publish("cron.job.completed", j.ID)
		}()
		if j.fn == nil {
			return
		}
		if err := j.fn(ctx); err != nil && !s.log.IsZero() {
			s.log.Error("cron job failed", logx.String("job_id", j.ID), logx.Err(err))
		}
	}()

	next, err := j.expr.NextFire(j.nextRun.Add(time.Second))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, stillExists := s.jobs[j.ID]; !stillExists {
		return
	}
	if err != nil {
		if !s.log.IsZero() {
			s.log.Error("cron job could not compute next runtime; disabling", logx.String("job_id", j.ID), logx.Err(err))
		}
		j.Enabled = false
		return
	}
	j.nextRun = next
}
