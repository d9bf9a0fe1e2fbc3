package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddRejectsDuplicateID(t *testing.T) {
	s := New(1)
	defer s.pool.Stop()

	if outcome, err := s.Add("job-1", "first", "* * * * *", noop); outcome != Added || err != nil {
		t.Fatalf("outcome = %v, err = %v", outcome, err)
	}
	if outcome, err := s.Add("job-1", "second", "* * * * *", noop); outcome != DuplicateId || err == nil {
		t.Fatalf("outcome = %v, err = %v, want DuplicateId", outcome, err)
	}
}

func TestAddRejectsInvalidSchedule(t *testing.T) {
	s := New(1)
	defer s.pool.Stop()

	if outcome, err := s.Add("job-1", "bad", "not a cron expr", noop); outcome != CronSyntax || err == nil {
		t.Fatalf("outcome = %v, err = %v, want CronSyntax", outcome, err)
	}
}

func TestRemoveAndSetEnabled(t *testing.T) {
	s := New(1)
	defer s.pool.Stop()

	_, _ = s.Add("job-1", "desc", "* * * * *", noop)
	if got := s.SetEnabled("job-1", false); got != Updated {
		t.Fatalf("SetEnabled on existing job = %v, want Updated", got)
	}
	if got := s.SetEnabled("missing", true); got != NotFound {
		t.Fatalf("SetEnabled on missing job = %v, want NotFound", got)
	}
	if got := s.Remove("job-1"); got != Removed {
		t.Fatalf("Remove on existing job = %v, want Removed", got)
	}
	if got := s.Remove("job-1"); got != NotFound {
		t.Fatalf("Remove on already-removed job = %v, want NotFound", got)
	}
}

func TestListReflectsRegisteredJobs(t *testing.T) {
	s := New(1)
	defer s.pool.Stop()

	_, _ = s.Add("a", "job a", "* * * * *", noop)
	_, _ = s.Add("b", "job b", "0 0 * * *", noop)

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d jobs, want 2", len(list))
	}
	for _, snap := range list {
		if snap.Description == "" {
			t.Fatalf("snapshot %q missing description", snap.ID)
		}
	}
}

func TestPanicInJobDoesNotStopScheduler(t *testing.T) {
	s := New(1)
	defer func() {
		s.Stop()
		s.pool.Stop()
	}()

	var ran atomic.Bool
	_, _ = s.Add("panics", "panics", "* * * * *", func(context.Context) error { panic("boom") })
	makeDue(s, "panics")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	// Add schedules a job for the next whole minute, so each job's next run
	// is moved into the past before tick() is invoked directly rather than
	// waiting for the ticker.
	s.tick()
	s.pool.WaitIdle()

	_, _ = s.Add("after-panic", "after panic", "* * * * *", func(context.Context) error {
		ran.Store(true)
		return nil
	})
	makeDue(s, "after-panic")
	s.tick()
	s.pool.WaitIdle()

	if !ran.Load() {
		t.Fatal("scheduler stopped dispatching jobs after a panic")
	}
}

func noop(context.Context) error { return nil }

// makeDue moves a job's next run into the past so the next tick dispatches it.
func makeDue(s *Scheduler, id string) {
	s.mu.Lock()
	s.jobs[id].nextRun = time.Now().UTC().Add(-time.Minute)
	s.mu.Unlock()
}
