package taskpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsAllTasks(t *testing.T) {
	p := New(4)
	defer p.Stop()

	var n int64
	const total = 100
	for i := 0; i < total; i++ {
		p.Submit(func() { atomic.AddInt64(&n, 1) })
	}
	p.WaitIdle()

	if got := atomic.LoadInt64(&n); got != total {
		t.Fatalf("ran %d tasks, want %d", got, total)
	}
}

func TestPanicIsContained(t *testing.T) {
	p := New(2)
	defer p.Stop()

	var ran int64
	p.Submit(func() { panic("boom") })
	p.Submit(func() { atomic.AddInt64(&ran, 1) })
	p.WaitIdle()

	if atomic.LoadInt64(&ran) != 1 {
		t.Fatal("pool stopped processing tasks after a panic")
	}
}

func TestWaitIdleBlocksUntilDrained(t *testing.T) {
	p := New(2)
	defer p.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	release := make(chan struct{})
	p.Submit(func() {
		wg.Done()
		<-release
	})

	wg.Wait()
	done := make(chan struct{})
	go func() {
		p.WaitIdle()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitIdle returned before the running task finished")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitIdle did not return after task completion")
	}
}

func TestStopIsIdempotentAndDrainsWorkers(t *testing.T) {
	p := New(3)
	p.Submit(func() {})
	p.WaitIdle()
	p.Stop()
	p.Stop()
}

func TestSubmitOnStoppedPoolReturnsTaskPanicError(t *testing.T) {
	p := New(1)
	p.Stop()

	err := p.Submit(func() {})
	if err == nil {
		t.Fatal("expected an error submitting to a stopped pool")
	}
	if _, ok := err.(*TaskPanicError); !ok {
		t.Fatalf("err = %T, want *TaskPanicError", err)
	}
}
