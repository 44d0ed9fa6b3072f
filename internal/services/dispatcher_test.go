package services

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(2, 8)
	d.Start()
	defer d.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := d.Dispatch(func() {
			defer wg.Done()
			mu.Lock()
			seen++
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}

	wg.Wait()
	if seen != 5 {
		t.Errorf("ran %d jobs, want 5", seen)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	// Not started, so the single queue slot never drains.
	d := NewDispatcher(1, 1)

	if err := d.Dispatch(func() {}); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	if err := d.Dispatch(func() {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("error = %v, want ErrQueueFull", err)
	}
}

func TestDispatcherRejectsAfterStop(t *testing.T) {
	d := NewDispatcher(1, 8)
	d.Start()
	d.Stop()

	if err := d.Dispatch(func() {}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("error = %v, want ErrQueueFull after Stop", err)
	}
}

func TestDispatcherSurvivesPanic(t *testing.T) {
	d := NewDispatcher(1, 8)
	d.Start()
	defer d.Stop()

	if err := d.Dispatch(func() { panic("boom") }); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	done := make(chan struct{})
	if err := d.Dispatch(func() { close(done) }); err != nil {
		t.Fatalf("Dispatch after panic: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
}
