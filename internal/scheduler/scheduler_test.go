package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/XavierBriggs/sharpedge/internal/scheduler"
)

// recorder captures run order, start times and concurrency.
type recorder struct {
	mu       sync.Mutex
	order    []string
	starts   []time.Time
	active   int32
	overlaps int32
	delay    time.Duration
	err      error
}

func (r *recorder) run(ctx context.Context, eventID string) error {
	if atomic.AddInt32(&r.active, 1) > 1 {
		atomic.AddInt32(&r.overlaps, 1)
	}
	defer atomic.AddInt32(&r.active, -1)

	r.mu.Lock()
	r.order = append(r.order, eventID)
	r.starts = append(r.starts, time.Now())
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.err
}

func (r *recorder) snapshot() ([]string, []time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order := make([]string, len(r.order))
	copy(order, r.order)
	starts := make([]time.Time, len(r.starts))
	copy(starts, r.starts)
	return order, starts
}

func waitForRuns(t *testing.T, r *recorder, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		order, _ := r.snapshot()
		if len(order) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	order, _ := r.snapshot()
	t.Fatalf("timed out waiting for %d runs, got %d", n, len(order))
}

func TestProcessesFIFO(t *testing.T) {
	rec := &recorder{}
	s := scheduler.New(rec.run, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue("a")
	s.Enqueue("b")
	s.Enqueue("c")

	waitForRuns(t, rec, 3, 5*time.Second)

	order, _ := rec.snapshot()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("run order = %v, want %v", order, want)
		}
	}
}

func TestEnqueueIsIdempotent(t *testing.T) {
	rec := &recorder{delay: 50 * time.Millisecond}
	s := scheduler.New(rec.run, time.Millisecond)

	if !s.Enqueue("a") {
		t.Fatal("first enqueue should succeed")
	}
	if s.Enqueue("a") {
		t.Fatal("duplicate enqueue of a queued event must be a no-op")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitForRuns(t, rec, 1, 5*time.Second)

	// "a" is now in flight; enqueueing it again must still be a no-op
	if s.InFlight() == "a" && s.Enqueue("a") {
		t.Error("enqueue of the in-flight event must be a no-op")
	}

	waitForRuns(t, rec, 1, time.Second)
	time.Sleep(100 * time.Millisecond)

	order, _ := rec.snapshot()
	if len(order) != 1 {
		t.Errorf("event ran %d times, want 1", len(order))
	}
}

func TestCancelRemovesQueuedItem(t *testing.T) {
	rec := &recorder{delay: 50 * time.Millisecond}
	s := scheduler.New(rec.run, time.Millisecond)

	s.Enqueue("a")
	s.Enqueue("b")
	s.Enqueue("c")

	if !s.Cancel("b") {
		t.Fatal("cancelling a queued event should succeed")
	}
	if s.Cancel("b") {
		t.Fatal("cancelling twice should report not-queued")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitForRuns(t, rec, 2, 5*time.Second)
	time.Sleep(100 * time.Millisecond)

	order, _ := rec.snapshot()
	for _, id := range order {
		if id == "b" {
			t.Error("cancelled event still ran")
		}
	}
}

func TestSingleInFlight(t *testing.T) {
	rec := &recorder{delay: 30 * time.Millisecond}
	s := scheduler.New(rec.run, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	for _, id := range []string{"a", "b", "c", "d"} {
		s.Enqueue(id)
	}

	waitForRuns(t, rec, 4, 5*time.Second)

	if got := atomic.LoadInt32(&rec.overlaps); got != 0 {
		t.Errorf("observed %d overlapping runs, want 0", got)
	}
}

func TestStartToStartSpacing(t *testing.T) {
	interval := 80 * time.Millisecond
	rec := &recorder{}
	s := scheduler.New(rec.run, interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue("a")
	s.Enqueue("b")
	s.Enqueue("c")

	waitForRuns(t, rec, 3, 5*time.Second)

	_, starts := rec.snapshot()
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		// Allow a small scheduling slop below the interval
		if gap < interval-10*time.Millisecond {
			t.Errorf("gap between starts %d and %d = %s, want >= %s", i-1, i, gap, interval)
		}
	}
}

func TestSlowRunStartsNextImmediately(t *testing.T) {
	// The run outlives the interval, so the next start owes no extra wait
	interval := 30 * time.Millisecond
	rec := &recorder{delay: 100 * time.Millisecond}
	s := scheduler.New(rec.run, interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue("a")
	s.Enqueue("b")

	waitForRuns(t, rec, 2, 5*time.Second)

	_, starts := rec.snapshot()
	gap := starts[1].Sub(starts[0])
	if gap > 200*time.Millisecond {
		t.Errorf("second start waited %s after a slow run, want roughly the run duration", gap)
	}
}

func TestFailureClearsInFlightAndContinues(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	s := scheduler.New(rec.run, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Enqueue("a")
	s.Enqueue("b")

	waitForRuns(t, rec, 2, 5*time.Second)

	deadline := time.Now().Add(time.Second)
	for s.InFlight() != "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := s.InFlight(); got != "" {
		t.Errorf("in-flight = %q after completion, want empty", got)
	}

	processed, failures := s.Metrics()
	if processed != 2 || failures != 2 {
		t.Errorf("metrics = (%d, %d), want (2, 2)", processed, failures)
	}
}

func TestPendingSnapshot(t *testing.T) {
	s := scheduler.New(func(ctx context.Context, eventID string) error { return nil }, time.Hour)

	s.Enqueue("a")
	s.Enqueue("b")

	pending := s.Pending()
	if len(pending) != 2 || pending[0] != "a" || pending[1] != "b" {
		t.Errorf("pending = %v, want [a b]", pending)
	}
}
