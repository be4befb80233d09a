// Package scheduler serializes analysis runs so at most one research call is
// in flight at a time, with a minimum spacing between run starts. Work is
// processed strictly FIFO; enqueueing is idempotent against both the queue
// and the in-flight item.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RunFunc is the unit of work the scheduler executes for one event:
// snapshot the quotes, run the veto pipeline, persist and publish the
// decision. Errors are logged and counted; they never stop the queue.
type RunFunc func(ctx context.Context, eventID string) error

// Scheduler is the sequential analysis queue.
type Scheduler struct {
	run      RunFunc
	interval time.Duration

	mu        sync.Mutex
	queue     []string
	queued    map[string]bool
	inFlight  string
	lastStart time.Time

	// wake nudges the worker when work arrives on an empty queue
	wake chan struct{}

	processed int64
	failures  int64
}

// New creates a scheduler. interval is the minimum spacing between the
// starts of consecutive runs.
func New(run RunFunc, interval time.Duration) *Scheduler {
	return &Scheduler{
		run:      run,
		interval: interval,
		queued:   make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue. Returns false (no-op) if
// the event is already queued or currently in flight.
func (s *Scheduler) Enqueue(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queued[eventID] || s.inFlight == eventID {
		return false
	}

	s.queue = append(s.queue, eventID)
	s.queued[eventID] = true

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return true
}

// Cancel removes a queued-but-not-started event. Returns false if the event
// is not queued; an in-flight run cannot be cancelled and proceeds to
// completion.
func (s *Scheduler) Cancel(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.queued[eventID] {
		return false
	}

	for i, id := range s.queue {
		if id == eventID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	delete(s.queued, eventID)

	return true
}

// InFlight returns the event currently being analyzed, or "".
func (s *Scheduler) InFlight() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Pending returns a copy of the queued event IDs in FIFO order.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]string, len(s.queue))
	copy(pending, s.queue)
	return pending
}

// Metrics returns the processed and failed run counts.
func (s *Scheduler) Metrics() (processed, failures int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.failures
}

// Run drives the queue until the context is cancelled. Call it from exactly
// one goroutine; the single worker is what guarantees one analysis in flight.
func (s *Scheduler) Run(ctx context.Context) {
	fmt.Printf("✓ Analysis scheduler started (interval: %s)\n", s.interval)

	for {
		if !s.waitForWork(ctx) {
			return
		}

		// Spacing is measured start-to-start: if the previous run outlived
		// the interval the next one starts immediately
		if !s.waitForSpacing(ctx) {
			return
		}

		eventID, ok := s.popNext()
		if !ok {
			// Everything was cancelled while we waited out the interval
			continue
		}

		err := s.run(ctx, eventID)

		s.mu.Lock()
		s.inFlight = ""
		s.processed++
		if err != nil {
			s.failures++
		}
		s.mu.Unlock()

		if err != nil {
			fmt.Printf("❌ analysis failed for event %s: %v\n", eventID, err)
		}
	}
}

// waitForWork blocks until the queue is non-empty. Returns false on
// cancellation.
func (s *Scheduler) waitForWork(ctx context.Context) bool {
	for {
		s.mu.Lock()
		hasWork := len(s.queue) > 0
		s.mu.Unlock()

		if hasWork {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-s.wake:
		}
	}
}

// waitForSpacing sleeps out the remainder of the start-to-start interval.
// Returns false on cancellation.
func (s *Scheduler) waitForSpacing(ctx context.Context) bool {
	s.mu.Lock()
	var wait time.Duration
	if !s.lastStart.IsZero() {
		wait = s.interval - time.Since(s.lastStart)
	}
	s.mu.Unlock()

	if wait <= 0 {
		return true
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}

// popNext moves the queue head into the in-flight slot and stamps the start
// time that anchors the next spacing calculation.
func (s *Scheduler) popNext() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return "", false
	}

	eventID := s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queued, eventID)
	s.inFlight = eventID
	s.lastStart = time.Now()

	return eventID, true
}
