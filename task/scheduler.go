// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package task provides the per-surface timed task scheduler used by the
// overlay compositor.
//
// A Scheduler owns a min-heap of (execution time, sequence) ordered
// callbacks and one dedicated worker goroutine that drains it. Posting is
// safe from any goroutine, including the worker itself, and never blocks
// beyond heap mutation. Tasks with equal execution times run in post order:
// every post is stamped with a monotonically increasing sequence number, so
// dispatch order is fully deterministic and independent of payload identity.
package task

import (
	"container/heap"
	"sync"
	"time"
)

// DefaultMaxSleep bounds how long the worker sleeps while the earliest
// pending task is still in the future. A task posted with an earlier
// deadline wakes the worker immediately; the bound only caps the window in
// the absence of a wake signal.
const DefaultMaxSleep = 100 * time.Millisecond

// joinTimeout bounds how long Shutdown waits for the worker to exit before
// leaving it detached.
const joinTimeout = time.Second

// Func is a unit of work executed on the scheduler's worker goroutine.
type Func func()

// scheduledTask pairs a callback with its execution time and the sequence
// number assigned at post time.
type scheduledTask struct {
	runAt time.Time
	seq   uint64
	fn    Func
}

// taskHeap is a min-heap ordered by runAt, then seq.
type taskHeap []scheduledTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if !h[i].runAt.Equal(h[j].runAt) {
		return h[i].runAt.Before(h[j].runAt)
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(scheduledTask))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = scheduledTask{} // release the closure
	*h = old[:n-1]
	return item
}

// Scheduler executes timed callbacks on a dedicated worker goroutine.
//
// The zero value is not usable; construct with New. The worker starts
// lazily on the first Post (or an explicit Start) and runs until Shutdown.
type Scheduler struct {
	mu   sync.Mutex
	heap taskHeap
	seq  uint64

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	stopped   bool

	workerID goroutineID

	name     string
	maxSleep time.Duration
}

// Option configures a Scheduler during creation.
type Option func(*Scheduler)

// WithName sets a diagnostic name included in the scheduler's log output.
func WithName(name string) Option {
	return func(s *Scheduler) { s.name = name }
}

// WithMaxSleep overrides the bounded maximum worker sleep.
// Values <= 0 are ignored.
func WithMaxSleep(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxSleep = d
		}
	}
}

// New creates a Scheduler. The worker goroutine is not started until the
// first Post or an explicit Start call.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		maxSleep: DefaultMaxSleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Post schedules fn to run at or after the given execution time.
// It is callable from any goroutine, including the worker itself, and
// starts the worker on first use. Returns false if the scheduler has been
// shut down (the task is dropped) or fn is nil.
func (s *Scheduler) Post(fn Func, at time.Time) bool {
	if fn == nil {
		return false
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		logger().Warn("task: post after shutdown dropped", "scheduler", s.name)
		return false
	}
	heap.Push(&s.heap, scheduledTask{runAt: at, seq: s.seq, fn: fn})
	s.seq++
	s.mu.Unlock()

	s.Start()
	s.signal()
	return true
}

// PostDelayed schedules fn to run after the given delay from now.
func (s *Scheduler) PostDelayed(fn Func, delay time.Duration) bool {
	return s.Post(fn, time.Now().Add(delay))
}

// Pending returns the number of tasks waiting in the queue.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// Start launches the worker goroutine. It is idempotent; only the first
// call has any effect. Post calls Start implicitly.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// RunsOnWorker reports whether the calling goroutine is the scheduler's
// worker. Callbacks with worker affinity use this to verify they are being
// invoked from the right place. Returns false (and logs) if the worker has
// not started yet.
func (s *Scheduler) RunsOnWorker() bool {
	worker := s.workerID.load()
	if worker == 0 {
		logger().Warn("task: worker not started, affinity check fails closed", "scheduler", s.name)
		return false
	}
	return currentGoroutineID() == worker
}

// Shutdown stops the worker and waits for it to exit, bounded by a join
// timeout. A worker that does not exit in time is logged and left detached;
// stalling the caller indefinitely would be worse than a leaked goroutine.
// Tasks still in the queue when the worker observes the stop signal are
// dropped. Shutdown is idempotent.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		started := s.workerID.load() != 0
		s.mu.Unlock()

		close(s.stop)

		if !started {
			// Start may have raced; fall through to the bounded wait only
			// when a worker is known to exist.
			select {
			case <-s.done:
			default:
				return
			}
		}

		select {
		case <-s.done:
		case <-time.After(joinTimeout):
			logger().Warn("task: worker did not exit in time, leaving detached",
				"scheduler", s.name, "timeout", joinTimeout)
		}
	})
}

// signal wakes the worker if it is sleeping. The channel has capacity one;
// a pending wake already covers any number of posts.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop. It pops and executes due tasks with the lock
// released, and otherwise sleeps until the earliest deadline, the bounded
// maximum, or a wake signal, whichever comes first.
func (s *Scheduler) run() {
	s.workerID.store(currentGoroutineID())
	defer close(s.done)

	timer := time.NewTimer(s.maxSleep)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		s.mu.Lock()
		if len(s.heap) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
			case <-s.stop:
				return
			}
			continue
		}

		now := time.Now()
		head := s.heap[0]
		if !head.runAt.After(now) {
			heap.Pop(&s.heap)
			s.mu.Unlock()
			// Execute with the lock released so posting is never blocked
			// by a running callback.
			head.fn()
			continue
		}
		wait := head.runAt.Sub(now)
		s.mu.Unlock()

		if wait > s.maxSleep {
			wait = s.maxSleep
		}
		timer.Reset(wait)
		select {
		case <-s.wake:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
		case <-s.stop:
			return
		}
	}
}
