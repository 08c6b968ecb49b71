package timer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

var (
	ErrSchedulerClosed = errors.New("scheduler is closed")
	ErrInvalidPeriod   = errors.New("period must be positive")
)

// Handle - a scheduled repeating callback.
type Handle struct {
	stop chan struct{}
	once sync.Once
}

// Cancel - never blocks and may be called any number of times, including from the callback itself.
func (that *Handle) Cancel() {
	that.once.Do(func() {
		close(that.stop)
	})
}

func (that *Handle) Cancelled() bool {
	select {
	case <-that.stop:
		return true
	default:
		return false
	}
}

// Scheduler runs repeating callbacks on a fixed pool of workers.
// One goroutine per handle waits on the ticker; the callbacks themselves run on the pool.
type Scheduler struct {
	logger *slog.Logger
	clock  clock.Clock
	jobs   chan func()

	mu      sync.Mutex
	closed  bool
	handles map[*Handle]struct{}

	loops   sync.WaitGroup
	workers sync.WaitGroup
}

func NewScheduler(logger *slog.Logger, clk clock.Clock, workers int) *Scheduler {
	if workers <= 0 {
		workers = 1
	}

	scheduler := &Scheduler{
		logger:  logger.With("component", "scheduler"),
		clock:   clk,
		jobs:    make(chan func(), workers),
		handles: make(map[*Handle]struct{}),
	}

	scheduler.workers.Add(workers)
	for range workers {
		go scheduler.work()
	}

	return scheduler
}

// Every - runs fn every period until the handle is cancelled or the scheduler shuts down.
func (that *Scheduler) Every(period time.Duration, fn func()) (*Handle, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return nil, ErrSchedulerClosed
	}

	handle := &Handle{stop: make(chan struct{})}
	ticker := that.clock.Ticker(period)

	that.handles[handle] = struct{}{}
	that.loops.Add(1)

	go that.loop(handle, ticker, fn)

	return handle, nil
}

// Active - number of handles still scheduled.
func (that *Scheduler) Active() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.handles)
}

// Shutdown - cancels every handle, then stops the workers once queued jobs are drained.
func (that *Scheduler) Shutdown() {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return
	}
	that.closed = true

	handles := make([]*Handle, 0, len(that.handles))
	for handle := range that.handles {
		handles = append(handles, handle)
	}
	that.mu.Unlock()

	for _, handle := range handles {
		handle.Cancel()
	}

	that.loops.Wait()
	close(that.jobs)
	that.workers.Wait()

	that.logger.Info("scheduler stopped", "cancelled", len(handles))
}

func (that *Scheduler) loop(handle *Handle, ticker *clock.Ticker, fn func()) {
	defer that.loops.Done()
	defer that.forget(handle)
	defer ticker.Stop()

	job := func() {
		if !handle.Cancelled() {
			fn()
		}
	}

	for {
		select {
		case <-handle.stop:
			return
		case <-ticker.C:
			select {
			case that.jobs <- job:
			case <-handle.stop:
				return
			}
		}
	}
}

func (that *Scheduler) forget(handle *Handle) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.handles, handle)
}

func (that *Scheduler) work() {
	defer that.workers.Done()

	for job := range that.jobs {
		that.run(job)
	}
}

func (that *Scheduler) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("scheduled job panicked", "panic", r)
		}
	}()

	job()
}
