package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/reactor/pkg/report"
)

var (
	// ErrLoopTerminated is returned when submitting to a loop that has
	// stopped.
	ErrLoopTerminated = errors.New("reactor: loop terminated")

	// ErrLoopAlreadyRunning is returned by a second call to Run.
	ErrLoopAlreadyRunning = errors.New("reactor: loop already running")
)

type task struct {
	fn   func()
	done chan struct{}
}

// Loop runs tasks on one goroutine. After each task it drains the deferred
// work the task scheduled, so a flush requested by a task runs before the
// next task starts.
//
// Submit and Call may be used from any goroutine. Defer must only be called
// from the loop goroutine, which is where all runtime code runs.
type Loop struct {
	tasks  chan task
	micro  Microtasks
	logger *slog.Logger

	running    atomic.Bool
	terminated atomic.Bool
	stopOnce   sync.Once
	stop       chan struct{}
	done       chan struct{}

	mu       sync.Mutex
	inflight sync.WaitGroup
}

// NewLoop creates a loop whose task queue holds up to buffer tasks before
// Submit blocks.
func NewLoop(buffer int, logger *slog.Logger) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		tasks:  make(chan task, buffer),
		logger: logger.With("component", "loop"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Defer implements Ticker.
func (l *Loop) Defer(fn func()) {
	l.micro.Defer(fn)
}

// Run processes tasks until ctx is cancelled or Shutdown is called. It
// blocks; use `go loop.Run(ctx)` to run it in the background.
func (l *Loop) Run(ctx context.Context) error {
	if l.terminated.Load() {
		return ErrLoopTerminated
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.drainTasks()
			return ctx.Err()
		case <-l.stop:
			l.drainTasks()
			return nil
		case t := <-l.tasks:
			l.runTask(t)
		}
	}
}

// drainTasks rejects new submissions and runs everything already
// submitted, including tasks from Submit calls still blocked on a full queue.
func (l *Loop) drainTasks() {
	l.mu.Lock()
	l.terminated.Store(true)
	l.mu.Unlock()

	settled := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(settled)
	}()

	for {
		select {
		case t := <-l.tasks:
			l.runTask(t)
		case <-settled:
			for {
				select {
				case t := <-l.tasks:
					l.runTask(t)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) runTask(t task) {
	if t.done != nil {
		defer close(t.done)
	}
	err := report.Guard(func() error {
		t.fn()
		return nil
	})
	if err != nil {
		l.logger.Error("task panicked", "error", err)
	}
	err = report.Guard(func() error {
		l.micro.Drain()
		return nil
	})
	if err != nil {
		l.logger.Error("deferred work panicked", "error", err)
		l.micro.queue = nil
	}
}

func (l *Loop) submit(t task) error {
	l.mu.Lock()
	if l.terminated.Load() {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.inflight.Add(1)
	l.mu.Unlock()
	defer l.inflight.Done()

	l.tasks <- t
	return nil
}

// Submit queues fn to run on the loop goroutine.
func (l *Loop) Submit(fn func()) error {
	return l.submit(task{fn: fn})
}

// Call submits fn and waits until it, and the deferred work it scheduled,
// has completed.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.submit(task{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the loop after the tasks already submitted have run and
// waits for Run to return or ctx to expire.
func (l *Loop) Shutdown(ctx context.Context) error {
	l.stopOnce.Do(func() { close(l.stop) })
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
