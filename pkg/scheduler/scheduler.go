package scheduler

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
)

// DefaultMaxUpdateCount is how many times one computation may be re-queued
// within a single flush before the flush is aborted.
const DefaultMaxUpdateCount = 100

// Observer is notified about flush activity. Implementations must not
// enqueue computations.
type Observer interface {
	FlushStarted(pending int)
	ComputationRan(c *reactive.Computation, elapsed time.Duration)
	FlushFinished(ran int, elapsed time.Duration, aborted bool)
}

// Config configures a Scheduler.
type Config struct {
	// MaxUpdateCount caps re-queues of a single computation per flush.
	// Default: DefaultMaxUpdateCount.
	MaxUpdateCount int

	// Ticker defers flushes and NextTick callbacks. Default: &Microtasks{}.
	Ticker Ticker

	// Logger receives debug lines. Default: slog.Default().
	Logger *slog.Logger

	// Reporter receives update loop and NextTick callback reports.
	// Default: report.Discard.
	Reporter report.Reporter

	// Observer, if set, is told about every flush.
	Observer Observer
}

// Option configures a Scheduler.
type Option func(*Config)

// WithMaxUpdateCount sets the per-flush re-queue cap.
func WithMaxUpdateCount(n int) Option {
	return func(c *Config) { c.MaxUpdateCount = n }
}

// WithTicker sets the ticker.
func WithTicker(t Ticker) Option {
	return func(c *Config) { c.Ticker = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithReporter sets the reporter.
func WithReporter(r report.Reporter) Option {
	return func(c *Config) { c.Reporter = r }
}

// WithObserver sets the flush observer.
func WithObserver(o Observer) Option {
	return func(c *Config) { c.Observer = o }
}

type activation struct {
	id uint64
	fn func()
}

// Scheduler is the pending computation queue. It implements reactive.Queue.
// It is not safe for concurrent use; drive it from one goroutine (see Loop).
type Scheduler struct {
	cfg    Config
	logger *slog.Logger

	queue     []*reactive.Computation
	activated []activation
	has       map[uint64]bool
	circular  map[uint64]int
	waiting   bool
	flushing  bool
	index     int

	ticks   []func() error
	ticking bool

	flushes uint64
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxUpdateCount <= 0 {
		cfg.MaxUpdateCount = DefaultMaxUpdateCount
	}
	if cfg.Ticker == nil {
		cfg.Ticker = &Microtasks{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = report.Discard
	}
	return &Scheduler{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "scheduler"),
		has:      make(map[uint64]bool),
		circular: make(map[uint64]int),
	}
}

// Ticker returns the configured ticker.
func (s *Scheduler) Ticker() Ticker {
	return s.cfg.Ticker
}

// MaxUpdateCount returns the per-flush re-queue cap.
func (s *Scheduler) MaxUpdateCount() int {
	return s.cfg.MaxUpdateCount
}

// Enqueue adds c to the pending queue unless it is already queued, and
// schedules a flush if none is scheduled. While flushing, c is inserted
// after the running position at its id slot.
func (s *Scheduler) Enqueue(c *reactive.Computation) {
	if !c.Active() {
		return
	}
	id := c.ID()
	if s.has[id] {
		return
	}
	s.has[id] = true

	if !s.flushing {
		s.queue = append(s.queue, c)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].ID() > id {
			i--
		}
		s.queue = slices.Insert(s.queue, i+1, c)
	}

	if !s.waiting {
		s.waiting = true
		s.NextTick(func() error {
			s.Flush()
			return nil
		})
	}
}

// QueueActivated schedules fn to run after the next flush drains, ordered
// by id among other activations.
func (s *Scheduler) QueueActivated(id uint64, fn func()) {
	s.activated = append(s.activated, activation{id: id, fn: fn})
	if !s.waiting && !s.flushing {
		s.waiting = true
		s.NextTick(func() error {
			s.Flush()
			return nil
		})
	}
}

// Pending returns the number of queued computations.
func (s *Scheduler) Pending() int {
	return len(s.queue) - s.index
}

// Flushing reports whether a flush is in progress.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

// Flushes returns how many flushes have completed.
func (s *Scheduler) Flushes() uint64 {
	return s.flushes
}

// Flush drains the queue. It is normally called by the ticker.
func (s *Scheduler) Flush() {
	if s.flushing {
		return
	}
	start := time.Now()
	s.flushing = true

	slices.SortFunc(s.queue, func(a, b *reactive.Computation) int {
		return cmpID(a.ID(), b.ID())
	})
	if s.cfg.Observer != nil {
		s.cfg.Observer.FlushStarted(len(s.queue))
	}

	var ran []*reactive.Computation
	seen := make(map[uint64]bool)
	aborted := false

	for s.index = 0; s.index < len(s.queue); s.index++ {
		c := s.queue[s.index]
		c.Before()
		id := c.ID()
		delete(s.has, id)

		t0 := time.Now()
		c.Run()
		if s.cfg.Observer != nil {
			s.cfg.Observer.ComputationRan(c, time.Since(t0))
		}
		if !seen[id] {
			seen[id] = true
			ran = append(ran, c)
		}

		if s.has[id] {
			s.circular[id]++
			if s.circular[id] > s.cfg.MaxUpdateCount {
				s.reportLoop(c)
				aborted = true
				break
			}
		}
	}

	activated := s.activated
	dropped := len(s.queue) - s.index - 1
	s.reset()
	s.flushes++

	elapsed := time.Since(start)
	if s.cfg.Observer != nil {
		s.cfg.Observer.FlushFinished(len(ran), elapsed, aborted)
	}
	if aborted {
		s.logger.Warn("flush aborted", "ran", len(ran), "dropped", dropped)
	} else {
		s.logger.Debug("flush", "ran", len(ran), "duration", elapsed)
	}

	slices.SortStableFunc(activated, func(a, b activation) int {
		return cmpID(a.id, b.id)
	})
	for _, a := range activated {
		a.fn()
	}
	if aborted {
		return
	}

	slices.SortFunc(ran, func(a, b *reactive.Computation) int {
		return cmpID(a.ID(), b.ID())
	})
	for _, c := range ran {
		if c.Active() && c.HasAfter() {
			c.After()
		}
	}
}

func (s *Scheduler) reportLoop(c *reactive.Computation) {
	name := c.Name()
	if name == "" {
		name = "anonymous"
	}
	info := fmt.Sprintf("computation %d (%s)", c.ID(), name)
	err := fmt.Errorf("re-queued more than %d times in one flush", s.cfg.MaxUpdateCount)
	s.cfg.Reporter.Report(report.New(report.KindUpdateLoop, "R020", err).WithInfo(info))
}

// reset drops all pending work and flush state.
func (s *Scheduler) reset() {
	s.queue = nil
	s.activated = nil
	s.index = 0
	clear(s.has)
	clear(s.circular)
	s.waiting = false
	s.flushing = false
}

// Reset discards pending computations and activations without running
// them. NextTick callbacks already scheduled still run.
func (s *Scheduler) Reset() {
	if s.flushing {
		return
	}
	s.reset()
}

// NextTick runs fn after the current turn's pending flush. Errors and
// panics from fn are reported. Callbacks added while ticks are draining
// join the running drain, so a synchronous ticker never nests flushes.
func (s *Scheduler) NextTick(fn func() error) {
	s.ticks = append(s.ticks, fn)
	if !s.ticking {
		s.ticking = true
		s.cfg.Ticker.Defer(s.runTicks)
	}
}

func (s *Scheduler) runTicks() {
	defer func() { s.ticking = false }()
	for len(s.ticks) > 0 {
		ticks := s.ticks
		s.ticks = nil
		for _, fn := range ticks {
			if err := report.Guard(fn); err != nil {
				s.cfg.Reporter.Report(report.Hook("R014", err).WithInfo("nextTick"))
			}
		}
	}
}

func cmpID(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
