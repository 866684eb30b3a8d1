package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
)

func setup(opts ...Option) (*Scheduler, *reactive.Graph, *Microtasks, *report.Recorder) {
	ticker := &Microtasks{}
	rec := report.NewRecorder()
	opts = append([]Option{WithTicker(ticker), WithReporter(rec)}, opts...)
	s := New(opts...)
	g := reactive.NewGraph(s)
	g.SetReporter(rec)
	return s, g, ticker, rec
}

func TestCoalescesWrites(t *testing.T) {
	s, g, ticker, _ := setup()
	cell := reactive.NewCell(g, 0)
	runs := 0
	g.NewComputation(func() (any, error) {
		runs++
		return cell.Get(), nil
	}, reactive.Options{})

	for i := 1; i <= 10; i++ {
		cell.Set(i)
	}
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 1, ticker.Pending())

	ticker.Drain()
	assert.Equal(t, 2, runs)
	assert.Zero(t, s.Pending())
	assert.Equal(t, uint64(1), s.Flushes())
}

func TestFlushOrderByID(t *testing.T) {
	s, g, ticker, _ := setup()
	cells := []*reactive.Cell[int]{reactive.NewCell(g, 0), reactive.NewCell(g, 0), reactive.NewCell(g, 0)}

	var order []int
	for i := range cells {
		cell := cells[i]
		n := i + 1
		g.NewComputation(func() (any, error) {
			cell.Get()
			order = append(order, n)
			return nil, nil
		}, reactive.Options{})
	}
	order = nil

	cells[2].Set(1)
	cells[0].Set(1)
	cells[1].Set(1)
	require.Equal(t, 3, s.Pending())

	ticker.Drain()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestMidFlushInsertKeepsIDOrder(t *testing.T) {
	_, g, ticker, _ := setup()
	trigger := reactive.NewCell(g, 0)
	late := reactive.NewCell(g, 0)
	var order []string

	// id 1: watcher that mutates `late` when trigger changes
	g.Watch(func() any { return trigger.Get() }, func(n, o any) error {
		order = append(order, "watcher")
		late.Set(n.(int))
		return nil
	}, reactive.Options{})
	// id 2: depends on late
	g.NewComputation(func() (any, error) {
		if late.Get() > 0 {
			order = append(order, "reader")
		}
		return nil, nil
	}, reactive.Options{})
	// id 3: depends on trigger
	g.NewComputation(func() (any, error) {
		if trigger.Get() > 0 {
			order = append(order, "render")
		}
		return nil, nil
	}, reactive.Options{})

	trigger.Set(1)
	ticker.Drain()
	assert.Equal(t, []string{"watcher", "reader", "render"}, order)
}

func TestBeforeRunsBeforeEachComputation(t *testing.T) {
	_, g, ticker, _ := setup()
	cell := reactive.NewCell(g, 0)
	var events []string
	g.NewComputation(func() (any, error) {
		cell.Get()
		events = append(events, "run")
		return nil, nil
	}, reactive.Options{
		Before: func() { events = append(events, "before") },
		After:  func() { events = append(events, "after") },
	})
	events = nil

	cell.Set(1)
	ticker.Drain()
	assert.Equal(t, []string{"before", "run", "after"}, events)
}

func TestAfterHooksAscendingAndOnlyForRan(t *testing.T) {
	_, g, ticker, _ := setup()
	a := reactive.NewCell(g, 0)
	b := reactive.NewCell(g, 0)
	var after []string

	mk := func(name string, cell *reactive.Cell[int]) {
		g.NewComputation(func() (any, error) {
			return cell.Get(), nil
		}, reactive.Options{After: func() { after = append(after, name) }})
	}
	mk("first", a)
	mk("second", b)
	mk("third", a)

	a.Set(1)
	ticker.Drain()
	assert.Equal(t, []string{"first", "third"}, after)
}

func TestUpdateLoopAbortsAndDropsQueue(t *testing.T) {
	s, g, ticker, rec := setup(WithMaxUpdateCount(5))
	cell := reactive.NewCell(g, 0)
	other := reactive.NewCell(g, 0)

	runs := 0
	g.NewComputation(func() (any, error) {
		v := cell.Get()
		runs++
		cell.Set(v + 1)
		return nil, nil
	}, reactive.Options{Name: "runaway"})

	otherRuns := 0
	afterCalled := false
	g.NewComputation(func() (any, error) {
		other.Get()
		otherRuns++
		return nil, nil
	}, reactive.Options{After: func() { afterCalled = true }})

	// the construction run already re-queued the runaway computation
	other.Set(1)
	ticker.Drain()

	require.Equal(t, 1, rec.Count(report.KindUpdateLoop))
	last := rec.Last()
	assert.Equal(t, "R020", last.Code)
	assert.Contains(t, last.Info, "runaway")
	assert.Equal(t, 1+5+1, runs)
	assert.Equal(t, 1, otherRuns, "queued computation after the loop is dropped")
	assert.False(t, afterCalled)
	assert.Zero(t, s.Pending())
	assert.False(t, s.Flushing())
}

func TestRenderErrorDoesNotAbortFlush(t *testing.T) {
	_, g, ticker, rec := setup()
	cell := reactive.NewCell(g, 0)
	var ran []string

	g.NewComputation(func() (any, error) {
		if cell.Get() > 0 {
			return nil, errors.New("broken")
		}
		return nil, nil
	}, reactive.Options{})
	g.NewComputation(func() (any, error) {
		if cell.Get() > 0 {
			ran = append(ran, "healthy")
		}
		return nil, nil
	}, reactive.Options{})

	cell.Set(1)
	ticker.Drain()
	assert.Equal(t, []string{"healthy"}, ran)
	assert.Equal(t, 1, rec.Count(report.KindHook))
}

func TestTornDownComputationSkipped(t *testing.T) {
	s, g, ticker, _ := setup()
	cell := reactive.NewCell(g, 0)
	runs := 0
	c := g.NewComputation(func() (any, error) {
		runs++
		return cell.Get(), nil
	}, reactive.Options{})

	cell.Set(1)
	require.Equal(t, 1, s.Pending())
	c.Teardown()
	ticker.Drain()
	assert.Equal(t, 1, runs)
}

func TestQueueActivated(t *testing.T) {
	s, g, ticker, _ := setup()
	cell := reactive.NewCell(g, 0)
	var order []string
	g.NewComputation(func() (any, error) {
		cell.Get()
		return nil, nil
	}, reactive.Options{After: func() { order = append(order, "updated") }})

	s.QueueActivated(7, func() { order = append(order, "activated 7") })
	s.QueueActivated(3, func() { order = append(order, "activated 3") })
	cell.Set(1)
	ticker.Drain()

	assert.Equal(t, []string{"activated 3", "activated 7", "updated"}, order)
}

func TestNextTickRunsAfterFlush(t *testing.T) {
	s, g, ticker, rec := setup()
	cell := reactive.NewCell(g, 0)
	var order []string
	g.NewComputation(func() (any, error) {
		if cell.Get() > 0 {
			order = append(order, "flush")
		}
		return nil, nil
	}, reactive.Options{})

	cell.Set(1)
	s.NextTick(func() error {
		order = append(order, "tick")
		return nil
	})
	s.NextTick(func() error { return errors.New("tick failed") })
	s.NextTick(func() error { panic("tick panicked") })
	ticker.Drain()

	assert.Equal(t, []string{"flush", "tick"}, order)
	assert.Equal(t, 2, rec.Count(report.KindHook))
	assert.Equal(t, "R014", rec.Last().Code)
}

func TestImmediateTickerFlushesSynchronously(t *testing.T) {
	s := New(WithTicker(Immediate{}))
	g := reactive.NewGraph(s)
	cell := reactive.NewCell(g, 0)
	var seen []int
	g.NewComputation(func() (any, error) {
		seen = append(seen, cell.Get())
		return nil, nil
	}, reactive.Options{})

	cell.Set(1)
	cell.Set(2)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestImmediateTickerDrainsNestedTicksIteratively(t *testing.T) {
	s := New(WithTicker(Immediate{}))
	depth, maxDepth := 0, 0
	var order []int
	var tick func(n int) func() error
	tick = func(n int) func() error {
		return func() error {
			depth++
			defer func() { depth-- }()
			maxDepth = max(maxDepth, depth)
			order = append(order, n)
			if n < 50 {
				s.NextTick(tick(n + 1))
			}
			return nil
		}
	}

	s.NextTick(tick(1))
	require.Len(t, order, 50)
	assert.Equal(t, 50, order[49])
	assert.Equal(t, 1, maxDepth)
}

type recordingObserver struct {
	started  []int
	ran      int
	finished []bool
}

func (o *recordingObserver) FlushStarted(pending int) { o.started = append(o.started, pending) }
func (o *recordingObserver) ComputationRan(*reactive.Computation, time.Duration) {
	o.ran++
}
func (o *recordingObserver) FlushFinished(_ int, _ time.Duration, aborted bool) {
	o.finished = append(o.finished, aborted)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	_, g, ticker, _ := setup(WithObserver(obs))
	cell := reactive.NewCell(g, 0)
	for i := 0; i < 2; i++ {
		g.NewComputation(func() (any, error) { return cell.Get(), nil }, reactive.Options{})
	}

	cell.Set(1)
	ticker.Drain()
	assert.Equal(t, []int{2}, obs.started)
	assert.Equal(t, 2, obs.ran)
	assert.Equal(t, []bool{false}, obs.finished)
}

func TestReset(t *testing.T) {
	s, g, ticker, _ := setup()
	cell := reactive.NewCell(g, 0)
	runs := 0
	g.NewComputation(func() (any, error) {
		runs++
		return cell.Get(), nil
	}, reactive.Options{})

	cell.Set(1)
	s.Reset()
	ticker.Drain()
	assert.Equal(t, 1, runs)

	cell.Set(2)
	ticker.Drain()
	assert.Equal(t, 2, runs)
}

func TestDefaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultMaxUpdateCount, s.MaxUpdateCount())
	assert.IsType(t, &Microtasks{}, s.Ticker())
}
