package reactive

import (
	"github.com/vango-dev/reactor/pkg/report"
)

// Queue receives computations invalidated by a cell write.
// The scheduler implements it.
type Queue interface {
	Enqueue(c *Computation)
}

// Graph owns the tracking context and id space for a set of cells and
// computations.
type Graph struct {
	tracker  Tracker
	queue    Queue
	reporter report.Reporter

	nextComputation uint64
	nextDep         uint64
}

// NewGraph creates a graph delivering invalidated computations to q.
// With a nil queue, invalidated computations run immediately.
func NewGraph(q Queue) *Graph {
	return &Graph{queue: q, reporter: report.Discard}
}

// SetQueue replaces the queue.
func (g *Graph) SetQueue(q Queue) {
	g.queue = q
}

// SetReporter sets the sink for getter and callback failures of
// computations that have no OnError handler.
func (g *Graph) SetReporter(r report.Reporter) {
	if r == nil {
		r = report.Discard
	}
	g.reporter = r
}

// Tracker returns the graph's tracking context.
func (g *Graph) Tracker() *Tracker {
	return &g.tracker
}

// Untracked runs fn with no computation collecting dependencies.
func (g *Graph) Untracked(fn func()) {
	g.tracker.With(nil, fn)
}

func (g *Graph) schedule(c *Computation) {
	if g.queue == nil {
		c.Run()
		return
	}
	g.queue.Enqueue(c)
}

// Tracker is a stack-like slot naming the computation currently collecting
// dependencies. The zero value is ready to use and has no current target.
type Tracker struct {
	current *Computation
	stack   []*Computation
}

// Push saves the current target and makes c current. c may be nil, which
// disables tracking until the matching Pop.
func (t *Tracker) Push(c *Computation) {
	t.stack = append(t.stack, t.current)
	t.current = c
}

// Pop restores the target saved by the matching Push.
func (t *Tracker) Pop() {
	n := len(t.stack) - 1
	if n < 0 {
		t.current = nil
		return
	}
	t.current = t.stack[n]
	t.stack[n] = nil
	t.stack = t.stack[:n]
}

// Current returns the computation collecting dependencies, or nil.
func (t *Tracker) Current() *Computation {
	return t.current
}

// Depth returns the number of saved targets.
func (t *Tracker) Depth() int {
	return len(t.stack)
}

// With runs fn with c as the current target. The previous target is
// restored on every exit path, including a panic in fn.
func (t *Tracker) With(c *Computation, fn func()) {
	t.Push(c)
	defer t.Pop()
	fn()
}

func (t *Tracker) untrackedErr(fn func() error) error {
	t.Push(nil)
	defer t.Pop()
	return fn()
}
