package reactive

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/vango-dev/reactor/pkg/report"
)

// Getter produces a computation's value. Reads performed inside it are
// tracked.
type Getter func() (any, error)

// Callback receives the new and previous value of a computation whose
// value changed.
type Callback func(newValue, oldValue any) error

// Phase names the part of a computation that failed.
type Phase string

const (
	PhaseGetter   Phase = "getter"
	PhaseCallback Phase = "callback"
)

// Options configures a computation.
type Options struct {
	// Name is used in reports.
	Name string

	// Lazy computations are not run on creation or invalidation; they are
	// marked dirty and evaluated on the next read.
	Lazy bool

	// Sync computations run at invalidation time instead of being queued.
	Sync bool

	// Render marks the primary render computation of an instance.
	Render bool

	// Callback makes the computation a watcher.
	Callback Callback

	// Immediate invokes Callback once with the initial value.
	Immediate bool

	// Before runs right before the scheduler runs the computation.
	Before func()

	// After runs once after a flush in which the computation ran.
	After func()

	// Suspended reports whether a run should be held back. A held-back
	// computation is marked stale and replayed by Resume.
	Suspended func() bool

	// OnError handles getter and callback failures. Without it failures go
	// to the graph's reporter.
	OnError func(err error, phase Phase)
}

// Computation is a re-runnable unit of derived work: a render, a watcher or
// a computed value.
type Computation struct {
	graph *Graph
	id    uint64
	opts  Options

	getter Getter
	value  any

	deps      []*Dep
	newDeps   []*Dep
	depIDs    mapset.Set[uint64]
	newDepIDs mapset.Set[uint64]

	dirty  bool
	stale  bool
	active bool
	runs   int
}

// NewComputation creates a computation. Unless it is lazy, it runs once
// synchronously before NewComputation returns.
func (g *Graph) NewComputation(getter Getter, opts Options) *Computation {
	g.nextComputation++
	c := &Computation{
		graph:     g,
		id:        g.nextComputation,
		opts:      opts,
		getter:    getter,
		depIDs:    mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs: mapset.NewThreadUnsafeSet[uint64](),
		dirty:     opts.Lazy,
		active:    true,
	}
	if opts.Lazy {
		return c
	}

	value, err := c.Get()
	if err != nil {
		c.fail(err, PhaseGetter)
		return c
	}
	c.value = value
	if opts.Immediate && opts.Callback != nil {
		c.invoke(value, nil)
	}
	return c
}

// ID returns the creation id. Ids are unique within the graph and increase
// with creation order.
func (c *Computation) ID() uint64 { return c.id }

// Name returns the configured name.
func (c *Computation) Name() string { return c.opts.Name }

// IsRender reports whether c is an instance's render computation.
func (c *Computation) IsRender() bool { return c.opts.Render }

// Active reports whether c has not been torn down.
func (c *Computation) Active() bool { return c.active }

// Dirty reports whether a lazy computation needs evaluation.
func (c *Computation) Dirty() bool { return c.dirty }

// Stale reports whether a run was held back while suspended.
func (c *Computation) Stale() bool { return c.stale }

// Value returns the last computed value.
func (c *Computation) Value() any { return c.value }

// Runs returns how many times the getter has executed.
func (c *Computation) Runs() int { return c.runs }

// DepCount returns the number of deps collected by the last run.
func (c *Computation) DepCount() int { return len(c.deps) }

// Before runs the pre-run hook, if any.
func (c *Computation) Before() {
	if c.opts.Before != nil {
		c.opts.Before()
	}
}

// HasAfter reports whether c has a post-flush hook.
func (c *Computation) HasAfter() bool { return c.opts.After != nil }

// After runs the post-flush hook, if any.
func (c *Computation) After() {
	if c.opts.After != nil {
		c.opts.After()
	}
}

// Get evaluates the getter with c as the tracking target and re-collects
// dependencies. Panics in the getter are returned as errors.
func (c *Computation) Get() (value any, err error) {
	t := &c.graph.tracker
	t.Push(c)
	defer func() {
		t.Pop()
		c.cleanupDeps()
	}()

	c.runs++
	err = report.Guard(func() error {
		var gerr error
		value, gerr = c.getter()
		return gerr
	})
	return value, err
}

func (c *Computation) addDep(d *Dep) {
	if c.newDepIDs.Contains(d.id) {
		return
	}
	c.newDepIDs.Add(d.id)
	c.newDeps = append(c.newDeps, d)
	if !c.depIDs.Contains(d.id) {
		d.addSub(c)
	}
}

// cleanupDeps unsubscribes from deps the last run did not read and swaps
// the new dep list in.
func (c *Computation) cleanupDeps() {
	for _, d := range c.deps {
		if !c.newDepIDs.Contains(d.id) {
			d.removeSub(c)
		}
	}
	c.depIDs, c.newDepIDs = c.newDepIDs, c.depIDs
	c.newDepIDs.Clear()
	c.deps, c.newDeps = c.newDeps, c.deps[:0]
}

// Update is called when a dependency changes.
func (c *Computation) Update() {
	if !c.active {
		return
	}
	switch {
	case c.opts.Lazy:
		c.dirty = true
	case c.opts.Sync:
		c.Run()
	default:
		c.graph.schedule(c)
	}
}

// Run re-evaluates the computation and, for watchers, invokes the callback
// when the value changed or is a reference (map, slice, pointer, chan or
// func) that may have been mutated in place. Inactive computations do nothing; suspended ones
// are marked stale.
func (c *Computation) Run() {
	if !c.active {
		return
	}
	if c.opts.Suspended != nil && c.opts.Suspended() {
		c.stale = true
		return
	}
	c.stale = false

	value, err := c.Get()
	if err != nil {
		c.fail(err, PhaseGetter)
		return
	}
	old := c.value
	c.value = value
	if c.opts.Callback != nil && (!sameValue(value, old) || isReference(value)) {
		c.invoke(value, old)
	}
}

// Resume runs c if a run was held back while it was suspended.
func (c *Computation) Resume() bool {
	if !c.stale {
		return false
	}
	c.Run()
	return true
}

func (c *Computation) invoke(value, old any) {
	err := c.graph.tracker.untrackedErr(func() error {
		return report.Guard(func() error {
			return c.opts.Callback(value, old)
		})
	})
	if err != nil {
		c.fail(err, PhaseCallback)
	}
}

func (c *Computation) fail(err error, phase Phase) {
	if c.opts.OnError != nil {
		c.opts.OnError(err, phase)
		return
	}
	code := "R013"
	if phase == PhaseCallback {
		code = "R012"
	}
	c.graph.reporter.Report(report.Hook(code, err).WithInfo(c.describe(phase)))
}

func (c *Computation) describe(phase Phase) string {
	name := c.opts.Name
	if name == "" {
		name = fmt.Sprintf("computation %d", c.id)
	}
	return fmt.Sprintf("%s %s", name, phase)
}

// Evaluate runs a lazy computation's getter and clears its dirty flag.
func (c *Computation) Evaluate() {
	value, err := c.Get()
	c.dirty = false
	if err != nil {
		c.fail(err, PhaseGetter)
		return
	}
	c.value = value
}

// Depend makes the current tracking target depend on every dep c
// collected.
func (c *Computation) Depend() {
	for _, d := range c.deps {
		d.Depend()
	}
}

// Teardown unsubscribes c from every dep. It is not run again.
func (c *Computation) Teardown() {
	if !c.active {
		return
	}
	for _, d := range c.deps {
		d.removeSub(c)
	}
	c.deps = nil
	c.depIDs.Clear()
	c.active = false
	c.stale = false
}

// sameValue compares two dynamically typed values.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return defaultEquals(a, b)
}
