package component

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/scheduler"
	"github.com/vango-dev/reactor/pkg/vdom"
)

var (
	// ErrDestroyed is returned when operating on a destroyed instance.
	ErrDestroyed = errors.New("reactor: instance destroyed")

	// ErrAlreadyMounted is returned by Mount on a mounted instance.
	ErrAlreadyMounted = errors.New("reactor: instance already mounted")
)

// ID identifies an instance within a Runtime. Zero means "no instance".
type ID uint64

// Patcher applies a new tree over an old one and returns the root host
// element. old == nil is a first mount; vnode == nil is a full teardown.
type Patcher interface {
	Patch(old, vnode *vdom.VNode, hydrating, removeOnly bool) *vdom.Element
}

// Observer is notified about instance activity. Implementations that also
// implement scheduler.Observer receive flush notifications.
type Observer interface {
	InstanceCreated(inst *Instance)
	HookCalled(inst *Instance, hook Hook)
	InstancePatched(inst *Instance, prev, next *vdom.VNode, elapsed time.Duration)
	InstanceDestroyed(inst *Instance)
	Reported(e *report.Error)
}

// Config holds runtime behaviour switches.
type Config struct {
	// MaxUpdateCount caps re-queues of one computation per flush.
	MaxUpdateCount int

	// Async defers flushes to the ticker. When false, every enqueue flushes
	// synchronously.
	Async bool

	// DevMode enables warnings: unresolved injections, writes to injected
	// values, multi-root renders and unknown state keys.
	DevMode bool

	// Silent suppresses warnings even in dev mode.
	Silent bool

	// Performance logs render and patch timings at debug level.
	Performance bool
}

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() Config {
	return Config{
		MaxUpdateCount: scheduler.DefaultMaxUpdateCount,
		Async:          true,
		DevMode:        true,
	}
}

type settings struct {
	cfg       Config
	logger    *slog.Logger
	patcher   Patcher
	ticker    scheduler.Ticker
	reporter  report.Reporter
	observers []Observer
}

// Option configures a Runtime.
type Option func(*settings)

// WithConfig sets the runtime configuration.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithPatcher replaces the reference renderer. A custom patcher that mounts
// child components should use Runtime.Hooks.
func WithPatcher(p Patcher) Option {
	return func(s *settings) { s.patcher = p }
}

// WithTicker sets the ticker that defers flushes. Ignored when Async is
// false.
func WithTicker(t scheduler.Ticker) Option {
	return func(s *settings) { s.ticker = t }
}

// WithReporter sets the error sink. Default: a SlogReporter on the logger.
func WithReporter(r report.Reporter) Option {
	return func(s *settings) { s.reporter = r }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observers = append(s.observers, o) }
}

// Runtime owns the instance arena and everything needed to drive it. It is
// not safe for concurrent use; run it on a single goroutine such as a
// scheduler.Loop.
type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	graph     *reactive.Graph
	sched     *scheduler.Scheduler
	patcher   Patcher
	renderer  *vdom.Renderer
	reporter  report.Reporter
	observers []Observer
	store     *reactive.Store

	instances map[ID]*Instance
	nextID    ID
	active    *Instance
}

// New creates a runtime.
func New(opts ...Option) *Runtime {
	s := settings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.reporter == nil {
		s.reporter = report.NewSlogReporter(s.logger)
	}
	if s.ticker == nil {
		s.ticker = &scheduler.Microtasks{}
	}
	if !s.cfg.Async {
		s.ticker = scheduler.Immediate{}
	}

	rt := &Runtime{
		cfg:       s.cfg,
		logger:    s.logger.With("component", "runtime"),
		reporter:  s.reporter,
		observers: s.observers,
		instances: make(map[ID]*Instance),
	}
	routed := report.ReporterFunc(rt.emitReport)

	var flushObservers []scheduler.Observer
	for _, o := range s.observers {
		if so, ok := o.(scheduler.Observer); ok {
			flushObservers = append(flushObservers, so)
		}
	}
	schedOpts := []scheduler.Option{
		scheduler.WithMaxUpdateCount(s.cfg.MaxUpdateCount),
		scheduler.WithTicker(s.ticker),
		scheduler.WithLogger(s.logger),
		scheduler.WithReporter(routed),
	}
	if len(flushObservers) > 0 {
		schedOpts = append(schedOpts, scheduler.WithObserver(flushFanout(flushObservers)))
	}
	rt.sched = scheduler.New(schedOpts...)

	rt.graph = reactive.NewGraph(rt.sched)
	rt.graph.SetReporter(routed)
	rt.store = reactive.NewStore(rt.graph)

	if s.patcher != nil {
		rt.patcher = s.patcher
	} else {
		rt.renderer = vdom.NewRenderer(rt.Hooks())
		rt.patcher = rt.renderer
	}
	return rt
}

// emitReport filters warnings, notifies observers and hands e to the sink.
func (rt *Runtime) emitReport(e *report.Error) {
	if e.Kind.IsWarning() && (!rt.cfg.DevMode || rt.cfg.Silent) {
		return
	}
	for _, o := range rt.observers {
		o.Reported(e)
	}
	rt.reporter.Report(e)
}

// Config returns the runtime configuration.
func (rt *Runtime) Config() Config { return rt.cfg }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// Graph returns the dependency graph.
func (rt *Runtime) Graph() *reactive.Graph { return rt.graph }

// Scheduler returns the scheduler.
func (rt *Runtime) Scheduler() *scheduler.Scheduler { return rt.sched }

// Store returns the shared store.
func (rt *Runtime) Store() *reactive.Store { return rt.store }

// Renderer returns the reference renderer, or nil when a custom patcher is
// configured.
func (rt *Runtime) Renderer() *vdom.Renderer { return rt.renderer }

// Flush runs any deferred work: the pending flush and NextTick callbacks.
// It is a convenience for the default Microtasks ticker; with another
// ticker it flushes the scheduler queue directly.
func (rt *Runtime) Flush() {
	if m, ok := rt.sched.Ticker().(*scheduler.Microtasks); ok {
		m.Drain()
		return
	}
	rt.sched.Flush()
}

// NextTick runs fn after the pending flush.
func (rt *Runtime) NextTick(fn func() error) {
	rt.sched.NextTick(fn)
}

// Lookup returns the live instance with id.
func (rt *Runtime) Lookup(id ID) (*Instance, bool) {
	inst, ok := rt.instances[id]
	return inst, ok
}

// Len returns the number of live instances.
func (rt *Runtime) Len() int {
	return len(rt.instances)
}

// Roots returns the live instances without a parent, in id order.
func (rt *Runtime) Roots() []*Instance {
	var roots []*Instance
	for _, inst := range rt.instances {
		if inst.parent == 0 {
			roots = append(roots, inst)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].id < roots[j].id })
	return roots
}

// ActiveInstance returns the instance currently being patched, or nil.
func (rt *Runtime) ActiveInstance() *Instance {
	return rt.active
}

// setActiveInstance makes inst active and returns a func restoring the
// previous one.
func (rt *Runtime) setActiveInstance(inst *Instance) func() {
	prev := rt.active
	rt.active = inst
	return func() { rt.active = prev }
}

func (rt *Runtime) patch(old, vnode *vdom.VNode, hydrating, removeOnly bool) *vdom.Element {
	return rt.patcher.Patch(old, vnode, hydrating, removeOnly)
}

// Mount creates a root instance for opts with the given props and mounts it.
func (rt *Runtime) Mount(opts *Options, props map[string]any) (*Instance, error) {
	inst := rt.Create(opts, nil, props)
	if err := inst.Mount(); err != nil {
		return inst, err
	}
	return inst, nil
}

// Create initialises an instance without mounting it. parent may be nil.
func (rt *Runtime) Create(opts *Options, parent *Instance, props map[string]any) *Instance {
	return rt.create(opts, createParams{parent: parent, props: props})
}

type flushFanout []scheduler.Observer

func (f flushFanout) FlushStarted(pending int) {
	for _, o := range f {
		o.FlushStarted(pending)
	}
}

func (f flushFanout) ComputationRan(c *reactive.Computation, elapsed time.Duration) {
	for _, o := range f {
		o.ComputationRan(c, elapsed)
	}
}

func (f flushFanout) FlushFinished(ran int, elapsed time.Duration, aborted bool) {
	for _, o := range f {
		o.FlushFinished(ran, elapsed, aborted)
	}
}
