package component

import (
	"fmt"
	"sort"

	"github.com/vango-dev/reactor/pkg/events"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

type createParams struct {
	parent      *Instance
	context     *Instance
	props       map[string]any
	listeners   vdom.Handlers
	placeholder *vdom.VNode
}

// create runs instance initialisation: tree edges, events, beforeCreate,
// injections, state, provide, created. Reads during initialisation are not
// attributed to whatever computation is patching.
func (rt *Runtime) create(opts *Options, p createParams) *Instance {
	if opts == nil {
		opts = &Options{}
	}
	t := rt.graph.Tracker()
	t.Push(nil)
	defer t.Pop()

	rt.nextID++
	inst := &Instance{
		rt:          rt,
		id:          rt.nextID,
		opts:        opts,
		placeholder: p.placeholder,
	}
	inst.Bus = events.NewBus(func(event string, err error) {
		rt.handleError(err, inst, report.KindHook, "R011", fmt.Sprintf("event handler for %q", event))
	})
	if p.context != nil {
		inst.context = p.context.id
	}
	rt.instances[inst.id] = inst

	inst.initLifecycle(p.parent)
	inst.initEvents(p.listeners)
	inst.callHook(BeforeCreate)
	inst.initInjections()
	inst.initState(p.props)
	inst.initProvide()
	inst.callHook(Created)

	for _, o := range rt.observers {
		o.InstanceCreated(inst)
	}
	rt.logger.Debug("instance created", "instance", inst.id, "name", inst.Name(), "parent", inst.parent)
	return inst
}

// initLifecycle attaches inst to its first non-abstract ancestor.
func (inst *Instance) initLifecycle(parent *Instance) {
	if parent != nil && !inst.opts.Abstract {
		for parent.opts.Abstract && parent.Parent() != nil {
			parent = parent.Parent()
		}
		parent.children = append(parent.children, inst.id)
	}
	if parent != nil {
		inst.parent = parent.id
		inst.root = parent.root
	} else {
		inst.root = inst.id
	}
}

func (inst *Instance) initEvents(listeners vdom.Handlers) {
	if len(listeners) > 0 {
		inst.updateListeners(listeners, nil)
	}
	inst.listeners = listeners
}

func (inst *Instance) initState(propsData map[string]any) {
	g := inst.rt.graph

	if len(inst.opts.Props) > 0 {
		inst.props = make(map[string]*reactive.Cell[any], len(inst.opts.Props))
		for name, def := range inst.opts.Props {
			v, ok := propsData[name]
			if !ok {
				v = def.value()
			}
			inst.props[name] = reactive.NewCell[any](g, v)
		}
	}

	if inst.opts.Data != nil {
		inst.data = make(map[string]*reactive.Cell[any])
		var values map[string]any
		err := report.Guard(func() error {
			values = inst.opts.Data(inst)
			return nil
		})
		if err != nil {
			inst.rt.handleError(err, inst, report.KindHook, "R010", "data()")
		}
		for k, v := range values {
			inst.data[k] = reactive.NewCell[any](g, v)
		}
	}

	if len(inst.opts.Computed) > 0 {
		inst.computed = make(map[string]*reactive.Computed[any], len(inst.opts.Computed))
		for _, key := range sortedKeys(inst.opts.Computed) {
			fn := inst.opts.Computed[key]
			m := reactive.NewComputedWith(g, func() any {
				return fn(inst)
			}, reactive.Options{
				Name:    fmt.Sprintf("computed %q of %s", key, inst),
				OnError: inst.computationError(fmt.Sprintf("computed %q", key)),
			})
			inst.computed[key] = m
			inst.comps = append(inst.comps, m.Computation())
		}
	}

	for _, w := range inst.opts.Watch {
		inst.createWatcher(w)
	}

	if len(inst.opts.Store) > 0 {
		inst.shared = make(map[string]*reactive.Cell[any], len(inst.opts.Store))
		for _, key := range sortedKeys(inst.opts.Store) {
			inst.shared[key] = inst.rt.store.Attach(key, inst.opts.Store[key])
		}
	}
}

func (inst *Instance) createWatcher(w Watcher) *reactive.Computation {
	name := w.Name
	if name == "" {
		name = "anonymous"
	}
	handler := w.Handler
	getter := w.Getter
	if getter == nil {
		getter = func(*Instance) any { return nil }
	}

	var cb reactive.Callback
	if handler != nil {
		cb = func(n, o any) error { return handler(inst, n, o) }
	}
	c := inst.rt.graph.NewComputation(func() (any, error) {
		return getter(inst), nil
	}, reactive.Options{
		Name:      fmt.Sprintf("watcher %q of %s", name, inst),
		Sync:      w.Sync,
		Immediate: w.Immediate,
		Callback:  cb,
		OnError:   inst.computationError(fmt.Sprintf("watcher %q", name)),
	})
	inst.comps = append(inst.comps, c)
	return c
}

// UpdateChild passes new props and listeners from the parent's re-render to
// inst. Props are written through their cells, so the child re-renders only
// if a prop it reads changed.
func (rt *Runtime) UpdateChild(inst *Instance, props map[string]any, listeners vdom.Handlers, placeholder *vdom.VNode) {
	if inst.isDestroyed {
		return
	}
	t := rt.graph.Tracker()
	t.Push(nil)
	defer t.Pop()

	if placeholder != nil {
		inst.placeholder = placeholder
		placeholder.Instance = inst
	}

	for name, def := range inst.opts.Props {
		v, ok := props[name]
		if !ok {
			v = def.value()
		}
		inst.props[name].Set(v)
	}

	old := inst.listeners
	inst.listeners = listeners
	inst.updateListeners(listeners, old)
}

// updateListeners rewires parent-supplied listeners on inst's bus.
func (inst *Instance) updateListeners(next, prev vdom.Handlers) {
	for _, name := range sortedKeys(next) {
		l := next[name]
		if old, ok := prev[name]; ok {
			if old == l {
				continue
			}
			inst.OffListener(name, old)
		}
		inst.On(name, l)
	}
	for _, name := range sortedKeys(prev) {
		if _, ok := next[name]; !ok {
			inst.OffListener(name, prev[name])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
