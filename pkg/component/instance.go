package component

import (
	"fmt"
	"sort"

	"github.com/vango-dev/reactor/pkg/events"
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// tristate is the inactive flag: unset until the first activation or
// deactivation.
type tristate uint8

const (
	unset tristate = iota
	yes
	no
)

// Instance is one component's runtime state. Its embedded Bus is the
// instance event channel.
type Instance struct {
	*events.Bus

	rt   *Runtime
	id   ID
	opts *Options

	parent   ID
	root     ID
	children []ID

	// context is the instance whose render produced the placeholder.
	context ID

	props    map[string]*reactive.Cell[any]
	data     map[string]*reactive.Cell[any]
	injected map[string]*reactive.Cell[any]
	shared   map[string]*reactive.Cell[any]
	computed map[string]*reactive.Computed[any]
	provided map[string]any

	renderComp *reactive.Computation
	comps      []*reactive.Computation

	vnode       *vdom.VNode
	placeholder *vdom.VNode
	el          *vdom.Element
	listeners   vdom.Handlers

	// keepAlive caches instances created for KeepAlive placeholders in
	// this instance's render.
	keepAlive map[keepAliveKey]ID

	isMounted        bool
	isBeingDestroyed bool
	isDestroyed      bool
	inactive         tristate
	directInactive   bool
}

// ID returns the instance id.
func (inst *Instance) ID() ID { return inst.id }

// Name returns the component name.
func (inst *Instance) Name() string { return inst.opts.displayName() }

// Options returns the component definition.
func (inst *Instance) Options() *Options { return inst.opts }

// Runtime returns the owning runtime.
func (inst *Instance) Runtime() *Runtime { return inst.rt }

// Parent returns the structural parent, or nil.
func (inst *Instance) Parent() *Instance {
	return inst.rt.instances[inst.parent]
}

// Root returns the root of inst's tree.
func (inst *Instance) Root() *Instance {
	if r, ok := inst.rt.instances[inst.root]; ok {
		return r
	}
	return inst
}

// ChildIDs returns a copy of the child ids in attachment order.
func (inst *Instance) ChildIDs() []ID {
	out := make([]ID, len(inst.children))
	copy(out, inst.children)
	return out
}

// Children returns the live children in attachment order.
func (inst *Instance) Children() []*Instance {
	out := make([]*Instance, 0, len(inst.children))
	for _, id := range inst.children {
		if c, ok := inst.rt.instances[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// El returns the root host element of the last patch.
func (inst *Instance) El() *vdom.Element { return inst.el }

// VNode returns the last rendered tree.
func (inst *Instance) VNode() *vdom.VNode { return inst.vnode }

// Placeholder returns the parent's node this instance was created for, or
// nil for instances not created by a patch.
func (inst *Instance) Placeholder() *vdom.VNode { return inst.placeholder }

// RenderComputation returns the render computation, nil before mount.
func (inst *Instance) RenderComputation() *reactive.Computation { return inst.renderComp }

// IsMounted reports whether the mounted hook has fired.
func (inst *Instance) IsMounted() bool { return inst.isMounted }

// IsBeingDestroyed reports whether Destroy has started.
func (inst *Instance) IsBeingDestroyed() bool { return inst.isBeingDestroyed }

// IsDestroyed reports whether Destroy has torn the instance down.
func (inst *Instance) IsDestroyed() bool { return inst.isDestroyed }

// IsInactive reports whether the instance is deactivated.
func (inst *Instance) IsInactive() bool { return inst.inactive == yes }

// IsDirectInactive reports whether the instance itself was the target of a
// deactivation.
func (inst *Instance) IsDirectInactive() bool { return inst.directInactive }

// Provided returns the values this instance provides to descendants.
func (inst *Instance) Provided() map[string]any { return inst.provided }

func (inst *Instance) String() string {
	return fmt.Sprintf("<%s#%d>", inst.Name(), inst.id)
}

// Cell returns the cell behind key: a prop, data field, injection or shared
// store entry, looked up in that order.
func (inst *Instance) Cell(key string) (*reactive.Cell[any], bool) {
	for _, m := range []map[string]*reactive.Cell[any]{inst.props, inst.data, inst.injected, inst.shared} {
		if c, ok := m[key]; ok {
			return c, true
		}
	}
	return nil, false
}

// Get reads key with dependency tracking. Computed values are included.
// Unknown keys report a warning and return nil.
func (inst *Instance) Get(key string) any {
	if c, ok := inst.Cell(key); ok {
		return c.Get()
	}
	if m, ok := inst.computed[key]; ok {
		return m.Get()
	}
	inst.warn("R051", fmt.Sprintf("get %q", key))
	return nil
}

// Set writes key. Unknown keys and computed values report a warning and
// are ignored.
func (inst *Instance) Set(key string, v any) {
	if inst.isDestroyed {
		inst.warn("R050", fmt.Sprintf("set %q", key))
		return
	}
	c, ok := inst.Cell(key)
	if !ok {
		inst.warn("R051", fmt.Sprintf("set %q", key))
		return
	}
	c.Set(v)
}

// Update applies fn to the current value of key without tracking the read.
func (inst *Instance) Update(key string, fn func(any) any) {
	c, ok := inst.Cell(key)
	if !ok {
		inst.warn("R051", fmt.Sprintf("update %q", key))
		return
	}
	c.Set(fn(c.Peek()))
}

// Keys returns the declared state keys, sorted.
func (inst *Instance) Keys() []string {
	seen := make(map[string]bool)
	for _, m := range []map[string]*reactive.Cell[any]{inst.props, inst.data, inst.injected, inst.shared} {
		for k := range m {
			seen[k] = true
		}
	}
	for k := range inst.computed {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Watch creates a watcher owned by inst. The returned func tears it down.
func (inst *Instance) Watch(w Watcher) func() {
	c := inst.createWatcher(w)
	return func() {
		c.Teardown()
		for i, owned := range inst.comps {
			if owned == c {
				inst.comps = append(inst.comps[:i], inst.comps[i+1:]...)
				break
			}
		}
	}
}

// NextTick runs fn with inst after the pending flush.
func (inst *Instance) NextTick(fn func(inst *Instance) error) {
	inst.rt.NextTick(func() error { return fn(inst) })
}

// Emit forwards to the event bus and returns inst.
func (inst *Instance) Emit(name string, args ...any) *Instance {
	inst.Bus.Emit(name, args...)
	return inst
}

func (inst *Instance) warn(code, info string) {
	inst.rt.handleError(nil, inst, report.KindMisuse, code, info)
}

func (inst *Instance) removeChild(id ID) {
	for i, c := range inst.children {
		if c == id {
			inst.children = append(inst.children[:i], inst.children[i+1:]...)
			return
		}
	}
}

// Computed returns the computed value declared under key.
func (inst *Instance) Computed(key string) (*reactive.Computed[any], bool) {
	m, ok := inst.computed[key]
	return m, ok
}
