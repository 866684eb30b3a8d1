package component

import (
	"fmt"

	"github.com/vango-dev/reactor/pkg/events"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// callHook runs the handlers registered for hook and then emits the
// matching "hook:" event. Reads inside hooks are never tracked.
func (inst *Instance) callHook(hook Hook) {
	t := inst.rt.graph.Tracker()
	t.Push(nil)
	defer t.Pop()

	inst.invokeHooks(hook)
	inst.emitHookEvent(hook)
	for _, o := range inst.rt.observers {
		o.HookCalled(inst, hook)
	}
}

func (inst *Instance) invokeHooks(hook Hook) {
	handlers := inst.opts.Hooks[hook]
	if len(handlers) == 0 {
		return
	}
	info := string(hook) + " hook"
	for _, h := range handlers {
		if err := report.Guard(func() error { return h(inst) }); err != nil {
			inst.rt.handleError(err, inst, report.KindHook, "R010", info)
		}
	}
}

func (inst *Instance) emitHookEvent(hook Hook) {
	if inst.HasHookEvent() {
		inst.Bus.Emit(events.HookPrefix + string(hook))
	}
}

type keepAliveKey struct {
	def *Options
	key string
}

// Hooks returns the component hooks a vdom.Renderer needs to mount child
// components into this runtime.
func (rt *Runtime) Hooks() vdom.ComponentHooks {
	return componentHooks{rt: rt}
}

type componentHooks struct {
	rt *Runtime
}

func (h componentHooks) Init(v *vdom.VNode, hydrating bool) *vdom.Element {
	rt := h.rt
	parent := rt.active

	opts, ok := v.Comp.(*Options)
	if !ok || opts == nil {
		rt.handleError(nil, parent, report.KindMisuse, "R052", fmt.Sprintf("component %q has no definition", v.Tag))
		return nil
	}

	if v.KeepAlive {
		if inst := h.cached(parent, opts, v); inst != nil {
			v.Instance = inst
			h.Prepatch(v, v)
			return inst.el
		}
	}

	inst := rt.create(opts, createParams{
		parent:      parent,
		context:     parent,
		props:       v.Props,
		listeners:   v.On,
		placeholder: v,
	})
	v.Instance = inst
	if v.KeepAlive && parent != nil {
		if parent.keepAlive == nil {
			parent.keepAlive = make(map[keepAliveKey]ID)
		}
		parent.keepAlive[keepAliveKey{opts, v.Key}] = inst.id
	}
	inst.mount(hydrating)
	return inst.el
}

func (h componentHooks) cached(context *Instance, opts *Options, v *vdom.VNode) *Instance {
	if inst, ok := v.Instance.(*Instance); ok && !inst.isDestroyed {
		return inst
	}
	if context == nil {
		return nil
	}
	id, ok := context.keepAlive[keepAliveKey{opts, v.Key}]
	if !ok {
		return nil
	}
	inst, ok := h.rt.instances[id]
	if !ok || inst.isDestroyed {
		delete(context.keepAlive, keepAliveKey{opts, v.Key})
		return nil
	}
	return inst
}

func (h componentHooks) Prepatch(old, v *vdom.VNode) {
	inst, ok := v.Instance.(*Instance)
	if !ok {
		return
	}
	h.rt.UpdateChild(inst, v.Props, v.On, v)
}

func (h componentHooks) Insert(v *vdom.VNode) {
	inst, ok := v.Instance.(*Instance)
	if !ok || inst.isDestroyed {
		return
	}
	if !inst.isMounted {
		inst.isMounted = true
		inst.callHook(Mounted)
	}
	if !v.KeepAlive {
		return
	}
	if ctx, ok := h.rt.instances[inst.context]; ok && ctx.isMounted {
		// The activated hook runs after the flush that re-rendered the
		// context, once the whole tree is patched.
		inst.inactive = no
		h.rt.sched.QueueActivated(uint64(inst.id), func() {
			inst.inactive = yes
			inst.activate(true)
		})
		return
	}
	inst.activate(true)
}

func (h componentHooks) Destroy(v *vdom.VNode) {
	inst, ok := v.Instance.(*Instance)
	if !ok || inst.isDestroyed {
		return
	}
	if v.KeepAlive {
		inst.deactivate(true)
		return
	}
	inst.Destroy()
}
