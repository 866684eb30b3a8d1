package component

import (
	"fmt"
	"time"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Mount renders the instance for the first time. For instances without a
// placeholder the mounted hook fires before Mount returns; instances created
// by a patch are marked mounted when their element is inserted.
func (inst *Instance) Mount() error {
	if inst.isDestroyed {
		return ErrDestroyed
	}
	if inst.renderComp != nil {
		return ErrAlreadyMounted
	}
	inst.mount(false)
	return nil
}

func (inst *Instance) mount(hydrating bool) {
	inst.callHook(BeforeMount)

	first := hydrating
	inst.renderComp = inst.rt.graph.NewComputation(func() (any, error) {
		h := first
		first = false
		inst.update(inst.render(), h)
		return nil, nil
	}, reactive.Options{
		Name:   fmt.Sprintf("render %s", inst),
		Render: true,
		Before: func() {
			if inst.isMounted && !inst.isDestroyed && inst.inactive != yes {
				inst.callHook(BeforeUpdate)
			}
		},
		After: func() {
			if inst.isMounted && !inst.isDestroyed && !inst.renderComp.Stale() {
				inst.callHook(Updated)
			}
		},
		Suspended: func() bool { return inst.inactive == yes },
		OnError:   inst.computationError("render"),
	})
	inst.comps = append(inst.comps, inst.renderComp)

	if inst.placeholder == nil {
		inst.isMounted = true
		inst.callHook(Mounted)
	}
}

// render produces the next tree. A failing render keeps the previous tree.
func (inst *Instance) render() *vdom.VNode {
	fn := inst.opts.Render
	if fn == nil {
		return vdom.Empty()
	}

	var out any
	err := report.Guard(func() error {
		var rerr error
		out, rerr = fn(inst)
		return rerr
	})
	if err != nil {
		inst.rt.handleError(err, inst, report.KindRender, "R001", "render")
		if inst.vnode != nil {
			return inst.vnode
		}
		return vdom.Empty()
	}
	return inst.normalizeRoot(out)
}

func (inst *Instance) normalizeRoot(out any) *vdom.VNode {
	switch v := out.(type) {
	case nil:
		return vdom.Empty()
	case *vdom.VNode:
		if v == nil {
			return vdom.Empty()
		}
		return v
	case []*vdom.VNode:
		if len(v) == 1 && v[0] != nil {
			return v[0]
		}
		if len(v) > 1 {
			inst.warn("R002", fmt.Sprintf("render returned %d root nodes", len(v)))
		}
		return vdom.Empty()
	default:
		inst.warn("R002", fmt.Sprintf("render returned %T", out))
		return vdom.Empty()
	}
}

// update patches vnode over the previous tree with inst as the active
// instance.
func (inst *Instance) update(vnode *vdom.VNode, hydrating bool) {
	rt := inst.rt
	prev := inst.vnode
	inst.vnode = vnode

	start := time.Now()
	func() {
		restore := rt.setActiveInstance(inst)
		defer restore()
		if prev == nil {
			inst.el = rt.patch(nil, vnode, hydrating, false)
		} else {
			inst.el = rt.patch(prev, vnode, false, false)
		}
	}()
	elapsed := time.Since(start)

	if inst.placeholder != nil {
		inst.placeholder.Elm = inst.el
	}
	// A parent whose whole tree is this instance shares its element.
	for w := inst; w.placeholder != nil; {
		parent := w.Parent()
		if parent == nil || parent.vnode != w.placeholder {
			break
		}
		parent.el = w.el
		if parent.placeholder != nil {
			parent.placeholder.Elm = w.el
		}
		w = parent
	}

	for _, o := range rt.observers {
		o.InstancePatched(inst, prev, vnode, elapsed)
	}
	if rt.cfg.Performance {
		rt.logger.Debug("patch", "instance", inst.id, "name", inst.Name(), "elapsed", elapsed)
	}
}

// ForceUpdate schedules a re-render without any dependency change.
func (inst *Instance) ForceUpdate() {
	if inst.isDestroyed {
		inst.warn("R050", "forceUpdate")
		return
	}
	if inst.renderComp != nil {
		inst.renderComp.Update()
	}
}

// Destroy tears the instance and its subtree down. It is idempotent.
func (inst *Instance) Destroy() {
	if inst.isBeingDestroyed {
		return
	}
	rt := inst.rt
	inst.callHook(BeforeDestroy)
	inst.isBeingDestroyed = true

	if parent := inst.Parent(); parent != nil && !parent.isBeingDestroyed && !inst.opts.Abstract {
		parent.removeChild(inst.id)
	}

	for i := len(inst.comps) - 1; i >= 0; i-- {
		inst.comps[i].Teardown()
	}
	for _, key := range sortedKeys(inst.opts.Store) {
		rt.store.Detach(key)
	}
	inst.isDestroyed = true

	if inst.vnode != nil {
		func() {
			restore := rt.setActiveInstance(inst)
			defer restore()
			rt.patch(inst.vnode, nil, false, false)
		}()
	}
	// Children not reachable through the rendered tree, such as cached
	// keep-alive instances or instances created directly with a parent.
	for _, c := range inst.Children() {
		c.Destroy()
	}

	inst.callHook(Destroyed)
	inst.Off()

	delete(rt.instances, inst.id)
	for _, o := range rt.observers {
		o.InstanceDestroyed(inst)
	}
	rt.logger.Debug("instance destroyed", "instance", inst.id, "name", inst.Name())
	inst.keepAlive = nil
}

// Activate re-activates a directly deactivated instance and its subtree.
func (inst *Instance) Activate() {
	inst.activate(true)
}

// Deactivate deactivates the instance and its subtree without destroying
// them.
func (inst *Instance) Deactivate() {
	inst.deactivate(true)
}

func (inst *Instance) activate(direct bool) {
	if direct {
		inst.directInactive = false
		if inst.isInInactiveTree() {
			return
		}
	} else if inst.directInactive {
		return
	}
	if inst.inactive == no {
		return
	}
	inst.inactive = no
	for _, c := range inst.Children() {
		c.activate(false)
	}
	inst.callHook(Activated)
	if c := inst.renderComp; c != nil && c.Stale() {
		inst.rt.sched.Enqueue(c)
	}
}

func (inst *Instance) deactivate(direct bool) {
	if direct {
		inst.directInactive = true
		if inst.isInInactiveTree() {
			return
		}
	}
	if inst.inactive == yes {
		return
	}
	inst.inactive = yes
	for _, c := range inst.Children() {
		c.deactivate(false)
	}
	inst.callHook(Deactivated)
}

func (inst *Instance) isInInactiveTree() bool {
	for p := inst.Parent(); p != nil; p = p.Parent() {
		if p.inactive == yes {
			return true
		}
	}
	return false
}
