package component

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/pkg/events"
	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

func TestMountFiresHooksInOrder(t *testing.T) {
	rt, rec := newTestRuntime(t)
	tr := &trace{}
	renders := 0
	inst, err := rt.Mount(tr.attach(counter("Counter", &renders)), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Counter:beforeCreate",
		"Counter:created",
		"Counter:beforeMount",
		"Counter:mounted",
	}, tr.entries)
	assert.True(t, inst.IsMounted())
	assert.Equal(t, 1, renders)
	assert.Equal(t, "<span>0</span>", inst.El().String())
	assert.Zero(t, rec.Len())

	assert.ErrorIs(t, inst.Mount(), ErrAlreadyMounted)
}

func TestUpdateCoalescesWrites(t *testing.T) {
	rt, _ := newTestRuntime(t)
	tr := &trace{}
	renders := 0
	inst, err := rt.Mount(tr.attach(counter("Counter", &renders)), nil)
	require.NoError(t, err)
	tr.reset()

	inst.Set("n", 1)
	inst.Set("n", 2)
	inst.Set("n", 3)
	assert.Equal(t, 1, renders, "render is deferred to the flush")

	rt.Flush()
	assert.Equal(t, 2, renders)
	assert.Equal(t, "<span>3</span>", inst.El().String())
	assert.Equal(t, []string{"Counter:beforeUpdate", "Counter:updated"}, tr.entries)

	inst.Set("n", 3)
	rt.Flush()
	assert.Equal(t, 2, renders, "writing the same value is a no-op")
}

func TestSyncModeRendersImmediately(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Async = false
	rt, _ := newTestRuntime(t, WithConfig(cfg))
	renders := 0
	inst, err := rt.Mount(counter("Counter", &renders), nil)
	require.NoError(t, err)

	inst.Set("n", 7)
	assert.Equal(t, 2, renders)
	assert.Equal(t, "<span>7</span>", inst.El().String())
}

func TestSyncModeUpdatedHookMutationsDoNotNest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Async = false
	rt, rec := newTestRuntime(t, WithConfig(cfg))
	var depths []int
	opts := &Options{
		Name: "Chain",
		Data: func(*Instance) map[string]any { return map[string]any{"n": 0} },
		Render: func(inst *Instance) (any, error) {
			depths = append(depths, runtime.Callers(0, make([]uintptr, 1024)))
			return vdom.H("b", vdom.Textf("%v", inst.Get("n"))), nil
		},
	}
	opts.On(Updated, func(inst *Instance) error {
		if n := inst.Get("n").(int); n < 20 {
			inst.Set("n", n+1)
		}
		return nil
	})
	inst, err := rt.Mount(opts, nil)
	require.NoError(t, err)

	inst.Set("n", 1)
	assert.Equal(t, "<b>20</b>", inst.El().String())
	assert.Empty(t, codes(rec))
	require.Len(t, depths, 21)
	for i, d := range depths[2:] {
		assert.Equal(t, depths[1], d, "render %d", i+2)
	}
}

func TestChildMountsBeforeParent(t *testing.T) {
	rt, _ := newTestRuntime(t)
	tr := &trace{}
	child := tr.attach(counter("Child", nil))
	parent := tr.attach(&Options{
		Name: "Parent",
		Render: func(inst *Instance) (any, error) {
			return vdom.H("div", Child(child)), nil
		},
	})

	root, err := rt.Mount(parent, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Parent:beforeCreate",
		"Parent:created",
		"Parent:beforeMount",
		"Child:beforeCreate",
		"Child:created",
		"Child:beforeMount",
		"Child:mounted",
		"Parent:mounted",
	}, tr.entries)
	assert.Equal(t, "<div><span>0</span></div>", root.El().String())

	kids := root.Children()
	require.Len(t, kids, 1)
	assert.Equal(t, root, kids[0].Parent())
	assert.Equal(t, root, kids[0].Root())
	assert.NotNil(t, kids[0].Placeholder())
}

func TestPropsFlowParentBeforeChild(t *testing.T) {
	rt, _ := newTestRuntime(t)
	var order []string
	child := &Options{
		Name:  "Label",
		Props: map[string]Prop{"text": {Default: "none"}},
		Render: func(inst *Instance) (any, error) {
			order = append(order, "child")
			return vdom.H("b", vdom.Textf("%v", inst.Get("text"))), nil
		},
	}
	parent := &Options{
		Name: "Form",
		Data: func(*Instance) map[string]any { return map[string]any{"title": "a", "other": 0} },
		Render: func(inst *Instance) (any, error) {
			order = append(order, "parent")
			return vdom.H("form", Child(child, vdom.Prop("text", inst.Get("title")))), nil
		},
	}

	root, err := rt.Mount(parent, nil)
	require.NoError(t, err)
	assert.Equal(t, "<form><b>a</b></form>", root.El().String())

	order = nil
	root.Set("title", "b")
	rt.Flush()
	assert.Equal(t, []string{"parent", "child"}, order)
	assert.Equal(t, "<form><b>b</b></form>", root.El().String())

	order = nil
	root.Set("other", 1)
	rt.Flush()
	assert.Empty(t, order, "parent does not read other")

	root.Set("title", "b")
	rt.Flush()
	assert.Empty(t, order)
}

func TestUnchangedPropDoesNotRerenderChild(t *testing.T) {
	rt, _ := newTestRuntime(t)
	childRenders := 0
	child := &Options{
		Name:  "Label",
		Props: map[string]Prop{"text": {}},
		Render: func(inst *Instance) (any, error) {
			childRenders++
			return vdom.H("b", vdom.Textf("%v", inst.Get("text"))), nil
		},
	}
	parent := &Options{
		Name: "Form",
		Data: func(*Instance) map[string]any { return map[string]any{"tick": 0} },
		Render: func(inst *Instance) (any, error) {
			return vdom.H("form", vdom.Prop("data-tick", inst.Get("tick")), Child(child, vdom.Prop("text", "fixed"))), nil
		},
	}
	root, err := rt.Mount(parent, nil)
	require.NoError(t, err)

	root.Set("tick", 1)
	rt.Flush()
	assert.Equal(t, 1, childRenders)
	assert.Equal(t, `<form data-tick="1"><b>fixed</b></form>`, root.El().String())
}

func TestDestroyTearsDownSubtree(t *testing.T) {
	rt, _ := newTestRuntime(t)
	tr := &trace{}
	leaf := tr.attach(counter("Leaf", nil))
	mid := tr.attach(&Options{
		Name: "Mid",
		Data: func(*Instance) map[string]any { return map[string]any{"x": 0} },
		Render: func(inst *Instance) (any, error) {
			inst.Get("x")
			return vdom.H("ul", Child(leaf, vdom.Key("a")), Child(leaf, vdom.Key("b"))), nil
		},
	})
	root := &Options{
		Name: "Root",
		Render: func(inst *Instance) (any, error) {
			return vdom.H("main", Child(mid)), nil
		},
	}

	r, err := rt.Mount(root, nil)
	require.NoError(t, err)
	require.Len(t, r.Children(), 1)
	m := r.Children()[0]
	leaves := m.Children()
	require.Len(t, leaves, 2)
	assert.Equal(t, 4, rt.Len())

	renders := m.RenderComputation().Runs()
	tr.reset()
	m.Set("x", 1)
	m.Destroy()
	rt.Flush()

	assert.NotContains(t, r.ChildIDs(), m.ID())
	assert.True(t, m.IsDestroyed())
	assert.False(t, m.RenderComputation().Active())
	assert.Equal(t, renders, m.RenderComputation().Runs(), "pending update is skipped")
	for _, l := range leaves {
		assert.True(t, l.IsDestroyed())
		assert.False(t, l.RenderComputation().Active())
	}
	assert.Equal(t, 1, rt.Len())

	assert.Equal(t, []string{
		"Mid:beforeDestroy",
		"Leaf:beforeDestroy",
		"Leaf:destroyed",
		"Leaf:beforeDestroy",
		"Leaf:destroyed",
		"Mid:destroyed",
	}, tr.entries)

	_, ok := rt.Lookup(m.ID())
	assert.False(t, ok)

	tr.reset()
	m.Destroy()
	assert.Empty(t, tr.entries, "destroy is idempotent")
}

func TestDestroyedInstanceIgnoresWrites(t *testing.T) {
	rt, rec := newTestRuntime(t)
	renders := 0
	inst, err := rt.Mount(counter("Counter", &renders), nil)
	require.NoError(t, err)
	inst.Destroy()

	inst.Set("n", 5)
	rt.Flush()
	assert.Equal(t, 1, renders)
	assert.Equal(t, []string{"R050"}, codes(rec))
	assert.ErrorIs(t, inst.Mount(), ErrDestroyed)
}

func TestDestroyClearsEvents(t *testing.T) {
	rt, _ := newTestRuntime(t)
	seen := false
	opts := counter("Counter", nil)
	opts.On(Destroyed, func(i *Instance) error {
		seen = i.Has("ping")
		return nil
	})
	inst, err := rt.Mount(opts, nil)
	require.NoError(t, err)

	inst.On("ping", events.Func(func(...any) {}))
	inst.Destroy()
	assert.True(t, seen, "listeners are cleared after the destroyed hook")
	assert.Empty(t, inst.Names())
}

func TestDeactivationIsSticky(t *testing.T) {
	rt, _ := newTestRuntime(t)
	tr := &trace{}
	outer := rt.Create(tr.attach(&Options{Name: "Outer"}), nil, nil)
	inner := rt.Create(tr.attach(&Options{Name: "Inner"}), outer, nil)
	require.NoError(t, outer.Mount())
	require.NoError(t, inner.Mount())
	tr.reset()

	inner.Deactivate()
	assert.True(t, inner.IsInactive())
	assert.True(t, inner.IsDirectInactive())

	outer.Deactivate()
	assert.True(t, outer.IsInactive())
	assert.Equal(t, []string{"Inner:deactivated", "Outer:deactivated"}, tr.entries)

	tr.reset()
	outer.Activate()
	assert.False(t, outer.IsInactive())
	assert.True(t, inner.IsInactive(), "independently deactivated child stays inactive")
	assert.Equal(t, []string{"Outer:activated"}, tr.entries)

	tr.reset()
	inner.Activate()
	assert.False(t, inner.IsInactive())
	assert.Equal(t, []string{"Inner:activated"}, tr.entries)
}

func TestActivateBlockedByInactiveAncestor(t *testing.T) {
	rt, _ := newTestRuntime(t)
	outer := rt.Create(&Options{Name: "Outer"}, nil, nil)
	inner := rt.Create(&Options{Name: "Inner"}, outer, nil)

	outer.Deactivate()
	assert.True(t, inner.IsInactive())
	inner.Activate()
	assert.True(t, inner.IsInactive())
	assert.False(t, inner.IsDirectInactive())

	outer.Activate()
	assert.False(t, inner.IsInactive())
}

func TestInactiveRenderReplaysOnActivate(t *testing.T) {
	rt, _ := newTestRuntime(t)
	tr := &trace{}
	renders := 0
	inst, err := rt.Mount(tr.attach(counter("Counter", &renders)), nil)
	require.NoError(t, err)

	inst.Deactivate()
	tr.reset()
	inst.Set("n", 4)
	rt.Flush()
	assert.Equal(t, 1, renders)
	assert.True(t, inst.RenderComputation().Stale())
	assert.Empty(t, tr.entries, "no update hooks while inactive")

	inst.Activate()
	rt.Flush()
	assert.Equal(t, 2, renders)
	assert.Equal(t, "<span>4</span>", inst.El().String())
	assert.Equal(t, []string{"Counter:activated", "Counter:beforeUpdate", "Counter:updated"}, tr.entries)
}

func TestRenderErrorKeepsLastTree(t *testing.T) {
	rt, rec := newTestRuntime(t)
	broken := &Options{
		Name: "Broken",
		Data: func(*Instance) map[string]any { return map[string]any{"fail": false} },
		Render: func(inst *Instance) (any, error) {
			if inst.Get("fail").(bool) {
				return nil, errors.New("boom")
			}
			return vdom.H("p", "ok"), nil
		},
	}
	renders := 0
	a, err := rt.Mount(broken, nil)
	require.NoError(t, err)
	b, err := rt.Mount(counter("Counter", &renders), nil)
	require.NoError(t, err)
	el := a.El()

	a.Set("fail", true)
	b.Set("n", 1)
	rt.Flush()

	assert.Same(t, el, a.El())
	assert.Equal(t, "<p>ok</p>", a.El().String())
	assert.Equal(t, "<span>1</span>", b.El().String(), "other computations still flush")

	last := rec.Last()
	require.NotNil(t, last)
	assert.Equal(t, report.KindRender, last.Kind)
	assert.Equal(t, "R001", last.Code)
	assert.Equal(t, uint64(a.ID()), last.Instance)
	assert.EqualError(t, last.Err, "boom")
}

func TestRenderPanicOnFirstMountFallsBackToEmpty(t *testing.T) {
	rt, rec := newTestRuntime(t)
	inst, err := rt.Mount(&Options{
		Name: "Panics",
		Render: func(*Instance) (any, error) {
			panic("nope")
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<!---->", inst.El().String())
	assert.ErrorIs(t, rec.Last().Err, report.ErrPanic)
}

func TestMultiRootRenderIsReplaced(t *testing.T) {
	rt, rec := newTestRuntime(t)
	inst, err := rt.Mount(&Options{
		Name: "Multi",
		Render: func(*Instance) (any, error) {
			return []*vdom.VNode{vdom.H("a"), vdom.H("b")}, nil
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<!---->", inst.El().String())
	assert.Equal(t, []string{"R002"}, codes(rec))

	single, err := rt.Mount(&Options{
		Render: func(*Instance) (any, error) {
			return []*vdom.VNode{vdom.H("a")}, nil
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<a></a>", single.El().String())
}

func TestHookErrorDoesNotBlockOtherHooks(t *testing.T) {
	rt, rec := newTestRuntime(t)
	second := false
	opts := (&Options{Name: "Hooks"}).
		On(Mounted, func(*Instance) error { return errors.New("first failed") }).
		On(Mounted, func(*Instance) error { panic("second-to-last") }).
		On(Mounted, func(*Instance) error { second = true; return nil })

	inst, err := rt.Mount(opts, nil)
	require.NoError(t, err)
	assert.True(t, inst.IsMounted())
	assert.True(t, second)
	assert.Equal(t, []string{"R010", "R010"}, codes(rec))
	assert.Equal(t, "mounted hook", rec.Last().Info)
}

func TestHOCPropagatesElement(t *testing.T) {
	rt, _ := newTestRuntime(t)
	inner := &Options{
		Name: "Inner",
		Data: func(*Instance) map[string]any { return map[string]any{"tag": "p"} },
		Render: func(inst *Instance) (any, error) {
			return vdom.H(inst.Get("tag").(string)), nil
		},
	}
	wrapper := &Options{
		Name: "Wrapper",
		Render: func(*Instance) (any, error) {
			return Child(inner), nil
		},
	}
	outer := &Options{
		Name: "Outer",
		Render: func(*Instance) (any, error) {
			return vdom.H("div", Child(wrapper)), nil
		},
	}
	o, err := rt.Mount(outer, nil)
	require.NoError(t, err)
	w := o.Children()[0]
	in := w.Children()[0]
	assert.Same(t, in.El(), w.El())

	in.Set("tag", "section")
	rt.Flush()
	assert.Equal(t, "<section></section>", in.El().String())
	assert.Same(t, in.El(), w.El())
	assert.Same(t, in.El(), w.Placeholder().Elm)
	assert.Equal(t, "<div><section></section></div>", o.El().String())
}

func TestForceUpdate(t *testing.T) {
	rt, _ := newTestRuntime(t)
	renders := 0
	inst, err := rt.Mount(counter("Counter", &renders), nil)
	require.NoError(t, err)

	inst.ForceUpdate()
	inst.ForceUpdate()
	rt.Flush()
	assert.Equal(t, 2, renders)
}

func TestAbstractParentIsSkipped(t *testing.T) {
	rt, _ := newTestRuntime(t)
	root := rt.Create(&Options{Name: "Root"}, nil, nil)
	wrap := rt.Create(&Options{Name: "Transition", Abstract: true}, root, nil)
	leaf := rt.Create(&Options{Name: "Leaf"}, wrap, nil)

	assert.Equal(t, []ID{leaf.ID()}, root.ChildIDs())
	assert.Empty(t, wrap.ChildIDs())
	assert.Equal(t, root, leaf.Parent())
	assert.Equal(t, root, wrap.Parent())
}

// recordingPatcher notes the active instance around every patch and can
// fail updates.
type recordingPatcher struct {
	rt            *Runtime
	inner         Patcher
	entries       []string
	panicOnUpdate bool
}

func newRecordingPatcher(t *testing.T) (*recordingPatcher, *Runtime, *report.Recorder) {
	p := &recordingPatcher{}
	rt, rec := newTestRuntime(t, WithPatcher(p))
	p.rt = rt
	p.inner = vdom.NewRenderer(rt.Hooks())
	return p, rt, rec
}

func (p *recordingPatcher) active() string {
	if inst := p.rt.ActiveInstance(); inst != nil {
		return inst.Name()
	}
	return "nil"
}

func (p *recordingPatcher) Patch(old, vnode *vdom.VNode, hydrating, removeOnly bool) *vdom.Element {
	p.entries = append(p.entries, fmt.Sprintf("enter %s", p.active()))
	if old != nil && p.panicOnUpdate {
		panic("patch failed")
	}
	el := p.inner.Patch(old, vnode, hydrating, removeOnly)
	p.entries = append(p.entries, fmt.Sprintf("leave %s", p.active()))
	return el
}

func TestActiveInstanceDuringNestedPatch(t *testing.T) {
	p, rt, _ := newRecordingPatcher(t)
	child := counter("Child", nil)
	parent := &Options{
		Name: "Parent",
		Render: func(*Instance) (any, error) {
			return vdom.H("div", Child(child)), nil
		},
	}

	root, err := rt.Mount(parent, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"enter Parent", "enter Child", "leave Child", "leave Parent"}, p.entries)
	assert.Nil(t, rt.ActiveInstance())
	assert.Equal(t, "<div><span>0</span></div>", root.El().String())

	p.entries = nil
	kid := root.Children()[0]
	kid.Set("n", 1)
	rt.Flush()
	assert.Equal(t, []string{"enter Child", "leave Child"}, p.entries)
	assert.Nil(t, rt.ActiveInstance())
}

func TestActiveInstanceRestoredWhenPatchPanics(t *testing.T) {
	p, rt, rec := newRecordingPatcher(t)
	inst, err := rt.Mount(counter("Counter", nil), nil)
	require.NoError(t, err)
	el := inst.El()

	p.panicOnUpdate = true
	inst.Set("n", 1)
	rt.Flush()

	assert.Nil(t, rt.ActiveInstance())
	assert.Contains(t, codes(rec), "R001")
	assert.ErrorIs(t, rec.Last().Err, report.ErrPanic)
	assert.Same(t, el, inst.El())
	assert.Equal(t, "<span>0</span>", inst.El().String())
}
