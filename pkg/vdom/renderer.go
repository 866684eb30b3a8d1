package vdom

import "maps"

// ComponentHooks is how the renderer hands component placeholders to the
// runtime.
type ComponentHooks interface {
	// Init creates (or, for a cached placeholder, reuses) the child
	// instance, mounts it and returns its root host element.
	Init(vnode *VNode, hydrating bool) *Element

	// Prepatch passes new props and listeners from vnode to the instance
	// created for old.
	Prepatch(old, vnode *VNode)

	// Insert is called once vnode's element is attached to the live tree.
	Insert(vnode *VNode)

	// Destroy destroys, or for KeepAlive placeholders deactivates, the
	// instance.
	Destroy(vnode *VNode)
}

// Renderer is the reference patch collaborator. It is not safe for
// concurrent use.
type Renderer struct {
	hooks    ComponentHooks
	depth    int
	inserted []*VNode
	created  int
	removed  int
}

// NewRenderer creates a renderer delegating component placeholders to
// hooks. hooks may be nil, in which case placeholders render as comments.
func NewRenderer(hooks ComponentHooks) *Renderer {
	return &Renderer{hooks: hooks}
}

// SetHooks replaces the component hooks.
func (r *Renderer) SetHooks(hooks ComponentHooks) {
	r.hooks = hooks
}

// Stats returns how many host elements have been created and removed.
func (r *Renderer) Stats() (created, removed int) {
	return r.created, r.removed
}

// Patch applies vnode over old and returns the root host element.
//
// old == nil creates a fresh tree. vnode == nil runs destroy hooks over old
// and returns nil; detaching old's element is the caller's concern. If the
// roots cannot be patched in place, the new root replaces the old one in
// the old root's parent. removeOnly is accepted for interface compatibility;
// the reference renderer always rebuilds child order.
func (r *Renderer) Patch(old, vnode *VNode, hydrating, removeOnly bool) *Element {
	if vnode == nil {
		if old != nil {
			r.invokeDestroy(old)
		}
		return nil
	}

	r.depth++
	var el *Element
	func() {
		defer func() { r.depth-- }()
		switch {
		case old == nil:
			el = r.createElm(vnode, hydrating)
		case sameVNode(old, vnode):
			r.patchVnode(old, vnode)
			el = vnode.Elm
		default:
			el = r.createElm(vnode, hydrating)
			replaceChild(old.Elm, el)
			r.invokeDestroy(old)
			r.removed++
		}
	}()

	if r.depth == 0 {
		r.flushInserted()
	}
	return el
}

func (r *Renderer) flushInserted() {
	for len(r.inserted) > 0 {
		queue := r.inserted
		r.inserted = nil
		if r.hooks == nil {
			continue
		}
		for _, v := range queue {
			r.hooks.Insert(v)
		}
	}
}

func (r *Renderer) createElm(v *VNode, hydrating bool) *Element {
	r.created++
	var el *Element
	switch v.Kind {
	case KindComponent:
		if r.hooks != nil {
			el = r.hooks.Init(v, hydrating)
		}
		if el == nil {
			el = &Element{Comment: true, Text: v.Tag}
		} else {
			r.inserted = append(r.inserted, v)
		}
	case KindText:
		el = &Element{Text: v.Text}
	case KindEmpty:
		el = &Element{Comment: true, Text: v.Text}
	default:
		tag := v.Tag
		if v.Kind == KindFragment {
			tag = FragmentTag
		}
		el = &Element{
			Tag:   tag,
			Attrs: maps.Clone(v.Props),
			On:    maps.Clone(v.On),
		}
		for _, c := range v.Children {
			ce := r.createElm(c, hydrating)
			ce.Parent = el
			el.Children = append(el.Children, ce)
		}
	}
	v.Elm = el
	return el
}

func (r *Renderer) patchVnode(old, v *VNode) {
	if old == v {
		return
	}
	v.Elm = old.Elm
	el := v.Elm

	switch v.Kind {
	case KindComponent:
		v.Instance = old.Instance
		if r.hooks != nil {
			r.hooks.Prepatch(old, v)
		}
	case KindText, KindEmpty:
		el.Text = v.Text
	default:
		el.Attrs = maps.Clone(v.Props)
		el.On = maps.Clone(v.On)
		r.updateChildren(el, old.Children, v.Children)
	}
}

func (r *Renderer) updateChildren(parent *Element, oldCh, newCh []*VNode) {
	used := make([]bool, len(oldCh))
	keyed := make(map[string]int)
	for i, c := range oldCh {
		if c.Key != "" {
			keyed[c.Key] = i
		}
	}

	elems := make([]*Element, 0, len(newCh))
	for i, c := range newCh {
		j := -1
		if c.Key != "" {
			if k, ok := keyed[c.Key]; ok && !used[k] && sameVNode(oldCh[k], c) {
				j = k
			}
		} else if i < len(oldCh) && !used[i] && oldCh[i].Key == "" && sameVNode(oldCh[i], c) {
			j = i
		}

		if j >= 0 {
			used[j] = true
			r.patchVnode(oldCh[j], c)
		} else {
			r.createElm(c, false)
		}
		elems = append(elems, c.Elm)
	}

	for j, c := range oldCh {
		if !used[j] {
			r.invokeDestroy(c)
			if c.Elm != nil {
				c.Elm.Parent = nil
			}
			r.removed++
		}
	}

	for _, el := range elems {
		el.Parent = parent
	}
	parent.Children = elems
}

func (r *Renderer) invokeDestroy(v *VNode) {
	if v.Kind == KindComponent {
		if r.hooks != nil && v.Instance != nil {
			r.hooks.Destroy(v)
		}
		return
	}
	for _, c := range v.Children {
		r.invokeDestroy(c)
	}
}
