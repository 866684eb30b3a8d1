package vdom

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoListener is returned by Dispatch when the element has no listener
// for the event.
var ErrNoListener = errors.New("reactor: no listener for event")

// FragmentTag is the tag of host elements created for fragments.
const FragmentTag = "#fragment"

// Element is a node of the in-memory host tree built by Renderer.
type Element struct {
	Tag      string // empty for text and comment nodes
	Text     string
	Comment  bool
	Attrs    map[string]any
	On       Handlers
	Children []*Element
	Parent   *Element
}

// IsText reports whether e is a text node.
func (e *Element) IsText() bool {
	return e.Tag == "" && !e.Comment
}

// Dispatch calls the listener bound to event.
func (e *Element) Dispatch(event string, args ...any) error {
	l, ok := e.On[event]
	if !ok {
		return fmt.Errorf("%w: %s on <%s>", ErrNoListener, event, e.Tag)
	}
	return l.Call(args...)
}

// Find returns the first element in e's subtree (including e) whose id
// attribute equals id.
func (e *Element) Find(id string) *Element {
	if e == nil {
		return nil
	}
	if v, ok := e.Attrs["id"]; ok && fmt.Sprint(v) == id {
		return e
	}
	for _, c := range e.Children {
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// TextContent concatenates the text of e's subtree.
func (e *Element) TextContent() string {
	var b strings.Builder
	e.writeText(&b)
	return b.String()
}

func (e *Element) writeText(b *strings.Builder) {
	if e == nil || e.Comment {
		return
	}
	if e.IsText() {
		b.WriteString(e.Text)
		return
	}
	for _, c := range e.Children {
		c.writeText(b)
	}
}

// String renders e as markup. Attributes are sorted.
func (e *Element) String() string {
	var b strings.Builder
	e.writeMarkup(&b)
	return b.String()
}

func (e *Element) writeMarkup(b *strings.Builder) {
	switch {
	case e == nil:
		return
	case e.Comment:
		b.WriteString("<!--")
		b.WriteString(e.Text)
		b.WriteString("-->")
		return
	case e.IsText():
		b.WriteString(e.Text)
		return
	case e.Tag == FragmentTag:
		for _, c := range e.Children {
			c.writeMarkup(b)
		}
		return
	}

	b.WriteString("<")
	b.WriteString(e.Tag)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%q", k, fmt.Sprint(e.Attrs[k]))
	}
	b.WriteString(">")
	for _, c := range e.Children {
		c.writeMarkup(b)
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteString(">")
}

func (e *Element) indexOf(child *Element) int {
	for i, c := range e.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// replaceChild swaps old for el in old's parent.
func replaceChild(old, el *Element) {
	if old == nil || old.Parent == nil || old == el {
		return
	}
	parent := old.Parent
	if i := parent.indexOf(old); i >= 0 {
		parent.Children[i] = el
		el.Parent = parent
	}
	old.Parent = nil
}

// detach removes e from its parent.
func detach(e *Element) {
	if e == nil || e.Parent == nil {
		return
	}
	parent := e.Parent
	if i := parent.indexOf(e); i >= 0 {
		parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
	}
	e.Parent = nil
}
