package vdom

import (
	"fmt"

	"github.com/vango-dev/reactor/pkg/events"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Plain text node
	KindFragment               // Grouping without wrapper
	KindComponent              // Nested component placeholder
	KindEmpty                  // Empty placeholder (renders as a comment)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindEmpty:
		return "Empty"
	default:
		return "Unknown"
	}
}

// VNode is the virtual tree node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name, or component name for KindComponent
	Props    Props    // Attributes, or props passed to a child component
	On       Handlers // Event listeners (element events or child component events)
	Children []*VNode // Child nodes
	Key      string   // Reconciliation key
	Text     string   // For KindText and KindEmpty

	// Comp is the component definition for KindComponent.
	Comp any

	// KeepAlive makes the child instance deactivate instead of being
	// destroyed when the placeholder is removed.
	KeepAlive bool

	// Instance is the child component instance, set by ComponentHooks.Init.
	Instance any

	// Elm is the host element this node was applied to.
	Elm *Element
}

// Props holds attributes or component props.
type Props map[string]any

// Handlers maps event names to listeners.
type Handlers map[string]*events.Listener

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler binds a listener to an event name.
type EventHandler struct {
	Event    string
	Listener *events.Listener
}

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Empty creates an empty placeholder node.
func Empty() *VNode {
	return &VNode{Kind: KindEmpty}
}

// Comment creates an empty placeholder carrying text.
func Comment(text string) *VNode {
	return &VNode{Kind: KindEmpty, Text: text}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...any) *VNode {
	node := &VNode{Kind: KindFragment}
	apply(node, children)
	return node
}

// H creates an element node. Arguments can be nil, Attr, []Attr,
// EventHandler, *VNode, []*VNode or string.
func H(tag string, args ...any) *VNode {
	node := &VNode{Kind: KindElement, Tag: tag}
	apply(node, args)
	return node
}

// Component creates a component placeholder. name is used for display only.
func Component(name string, def any, args ...any) *VNode {
	node := &VNode{Kind: KindComponent, Tag: name, Comp: def}
	apply(node, args)
	return node
}

// KeepAlive marks a component placeholder as cached and returns it.
func KeepAlive(node *VNode) *VNode {
	if node != nil && node.Kind == KindComponent {
		node.KeepAlive = true
	}
	return node
}

// Class is shorthand for the class attribute.
func Class(name string) Attr { return Attr{Key: "class", Value: name} }

// ID is shorthand for the id attribute.
func ID(id string) Attr { return Attr{Key: "id", Value: id} }

// Key sets the reconciliation key.
func Key(key string) Attr { return Attr{Key: "key", Value: key} }

// Prop is a generic attribute or component prop.
func Prop(key string, value any) Attr { return Attr{Key: key, Value: value} }

// On binds l to event.
func On(event string, l *events.Listener) EventHandler {
	return EventHandler{Event: event, Listener: l}
}

func apply(node *VNode, args []any) {
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			setAttr(node, v)
		case []Attr:
			for _, a := range v {
				setAttr(node, a)
			}
		case EventHandler:
			if v.Listener == nil {
				continue
			}
			if node.On == nil {
				node.On = make(Handlers)
			}
			node.On[v.Event] = v.Listener
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}
}

func setAttr(node *VNode, a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Key == "key" {
		if s, ok := a.Value.(string); ok {
			node.Key = s
		}
		return
	}
	if node.Props == nil {
		node.Props = make(Props)
	}
	node.Props[a.Key] = a.Value
}

// sameVNode reports whether b can be patched in place over a.
func sameVNode(a, b *VNode) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Key != b.Key || a.Kind != b.Kind || a.Tag != b.Tag {
		return false
	}
	if a.Kind == KindComponent {
		return sameDef(a.Comp, b.Comp)
	}
	return true
}

func sameDef(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
