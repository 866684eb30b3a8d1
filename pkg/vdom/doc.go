// Package vdom is the tree model the reactive core renders into, plus a
// reference patch collaborator.
//
// # Core Types
//
// VNode is the virtual tree node: elements, text, fragments, empty
// placeholders and component placeholders. A component placeholder carries
// the component definition (opaque to this package), the props and event
// listeners handed to the child instance, and, once created, the instance.
//
// # Element API
//
// Nodes are built with H and friends:
//
//	H("ul", Class("todos"),
//	    H("li", Key("a"), "first"),
//	    H("li", Key("b"), "second"),
//	)
//
// # Renderer
//
// Renderer applies a new tree over an old one and keeps an in-memory host
// tree of *Element values. Component placeholders are delegated to a
// ComponentHooks implementation, which is how the runtime creates, updates,
// inserts and destroys child instances. Insert hooks are queued and run once
// the outermost Patch call has attached everything, children first.
//
// # Diffing
//
// Diff compares two trees and returns the operations needed to turn one into
// the other, addressed by child-index paths. The renderer does not need it;
// devtools use it to describe each update.
package vdom
