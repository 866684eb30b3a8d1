package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Diff compares two trees and returns the patches needed to transform prev
// into next.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, "", &patches)
	return patches
}

func diff(prev, next *VNode, path string, patches *[]Patch) {
	switch {
	case prev == nil && next == nil:
		return
	case prev == nil:
		*patches = append(*patches, Patch{Op: PatchInsertNode, Path: path, Node: next})
		return
	case next == nil:
		*patches = append(*patches, Patch{Op: PatchRemoveNode, Path: path})
		return
	case !sameVNode(prev, next):
		*patches = append(*patches, Patch{Op: PatchReplaceNode, Path: path, Node: next})
		return
	}

	switch prev.Kind {
	case KindText, KindEmpty:
		if prev.Text != next.Text {
			*patches = append(*patches, Patch{Op: PatchSetText, Path: path, Value: next.Text})
		}
	case KindComponent:
		diffProps(prev, next, path, patches)
		diffListeners(prev, next, path, patches)
	default:
		diffProps(prev, next, path, patches)
		diffListeners(prev, next, path, patches)
		diffChildren(prev.Children, next.Children, path, patches)
	}
}

func diffProps(prev, next *VNode, path string, patches *[]Patch) {
	for _, key := range sortedKeys(prev.Props) {
		nextVal, ok := next.Props[key]
		if !ok {
			*patches = append(*patches, Patch{Op: PatchRemoveAttr, Path: path, Key: key})
		} else if !propsEqual(prev.Props[key], nextVal) {
			*patches = append(*patches, Patch{Op: PatchSetAttr, Path: path, Key: key, Value: propToString(nextVal)})
		}
	}
	for _, key := range sortedKeys(next.Props) {
		if _, ok := prev.Props[key]; !ok {
			*patches = append(*patches, Patch{Op: PatchSetAttr, Path: path, Key: key, Value: propToString(next.Props[key])})
		}
	}
}

func diffListeners(prev, next *VNode, path string, patches *[]Patch) {
	for _, name := range sortedNames(prev.On) {
		l := prev.On[name]
		nl, ok := next.On[name]
		if !ok {
			*patches = append(*patches, Patch{Op: PatchRemoveListener, Path: path, Key: name})
		} else if nl != l {
			*patches = append(*patches, Patch{Op: PatchSetListener, Path: path, Key: name})
		}
	}
	for _, name := range sortedNames(next.On) {
		if _, ok := prev.On[name]; !ok {
			*patches = append(*patches, Patch{Op: PatchSetListener, Path: path, Key: name})
		}
	}
}

func diffChildren(prev, next []*VNode, path string, patches *[]Patch) {
	if hasKeys(prev) || hasKeys(next) {
		diffKeyedChildren(prev, next, path, patches)
		return
	}
	n := max(len(prev), len(next))
	for i := 0; i < n; i++ {
		var p, c *VNode
		if i < len(prev) {
			p = prev[i]
		}
		if i < len(next) {
			c = next[i]
		}
		diff(p, c, childPath(path, i), patches)
	}
}

// diffKeyedChildren matches children by key. Paths of matched nodes refer
// to their position in prev; moves carry the new index.
func diffKeyedChildren(prev, next []*VNode, path string, patches *[]Patch) {
	prevKeys := make(map[string]int, len(prev))
	for i, c := range prev {
		if c.Key != "" {
			prevKeys[c.Key] = i
		}
	}

	matched := make(map[int]bool)
	for i, c := range next {
		j, ok := prevKeys[c.Key]
		if c.Key == "" || !ok {
			*patches = append(*patches, Patch{Op: PatchInsertNode, Path: path, Index: i, Node: c})
			continue
		}
		matched[j] = true
		if j != i {
			*patches = append(*patches, Patch{Op: PatchMoveNode, Path: childPath(path, j), Index: i})
		}
		diff(prev[j], c, childPath(path, j), patches)
	}

	for i := range prev {
		if !matched[i] {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, Path: childPath(path, i)})
		}
	}
}

func childPath(path string, i int) string {
	if path == "" {
		return strconv.Itoa(i)
	}
	return path + "." + strconv.Itoa(i)
}

func hasKeys(children []*VNode) bool {
	for _, c := range children {
		if c != nil && c.Key != "" {
			return true
		}
	}
	return false
}

func sortedKeys(p Props) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNames(h Handlers) []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// propToString converts a prop value to a string for the patch.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
