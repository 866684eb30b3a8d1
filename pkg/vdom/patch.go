package vdom

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchSetText        PatchOp = 0x01 // Update text content
	PatchSetAttr        PatchOp = 0x02 // Set/update attribute or prop
	PatchRemoveAttr     PatchOp = 0x03 // Remove attribute or prop
	PatchInsertNode     PatchOp = 0x04 // Insert new node
	PatchRemoveNode     PatchOp = 0x05 // Remove node
	PatchMoveNode       PatchOp = 0x06 // Move node to new position
	PatchReplaceNode    PatchOp = 0x07 // Replace node entirely
	PatchSetListener    PatchOp = 0x08 // Bind or rebind an event listener
	PatchRemoveListener PatchOp = 0x09 // Unbind an event listener
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	case PatchReplaceNode:
		return "ReplaceNode"
	case PatchSetListener:
		return "SetListener"
	case PatchRemoveListener:
		return "RemoveListener"
	default:
		return "Unknown"
	}
}

// Patch describes a single operation. Path is the dot-separated child index
// path from the root ("" is the root itself).
type Patch struct {
	Op    PatchOp `json:"op"`
	Path  string  `json:"path"`
	Key   string  `json:"key,omitempty"`
	Value string  `json:"value,omitempty"`
	Index int     `json:"index,omitempty"`
	Node  *VNode  `json:"-"`
}

// Summary counts patches by operation name.
func Summary(patches []Patch) map[string]int {
	out := make(map[string]int)
	for _, p := range patches {
		out[p.Op.String()]++
	}
	return out
}
