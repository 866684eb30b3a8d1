package component

import (
	"fmt"
	"sort"
)

// Snapshot is a serialisable view of an instance subtree.
type Snapshot struct {
	ID             ID                `json:"id"`
	Name           string            `json:"name"`
	Parent         ID                `json:"parent,omitempty"`
	Mounted        bool              `json:"mounted"`
	Inactive       bool              `json:"inactive,omitempty"`
	DirectInactive bool              `json:"directInactive,omitempty"`
	State          map[string]string `json:"state,omitempty"`
	Provided       []string          `json:"provided,omitempty"`
	Events         []string          `json:"events,omitempty"`
	RenderRuns     int               `json:"renderRuns"`
	RenderDeps     int               `json:"renderDeps"`
	Markup         string            `json:"markup,omitempty"`
	Children       []Snapshot        `json:"children,omitempty"`
}

// Snapshot captures inst and its live descendants without tracking.
func (inst *Instance) Snapshot() Snapshot {
	s := Snapshot{
		ID:             inst.id,
		Name:           inst.Name(),
		Parent:         inst.parent,
		Mounted:        inst.isMounted,
		Inactive:       inst.inactive == yes,
		DirectInactive: inst.directInactive,
		Events:         inst.Names(),
	}
	for _, key := range inst.Keys() {
		if s.State == nil {
			s.State = make(map[string]string)
		}
		if c, ok := inst.Cell(key); ok {
			s.State[key] = fmt.Sprint(c.Peek())
		} else if m, ok := inst.computed[key]; ok {
			s.State[key] = fmt.Sprint(m.Computation().Value())
		}
	}
	for k := range inst.provided {
		s.Provided = append(s.Provided, k)
	}
	sort.Strings(s.Provided)
	if inst.renderComp != nil {
		s.RenderRuns = inst.renderComp.Runs()
		s.RenderDeps = inst.renderComp.DepCount()
	}
	if inst.el != nil {
		s.Markup = inst.el.String()
	}
	for _, c := range inst.Children() {
		s.Children = append(s.Children, c.Snapshot())
	}
	return s
}

// Snapshot captures every root tree in id order.
func (rt *Runtime) Snapshot() []Snapshot {
	roots := rt.Roots()
	out := make([]Snapshot, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.Snapshot())
	}
	return out
}
