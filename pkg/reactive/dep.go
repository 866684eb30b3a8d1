package reactive

import "slices"

// Dep is the subscriber set of one cell. It only ever holds computations.
type Dep struct {
	id    uint64
	graph *Graph
	subs  []*Computation
}

// NewDep creates an empty subscriber set.
func (g *Graph) NewDep() *Dep {
	g.nextDep++
	return &Dep{id: g.nextDep, graph: g}
}

// ID returns the dep's unique id.
func (d *Dep) ID() uint64 {
	return d.id
}

// Depend registers d with the computation currently collecting
// dependencies, if any.
func (d *Dep) Depend() {
	if c := d.graph.tracker.current; c != nil {
		c.addDep(d)
	}
}

// Notify invalidates every subscriber. The subscriber list is copied first
// so subscribers that unsubscribe while being notified do not disturb the
// iteration.
func (d *Dep) Notify() {
	if len(d.subs) == 0 {
		return
	}
	subs := slices.Clone(d.subs)
	if d.graph.queue == nil {
		// run inline in creation order
		slices.SortFunc(subs, func(a, b *Computation) int {
			return compareIDs(a.id, b.id)
		})
	}
	for _, c := range subs {
		c.Update()
	}
}

// Subscribers returns how many computations are subscribed.
func (d *Dep) Subscribers() int {
	return len(d.subs)
}

// Has reports whether c is subscribed.
func (d *Dep) Has(c *Computation) bool {
	return slices.Contains(d.subs, c)
}

func (d *Dep) addSub(c *Computation) {
	d.subs = append(d.subs, c)
}

func (d *Dep) removeSub(c *Computation) {
	if i := slices.Index(d.subs, c); i >= 0 {
		d.subs = slices.Delete(d.subs, i, i+1)
	}
}

func compareIDs(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
