package reactive

// Computed is a lazily evaluated derived value.
type Computed[T any] struct {
	c *Computation
}

// NewComputed creates a computed value from fn. fn runs on the first Get
// and again on the first Get after any dependency changes.
func NewComputed[T any](g *Graph, fn func() T) *Computed[T] {
	return NewComputedWith(g, fn, Options{})
}

// NewComputedWith is NewComputed with extra options. Lazy is always set.
func NewComputedWith[T any](g *Graph, fn func() T, opts Options) *Computed[T] {
	opts.Lazy = true
	c := g.NewComputation(func() (any, error) {
		return fn(), nil
	}, opts)
	return &Computed[T]{c: c}
}

// Get returns the value, evaluating it first if dirty. The current tracking
// target becomes dependent on everything the computed value read.
func (m *Computed[T]) Get() T {
	if m.c.dirty {
		m.c.Evaluate()
	}
	if m.c.graph.tracker.current != nil {
		m.c.Depend()
	}
	v, _ := m.c.value.(T)
	return v
}

// Computation returns the underlying lazy computation.
func (m *Computed[T]) Computation() *Computation {
	return m.c
}

// Watch creates a watcher computation. cb is called with the new and old
// value whenever getter's result changes after a flush.
func (g *Graph) Watch(getter func() any, cb Callback, opts Options) *Computation {
	opts.Callback = cb
	return g.NewComputation(func() (any, error) {
		return getter(), nil
	}, opts)
}
