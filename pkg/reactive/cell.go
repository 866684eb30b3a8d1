package reactive

// Cell is a tracked slot of mutable state.
type Cell[T any] struct {
	dep    *Dep
	value  T
	equals func(a, b T) bool

	// guard runs before every Set. Injected cells use it to report writes.
	guard func()
}

// NewCell creates a cell holding initial.
func NewCell[T any](g *Graph, initial T) *Cell[T] {
	return &Cell[T]{
		dep:    g.NewDep(),
		value:  initial,
		equals: defaultEquals[T],
	}
}

// Get returns the value and subscribes the current computation.
func (c *Cell[T]) Get() T {
	c.dep.Depend()
	return c.value
}

// Peek returns the value without subscribing.
func (c *Cell[T]) Peek() T {
	return c.value
}

// Set stores v and notifies subscribers if it differs from the current value.
func (c *Cell[T]) Set(v T) {
	if c.guard != nil {
		c.guard()
	}
	if c.equals(c.value, v) {
		return
	}
	c.value = v
	c.dep.Notify()
}

// Update sets the value to fn(current).
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// Touch notifies subscribers without changing the value. Use it after
// mutating a value in place (a map or slice element).
func (c *Cell[T]) Touch() {
	c.dep.Notify()
}

// Dep returns the cell's subscriber set.
func (c *Cell[T]) Dep() *Dep {
	return c.dep
}

// WithEquals replaces the equality function used by Set.
func (c *Cell[T]) WithEquals(fn func(a, b T) bool) *Cell[T] {
	c.equals = fn
	return c
}

// SetGuard installs fn to run before every Set.
func (c *Cell[T]) SetGuard(fn func()) {
	c.guard = fn
}
