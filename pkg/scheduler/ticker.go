package scheduler

// Ticker defers work to the end of the current cooperative turn.
type Ticker interface {
	Defer(fn func())
}

// Microtasks is a manual ticker. Deferred functions run when Drain is called.
// It is not safe for concurrent use.
type Microtasks struct {
	queue []func()
}

// Defer implements Ticker.
func (m *Microtasks) Defer(fn func()) {
	m.queue = append(m.queue, fn)
}

// Pending returns the number of queued functions.
func (m *Microtasks) Pending() int {
	return len(m.queue)
}

// Drain runs queued functions, including any deferred while draining, until
// the queue is empty. It returns how many ran.
func (m *Microtasks) Drain() int {
	n := 0
	for len(m.queue) > 0 {
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		fn()
		n++
	}
	m.queue = nil
	return n
}

// Immediate runs deferred functions synchronously.
type Immediate struct{}

// Defer implements Ticker.
func (Immediate) Defer(fn func()) {
	fn()
}
