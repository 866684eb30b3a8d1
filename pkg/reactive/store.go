package reactive

import "sort"

// Store holds cells shared between instances. Each key carries a usage
// counter; the cell is dropped when the last user detaches.
type Store struct {
	graph *Graph
	cells map[string]*Cell[any]
	users map[string]int
}

// NewStore creates an empty store on g.
func NewStore(g *Graph) *Store {
	return &Store{
		graph: g,
		cells: make(map[string]*Cell[any]),
		users: make(map[string]int),
	}
}

// Attach returns the cell for key, creating it with init() if absent, and
// increments its usage counter.
func (s *Store) Attach(key string, init func() any) *Cell[any] {
	cell, ok := s.cells[key]
	if !ok {
		var v any
		if init != nil {
			v = init()
		}
		cell = NewCell[any](s.graph, v)
		s.cells[key] = cell
	}
	s.users[key]++
	return cell
}

// Detach decrements the usage counter for key and drops the cell at zero.
func (s *Store) Detach(key string) {
	n, ok := s.users[key]
	if !ok {
		return
	}
	if n <= 1 {
		delete(s.users, key)
		delete(s.cells, key)
		return
	}
	s.users[key] = n - 1
}

// Lookup returns the cell for key without attaching.
func (s *Store) Lookup(key string) (*Cell[any], bool) {
	cell, ok := s.cells[key]
	return cell, ok
}

// Usage returns the usage counter for key.
func (s *Store) Usage(key string) int {
	return s.users[key]
}

// Keys returns the attached keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
