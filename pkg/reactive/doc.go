// Package reactive is the dependency graph at the bottom of the runtime.
//
// A Graph owns three things: a Tracker naming the computation that is
// currently collecting dependencies, a Queue that receives invalidated
// computations, and a Reporter for getter and callback failures. There is no
// package-level state; every cell and computation belongs to exactly one
// Graph.
//
// # Cells and computations
//
// A Cell holds a value. Reading it through Get while a computation is
// running subscribes that computation to the cell's Dep. Writing a different
// value notifies every subscriber:
//
//	g := reactive.NewGraph(nil)
//	count := reactive.NewCell(g, 0)
//
//	w := g.NewComputation(func() (any, error) {
//	    return count.Get() * 2, nil
//	}, reactive.Options{
//	    Callback: func(newV, oldV any) error {
//	        fmt.Println(oldV, "->", newV)
//	        return nil
//	    },
//	})
//
//	count.Set(5) // the queue receives w; running it prints "0 -> 10"
//
// Every run of a computation re-collects its dependencies and unsubscribes
// from cells it no longer reads.
//
// # Lazy computations
//
// Computed wraps a lazy computation. It is only evaluated when read while
// dirty, and a computation reading a Computed depends on everything the
// Computed read.
package reactive
