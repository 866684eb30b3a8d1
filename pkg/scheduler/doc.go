// Package scheduler batches invalidated computations and flushes them once
// per cooperative turn.
//
// Enqueue dedupes by computation id and asks the Ticker for a single deferred
// flush. Flush sorts the queue by creation id, so parents update before
// children and an instance's watchers run before its render, then drains it
// iteratively: computations enqueued while flushing are inserted into the
// live queue at their id position. A computation re-enqueued more than
// MaxUpdateCount times in one flush aborts the flush with an update loop
// report and the whole pending queue is dropped.
//
// After a full drain, activated callbacks and then the After hooks of every
// computation that ran are called in ascending id order.
//
// # Tickers
//
//   - Microtasks queues deferred work until Drain is called. Tests use it.
//   - Immediate runs deferred work synchronously (sync mode).
//   - Loop is a single-goroutine event loop; other goroutines Submit tasks
//     and deferred work is drained after every task.
package scheduler
