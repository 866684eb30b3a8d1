// Package report is the sink every runtime failure is routed to.
//
// Render failures, lifecycle hook and event handler failures, runaway
// update loops and unresolved injections are all caught at the boundary
// where they happen, wrapped in an *Error carrying a Kind and a registered
// code, and handed to a Reporter. Nothing is silently swallowed and nothing
// unwinds past the scheduler or an event dispatch loop.
//
// # Reporters
//
//   - SlogReporter writes reports to a *slog.Logger.
//   - Recorder keeps reports in memory (tests, devtools).
//   - Multi fans out to several reporters.
//   - ReporterFunc adapts a plain function.
//
// Guard converts panics into errors so callers can treat both alike:
//
//	if err := report.Guard(func() error { return hook(inst) }); err != nil {
//	    rep.Report(report.Hook("R010", err).WithInfo("mounted hook"))
//	}
package report
