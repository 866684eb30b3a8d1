package report

import (
	"context"
	"log/slog"
	"sync"
)

// Reporter receives every report produced by the runtime.
type Reporter interface {
	Report(e *Error)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(e *Error)

// Report implements Reporter.
func (f ReporterFunc) Report(e *Error) { f(e) }

// Discard drops every report.
var Discard Reporter = ReporterFunc(func(*Error) {})

// SlogReporter logs reports. Warnings are logged at warn level, everything
// else at error level.
type SlogReporter struct {
	Logger *slog.Logger
}

// NewSlogReporter creates a reporter writing to logger, or slog.Default()
// when logger is nil.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{Logger: logger.With("component", "reactor")}
}

// Report implements Reporter.
func (r *SlogReporter) Report(e *Error) {
	level := slog.LevelError
	if e.Kind.IsWarning() {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.String("code", e.Code),
	}
	if e.Info != "" {
		attrs = append(attrs, slog.String("info", e.Info))
	}
	if e.Instance != 0 {
		attrs = append(attrs, slog.Uint64("instance", e.Instance), slog.String("name", componentName(e.Component)))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("error", e.Err.Error()))
	}

	r.Logger.LogAttrs(context.Background(), level, e.Describe().Message, attrs...)
}

// Recorder keeps every report in memory. It is safe for concurrent use so
// that devtools handlers can read it while the runtime loop writes.
type Recorder struct {
	mu      sync.Mutex
	reports []*Error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report implements Reporter.
func (r *Recorder) Report(e *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, e)
}

// Reports returns a copy of all recorded reports.
func (r *Recorder) Reports() []*Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Error, len(r.reports))
	copy(out, r.reports)
	return out
}

// Kinds returns the kinds of all recorded reports in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.reports))
	for i, e := range r.reports {
		kinds[i] = e.Kind
	}
	return kinds
}

// Count returns how many reports of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.reports {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Len returns the number of recorded reports.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

// Last returns the most recent report, or nil.
func (r *Recorder) Last() *Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reports) == 0 {
		return nil
	}
	return r.reports[len(r.reports)-1]
}

// Reset discards all recorded reports.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.reports = nil
	r.mu.Unlock()
}

// Multi fans reports out to every reporter in order. Nil reporters are skipped.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(e *Error) {
		for _, r := range reporters {
			if r != nil {
				r.Report(e)
			}
		}
	})
}
