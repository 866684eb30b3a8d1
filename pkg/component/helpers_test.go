package component

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/reactor/pkg/report"
	"github.com/vango-dev/reactor/pkg/vdom"
)

func newTestRuntime(t *testing.T, opts ...Option) (*Runtime, *report.Recorder) {
	t.Helper()
	rec := report.NewRecorder()
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithReporter(rec),
	}, opts...)
	return New(opts...), rec
}

// trace collects "<name>:<hook>" entries for every lifecycle hook of the
// components it is attached to.
type trace struct {
	entries []string
}

func (tr *trace) attach(o *Options) *Options {
	for _, h := range []Hook{BeforeCreate, Created, BeforeMount, Mounted, BeforeUpdate, Updated, Activated, Deactivated, BeforeDestroy, Destroyed} {
		hook := h
		o.On(hook, func(inst *Instance) error {
			tr.entries = append(tr.entries, fmt.Sprintf("%s:%s", inst.Name(), hook))
			return nil
		})
	}
	return o
}

func (tr *trace) reset() { tr.entries = nil }

func (tr *trace) count(entry string) int {
	n := 0
	for _, e := range tr.entries {
		if e == entry {
			n++
		}
	}
	return n
}

// counter renders <span>n</span> from its "n" data field.
func counter(name string, renders *int) *Options {
	return &Options{
		Name: name,
		Data: func(*Instance) map[string]any { return map[string]any{"n": 0} },
		Render: func(inst *Instance) (any, error) {
			if renders != nil {
				*renders++
			}
			return vdom.H("span", vdom.Textf("%v", inst.Get("n"))), nil
		},
	}
}

func codes(rec *report.Recorder) []string {
	var out []string
	for _, e := range rec.Reports() {
		out = append(out, e.Code)
	}
	return out
}
