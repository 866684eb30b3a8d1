package component

import (
	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
)

// handleError routes err raised in inst through the ErrorCaptured hooks of
// inst's ancestors and then to the reporter. A nil err is a warning and
// skips the ancestor chain.
func (rt *Runtime) handleError(err error, inst *Instance, kind report.Kind, code, info string) {
	t := rt.graph.Tracker()
	t.Push(nil)
	defer t.Pop()

	if err != nil && inst != nil {
		for cur := inst.Parent(); cur != nil; cur = cur.Parent() {
			for _, hook := range cur.opts.ErrorCaptured {
				propagate := true
				herr := report.Guard(func() error {
					propagate = hook(err, inst, info)
					return nil
				})
				if herr != nil {
					rt.globalHandleError(herr, cur, report.KindHook, "R010", "errorCaptured hook")
					continue
				}
				if !propagate {
					return
				}
			}
		}
	}
	rt.globalHandleError(err, inst, kind, code, info)
}

func (rt *Runtime) globalHandleError(err error, inst *Instance, kind report.Kind, code, info string) {
	e := report.New(kind, code, err).WithInfo(info)
	if inst != nil {
		e.WithInstance(uint64(inst.id), inst.Name())
	}
	rt.emitReport(e)
}

// computationError adapts a computation failure to handleError.
func (inst *Instance) computationError(what string) func(err error, phase reactive.Phase) {
	return func(err error, phase reactive.Phase) {
		switch {
		case what == "render":
			inst.rt.handleError(err, inst, report.KindRender, "R001", "render")
		case phase == reactive.PhaseCallback:
			inst.rt.handleError(err, inst, report.KindHook, "R012", "callback for "+what)
		default:
			inst.rt.handleError(err, inst, report.KindHook, "R013", "getter for "+what)
		}
	}
}
