package component

import (
	"fmt"

	"github.com/vango-dev/reactor/pkg/reactive"
	"github.com/vango-dev/reactor/pkg/report"
)

func (inst *Instance) initInjections() {
	if len(inst.opts.Inject) == 0 {
		return
	}
	inst.injected = make(map[string]*reactive.Cell[any], len(inst.opts.Inject))
	for _, key := range sortedKeys(inst.opts.Inject) {
		v, _ := inst.resolveInject(key, inst.opts.Inject[key])
		cell := reactive.NewCell[any](inst.rt.graph, v)
		if inst.rt.cfg.DevMode {
			k := key
			cell.SetGuard(func() {
				inst.warn("R031", fmt.Sprintf("injection %q", k))
			})
		}
		inst.injected[key] = cell
	}
}

// resolveInject walks from inst up through its ancestors for the nearest
// provider of key, falling back to the declared default.
func (inst *Instance) resolveInject(key string, def Injection) (any, bool) {
	from := def.From
	if from == "" {
		from = key
	}
	if v, ok := inst.lookupProvided(from); ok {
		return v, true
	}
	if def.DefaultFunc != nil {
		return def.DefaultFunc(inst), true
	}
	if def.Default != nil || def.HasDefault {
		return def.Default, true
	}
	inst.rt.handleError(nil, inst, report.KindResolution, "R030", fmt.Sprintf("injection %q", key))
	return nil, false
}

func (inst *Instance) lookupProvided(key string) (any, bool) {
	for src := inst; src != nil; src = src.Parent() {
		if v, ok := src.provided[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Inject resolves key against inst's ancestors at call time. Unlike
// declared injections the result is not stored on inst.
func (inst *Instance) Inject(key string) (any, bool) {
	return inst.lookupProvided(key)
}

func (inst *Instance) initProvide() {
	if inst.opts.Provide == nil {
		return
	}
	err := report.Guard(func() error {
		inst.provided = inst.opts.Provide(inst)
		return nil
	})
	if err != nil {
		inst.rt.handleError(err, inst, report.KindHook, "R010", "provide")
	}
}
