// Package component drives component instances through their lifecycle.
//
// A Runtime owns an arena of instances, the dependency graph, the scheduler
// and the patch collaborator. Instances are addressed by ID; parent and
// child links are IDs into the arena, and a destroyed instance is removed
// from it. IDs are never reused.
//
// # Lifecycle
//
//	created → mounting → mounted → (updating ⇄ mounted) → beingDestroyed → destroyed
//
// plus active/inactive while mounted. Every instance has one render
// computation. Its first run happens synchronously in Mount; later runs are
// delivered by the scheduler or ForceUpdate. A failing render is reported
// and the last good tree is kept.
//
// # Usage
//
//	counter := &component.Options{
//	    Name: "Counter",
//	    Data: func(*component.Instance) map[string]any {
//	        return map[string]any{"n": 0}
//	    },
//	    Render: func(inst *component.Instance) (any, error) {
//	        return vdom.H("button", vdom.Textf("%d", inst.Get("n"))), nil
//	    },
//	}
//
//	rt := component.New()
//	inst, err := rt.Mount(counter, nil)
//	inst.Set("n", 1)
//	rt.Flush() // or let the configured ticker run the flush
package component
