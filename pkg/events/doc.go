// Package events is the per-instance publish/subscribe channel.
//
// Handlers are wrapped in a *Listener so they have an identity that Off can
// match:
//
//	save := events.Listen(func(args ...any) error {
//	    fmt.Println("saved", args)
//	    return nil
//	})
//	bus.On("save", save)
//	bus.Emit("save", 42)
//	bus.OffListener("save", save)
//
// Names starting with "hook:" subscribe to an instance's lifecycle hooks;
// registering one flips a flag the runtime checks before emitting synthetic
// hook events.
package events
