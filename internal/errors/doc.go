// Package errors provides the coded error catalogue for reactor.
//
// Every condition the runtime reports (render failures, hook failures,
// runaway update loops, unresolved injections, misuse warnings) maps to a
// registered code such as "R001". A code carries a category, a short
// message, a longer explanation and a documentation URL, so the same
// failure reads identically in logs, in the devtools stream and in the CLI.
//
// # Usage
//
//	err := errors.New("R001").
//	    WithInfo("render of TodoList").
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Render function failed
//	//
//	//   The render function returned an error or panicked. ...
//	//
//	//   Learn more: https://reactor.vango.dev/errors/R001
package errors
