// Package observe exports runtime activity as Prometheus metrics and
// OpenTelemetry spans.
//
// Both Metrics and Tracing implement component.Observer and
// scheduler.Observer; register them with component.WithObserver:
//
//	reg := prometheus.NewRegistry()
//	rt := component.New(
//	    component.WithObserver(observe.NewMetrics(observe.WithRegistry(reg))),
//	    component.WithObserver(observe.NewTracing()),
//	)
package observe
