// Package devtools exposes a running component.Runtime over HTTP.
//
// Routes:
//
//	GET  /instances        instance forest as JSON (ETag by content hash)
//	GET  /instances/{id}   one subtree
//	GET  /stats            counters
//	GET  /ws               websocket feed of lifecycle, flush and report messages
//	GET  /metrics          Prometheus exposition, when a gatherer is configured
//	POST /snapshot         export the forest through the configured Exporter
//
// Every read of runtime state happens on the runtime's scheduler.Loop.
package devtools
