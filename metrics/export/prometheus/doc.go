// Package prometheus publishes persontric engine metrics through client_golang.
//
// [Collector] reads an engine snapshot on every scrape and emits const metrics, so
// the engine's hot path never touches Prometheus types. [Handler] serves a private
// registry holding one Collector.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry; callers choose the registry.
//   - Mutate engine state.
package prometheus
