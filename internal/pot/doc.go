// Package pot coordinates honeypot streaming sessions. It is structured
// into small files by concern:
//
//   - pot.go: core Pot type, Config, constructor and defaults.
//   - admission.go: the concurrent-session bound (slot acquire/release).
//   - session.go: the per-connection streaming loop and limit checks.
//   - errors.go: error types and predicates (IsBusy, IsTransport).
//   - metrics.go: Prometheus instrumentation for sessions and bytes.
//
// External packages should treat this package as the orchestration layer
// and use public methods only (New, Stream, Active, Ready).
package pot
