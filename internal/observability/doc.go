// Package observability provides the two ambient concerns components
// reach for directly: structured logging and Prometheus metrics.
//
// Logging is built on slog with request/session/user correlation via
// context values and redaction of common secret patterns. Metrics cover
// the Container Manager, Exec Engine, File I/O, and Prompt Cache — the
// request-shaped concerns of the rest of the package are out of scope
// for this service.
package observability
