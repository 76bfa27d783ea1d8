// Package observability wires OpenTelemetry tracing and metrics for blobkit.
//
// Storage operations open spans through StartSpan and report counts,
// durations and container cache hits through Metrics. InitTracer and
// InitMeter install OTLP/HTTP exporters; without them the global no-op
// providers are used and instrumentation costs nothing.
package observability
