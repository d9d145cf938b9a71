// Package instrumentation wires OpenTelemetry metrics and tracing for
// meetlink. Metrics are exported via Prometheus by default (served on a
// dedicated port by internal/server), with OTLP and stdout exporters
// selectable through environment variables. Tracing is off unless an
// exporter is configured.
package instrumentation
