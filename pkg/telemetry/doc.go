// Package telemetry provides OpenTelemetry integration for distributed
// tracing and Prometheus metrics. It enables observability for the
// routegraph engine with support for:
//   - Distributed tracing with span context around each fill_buffer call
//   - Prometheus metrics for graph mutation, render-window and JIT
//     compile/cache activity
//   - A TelemetryObserver bridging pkg/observer's event stream into
//     Provider's recorders
package telemetry
