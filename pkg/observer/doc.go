// Package observer provides an event-driven observer pattern for engine
// activity.
//
// Observer receives Events describing graph mutations (EventNodeAdded,
// EventNodeRemoved, EventEdgeAdded, EventEdgeRemoved), render windows
// (EventRenderStart, EventRenderEnd) and JIT compiles (EventJITCompile),
// without coupling the caller to the engine's internals.
//
// Manager fans a single Notify call out to every registered Observer in
// its own goroutine, recovering a panicking observer so it cannot take
// down the others or the caller.
//
// NoOpObserver and ConsoleObserver are provided as defaults; a caller
// wanting structured logging or metrics supplies its own Observer (see
// pkg/telemetry for one backed by OpenTelemetry).
package observer
