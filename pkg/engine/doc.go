// Package engine wires the live effect graph, the JIT evaluator,
// engine-wide limits, telemetry and the observer/logging stack into the
// single facade pkg/dispatch exposes as the §6.1 command surface.
//
// Grounded on the teacher's pkg/engine/engine.go: one Engine struct owns
// one graph.Graph, one jit.Evaluator, an engineconfig.Config, a
// telemetry.Provider, an observer.Manager and an enginelog.Logger. Every
// mutating call reaches every registered observer through an
// observer.GraphWatcher subscribed to the graph. The evaluators receive
// no mutation notification: they read the shared *graph.Graph directly
// on each sample, and jit.FillBuffer seals pending compiled functions
// itself. Every Render call opens an OpenTelemetry span and records
// duration/sample count.
package engine
