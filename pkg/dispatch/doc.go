// Package dispatch provides the transport-agnostic command surface: the
// hierarchical `/routegraph/...`, `/renderer/...`, `/resman/...` namespace
// that fronts pkg/engine, plus the Client callback interface a caller
// implements to receive audio_rendered/node_meta/node_id notifications.
//
// Grounded on the teacher's workflow.go backward-compat facade (a single
// re-export-heavy glue package sitting in front of pkg/engine) and on the
// original Dispatch<R, C>/OscToplevel routing table this module's command
// surface is modeled on: every command that used to address a specific
// OSC path is a Facade method here, and every callback the original
// routed to its Client trait is a call to this package's Client interface.
package dispatch
