// Package graph implements the engine's live effect graph.
//
// # Overview
//
// A Graph is a collection of DAGs, one per nesting level currently in
// use. Each DAG is a flat table of nodes plus a single-sourced inbound
// edge table; online mutation (AddNode, DelNode, AddEdge, DelEdge) keeps
// both tables consistent and rejects any edge that would close a
// zero-cost cycle under the rule of §3.5.
//
// # Nesting
//
// A node whose descriptor body is a nested graph is materialized
// eagerly: AddNode allocates a child DagHandle and replays the nested
// adjacency list's nodes and edges into it. The reference and JIT
// evaluators then walk the child DAG the same way they walk the
// outermost one, keyed by the node's ChildDag handle (see NodeView).
//
// # Concurrency
//
// The engine's own call pattern is single-threaded and synchronous; the
// mutex inside Graph exists so read-only callers (telemetry exporters,
// debugging introspection) can safely observe graph state from another
// goroutine while the engine thread mutates it.
package graph
