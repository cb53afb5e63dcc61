// Package enginelog provides structured logging with context propagation
// for the routegraph engine.
//
// It wraps log/slog with fields meaningful to this engine — render id,
// DAG handle, node handle, effect name — in place of the teacher's
// workflow/node/execution-id fields, and follows the same
// Config/New/WithContext/FromContext shape as the teacher's
// pkg/logging.
package enginelog
