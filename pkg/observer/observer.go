// Package observer provides the Observer pattern for engine activity
// monitoring: graph mutations, render windows and JIT compiles. This
// lets library consumers track engine behavior without coupling the
// engine to any particular logging or metrics backend.
package observer

import (
	"context"
	"time"

	"github.com/yesoreyeram/routegraph/pkg/ids"
)

// EventType represents the type of engine event.
type EventType string

const (
	// Graph-mutation events.
	EventNodeAdded   EventType = "node_added"
	EventNodeRemoved EventType = "node_removed"
	EventEdgeAdded   EventType = "edge_added"
	EventEdgeRemoved EventType = "edge_removed"

	// Render-level events.
	EventRenderStart EventType = "render_start"
	EventRenderEnd   EventType = "render_end"

	// JIT events.
	EventJITCompile EventType = "jit_compile"
)

// ExecutionStatus represents the status of a render or compile.
type ExecutionStatus string

const (
	StatusStarted ExecutionStatus = "started"
	StatusSuccess ExecutionStatus = "success"
	StatusFailure ExecutionStatus = "failure"
)

// Event represents an engine event with all relevant metadata. Only the
// fields relevant to Type are populated; the rest are zero.
type Event struct {
	// Event identification
	Type      EventType       `json:"type"`
	Status    ExecutionStatus `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	// RenderID identifies one fill_buffer call, shared by its
	// EventRenderStart/EventRenderEnd pair.
	RenderID string `json:"render_id,omitempty"`

	// Mutation-specific data (empty for render/JIT events).
	Dag  ids.DagHandle  `json:"dag,omitempty"`
	Node ids.NodeHandle `json:"node,omitempty"`
	Edge ids.Edge       `json:"edge,omitempty"`

	// EffectName is set on EventJITCompile.
	EffectName string `json:"effect_name,omitempty"`

	// Timing information
	StartTime   time.Time     `json:"start_time,omitempty"`
	ElapsedTime time.Duration `json:"elapsed_time,omitempty"`

	// SamplesProduced is set on EventRenderEnd.
	SamplesProduced int `json:"samples_produced,omitempty"`

	Error error `json:"error,omitempty"`

	// Additional metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Observer defines the interface for engine activity observers.
// Observers receive notifications about various stages of engine
// activity.
type Observer interface {
	// OnEvent is called when an engine event occurs. The context can be
	// used for cancellation and passing request-scoped values.
	OnEvent(ctx context.Context, event Event)
}

// Logger defines the interface for custom logging.
// This allows library consumers to integrate with their own logging systems.
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields map[string]interface{})

	// Info logs info-level messages
	Info(msg string, fields map[string]interface{})

	// Warn logs warning-level messages
	Warn(msg string, fields map[string]interface{})

	// Error logs error-level messages
	Error(msg string, fields map[string]interface{})
}
