package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yesoreyeram/routegraph/pkg/observer"
)

// TelemetryObserver implements observer.Observer, recording OpenTelemetry
// spans and metrics for engine activity.
type TelemetryObserver struct {
	provider *Provider

	renderSpans     map[string]trace.Span
	renderStartTime map[string]time.Time
}

// NewTelemetryObserver creates a new telemetry observer.
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:        provider,
		renderSpans:     make(map[string]trace.Span),
		renderStartTime: make(map[string]time.Time),
	}
}

// OnEvent handles engine events and records telemetry data.
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventNodeAdded:
		o.provider.RecordMutation(ctx, "node_added")
	case observer.EventNodeRemoved:
		o.provider.RecordMutation(ctx, "node_removed")
	case observer.EventEdgeAdded:
		o.provider.RecordMutation(ctx, "edge_added")
	case observer.EventEdgeRemoved:
		o.provider.RecordMutation(ctx, "edge_removed")
	case observer.EventRenderStart:
		o.handleRenderStart(ctx, event)
	case observer.EventRenderEnd:
		o.handleRenderEnd(ctx, event)
	case observer.EventJITCompile:
		o.provider.RecordJITCompile(ctx, event.EffectName)
	}
}

func (o *TelemetryObserver) handleRenderStart(ctx context.Context, event observer.Event) {
	_, span := o.provider.Tracer().Start(ctx, "render.fill_buffer",
		trace.WithAttributes(
			attribute.String("render.id", event.RenderID),
			attribute.Int64("dag", int64(event.Dag)),
		),
	)

	o.renderSpans[event.RenderID] = span
	o.renderStartTime[event.RenderID] = event.Timestamp
}

func (o *TelemetryObserver) handleRenderEnd(ctx context.Context, event observer.Event) {
	var duration time.Duration
	if start, ok := o.renderStartTime[event.RenderID]; ok {
		duration = time.Since(start)
		delete(o.renderStartTime, event.RenderID)
	} else {
		duration = event.ElapsedTime
	}

	o.provider.RecordRender(ctx, duration, event.SamplesProduced)

	if span, ok := o.renderSpans[event.RenderID]; ok {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "render window completed")
		}
		span.End()
		delete(o.renderSpans, event.RenderID)
	}
}
