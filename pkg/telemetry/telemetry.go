package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "routegraph-engine"

	metricMutations       = "graph.mutations.total"
	metricRenders         = "render.windows.total"
	metricRenderDuration  = "render.window.duration"
	metricRenderSamples   = "render.samples.total"
	metricJITCompiles     = "jit.compiles.total"
	metricJITCacheSize    = "jit.cache.size"
	metricJITDelayBuckets = "jit.delay_length.observations.total"
)

// Provider manages OpenTelemetry setup and provides access to tracers and
// meters for the engine.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	mutations       metric.Int64Counter
	renders         metric.Int64Counter
	renderDuration  metric.Float64Histogram
	renderSamples   metric.Int64Counter
	jitCompiles     metric.Int64Counter
	jitCacheSize    metric.Int64UpDownCounter
	jitDelayBuckets metric.Int64Counter

	mu sync.RWMutex
}

// Config holds telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
}

// DefaultConfig returns default telemetry configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider creates a telemetry provider with a Prometheus metrics
// exporter, initializing OpenTelemetry with the given configuration.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableMetrics {
		if err := provider.initMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if config.EnableTracing {
		provider.initTracing()
	}

	return provider, nil
}

func (p *Provider) initMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(serviceName)

	return p.createMetricInstruments()
}

func (p *Provider) initTracing() {
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(serviceName)
}

func (p *Provider) createMetricInstruments() error {
	var err error

	p.mutations, err = p.meter.Int64Counter(
		metricMutations,
		metric.WithDescription("Total number of accepted graph mutations (add/del node/edge)"),
	)
	if err != nil {
		return err
	}

	p.renders, err = p.meter.Int64Counter(
		metricRenders,
		metric.WithDescription("Total number of fill_buffer render windows processed"),
	)
	if err != nil {
		return err
	}

	p.renderDuration, err = p.meter.Float64Histogram(
		metricRenderDuration,
		metric.WithDescription("Render window wall-clock duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.renderSamples, err = p.meter.Int64Counter(
		metricRenderSamples,
		metric.WithDescription("Total number of output samples produced"),
	)
	if err != nil {
		return err
	}

	p.jitCompiles, err = p.meter.Int64Counter(
		metricJITCompiles,
		metric.WithDescription("Total number of primitive effect identities compiled into the JIT function cache"),
	)
	if err != nil {
		return err
	}

	p.jitCacheSize, err = p.meter.Int64UpDownCounter(
		metricJITCacheSize,
		metric.WithDescription("Current number of distinct compiled functions held by the JIT cache"),
	)
	if err != nil {
		return err
	}

	p.jitDelayBuckets, err = p.meter.Int64Counter(
		metricJITDelayBuckets,
		metric.WithDescription("Total number of Delay primitive evaluations, bucketed by observed delay length in frames"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Tracer returns the tracer for creating spans.
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

// Meter returns the meter for recording metrics.
func (p *Provider) Meter() metric.Meter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meter
}

// RecordMutation records one accepted graph mutation of the given kind
// ("node_added", "node_removed", "edge_added", "edge_removed").
func (p *Provider) RecordMutation(ctx context.Context, kind string) {
	if p.mutations == nil {
		return
	}
	p.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("mutation.kind", kind)))
}

// RecordRender records one fill_buffer call: its wall-clock duration and
// how many samples it produced across all requested output slots.
func (p *Provider) RecordRender(ctx context.Context, duration time.Duration, samplesProduced int) {
	if p.renders == nil {
		return
	}
	p.renders.Add(ctx, 1)
	p.renderDuration.Record(ctx, float64(duration.Microseconds())/1000.0)
	p.renderSamples.Add(ctx, int64(samplesProduced))
}

// RecordJITCompile records a cache miss that compiled a new function for
// effectName.
func (p *Provider) RecordJITCompile(ctx context.Context, effectName string) {
	if p.jitCompiles == nil {
		return
	}
	p.jitCompiles.Add(ctx, 1, metric.WithAttributes(attribute.String("effect.name", effectName)))
	p.jitCacheSize.Add(ctx, 1)
}

// RecordDelayBucket records one Delay-primitive evaluation at the given
// observed length in frames, per pkg/jit's DelayLengthHistogram.
func (p *Provider) RecordDelayBucket(ctx context.Context, frames float32) {
	if p.jitDelayBuckets == nil {
		return
	}
	p.jitDelayBuckets.Add(ctx, 1, metric.WithAttributes(attribute.Float64("delay.frames", float64(frames))))
}

// Shutdown gracefully shuts down the telemetry provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return nil
}
