package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/engineconfig"
	"github.com/yesoreyeram/routegraph/pkg/enginelog"
	"github.com/yesoreyeram/routegraph/pkg/graph"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/jit"
	"github.com/yesoreyeram/routegraph/pkg/load"
	"github.com/yesoreyeram/routegraph/pkg/observer"
	"github.com/yesoreyeram/routegraph/pkg/refeval"
	"github.com/yesoreyeram/routegraph/pkg/telemetry"
)

// Engine is the routegraph execution engine: it owns the live effect
// graph, the JIT evaluator, and the ambient config/telemetry/observer/
// logging stack, and exposes exactly the operations pkg/dispatch needs
// for the §6.1 command surface.
type Engine struct {
	graph     *graph.Graph
	jit       *jit.Evaluator
	refeval   *refeval.Evaluator
	cfg       *engineconfig.Config
	telemetry *telemetry.Provider
	observers *observer.Manager
	logger    *enginelog.Logger
	resources *load.FSResourceManager

	countersMu sync.Mutex
	nodeCount  int
	edgeCount  int
}

// New creates an Engine with engineconfig.Default() limits and a
// Prometheus-backed telemetry provider. External input (samples read for
// slots with no wired source) is always zero; NewWithConfig wires the
// same zero source, and neither constructor accepts a caller-supplied
// one.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, engineconfig.Default())
}

// NewWithConfig creates an Engine with the given limits.
func NewWithConfig(ctx context.Context, cfg *engineconfig.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine: invalid config: %w", err)
	}

	telemetryProvider, err := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("engine: telemetry: %w", err)
	}

	g := graph.New()
	zeroJITInput := jit.ExternalInputFunc(func(ids.Slot, uint64) float32 { return 0 })
	jitEval := jit.New(g, zeroJITInput, jit.DefaultBufferSource)
	zeroRefInput := refeval.ExternalInputFunc(func(ids.Slot, uint64) float32 { return 0 })
	refEval := refeval.New(g, zeroRefInput, refeval.DefaultBufferSource)

	observers := observer.NewManager()
	observers.Register(telemetry.NewTelemetryObserver(telemetryProvider))
	g.Subscribe(observer.NewGraphWatcher(observers, ctx))
	jitEval.SetObserver(observers, ctx)

	e := &Engine{
		graph:     g,
		jit:       jitEval,
		refeval:   refEval,
		cfg:       cfg,
		telemetry: telemetryProvider,
		observers: observers,
		logger:    enginelog.New(enginelog.DefaultConfig()),
		resources: load.NewFSResourceManager(),
	}
	return e, nil
}

// RegisterObserver adds an observer to receive graph mutation and render
// events. Returns the engine for method chaining.
func (e *Engine) RegisterObserver(obs observer.Observer) *Engine {
	e.observers.Register(obs)
	return e
}

// AddNode implements /routegraph/add_node: resolves id to a descriptor
// via load.LoadByID against the engine's resource manager, bounded by
// cfg.ResourceLoadTimeout, then adds the node to the graph.
func (e *Engine) AddNode(h ids.NodeHandle, id ids.EffectID) error {
	e.countersMu.Lock()
	if e.cfg.MaxNodesPerGraph > 0 && e.nodeCount >= e.cfg.MaxNodesPerGraph {
		e.countersMu.Unlock()
		return ErrTooManyNodes
	}
	e.countersMu.Unlock()

	desc, err := e.loadDescriptor(id)
	if err != nil {
		e.logger.WithNode(h).WithError(err).Warn("add_node: effect resolution failed")
		return err
	}

	if err := e.graph.AddNode(h, desc); err != nil {
		return err
	}

	e.countersMu.Lock()
	e.nodeCount++
	e.countersMu.Unlock()
	e.logger.WithNode(h).WithEffect(id.Name).Debug("add_node")
	return nil
}

// loadDescriptor resolves id with cfg.ResourceLoadTimeout bounding how
// long the directory scan and candidate deserialization may run, per
// §4.5's load_by_id contract.
func (e *Engine) loadDescriptor(id ids.EffectID) (*descriptor.EffectDesc, error) {
	type result struct {
		desc *descriptor.EffectDesc
		err  error
	}
	done := make(chan result, 1)
	go func() {
		desc, err := load.LoadByID(id, e.resources)
		done <- result{desc, err}
	}()

	timeout := e.cfg.ResourceLoadTimeout
	if timeout <= 0 {
		r := <-done
		return r.desc, r.err
	}
	select {
	case r := <-done:
		return r.desc, r.err
	case <-time.After(timeout):
		return nil, ErrResourceTimeout
	}
}

// DelNode implements /routegraph/del_node.
func (e *Engine) DelNode(h ids.NodeHandle) error {
	if err := e.graph.DelNode(h); err != nil {
		return err
	}
	e.countersMu.Lock()
	e.nodeCount--
	e.countersMu.Unlock()
	e.logger.WithNode(h).Debug("del_node")
	return nil
}

// AddEdge implements /routegraph/add_edge.
func (e *Engine) AddEdge(edge ids.Edge) error {
	e.countersMu.Lock()
	if e.cfg.MaxEdgesPerGraph > 0 && e.edgeCount >= e.cfg.MaxEdgesPerGraph {
		e.countersMu.Unlock()
		return ErrTooManyEdges
	}
	e.countersMu.Unlock()

	if err := e.graph.AddEdge(edge); err != nil {
		return err
	}
	e.countersMu.Lock()
	e.edgeCount++
	e.countersMu.Unlock()
	return nil
}

// DelEdge implements /routegraph/del_edge.
func (e *Engine) DelEdge(edge ids.Edge) error {
	if err := e.graph.DelEdge(edge); err != nil {
		return err
	}
	e.countersMu.Lock()
	e.edgeCount--
	e.countersMu.Unlock()
	return nil
}

// QueryMeta implements /routegraph/query_meta.
func (e *Engine) QueryMeta(h ids.NodeHandle) (descriptor.Meta, error) {
	return e.graph.QueryMeta(h)
}

// QueryID implements /routegraph/query_id.
func (e *Engine) QueryID(h ids.NodeHandle) (ids.EffectID, error) {
	return e.graph.QueryID(h)
}

// AddResourceDir implements /resman/add_dir.
func (e *Engine) AddResourceDir(path string) {
	e.resources.AddDir(path)
}

// ResourceDirs returns the registered resource lookup directories, for
// /resman/list_dirs introspection.
func (e *Engine) ResourceDirs() []string {
	return e.resources.Dirs()
}

// Render implements /renderer/render: triggers fill_buffer over [t0,
// t1) for dag, returning one row per outSlots entry. Each call is
// assigned a fresh render id (google/uuid), spans an OpenTelemetry
// trace and is notified to every registered observer as a matched
// EventRenderStart/EventRenderEnd pair.
func (e *Engine) Render(ctx context.Context, dag ids.DagHandle, t0, t1 uint64, outSlots []ids.Slot, inputRows map[ids.Slot][]float32) (map[ids.Slot][]float32, error) {
	if t1 <= t0 {
		return nil, ErrRenderWindowZero
	}
	if e.cfg.MaxRenderWindow > 0 && t1-t0 > e.cfg.MaxRenderWindow {
		return nil, ErrRenderWindowBig
	}

	renderID := uuid.NewString()
	renderLogger := e.logger.WithRenderID(renderID).WithDag(dag)
	renderLogger.Debug("render: start")

	e.observers.Notify(ctx, observer.Event{
		Type:      observer.EventRenderStart,
		Status:    observer.StatusStarted,
		Timestamp: time.Now(),
		RenderID:  renderID,
		Dag:       dag,
	})

	start := time.Now()
	var out map[ids.Slot][]float32
	e.jit.FillBuffer(dag, t0, t1, outSlots, inputRows, func(buf map[ids.Slot][]float32, _ uint64) {
		out = buf
	})
	elapsed := time.Since(start)

	samplesProduced := 0
	for _, row := range out {
		samplesProduced += len(row)
	}

	e.observers.Notify(ctx, observer.Event{
		Type:            observer.EventRenderEnd,
		Status:          observer.StatusSuccess,
		Timestamp:       time.Now(),
		RenderID:        renderID,
		Dag:             dag,
		ElapsedTime:     elapsed,
		SamplesProduced: samplesProduced,
	})
	renderLogger.Infof("render: completed in %s, %d samples", elapsed, samplesProduced)

	return out, nil
}

// VerifyEquivalence checks spec.md §8's "Reference ≡ JIT" property
// directly against the engine's live graph: for every slot in outSlots
// and every t in [t0, t1), refeval.Evaluator and jit.Evaluator must
// return bit-identical float32 samples. It returns the first mismatch
// found wrapped in ErrEvaluatorMismatch, or nil if the two evaluators
// agree throughout the window.
func (e *Engine) VerifyEquivalence(dag ids.DagHandle, outSlots []ids.Slot, t0, t1 uint64) error {
	for t := t0; t < t1; t++ {
		for _, slot := range outSlots {
			refSample := e.refeval.Sample(dag, slot, t)
			jitSample := e.jit.Sample(dag, slot, t)
			if math.Float32bits(refSample) != math.Float32bits(jitSample) {
				return fmt.Errorf("%w: dag=%v slot=%d t=%d: refeval=%v jit=%v",
					ErrEvaluatorMismatch, dag, slot, t, refSample, jitSample)
			}
		}
	}
	return nil
}

// Close releases resources held by the engine's JIT evaluator and
// telemetry provider.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.jit.Close(); err != nil {
		return err
	}
	return e.telemetry.Shutdown(ctx)
}
