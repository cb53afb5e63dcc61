// Package jit implements the JIT evaluator of §4.3: a compiled-function
// cache keyed by effect identity sitting in front of the same primitive
// semantics pkg/primitive defines, plus the fill_buffer render loop of
// §4.3.5. Its per-sample output must always equal pkg/refeval's; the two
// packages are deliberately independent so neither can silently delegate
// to the other and mask a divergence.
//
// "Compiled function" here is a cached Go closure rather than emitted
// machine code — this module is modeled on no in-tree codegen library,
// there being none in the corpus this engine is built from, so the ABI
// contract of §4.3.1 (a uniform (time, slot, data, input-callback)
// signature, looked up by effect name+hash, sealed into a module on
// demand) is satisfied structurally instead of by native codegen.
package jit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yesoreyeram/routegraph/pkg/audiobuf"
	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/graph"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/observer"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

// ExternalInput resolves a top-level external input slot independent of
// the graph. FillBuffer's own input rows take priority over this; it is
// consulted only past the end of whatever rows the caller has supplied,
// matching pkg/refeval's contract for unconnected inputs.
type ExternalInput interface {
	Sample(slot ids.Slot, t uint64) float32
}

// ExternalInputFunc adapts a function to ExternalInput.
type ExternalInputFunc func(slot ids.Slot, t uint64) float32

func (f ExternalInputFunc) Sample(slot ids.Slot, t uint64) float32 { return f(slot, t) }

// BufferSource resolves a Buffer-bodied effect's descriptor to a readable
// sample source.
type BufferSource interface {
	Open(path string) (*audiobuf.Buffer, error)
}

type osBufferSource struct{}

func (osBufferSource) Open(path string) (*audiobuf.Buffer, error) { return audiobuf.Open(path) }

// DefaultBufferSource opens audio buffer files straight off disk.
var DefaultBufferSource BufferSource = osBufferSource{}

// CompiledFunc is the cached body of one primitive effect identity: the
// compiled-function ABI of §4.3.1, generalized with an explicit data
// parameter so a single cached function can serve every edge sourced
// from that identity regardless of the literal payload a particular edge
// carries (data is meaningful only to F32Constant; every other primitive
// ignores it, same as primitive.Eval).
type CompiledFunc func(t uint64, slot ids.Slot, data uint32, in primitive.Reader) float32

// module is one generation of the function cache: a set of compiled
// functions that, once sealed, is never mutated again. Multiple sealed
// modules can coexist; lookup scans all of them plus whatever is still
// pending, newest first.
type module struct {
	fns map[string]CompiledFunc
}

func newModule() *module {
	return &module{fns: make(map[string]CompiledFunc)}
}

func compilePrimitive(kind primitive.Kind) CompiledFunc {
	return func(t uint64, slot ids.Slot, data uint32, in primitive.Reader) float32 {
		return primitive.Eval(kind, slot, t, data, in)
	}
}

// delayBucket pairs an observed Delay length (in frames) with how many
// times a Delay primitive has been evaluated at a length within
// delayBucketEpsilon of it. Kept as a sorted slice rather than a
// map[float32]int: float32 equality is not a reliable map key for values
// arriving from unrelated edges that happen to converge numerically, and
// a small sorted slice with an epsilon-compare is cheap at the scale of
// distinct delay lengths a real graph actually uses.
type delayBucket struct {
	frames float32
	count  int
}

const delayBucketEpsilon = 1e-3

// Evaluator is the JIT evaluator. Its external shape mirrors
// pkg/refeval.Evaluator (same graph, external-input and buffer-source
// dependencies); the difference is internal, routing primitive dispatch
// through the compiled-function cache and carrying the fill_buffer input
// history.
type Evaluator struct {
	g      *graph.Graph
	ext    ExternalInput
	bufSrc BufferSource
	open   map[string]*audiobuf.Buffer

	mu           sync.Mutex
	pending      *module
	sealed       []*module
	delayBuckets []delayBucket

	haveHead bool
	head     uint64
	history  map[ids.Slot][]float32

	observers *observer.Manager
	notifyCtx context.Context
}

// New creates a JIT evaluator over g.
func New(g *graph.Graph, ext ExternalInput, bufSrc BufferSource) *Evaluator {
	return &Evaluator{
		g:       g,
		ext:     ext,
		bufSrc:  bufSrc,
		open:    make(map[string]*audiobuf.Buffer),
		pending: newModule(),
		history: make(map[ids.Slot][]float32),
	}
}

// SetObserver wires mgr to receive an EventJITCompile notification for
// every genuine cache miss compiledFunc handles from here on; ctx is the
// context passed to each such Notify call (nil defaults to
// context.Background(), mirroring observer.NewGraphWatcher). Returns e
// for chaining alongside engine.Engine's other RegisterObserver-style
// setup calls.
func (e *Evaluator) SetObserver(mgr *observer.Manager, ctx context.Context) *Evaluator {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	e.observers = mgr
	e.notifyCtx = ctx
	e.mu.Unlock()
	return e
}

// PrepExecution seals the pending module, per §4.3.2: every function
// compiled since the last seal becomes part of a new immutable module
// alongside whatever was already sealed. A lookup also consults the
// still-open pending module directly, so a function compiled because a
// node was just added is usable within the very render pass that
// discovered it; sealing exists to give the cache stable, inspectable
// generations for CacheStats rather than to gate when a function becomes
// callable.
func (e *Evaluator) PrepExecution() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending.fns) == 0 {
		return
	}
	e.sealed = append(e.sealed, e.pending)
	e.pending = newModule()
}

func (e *Evaluator) compiledFunc(id ids.EffectID, kind primitive.Kind) CompiledFunc {
	key := id.Key()
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn, ok := e.pending.fns[key]; ok {
		return fn
	}
	for i := len(e.sealed) - 1; i >= 0; i-- {
		if fn, ok := e.sealed[i].fns[key]; ok {
			return fn
		}
	}
	fn := compilePrimitive(kind)
	e.pending.fns[key] = fn
	if e.observers != nil {
		e.observers.Notify(e.notifyCtx, observer.Event{
			Type:       observer.EventJITCompile,
			Timestamp:  time.Now(),
			EffectName: id.Name,
		})
	}
	return fn
}

// CacheStats reports how many modules have been sealed and how many
// distinct effect identities are currently cached across the sealed
// modules plus the pending one.
func (e *Evaluator) CacheStats() (sealedModules int, cachedFns int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := len(e.pending.fns)
	for _, m := range e.sealed {
		total += len(m.fns)
	}
	return len(e.sealed), total
}

func (e *Evaluator) recordDelayLength(frames float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.delayBuckets {
		d := e.delayBuckets[i].frames - frames
		if d < 0 {
			d = -d
		}
		if d <= delayBucketEpsilon {
			e.delayBuckets[i].count++
			return
		}
	}
	e.delayBuckets = append(e.delayBuckets, delayBucket{frames: frames, count: 1})
	sort.Slice(e.delayBuckets, func(i, j int) bool { return e.delayBuckets[i].frames < e.delayBuckets[j].frames })
}

// DelayBucket is one row of the Delay-length histogram returned by
// DelayLengthHistogram.
type DelayBucket struct {
	Frames float32
	Count  int
}

// DelayLengthHistogram returns a snapshot of observed Delay lengths and
// how many times each has been evaluated, sorted ascending by length.
// Nothing in this package forwards it to pkg/telemetry.
func (e *Evaluator) DelayLengthHistogram() []DelayBucket {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]DelayBucket, len(e.delayBuckets))
	for i, b := range e.delayBuckets {
		out[i] = DelayBucket{Frames: b.frames, Count: b.count}
	}
	return out
}

// frame is one level of the context stack of §4.2, reused here unchanged:
// the DAG a nested Graph-bodied node was entered from, and that node's
// local id within it.
type frame struct {
	parentDag ids.DagHandle
	enclosing ids.LocalID
}

// Sample computes the output of dag's outSlot at time t.
func (e *Evaluator) Sample(dag ids.DagHandle, outSlot ids.Slot, t uint64) float32 {
	edge, ok := e.g.Inbound(dag, ids.Endpoint{Local: 0, Slot: outSlot})
	if !ok {
		return 0
	}
	return e.edgeValue(nil, dag, edge, t)
}

func (e *Evaluator) edgeValue(ctx []frame, dag ids.DagHandle, edge ids.Edge, t uint64) float32 {
	if edge.From.IsNull() {
		return e.externalInput(ctx, edge.From.Slot, t)
	}

	node, ok := e.g.Node(ids.NodeHandle{Dag: dag, Local: edge.From.Local})
	if !ok {
		return 0
	}

	switch node.Desc.Kind {
	case descriptor.BodyGraph:
		return e.evalGraphSource(ctx, dag, node, edge.From.Slot, t)
	case descriptor.BodyBuffer:
		return e.evalBufferSource(node.Desc.BufferPath, edge.From.Slot, t)
	case descriptor.BodyPrimitive:
		return e.evalPrimitiveSource(ctx, dag, node, edge, t)
	default:
		return 0
	}
}

// externalInput handles edge.From == NULL. At the toplevel it reads the
// fill_buffer-supplied input history (falling back to ext past its
// recorded range); inside a nested Graph body it pops one context frame
// and resolves the enclosing DAG's edge feeding this node's input, and
// if that input is unconnected it reads the top-level input for the same
// slot, as pkg/refeval does.
func (e *Evaluator) externalInput(ctx []frame, slot ids.Slot, t uint64) float32 {
	if len(ctx) == 0 {
		hist := e.history[slot]
		if t < uint64(len(hist)) {
			return hist[t]
		}
		return e.ext.Sample(slot, t)
	}
	top := ctx[len(ctx)-1]
	popped := ctx[:len(ctx)-1]
	inboundEdge, ok := e.g.Inbound(top.parentDag, ids.Endpoint{Local: top.enclosing, Slot: slot})
	if !ok {
		return e.externalInput(nil, slot, t)
	}
	return e.edgeValue(popped, top.parentDag, inboundEdge, t)
}

func (e *Evaluator) evalGraphSource(ctx []frame, dag ids.DagHandle, node graph.NodeView, slot ids.Slot, t uint64) float32 {
	childCtx := append(append([]frame(nil), ctx...), frame{parentDag: dag, enclosing: node.Local})
	outEdge, ok := e.g.Inbound(node.ChildDag, ids.Endpoint{Local: 0, Slot: slot})
	if !ok {
		return 0
	}
	return e.edgeValue(childCtx, node.ChildDag, outEdge, t)
}

func (e *Evaluator) evalBufferSource(path string, slot ids.Slot, t uint64) float32 {
	buf, ok := e.open[path]
	if !ok {
		opened, err := e.bufSrc.Open(path)
		if err != nil {
			return 0
		}
		e.open[path] = opened
		buf = opened
	}
	return buf.Sample(t, uint32(slot))
}

func (e *Evaluator) evalPrimitiveSource(ctx []frame, dag ids.DagHandle, node graph.NodeView, edge ids.Edge, t uint64) float32 {
	reader := primitive.Reader(func(slot ids.Slot, tt uint64) float32 {
		innerEdge, ok := e.g.Inbound(dag, ids.Endpoint{Local: node.Local, Slot: slot})
		if !ok {
			return 0
		}
		return e.edgeValue(ctx, dag, innerEdge, tt)
	})
	fn := e.compiledFunc(node.Desc.Meta.ID, node.Desc.Primitive)
	result := fn(t, edge.From.Slot, edge.Data, reader)
	if node.Desc.Primitive == primitive.Delay {
		e.recordDelayLength(reader(1, t))
	}
	return result
}

// FillBuffer renders [t0, t1) of dag's outSlots, per §4.3.5:
//
//  1. A seek (t0 not immediately following the previous call's t1)
//     discards the cached external input history.
//  2. Each supplied input row is extended to cover the whole window,
//     padding past its own length with its last supplied value (0 if the
//     row is empty).
//  3. Any pending compiled functions are sealed before rendering. A
//     node's function is still compiled only on its first evaluation, so
//     nodes not yet evaluated have no cache entry.
//  4. Output is produced in row-major (slot outer, time inner) order:
//     a whole slot's samples across the window before moving to the
//     next slot.
//  5. head advances to t1.
//
// deliver receives the filled buffer (one row per requested slot) and
// the window's start time, mirroring the audio_rendered client callback
// of §6.2.
func (e *Evaluator) FillBuffer(dag ids.DagHandle, t0, t1 uint64, outSlots []ids.Slot, inputRows map[ids.Slot][]float32, deliver func(buf map[ids.Slot][]float32, start uint64)) {
	if t1 <= t0 {
		return
	}
	if !e.haveHead || t0 != e.head {
		e.history = make(map[ids.Slot][]float32)
	}
	e.haveHead = true

	window := t1 - t0
	for slot, row := range inputRows {
		hist := e.history[slot]
		for uint64(len(hist)) < t0 {
			hist = append(hist, 0)
		}
		var last float32
		if len(row) > 0 {
			last = row[len(row)-1]
		}
		for i := uint64(0); i < window; i++ {
			v := last
			if i < uint64(len(row)) {
				v = row[i]
			}
			hist = append(hist, v)
		}
		e.history[slot] = hist
	}

	e.PrepExecution()

	out := make(map[ids.Slot][]float32, len(outSlots))
	for _, slot := range outSlots {
		row := make([]float32, window)
		for i := uint64(0); i < window; i++ {
			row[i] = e.Sample(dag, slot, t0+i)
		}
		out[slot] = row
	}
	e.head = t1
	if deliver != nil {
		deliver(out, t0)
	}
}

// Close releases every buffer file opened by this evaluator.
func (e *Evaluator) Close() error {
	var firstErr error
	for _, b := range e.open {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
