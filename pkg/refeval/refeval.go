// Package refeval implements the reference evaluator of §4.2: a pure,
// memoization-free recursive interpreter of the live effect graph. It is
// the semantic oracle every other evaluator (pkg/jit) is checked against.
package refeval

import (
	"github.com/yesoreyeram/routegraph/pkg/audiobuf"
	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/graph"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

// ExternalInput resolves the value of a top-level external input slot at
// a time, independent of the graph. pkg/engine supplies one that always
// returns 0; the input rows given to pkg/jit's FillBuffer do not reach
// it. Tests can supply a bare function.
type ExternalInput interface {
	Sample(slot ids.Slot, t uint64) float32
}

// ExternalInputFunc adapts a function to ExternalInput.
type ExternalInputFunc func(slot ids.Slot, t uint64) float32

func (f ExternalInputFunc) Sample(slot ids.Slot, t uint64) float32 { return f(slot, t) }

// BufferSource resolves a Buffer-bodied effect's descriptor to a readable
// sample source, keeping pkg/refeval decoupled from how buffer files are
// located and opened (pkg/load owns that).
type BufferSource interface {
	Open(path string) (*audiobuf.Buffer, error)
}

// Evaluator is the reference evaluator. It holds no state of its own
// beyond its dependencies: every Sample call re-derives its result from
// the live graph, so graph mutations are visible to the very next call
// with no separate notification path.
type Evaluator struct {
	g      *graph.Graph
	ext    ExternalInput
	bufSrc BufferSource

	// open caches already-opened buffer files by path for the lifetime of
	// the evaluator; this is a resource-lifetime cache, not a value
	// memoization cache, so it does not compromise memoization-freedom.
	open map[string]*audiobuf.Buffer
}

// osBufferSource opens buffer files directly from the local filesystem.
type osBufferSource struct{}

func (osBufferSource) Open(path string) (*audiobuf.Buffer, error) { return audiobuf.Open(path) }

// DefaultBufferSource opens audio buffer files straight off disk.
var DefaultBufferSource BufferSource = osBufferSource{}

// New creates a reference evaluator over g, reading unconnected top-level
// inputs from ext and opening Buffer-bodied effects via bufSrc.
func New(g *graph.Graph, ext ExternalInput, bufSrc BufferSource) *Evaluator {
	return &Evaluator{g: g, ext: ext, bufSrc: bufSrc, open: make(map[string]*audiobuf.Buffer)}
}

// frame is one level of the context stack of §4.2: the DAG a nested
// Graph-bodied node was entered from, and that node's local id within it.
type frame struct {
	parentDag ids.DagHandle
	enclosing ids.LocalID
}

// Sample computes the output of dag's out_slot at time t, per §4.2's
// sample(t, out_slot): find the single edge terminating at (NULL,
// out_slot), or return 0 if none exists.
func (e *Evaluator) Sample(dag ids.DagHandle, outSlot ids.Slot, t uint64) float32 {
	edge, ok := e.g.Inbound(dag, ids.Endpoint{Local: 0, Slot: outSlot})
	if !ok {
		return 0
	}
	return e.edgeValue(nil, dag, edge, t)
}

// edgeValue implements §4.2's edge_value(t, edge) under the given context
// stack (innermost frame last).
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

// externalInput handles an edge.From == NULL: a read of the innermost
// enclosing DAG's external input, per §4.2.
func (e *Evaluator) externalInput(ctx []frame, slot ids.Slot, t uint64) float32 {
	if len(ctx) == 0 {
		return e.ext.Sample(slot, t)
	}
	top := ctx[len(ctx)-1]
	popped := ctx[:len(ctx)-1]
	inboundEdge, ok := e.g.Inbound(top.parentDag, ids.Endpoint{Local: top.enclosing, Slot: slot})
	if !ok {
		return e.ext.Sample(slot, t)
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
	return primitive.Eval(node.Desc.Primitive, edge.From.Slot, t, edge.Data, reader)
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
