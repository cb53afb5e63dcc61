// Package graph implements the live, mutable effect graph of §3.4: nodes
// keyed by local handle within a DAG, single-sourced inbound edges, and
// online cycle prevention under the delay-aware cost rule of §3.5.
//
// A Graph holds every DAG the engine currently knows about, not just the
// outermost one: a node whose descriptor body is Graph(adjlist) is
// materialized by allocating a fresh child DagHandle and replaying the
// adjacency list's nodes and edges into it through the same add_node /
// add_edge machinery used for the outer graph. This keeps nesting uniform
// — the reference and JIT evaluators walk a child DAG exactly the way
// they walk the outermost one — at the cost of flattening the spec's
// "static embedded adjacency list" picture into live per-DAG state. Both
// reproduce the observable evaluator behaviour of §4.2; this is a
// deliberate implementation choice, not a correction.
package graph

import (
	"sync"

	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/ids"
)

// Watcher receives notification of every accepted mutation, per the
// "evaluators are notified of every mutation" rule in §3.4. Removing a
// node generates NodeRemoved but not a matching series of EdgeRemoved
// calls for edges orphaned by the removal; watchers that track edge
// membership on their own must treat NodeRemoved as orphaning every edge
// touching that node.
type Watcher interface {
	NodeAdded(h ids.NodeHandle)
	NodeRemoved(h ids.NodeHandle)
	EdgeAdded(e ids.Edge)
	EdgeRemoved(e ids.Edge)
}

// NodeView is a read-only snapshot of a live node, returned by Node.
// Desc is shared with the graph's internal state and must not be
// mutated by callers.
type NodeView struct {
	Local    ids.LocalID
	Desc     *descriptor.EffectDesc
	ChildDag ids.DagHandle
}

type nodeEntry struct {
	local    ids.LocalID
	desc     *descriptor.EffectDesc
	childDag ids.DagHandle
}

// dagState is the per-DAG live structure of §3.4: a node table plus the
// single-sourced inbound edge table (keyed by destination endpoint, which
// also covers the DAG's own outputs when the destination is NULL).
type dagState struct {
	// schema is the declared I/O schema of the descriptor this DAG is the
	// body of, or nil for the toplevel DAG, which has no enclosing
	// descriptor and therefore no constraint on its external slots.
	schema *descriptor.Meta

	nodes    map[ids.LocalID]*nodeEntry
	inbound  map[ids.Endpoint]ids.Edge
	bySource map[ids.LocalID][]ids.Endpoint
}

func newDagState(schema *descriptor.Meta) *dagState {
	return &dagState{
		schema:   schema,
		nodes:    make(map[ids.LocalID]*nodeEntry),
		inbound:  make(map[ids.Endpoint]ids.Edge),
		bySource: make(map[ids.LocalID][]ids.Endpoint),
	}
}

// Graph is the live effect graph: every DAG the engine has materialized,
// keyed by handle, guarded by a single mutex. Per §5 the engine is
// single-threaded and synchronous; the mutex exists so the graph can be
// shared safely with a concurrently polling telemetry exporter, not to
// support concurrent mutation.
type Graph struct {
	mu       sync.RWMutex
	dags     map[ids.DagHandle]*dagState
	nextDag  ids.DagHandle
	watchers []Watcher
}

// New creates a Graph with an empty, unconstrained toplevel DAG.
func New() *Graph {
	g := &Graph{
		dags:    make(map[ids.DagHandle]*dagState),
		nextDag: ids.Toplevel,
	}
	g.dags[ids.Toplevel] = newDagState(nil)
	return g
}

// Subscribe registers w to receive mutation notifications.
func (g *Graph) Subscribe(w Watcher) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watchers = append(g.watchers, w)
}

func (g *Graph) notifyNodeAdded(h ids.NodeHandle) {
	for _, w := range g.watchers {
		w.NodeAdded(h)
	}
}

func (g *Graph) notifyNodeRemoved(h ids.NodeHandle) {
	for _, w := range g.watchers {
		w.NodeRemoved(h)
	}
}

func (g *Graph) notifyEdgeAdded(e ids.Edge) {
	for _, w := range g.watchers {
		w.EdgeAdded(e)
	}
}

func (g *Graph) notifyEdgeRemoved(e ids.Edge) {
	for _, w := range g.watchers {
		w.EdgeRemoved(e)
	}
}

func (g *Graph) allocDag(schema *descriptor.Meta) ids.DagHandle {
	g.nextDag++
	h := g.nextDag
	g.dags[h] = newDagState(schema)
	return h
}

// AddNode adds a node at h with the given descriptor, per add_node of
// §3.4 / §6.1. If desc's body is Graph, its adjacency list is recursively
// materialized into a freshly allocated child DAG; h.Dag must already
// exist (the toplevel DAG always does; a nested DAG exists once its
// owning node has been added).
func (g *Graph) AddNode(h ids.NodeHandle, desc *descriptor.EffectDesc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNodeLocked(h, desc)
}

func (g *Graph) addNodeLocked(h ids.NodeHandle, desc *descriptor.EffectDesc) error {
	if h.Local == 0 {
		return ErrReservedHandle
	}
	ds, ok := g.dags[h.Dag]
	if !ok {
		return ErrUnknownDag
	}
	if _, exists := ds.nodes[h.Local]; exists {
		return ErrDuplicateHandle
	}
	entry := &nodeEntry{local: h.Local, desc: desc}
	if desc.Kind == descriptor.BodyGraph {
		if desc.Graph == nil {
			return ErrUnresolvedGraph
		}
		child := g.allocDag(&desc.Meta)
		if err := g.materializeLocked(child, desc.Graph); err != nil {
			delete(g.dags, child)
			return err
		}
		entry.childDag = child
	}
	ds.nodes[h.Local] = entry
	g.notifyNodeAdded(h)
	return nil
}

// materializeLocked replays a resolved adjacency list's nodes and edges
// into the freshly allocated dag handle.
func (g *Graph) materializeLocked(dag ids.DagHandle, adj *descriptor.AdjList) error {
	for _, n := range adj.Nodes {
		if n.Resolved == nil {
			return ErrUnresolvedGraph
		}
		if err := g.addNodeLocked(ids.NodeHandle{Dag: dag, Local: n.Local}, n.Resolved); err != nil {
			return err
		}
	}
	for _, e := range adj.Edges {
		edge := ids.Edge{Dag: dag, From: e.From.ToEndpoint(), To: e.To.ToEndpoint(), Data: e.Data}
		if err := g.addEdgeLocked(edge); err != nil {
			return err
		}
	}
	return nil
}

// DelNode removes the node at h, per del_node of §3.4: every edge
// incident to it (inbound or outbound) is silently dropped with it.
func (g *Graph) DelNode(h ids.NodeHandle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ds, ok := g.dags[h.Dag]
	if !ok {
		return ErrUnknownDag
	}
	if _, exists := ds.nodes[h.Local]; !exists {
		return ErrUnknownNode
	}
	for to, e := range ds.inbound {
		if to.Local == h.Local || e.From.Local == h.Local {
			delete(ds.inbound, to)
		}
	}
	delete(ds.bySource, h.Local)
	for from, tos := range ds.bySource {
		kept := tos[:0]
		for _, to := range tos {
			if to.Local != h.Local {
				kept = append(kept, to)
			}
		}
		ds.bySource[from] = kept
	}
	delete(ds.nodes, h.Local)
	g.notifyNodeRemoved(h)
	return nil
}

// AddEdge adds e, per add_edge of §3.4 / §3.2: endpoints must be valid
// for their node's schema, distinct (except the boundary pass-through
// NULL -> NULL, whose source and destination are the DAG's input and
// output respectively), the destination must not already
// have a source (inputs are single-sourced), and the edge must not close
// a zero-cost cycle (§3.5).
func (g *Graph) AddEdge(e ids.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addEdgeLocked(e)
}

func (g *Graph) addEdgeLocked(e ids.Edge) error {
	ds, ok := g.dags[e.Dag]
	if !ok {
		return ErrUnknownDag
	}
	if e.From == e.To && !e.From.IsNull() {
		return ErrInvalidEdge
	}
	if err := g.checkSourceLocked(ds, e.From); err != nil {
		return err
	}
	if err := g.checkDestLocked(ds, e.To); err != nil {
		return err
	}
	if _, exists := ds.inbound[e.To]; exists {
		return ErrDuplicateInput
	}
	if wouldCreateCycle(ds, e.From.Local, e.To.Local) {
		return ErrWouldCreateCycle
	}
	ds.inbound[e.To] = e
	ds.bySource[e.From.Local] = append(ds.bySource[e.From.Local], e.To)
	g.notifyEdgeAdded(e)
	return nil
}

func (g *Graph) checkSourceLocked(ds *dagState, from ids.Endpoint) error {
	if from.Local == 0 {
		if ds.schema != nil && !ds.schema.HasInput(from.Slot) {
			return ErrSlotRange
		}
		return nil
	}
	entry, ok := ds.nodes[from.Local]
	if !ok {
		return ErrUnknownNode
	}
	if !entry.desc.HasOutputSlot(from.Slot) {
		return ErrSlotRange
	}
	return nil
}

func (g *Graph) checkDestLocked(ds *dagState, to ids.Endpoint) error {
	if to.Local == 0 {
		if ds.schema != nil && !ds.schema.HasOutput(to.Slot) {
			return ErrSlotRange
		}
		return nil
	}
	entry, ok := ds.nodes[to.Local]
	if !ok {
		return ErrUnknownNode
	}
	if !entry.desc.HasInputSlot(to.Slot) {
		return ErrSlotRange
	}
	return nil
}

// wouldCreateCycle reports whether adding an edge from -> to would close
// a cycle, under the conservative zero-cost rule of §3.5: every edge,
// including Delay's, is treated as zero-cost for this check. It holds
// iff "to" can already reach "from" via existing edges within the DAG.
// NULL (local 0) is the DAG's external input when it is a source and its
// output when it is a destination, so an edge touching NULL never closes
// a cycle and the search does not continue through NULL.
func wouldCreateCycle(ds *dagState, from, to ids.LocalID) bool {
	if from == 0 || to == 0 {
		return false
	}
	if from == to {
		return true
	}
	visited := map[ids.LocalID]bool{to: true}
	queue := []ids.LocalID{to}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == from {
			return true
		}
		for _, next := range ds.bySource[cur] {
			if next.Local != 0 && !visited[next.Local] {
				visited[next.Local] = true
				queue = append(queue, next.Local)
			}
		}
	}
	return false
}

// DelEdge removes e, per del_edge of §3.4. e's dag, from and to must
// match an existing edge's endpoints; the Data payload is not compared,
// so a caller passing a stale Data payload still removes the edge.
func (g *Graph) DelEdge(e ids.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ds, ok := g.dags[e.Dag]
	if !ok {
		return ErrUnknownDag
	}
	existing, ok := ds.inbound[e.To]
	if !ok || !existing.SameEndpoints(e) {
		return ErrUnknownEdge
	}
	delete(ds.inbound, e.To)
	tos := ds.bySource[e.From.Local]
	for i, to := range tos {
		if to == e.To {
			ds.bySource[e.From.Local] = append(tos[:i], tos[i+1:]...)
			break
		}
	}
	g.notifyEdgeRemoved(existing)
	return nil
}

// Node returns a read-only view of the node at h.
func (g *Graph) Node(h ids.NodeHandle) (NodeView, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ds, ok := g.dags[h.Dag]
	if !ok {
		return NodeView{}, false
	}
	entry, ok := ds.nodes[h.Local]
	if !ok {
		return NodeView{}, false
	}
	return NodeView{Local: entry.local, Desc: entry.desc, ChildDag: entry.childDag}, true
}

// Inbound returns the single edge terminating at (dag, to), if any. This
// covers both a real node's input slot and, when to.Local is NULL, the
// DAG's own output slot.
func (g *Graph) Inbound(dag ids.DagHandle, to ids.Endpoint) (ids.Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ds, ok := g.dags[dag]
	if !ok {
		return ids.Edge{}, false
	}
	e, ok := ds.inbound[to]
	return e, ok
}

// Schema returns the declared I/O schema that constrains dag's external
// boundary, or nil for the toplevel DAG (unconstrained).
func (g *Graph) Schema(dag ids.DagHandle) (*descriptor.Meta, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ds, ok := g.dags[dag]
	if !ok {
		return nil, false
	}
	return ds.schema, true
}

// QueryMeta implements /routegraph/query_meta: the declared I/O schema of
// the node at h.
func (g *Graph) QueryMeta(h ids.NodeHandle) (descriptor.Meta, error) {
	view, ok := g.Node(h)
	if !ok {
		return descriptor.Meta{}, ErrUnknownNode
	}
	return view.Desc.Meta, nil
}

// QueryID implements /routegraph/query_id: the effect identity of the
// node at h.
func (g *Graph) QueryID(h ids.NodeHandle) (ids.EffectID, error) {
	view, ok := g.Node(h)
	if !ok {
		return ids.EffectID{}, ErrUnknownNode
	}
	return view.Desc.Meta.ID, nil
}
