package graph

import (
	"testing"

	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

func primDesc(name string, kind primitive.Kind) *descriptor.EffectDesc {
	return &descriptor.EffectDesc{
		Meta: descriptor.Meta{
			ID:      ids.EffectID{Name: name, URLs: []string{kind.URL()}},
			Inputs:  kind.InputSlots(),
			Outputs: kind.OutputSlots(),
		},
		Kind:      descriptor.BodyPrimitive,
		Primitive: kind,
	}
}

func node(local ids.LocalID) ids.NodeHandle {
	return ids.NodeHandle{Dag: ids.Toplevel, Local: local}
}

func ep(local ids.LocalID, slot ids.Slot) ids.Endpoint {
	return ids.Endpoint{Local: local, Slot: slot}
}

func edge(from, to ids.Endpoint) ids.Edge {
	return ids.Edge{Dag: ids.Toplevel, From: from, To: to}
}

func TestAddNodeRejectsNullAndDuplicateHandle(t *testing.T) {
	g := New()
	if err := g.AddNode(node(0), primDesc("x", primitive.Constant)); err != ErrReservedHandle {
		t.Fatalf("AddNode(local=0) = %v, want ErrReservedHandle", err)
	}
	if err := g.AddNode(node(1), primDesc("a", primitive.Constant)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(node(1), primDesc("b", primitive.Constant)); err != ErrDuplicateHandle {
		t.Fatalf("AddNode(dup) = %v, want ErrDuplicateHandle", err)
	}
}

func TestAddEdgeSingleSourcedInputs(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("sum", primitive.Sum2))
	if err := g.AddEdge(edge(ep(0, 0), ep(1, 0))); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge(edge(ep(0, 1), ep(1, 0))); err != ErrDuplicateInput {
		t.Fatalf("second edge to same input = %v, want ErrDuplicateInput", err)
	}
}

func TestAddEdgeRejectsSlotOutOfRange(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("s", primitive.Sum2))
	if err := g.AddEdge(edge(ep(0, 0), ep(1, 2))); err != ErrSlotRange {
		t.Fatalf("edge into Sum2's nonexistent input slot 2 = %v, want ErrSlotRange", err)
	}
}

func TestAddEdgeAllowsConstantOnAnyOutputSlot(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("c", primitive.Constant))
	if err := g.AddEdge(edge(ep(1, 99), ep(0, 0))); err != nil {
		t.Fatalf("Constant has unbounded logical output slots: %v", err)
	}
}

func TestAddEdgeRejectsDirectCycle(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("a", primitive.Sum2))
	g.AddNode(node(2), primDesc("b", primitive.Sum2))
	if err := g.AddEdge(edge(ep(1, 0), ep(2, 0))); err != nil {
		t.Fatalf("AddEdge 1->2: %v", err)
	}
	if err := g.AddEdge(edge(ep(2, 0), ep(1, 0))); err != ErrWouldCreateCycle {
		t.Fatalf("AddEdge 2->1 = %v, want ErrWouldCreateCycle", err)
	}
}

func TestAddEdgeRejectsSelfLoopSameEndpoint(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("d", primitive.Delay))
	e := ep(1, 0)
	if err := g.AddEdge(ids.Edge{Dag: ids.Toplevel, From: e, To: e}); err != ErrInvalidEdge {
		t.Fatalf("self edge = %v, want ErrInvalidEdge", err)
	}
}

func TestDelNodeOrphansIncidentEdges(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("a", primitive.Sum2))
	g.AddNode(node(2), primDesc("b", primitive.Sum2))
	g.AddEdge(edge(ep(1, 0), ep(2, 0)))
	g.AddEdge(edge(ep(0, 0), ep(1, 0)))

	if err := g.DelNode(node(1)); err != nil {
		t.Fatalf("DelNode: %v", err)
	}
	if _, ok := g.Inbound(ids.Toplevel, ep(2, 0)); ok {
		t.Error("edge into deleted node's downstream consumer should be orphaned")
	}
	if _, ok := g.Inbound(ids.Toplevel, ep(1, 0)); ok {
		t.Error("edge into the deleted node itself should be orphaned")
	}

	// the slot is now free again: re-wiring it directly must succeed.
	g.AddNode(node(1), primDesc("a2", primitive.Sum2))
	if err := g.AddEdge(edge(ep(0, 0), ep(1, 0))); err != nil {
		t.Fatalf("re-add edge after DelNode: %v", err)
	}
}

func TestDelEdgeThenReAdd(t *testing.T) {
	g := New()
	g.AddNode(node(1), primDesc("a", primitive.Sum2))
	e := edge(ep(0, 0), ep(1, 0))
	g.AddEdge(e)
	if err := g.DelEdge(e); err != nil {
		t.Fatalf("DelEdge: %v", err)
	}
	if _, ok := g.Inbound(ids.Toplevel, ep(1, 0)); ok {
		t.Error("edge should be gone after DelEdge")
	}
	if err := g.AddEdge(e); err != nil {
		t.Fatalf("re-AddEdge after DelEdge: %v", err)
	}
}

func TestAddNodeMaterializesNestedGraph(t *testing.T) {
	g := New()
	inner := &descriptor.AdjList{
		Edges: []descriptor.AdjEdge{
			{From: descriptor.AdjEndpoint{Local: 0, Slot: 0}, To: descriptor.AdjEndpoint{Local: 0, Slot: 0}},
		},
	}
	passthrough := &descriptor.EffectDesc{
		Meta: descriptor.Meta{ID: ids.EffectID{Name: "passthrough"}, Inputs: []ids.Slot{0}, Outputs: []ids.Slot{0}},
		Kind: descriptor.BodyGraph,
		Graph: inner,
	}
	if err := g.AddNode(node(1), passthrough); err != nil {
		t.Fatalf("AddNode(graph body): %v", err)
	}
	view, ok := g.Node(node(1))
	if !ok {
		t.Fatal("node not found after AddNode")
	}
	if view.ChildDag == 0 {
		t.Fatal("expected a materialized child dag handle")
	}
	if _, ok := g.Inbound(view.ChildDag, ep(0, 0)); !ok {
		t.Error("nested adjacency list's edge should be live in the child dag")
	}
}

func TestAddNodeRejectsUnresolvedNestedGraph(t *testing.T) {
	g := New()
	desc := &descriptor.EffectDesc{
		Meta:  descriptor.Meta{ID: ids.EffectID{Name: "broken"}},
		Kind:  descriptor.BodyGraph,
		Graph: &descriptor.AdjList{Nodes: []descriptor.AdjNode{{Local: 1, ID: ids.EffectID{Name: "missing"}}}},
	}
	if err := g.AddNode(node(1), desc); err != ErrUnresolvedGraph {
		t.Fatalf("AddNode(unresolved) = %v, want ErrUnresolvedGraph", err)
	}
}

type recordingWatcher struct {
	nodeAdds, nodeDels, edgeAdds, edgeDels int
}

func (r *recordingWatcher) NodeAdded(ids.NodeHandle)   { r.nodeAdds++ }
func (r *recordingWatcher) NodeRemoved(ids.NodeHandle) { r.nodeDels++ }
func (r *recordingWatcher) EdgeAdded(ids.Edge)         { r.edgeAdds++ }
func (r *recordingWatcher) EdgeRemoved(ids.Edge)       { r.edgeDels++ }

func TestWatcherNotifiedOfMutations(t *testing.T) {
	g := New()
	w := &recordingWatcher{}
	g.Subscribe(w)

	g.AddNode(node(1), primDesc("a", primitive.Sum2))
	e := edge(ep(0, 0), ep(1, 0))
	g.AddEdge(e)
	g.DelEdge(e)
	g.DelNode(node(1))

	if w.nodeAdds != 1 || w.edgeAdds != 1 || w.edgeDels != 1 || w.nodeDels != 1 {
		t.Errorf("watcher counts = %+v, want 1 of each", w)
	}
}
