package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/yesoreyeram/routegraph/pkg/engineconfig"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/observer"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

// observerFunc adapts a function to observer.Observer for tests that only
// care about one event type.
type observerFunc func(ctx context.Context, ev observer.Event)

func (f observerFunc) OnEvent(ctx context.Context, ev observer.Event) { f(ctx, ev) }

func node(local ids.LocalID) ids.NodeHandle {
	return ids.NodeHandle{Dag: ids.Toplevel, Local: local}
}

func ep(local ids.LocalID, slot ids.Slot) ids.Endpoint {
	return ids.Endpoint{Local: local, Slot: slot}
}

func edge(from, to ids.Endpoint) ids.Edge {
	return ids.Edge{Dag: ids.Toplevel, From: from, To: to}
}

// constEdge wires a F32Constant source, whose literal lives in Data
// rather than the slot index (see primitive.Eval's Constant case).
func constEdge(from, to ids.Endpoint, value float32) ids.Edge {
	return ids.Edge{Dag: ids.Toplevel, From: from, To: to, Data: math.Float32bits(value)}
}

func primitiveID(name string, kind primitive.Kind) ids.EffectID {
	return ids.EffectID{Name: name, URLs: []string{kind.URL()}}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewWithConfig(context.Background(), engineconfig.Testing())
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(func() { e.Close(context.Background()) })
	return e
}

func TestNewAppliesDefaultConfig(t *testing.T) {
	e, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close(context.Background())
	if e.cfg.MaxNodesPerGraph != engineconfig.Default().MaxNodesPerGraph {
		t.Errorf("New did not apply engineconfig.Default()")
	}
}

func TestNewWithConfigRejectsInvalidConfig(t *testing.T) {
	bad := engineconfig.Testing()
	bad.MaxRenderWindow = 0
	if _, err := NewWithConfig(context.Background(), bad); err == nil {
		t.Fatal("expected an error for an invalid config")
	}
}

func TestAddNodeResolvesPrimitive(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AddNode(node(1), primitiveID("gain", primitive.Constant)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	id, err := e.QueryID(node(1))
	if err != nil {
		t.Fatalf("QueryID: %v", err)
	}
	if id.Name != "gain" {
		t.Errorf("QueryID().Name = %q, want gain", id.Name)
	}
}

func TestAddNodeEnforcesMaxNodes(t *testing.T) {
	cfg := engineconfig.Testing()
	cfg.MaxNodesPerGraph = 1
	e, err := NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer e.Close(context.Background())

	if err := e.AddNode(node(1), primitiveID("a", primitive.Constant)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := e.AddNode(node(2), primitiveID("b", primitive.Constant)); err != ErrTooManyNodes {
		t.Fatalf("AddNode over limit = %v, want ErrTooManyNodes", err)
	}
}

func TestDelNodeDecrementsCount(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AddNode(node(1), primitiveID("a", primitive.Constant)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := e.DelNode(node(1)); err != nil {
		t.Fatalf("DelNode: %v", err)
	}
	if err := e.AddNode(node(1), primitiveID("a2", primitive.Constant)); err != nil {
		t.Fatalf("AddNode after DelNode: %v", err)
	}
	if e.nodeCount != 1 {
		t.Errorf("nodeCount = %d, want 1", e.nodeCount)
	}
}

func TestAddEdgeEnforcesMaxEdges(t *testing.T) {
	cfg := engineconfig.Testing()
	cfg.MaxEdgesPerGraph = 1
	e, err := NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer e.Close(context.Background())

	if err := e.AddNode(node(1), primitiveID("sum", primitive.Sum2)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := e.AddEdge(edge(ep(0, 0), ep(1, 0))); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := e.AddEdge(edge(ep(0, 1), ep(1, 1))); err != ErrTooManyEdges {
		t.Fatalf("AddEdge over limit = %v, want ErrTooManyEdges", err)
	}
}

func TestDelEdgeDecrementsCount(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AddNode(node(1), primitiveID("sum", primitive.Sum2)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	ed := edge(ep(0, 0), ep(1, 0))
	if err := e.AddEdge(ed); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := e.DelEdge(ed); err != nil {
		t.Fatalf("DelEdge: %v", err)
	}
	if e.edgeCount != 0 {
		t.Errorf("edgeCount = %d, want 0", e.edgeCount)
	}
}

func TestQueryMetaReturnsDeclaredSlots(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AddNode(node(1), primitiveID("sum", primitive.Sum2)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	meta, err := e.QueryMeta(node(1))
	if err != nil {
		t.Fatalf("QueryMeta: %v", err)
	}
	if len(meta.Inputs) != len(primitive.Sum2.InputSlots()) {
		t.Errorf("QueryMeta().Inputs = %v, want %v", meta.Inputs, primitive.Sum2.InputSlots())
	}
}

func TestRenderRejectsEmptyWindow(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Render(context.Background(), ids.Toplevel, 10, 10, nil, nil); err != ErrRenderWindowZero {
		t.Fatalf("Render(empty window) = %v, want ErrRenderWindowZero", err)
	}
}

func TestRenderRejectsOversizedWindow(t *testing.T) {
	e := newTestEngine(t)
	big := engineconfig.Testing().MaxRenderWindow + 1
	if _, err := e.Render(context.Background(), ids.Toplevel, 0, big, nil, nil); err != ErrRenderWindowBig {
		t.Fatalf("Render(oversized window) = %v, want ErrRenderWindowBig", err)
	}
}

func TestRenderProducesSamples(t *testing.T) {
	e := newTestEngine(t)
	if err := e.AddNode(node(1), primitiveID("gain", primitive.Constant)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	out, err := e.Render(context.Background(), ids.Toplevel, 0, 4, []ids.Slot{0}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out[0]) != 4 {
		t.Errorf("Render() produced %d samples for slot 0, want 4", len(out[0]))
	}
}

func TestAddResourceDirDelegatesToResourceManager(t *testing.T) {
	e := newTestEngine(t)
	e.AddResourceDir("/tmp/does-not-need-to-exist")
	if err := e.AddNode(node(1), primitiveID("gain", primitive.Constant)); err != nil {
		t.Fatalf("AddNode after AddResourceDir: %v", err)
	}
}

// TestVerifyEquivalenceAcrossScenarios exercises spec.md §8's "Reference
// ≡ JIT" property directly: every scenario samples both the engine's
// refeval.Evaluator and jit.Evaluator across a window of (t, slot) pairs
// via VerifyEquivalence and requires bit-identical agreement.
func TestVerifyEquivalenceAcrossScenarios(t *testing.T) {
	t.Run("sum of constants", func(t *testing.T) {
		e := newTestEngine(t)
		if err := e.AddNode(node(1), primitiveID("quarter", primitive.Constant)); err != nil {
			t.Fatalf("AddNode(const): %v", err)
		}
		if err := e.AddNode(node(2), primitiveID("sum", primitive.Sum2)); err != nil {
			t.Fatalf("AddNode(sum): %v", err)
		}
		if err := e.AddEdge(constEdge(ep(1, 0), ep(2, 0), 0.25)); err != nil {
			t.Fatalf("AddEdge(a): %v", err)
		}
		if err := e.AddEdge(constEdge(ep(1, 0), ep(2, 1), 0.5)); err != nil {
			t.Fatalf("AddEdge(b): %v", err)
		}
		if err := e.AddEdge(edge(ep(2, 0), ep(0, 0))); err != nil {
			t.Fatalf("AddEdge(boundary): %v", err)
		}
		if err := e.VerifyEquivalence(ids.Toplevel, []ids.Slot{0}, 0, 8); err != nil {
			t.Errorf("VerifyEquivalence: %v", err)
		}
	})

	t.Run("modulo non-negativity", func(t *testing.T) {
		e := newTestEngine(t)
		if err := e.AddNode(node(1), primitiveID("dividend", primitive.Constant)); err != nil {
			t.Fatalf("AddNode(dividend): %v", err)
		}
		if err := e.AddNode(node(2), primitiveID("divisor", primitive.Constant)); err != nil {
			t.Fatalf("AddNode(divisor): %v", err)
		}
		if err := e.AddNode(node(3), primitiveID("mod", primitive.Modulo)); err != nil {
			t.Fatalf("AddNode(mod): %v", err)
		}
		if err := e.AddEdge(constEdge(ep(1, 0), ep(3, 0), -7)); err != nil {
			t.Fatalf("AddEdge(dividend): %v", err)
		}
		if err := e.AddEdge(constEdge(ep(2, 0), ep(3, 1), 3)); err != nil {
			t.Fatalf("AddEdge(divisor): %v", err)
		}
		if err := e.AddEdge(edge(ep(3, 0), ep(0, 0))); err != nil {
			t.Fatalf("AddEdge(boundary): %v", err)
		}
		if err := e.VerifyEquivalence(ids.Toplevel, []ids.Slot{0}, 0, 4); err != nil {
			t.Errorf("VerifyEquivalence: %v", err)
		}
	})

	t.Run("delay by N frames", func(t *testing.T) {
		e := newTestEngine(t)
		if err := e.AddNode(node(1), primitiveID("signal", primitive.Constant)); err != nil {
			t.Fatalf("AddNode(signal): %v", err)
		}
		if err := e.AddNode(node(2), primitiveID("length", primitive.Constant)); err != nil {
			t.Fatalf("AddNode(length): %v", err)
		}
		if err := e.AddNode(node(3), primitiveID("delay", primitive.Delay)); err != nil {
			t.Fatalf("AddNode(delay): %v", err)
		}
		if err := e.AddEdge(constEdge(ep(1, 0), ep(3, 0), 5)); err != nil {
			t.Fatalf("AddEdge(signal): %v", err)
		}
		if err := e.AddEdge(constEdge(ep(2, 0), ep(3, 1), 2)); err != nil {
			t.Fatalf("AddEdge(length): %v", err)
		}
		if err := e.AddEdge(edge(ep(3, 0), ep(0, 0))); err != nil {
			t.Fatalf("AddEdge(boundary): %v", err)
		}
		if err := e.VerifyEquivalence(ids.Toplevel, []ids.Slot{0}, 0, 8); err != nil {
			t.Errorf("VerifyEquivalence: %v", err)
		}
	})
}

// TestRenderTriggersJITCompileNotification confirms the JIT-compile
// observer/telemetry wiring fires on a real Render call's first cache
// miss, not just in pkg/jit's own isolated unit tests.
func TestRenderTriggersJITCompileNotification(t *testing.T) {
	e := newTestEngine(t)
	compiled := make(chan string, 8)
	e.RegisterObserver(observerFunc(func(_ context.Context, ev observer.Event) {
		if ev.Type == observer.EventJITCompile {
			compiled <- ev.EffectName
		}
	}))
	if err := e.AddNode(node(1), primitiveID("gain", primitive.Constant)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	// The node is only evaluated, and so only compiled, once it feeds the
	// rendered output.
	if err := e.AddEdge(constEdge(ep(1, 0), ep(0, 0), 0.5)); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if _, err := e.Render(context.Background(), ids.Toplevel, 0, 4, []ids.Slot{0}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Observer notifications are delivered asynchronously; collect for a
	// while before checking.
	var got []string
	deadline := time.After(200 * time.Millisecond)
	for collecting := true; collecting; {
		select {
		case name := <-compiled:
			got = append(got, name)
		case <-deadline:
			collecting = false
		}
	}
	if len(got) != 1 || got[0] != "gain" {
		t.Errorf("EventJITCompile notifications = %v, want [gain]", got)
	}
}

func TestLoadDescriptorTimesOut(t *testing.T) {
	cfg := engineconfig.Testing()
	cfg.ResourceLoadTimeout = time.Nanosecond
	e, err := NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer e.Close(context.Background())

	// A name with no registered resource directories and no primitive URL
	// cannot resolve; with an effectively-zero timeout AddNode must return
	// an error (a timeout or a failed lookup, whichever comes first)
	// rather than hang.
	err = e.AddNode(node(1), ids.EffectID{Name: "unresolvable"})
	if err == nil {
		t.Fatal("expected an error resolving an unregistered effect id")
	}
}
