package observer

import (
	"context"

	"github.com/yesoreyeram/routegraph/pkg/graph"
	"github.com/yesoreyeram/routegraph/pkg/ids"
)

// GraphWatcher adapts a Manager to pkg/graph's Watcher interface, turning
// each accepted mutation into an Event delivered to every registered
// Observer.
type GraphWatcher struct {
	mgr *Manager
	ctx context.Context
}

// NewGraphWatcher returns a Watcher that forwards graph mutations to mgr
// as Events. ctx is the context passed to every Notify call; callers
// without a per-mutation context should pass context.Background().
func NewGraphWatcher(mgr *Manager, ctx context.Context) *GraphWatcher {
	if ctx == nil {
		ctx = context.Background()
	}
	return &GraphWatcher{mgr: mgr, ctx: ctx}
}

var _ graph.Watcher = (*GraphWatcher)(nil)

func (w *GraphWatcher) NodeAdded(h ids.NodeHandle) {
	w.mgr.Notify(w.ctx, Event{Type: EventNodeAdded, Dag: h.Dag, Node: h})
}

func (w *GraphWatcher) NodeRemoved(h ids.NodeHandle) {
	w.mgr.Notify(w.ctx, Event{Type: EventNodeRemoved, Dag: h.Dag, Node: h})
}

func (w *GraphWatcher) EdgeAdded(e ids.Edge) {
	w.mgr.Notify(w.ctx, Event{Type: EventEdgeAdded, Dag: e.Dag, Edge: e})
}

func (w *GraphWatcher) EdgeRemoved(e ids.Edge) {
	w.mgr.Notify(w.ctx, Event{Type: EventEdgeRemoved, Dag: e.Dag, Edge: e})
}
