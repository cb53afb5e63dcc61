package dispatch

import (
	"context"

	"github.com/yesoreyeram/routegraph/pkg/engineconfig"
	"github.com/yesoreyeram/routegraph/pkg/ids"

	"github.com/yesoreyeram/routegraph/pkg/engine"
)

// Facade implements the §6.1 command surface in front of a single
// engine.Engine, routing query_meta/query_id/render replies to a Client.
//
// Grounded on the original Dispatch<R, C>: one struct owning the
// routegraph/renderer/resman state and a client to notify, with a
// dispatch method per OSC address. Facade has no single dispatch(msg)
// entry point — each OSC address is instead its own exported method,
// since Go callers invoke methods directly rather than routing opaque
// messages.
type Facade struct {
	engine *engine.Engine
	client Client
}

// New creates a Facade wrapping a new engine.Engine with default limits.
func New(ctx context.Context, client Client) (*Facade, error) {
	return NewWithConfig(ctx, engineconfig.Default(), client)
}

// NewWithConfig creates a Facade wrapping a new engine.Engine with cfg.
func NewWithConfig(ctx context.Context, cfg *engineconfig.Config, client Client) (*Facade, error) {
	e, err := engine.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = NoOpClient{}
	}
	return &Facade{engine: e, client: client}, nil
}

// Engine exposes the underlying engine.Engine, e.g. to call
// RegisterObserver directly.
func (f *Facade) Engine() *engine.Engine {
	return f.engine
}

// AddNode implements /routegraph/add_node.
func (f *Facade) AddNode(h ids.NodeHandle, id ids.EffectID) error {
	return f.engine.AddNode(h, id)
}

// AddEdge implements /routegraph/add_edge.
func (f *Facade) AddEdge(e ids.Edge) error {
	return f.engine.AddEdge(e)
}

// DelNode implements /routegraph/del_node.
func (f *Facade) DelNode(h ids.NodeHandle) error {
	return f.engine.DelNode(h)
}

// DelEdge implements /routegraph/del_edge.
func (f *Facade) DelEdge(e ids.Edge) error {
	return f.engine.DelEdge(e)
}

// QueryMeta implements /routegraph/query_meta: on success the result is
// delivered to the Client's NodeMeta callback, per the command surface's
// client-callback contract (§6.2); only the error is returned.
func (f *Facade) QueryMeta(h ids.NodeHandle) error {
	meta, err := f.engine.QueryMeta(h)
	if err != nil {
		return err
	}
	f.client.NodeMeta(h, meta)
	return nil
}

// QueryID implements /routegraph/query_id, delivering to NodeID on success.
func (f *Facade) QueryID(h ids.NodeHandle) error {
	id, err := f.engine.QueryID(h)
	if err != nil {
		return err
	}
	f.client.NodeID(h, id)
	return nil
}

// Render implements /renderer/render, delivering the rendered buffer to
// AudioRendered on success.
func (f *Facade) Render(ctx context.Context, dag ids.DagHandle, start, end uint64, outSlots []ids.Slot, inputRows map[ids.Slot][]float32) error {
	buf, err := f.engine.Render(ctx, dag, start, end, outSlots, inputRows)
	if err != nil {
		return err
	}
	f.client.AudioRendered(buf, start)
	return nil
}

// AddResourceDir implements /resman/add_dir.
func (f *Facade) AddResourceDir(path string) {
	f.engine.AddResourceDir(path)
}

// ListResourceDirs implements /resman/list_dirs, an introspection command
// not in the original command surface but harmless to expose and used by
// tests that need to assert which directories are registered.
func (f *Facade) ListResourceDirs() []string {
	return f.engine.ResourceDirs()
}

// Close releases the underlying engine's resources.
func (f *Facade) Close(ctx context.Context) error {
	return f.engine.Close(ctx)
}
