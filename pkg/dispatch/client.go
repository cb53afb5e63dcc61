package dispatch

import (
	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/ids"
)

// Client receives the notifications a command produces. A caller wanting
// to observe graph mutations instead registers an observer.Observer
// directly on the underlying engine.Engine (see Facade.Engine); Client is
// only for query/render command replies.
type Client interface {
	// AudioRendered delivers the output of a /renderer/render call: one
	// sample row per requested output slot, plus the window's start time.
	AudioRendered(buf map[ids.Slot][]float32, startTime uint64)

	// NodeMeta delivers the reply to /routegraph/query_meta.
	NodeMeta(h ids.NodeHandle, meta descriptor.Meta)

	// NodeID delivers the reply to /routegraph/query_id.
	NodeID(h ids.NodeHandle, id ids.EffectID)
}

// NoOpClient implements Client by discarding every callback. Useful for
// callers that only want the command surface's error returns.
type NoOpClient struct{}

func (NoOpClient) AudioRendered(map[ids.Slot][]float32, uint64) {}
func (NoOpClient) NodeMeta(ids.NodeHandle, descriptor.Meta)     {}
func (NoOpClient) NodeID(ids.NodeHandle, ids.EffectID)          {}
