// Package descriptor defines the immutable effect descriptor (§3.3) and
// its wire format (§6.4): the bundle of identity, declared I/O schema and
// body (primitive tag, nested sub-DAG, or raw audio buffer reference)
// that every node in the live effect graph is built from.
package descriptor

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

// BodyKind tags which variant of EffectDesc.Body is populated.
type BodyKind int

const (
	BodyPrimitive BodyKind = iota
	BodyGraph
	BodyBuffer
)

func (k BodyKind) String() string {
	switch k {
	case BodyPrimitive:
		return "primitive"
	case BodyGraph:
		return "graph"
	case BodyBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Meta is the identity and declared I/O schema of an effect.
type Meta struct {
	ID      ids.EffectID
	Inputs  []ids.Slot
	Outputs []ids.Slot
}

// HasInput reports whether slot is declared as an input.
func (m Meta) HasInput(slot ids.Slot) bool { return containsSlot(m.Inputs, slot) }

// HasOutput reports whether slot is declared as an output.
func (m Meta) HasOutput(slot ids.Slot) bool { return containsSlot(m.Outputs, slot) }

// HasOutputSlot reports whether slot is a valid output of d, accounting
// for F32Constant's unbounded output space (every u32 bit pattern is a
// logical output slot, so the declared Outputs list is never consulted
// for it; see primitive.Kind.HasUnboundedOutputs).
func (d *EffectDesc) HasOutputSlot(slot ids.Slot) bool {
	if d.Kind == BodyPrimitive && d.Primitive.HasUnboundedOutputs() {
		return true
	}
	return d.Meta.HasOutput(slot)
}

// HasInputSlot reports whether slot is a valid input of d.
func (d *EffectDesc) HasInputSlot(slot ids.Slot) bool {
	return d.Meta.HasInput(slot)
}

func containsSlot(slots []ids.Slot, s ids.Slot) bool {
	for _, x := range slots {
		if x == s {
			return true
		}
	}
	return false
}

// AdjEndpoint is one endpoint of an edge inside a persisted AdjList.
// Local zero means the DAG's own boundary at Slot, matching ids.Endpoint.
type AdjEndpoint struct {
	Local ids.LocalID `json:"local"`
	Slot  ids.Slot    `json:"slot"`
}

// ToEndpoint converts a persisted adjacency endpoint to its live form.
func (e AdjEndpoint) ToEndpoint() ids.Endpoint {
	return ids.Endpoint{Local: e.Local, Slot: e.Slot}
}

// AdjEdge is a persisted edge within an AdjList.
type AdjEdge struct {
	From AdjEndpoint `json:"from"`
	To   AdjEndpoint `json:"to"`
	Data uint32      `json:"data"`
}

// AdjNode is one node of a persisted adjacency list: a local handle plus
// the identity of the effect it instantiates. Resolved is filled in by
// the loader once the referenced effect has itself been loaded
// recursively (§4.5.2); it is nil for an AdjList that has been decoded
// from the wire but not yet resolved.
type AdjNode struct {
	Local    ids.LocalID  `json:"local"`
	ID       ids.EffectID `json:"id"`
	Resolved *EffectDesc  `json:"-"`
}

// AdjList is the static, serializable representation of a sub-DAG
// (§2, §3.3): nodes keyed by local handle, edges between them.
type AdjList struct {
	Nodes []AdjNode `json:"nodes"`
	Edges []AdjEdge `json:"edges"`
}

// DeriveSchema computes the I/O schema of a Graph-bodied effect from the
// unique NULL-endpoint edges of its adjacency list, per §3.3: inputs are
// the slots of edges from NULL, outputs are the slots of edges to NULL.
func (a *AdjList) DeriveSchema() (inputs, outputs []ids.Slot) {
	seenIn := map[ids.Slot]bool{}
	seenOut := map[ids.Slot]bool{}
	for _, e := range a.Edges {
		if e.From.Local == 0 {
			seenIn[e.From.Slot] = true
		}
		if e.To.Local == 0 {
			seenOut[e.To.Slot] = true
		}
	}
	for s := range seenIn {
		inputs = append(inputs, s)
	}
	for s := range seenOut {
		outputs = append(outputs, s)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i] < inputs[j] })
	sort.Slice(outputs, func(i, j int) bool { return outputs[i] < outputs[j] })
	return inputs, outputs
}

// EffectDesc is the immutable descriptor of §3.3. Exactly one of
// Primitive, Graph or BufferPath is meaningful, selected by Kind.
type EffectDesc struct {
	Meta Meta
	Kind BodyKind

	Primitive primitive.Kind
	Graph     *AdjList
	BufferPath string
}

// wireDesc is the persisted JSON shape of §6.4: two keys, meta and
// adjlist. Only Graph-bodied effects are persisted this way; primitives
// are never stored on disk and Buffer effects are referenced by path,
// not embedded here. ids.EffectID owns its own JSON encoding (hex hash),
// so this shape need only name the rest of meta plus the adjlist.
type wireDesc struct {
	Meta struct {
		ID      ids.EffectID `json:"id"`
		Inputs  []ids.Slot   `json:"inputs,omitempty"`
		Outputs []ids.Slot   `json:"outputs,omitempty"`
	} `json:"meta"`
	AdjList AdjList `json:"adjlist"`
}

// DecodeWire parses the persisted JSON format of §6.4 into an
// unresolved EffectDesc: its Graph.Nodes entries carry only identities,
// not Resolved descriptors. The caller (package load) is responsible for
// recursively resolving them.
func DecodeWire(data []byte) (*EffectDesc, error) {
	var w wireDesc
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("descriptor: decode: %w", err)
	}
	adj := w.AdjList
	inputs, outputs := adj.DeriveSchema()
	if len(w.Meta.Inputs) > 0 {
		inputs = w.Meta.Inputs
	}
	if len(w.Meta.Outputs) > 0 {
		outputs = w.Meta.Outputs
	}
	return &EffectDesc{
		Meta:  Meta{ID: w.Meta.ID, Inputs: inputs, Outputs: outputs},
		Kind:  BodyGraph,
		Graph: &adj,
	}, nil
}

// ContentHash computes the SHA-256 of the canonical JSON re-encoding of
// {meta, adjlist}. It equals a file's content hash (the SHA-256 of the
// file's bytes, which load.LoadByID records) only when the file holds
// exactly this encoding. Only meaningful for Graph-bodied descriptors.
func (d *EffectDesc) ContentHash() ([32]byte, error) {
	bytes, err := d.canonicalJSON()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(bytes), nil
}

func (d *EffectDesc) canonicalJSON() ([]byte, error) {
	var w wireDesc
	w.Meta.ID = d.Meta.ID
	w.Meta.Inputs = d.Meta.Inputs
	w.Meta.Outputs = d.Meta.Outputs
	if d.Graph != nil {
		w.AdjList = *d.Graph
	}
	return json.Marshal(w)
}
