// Package ids defines the identity types shared across the routegraph
// engine: DAG handles, node handles, edges and effect identities.
//
// Node identity is a property of a node's position within its DAG rather
// than a process-global counter: a LocalID is assigned by the graph
// mutator when a node is added and is meaningless outside the DagHandle
// it was assigned within. The zero LocalID is reserved to mean "the
// enclosing DAG's external boundary" (NULL in the spec), mirroring the
// nullable-integer encoding used by the original implementation this
// engine is modeled on: a value that serializes like a plain integer but
// treats zero as "absent".
package ids

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DagHandle identifies a (possibly nested) DAG instance.
type DagHandle uint64

// Toplevel is the distinguished handle of the outermost graph. It is not
// the zero value so that the zero DagHandle can be used as a sentinel
// for "no nested DAG" on a node that isn't a Graph body.
const Toplevel DagHandle = 1

// LocalID identifies a node within a single DAG. Zero means NULL: the
// enclosing DAG's external boundary.
type LocalID uint32

// Slot is a 32-bit input or output port index on a node.
type Slot uint32

// NodeHandle is (dag handle, local id). A NodeHandle whose Local is zero
// refers to the boundary of its Dag rather than to a real node.
type NodeHandle struct {
	Dag   DagHandle
	Local LocalID
}

// IsNull reports whether h refers to its DAG's external boundary.
func (h NodeHandle) IsNull() bool { return h.Local == 0 }

// Endpoint is one end of an edge: a local node reference plus a slot.
// Local zero means the edge reaches across the enclosing DAG's boundary
// at this Slot (an external input if this is a "from" endpoint, an
// external output if this is a "to" endpoint).
type Endpoint struct {
	Local LocalID
	Slot  Slot
}

// IsNull reports whether e refers to the enclosing DAG's boundary.
func (e Endpoint) IsNull() bool { return e.Local == 0 }

// Edge is an ordered, weighted connection between two endpoints within a
// single DAG. Data carries the auxiliary literal payload interpreted only
// by primitives that read it (Constant).
type Edge struct {
	Dag  DagHandle
	From Endpoint
	To   Endpoint
	Data uint32
}

// SameEndpoints reports whether two edges connect the same (from, to)
// pair within the same DAG, ignoring Data.
func (e Edge) SameEndpoints(o Edge) bool {
	return e.Dag == o.Dag && e.From == o.From && e.To == o.To
}

// EffectID identifies an effect: a name plus an optional content hash
// and a set of locator URLs. An effect is primitive iff its URL set has
// exactly one entry with scheme "primitive" and a recognized path; that
// check lives in package primitive to avoid a dependency cycle.
type EffectID struct {
	Name string
	Hash *[32]byte
	URLs []string
}

// Key returns a string uniquely identifying id for use as a map key in
// the descriptor interning table: the name, plus the hash when present
// (two effects with the same name but different hashes are different
// identities).
func (id EffectID) Key() string {
	if id.Hash == nil {
		return id.Name
	}
	return id.Name + "#" + hex.EncodeToString(id.Hash[:])
}

// Equal reports whether two effect ids denote the same identity for the
// purposes of interning (name and hash; URLs are locators, not identity).
func (id EffectID) Equal(o EffectID) bool {
	if id.Name != o.Name {
		return false
	}
	if (id.Hash == nil) != (o.Hash == nil) {
		return false
	}
	if id.Hash == nil {
		return true
	}
	return *id.Hash == *o.Hash
}

// wireEffectID is the JSON shape of an EffectID per §6.4: the hash, when
// present, is a hex string rather than the raw 32-byte array so files
// stay diffable as text.
type wireEffectID struct {
	Name string   `json:"name"`
	Hash string   `json:"hash,omitempty"`
	URLs []string `json:"urls,omitempty"`
}

// MarshalJSON encodes the hash field as a hex string.
func (id EffectID) MarshalJSON() ([]byte, error) {
	w := wireEffectID{Name: id.Name, URLs: id.URLs}
	if id.Hash != nil {
		w.Hash = hex.EncodeToString(id.Hash[:])
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a hex-string hash field back into a 32-byte array.
func (id *EffectID) UnmarshalJSON(data []byte) error {
	var w wireEffectID
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id.Name = w.Name
	id.URLs = w.URLs
	id.Hash = nil
	if w.Hash != "" {
		raw, err := hex.DecodeString(w.Hash)
		if err != nil {
			return fmt.Errorf("ids: effect hash: %w", err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("ids: effect hash must be 32 bytes, got %d", len(raw))
		}
		var h [32]byte
		copy(h[:], raw)
		id.Hash = &h
	}
	return nil
}
