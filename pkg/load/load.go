// Package load implements load_by_id (§4.5): resolving an effect
// identity to a descriptor, either a fixed primitive, a raw audio
// buffer reference, or a schema-validated on-disk Graph-bodied
// descriptor with its nested effects recursively resolved.
package load

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

// ResourceManager locates candidate files for an effect identity, per
// §4.5 / the original resource manager's "iterate directories, filter by
// content hash" contract. AddDir implements /resman/add_dir (§6.1).
type ResourceManager interface {
	AddDir(path string)
	Candidates(id ids.EffectID) ([]string, error)
}

// wireSchema is a permissive validation of the persisted shape of §6.4:
// a meta.id.name string and an adjlist with nodes/edges arrays. It
// rejects structurally malformed files before the more detailed decode
// in package descriptor is attempted.
const wireSchema = `{
	"type": "object",
	"required": ["meta", "adjlist"],
	"properties": {
		"meta": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {
					"type": "object",
					"required": ["name"],
					"properties": {
						"name": {"type": "string"}
					}
				}
			}
		},
		"adjlist": {
			"type": "object",
			"properties": {
				"nodes": {"type": "array"},
				"edges": {"type": "array"}
			}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(wireSchema)

func validateWire(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("load: schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var sb strings.Builder
	for i, e := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.String())
	}
	return fmt.Errorf("load: %s: %s", ErrSchemaMismatch, sb.String())
}

// LoadByID implements §4.5's load_by_id.
func LoadByID(id ids.EffectID, rm ResourceManager) (*descriptor.EffectDesc, error) {
	if kind, ok := primitive.FromEffectID(id); ok {
		if id.Hash != nil {
			return nil, ErrHashOnPrimitive
		}
		return primitiveDescriptor(kind, id), nil
	}
	if path, ok := bufferPath(id); ok {
		return &descriptor.EffectDesc{
			Meta:       descriptor.Meta{ID: id},
			Kind:       descriptor.BodyBuffer,
			BufferPath: path,
		}, nil
	}

	candidates, err := rm.Candidates(id)
	if err != nil {
		return nil, err
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := validateWire(data); err != nil {
			continue
		}
		desc, err := descriptor.DecodeWire(data)
		if err != nil {
			continue
		}
		if desc.Meta.ID.Name != id.Name {
			continue
		}
		if desc.Graph != nil {
			if err := resolveNested(desc.Graph, rm); err != nil {
				return nil, err
			}
		}
		hash := sha256.Sum256(data)
		desc.Meta.ID.Hash = &hash
		return desc, nil
	}
	return nil, ErrNoMatchingEffect
}

func resolveNested(adj *descriptor.AdjList, rm ResourceManager) error {
	for i := range adj.Nodes {
		child, err := LoadByID(adj.Nodes[i].ID, rm)
		if err != nil {
			return fmt.Errorf("load: resolving nested node %q: %w", adj.Nodes[i].ID.Name, err)
		}
		adj.Nodes[i].Resolved = child
	}
	return nil
}

func primitiveDescriptor(kind primitive.Kind, id ids.EffectID) *descriptor.EffectDesc {
	return &descriptor.EffectDesc{
		Meta: descriptor.Meta{
			ID:      id,
			Inputs:  kind.InputSlots(),
			Outputs: kind.OutputSlots(),
		},
		Kind:      descriptor.BodyPrimitive,
		Primitive: kind,
	}
}

// bufferPath recognizes an effect id pointing at a raw audio buffer file:
// exactly one URL, scheme "file", extension ".f32" — mirroring the
// original implementation's AudioBuffer::from_path extension check.
func bufferPath(id ids.EffectID) (string, bool) {
	if len(id.URLs) != 1 {
		return "", false
	}
	u, err := url.Parse(id.URLs[0])
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	if !strings.HasSuffix(u.Path, ".f32") {
		return "", false
	}
	return u.Path, true
}
