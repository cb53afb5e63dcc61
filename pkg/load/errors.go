package load

import "errors"

// Sentinel errors for effect loading, per the "effect loading errors"
// category of §7: each fails add_node, leaving the graph unchanged.
var (
	ErrNoMatchingEffect = errors.New("load: no matching effect file found")
	ErrSchemaMismatch   = errors.New("load: descriptor does not match wire schema")
	ErrHashOnPrimitive  = errors.New("load: content hash set on a primitive effect id")
)
