package engineconfig

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidMaxNodes            = errors.New("engineconfig: max nodes per graph must be non-negative")
	ErrInvalidMaxEdges            = errors.New("engineconfig: max edges per graph must be non-negative")
	ErrInvalidMaxNestingDepth     = errors.New("engineconfig: max nesting depth must be non-negative")
	ErrInvalidRenderWindow        = errors.New("engineconfig: max render window must be positive")
	ErrInvalidJITCacheSize        = errors.New("engineconfig: JIT cache size must be non-negative")
	ErrInvalidResourceLoadTimeout = errors.New("engineconfig: resource load timeout must be non-negative")
)
