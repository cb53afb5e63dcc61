package engine

import "errors"

// Sentinel errors for engine-facade operations, per §7's error
// categories.
var (
	ErrTooManyNodes      = errors.New("engine: graph has reached its configured node limit")
	ErrTooManyEdges      = errors.New("engine: graph has reached its configured edge limit")
	ErrRenderWindowZero  = errors.New("engine: render window must have end > start")
	ErrRenderWindowBig   = errors.New("engine: render window exceeds the configured maximum")
	ErrResourceTimeout   = errors.New("engine: effect resolution exceeded the configured timeout")
	ErrEvaluatorMismatch = errors.New("engine: refeval and jit evaluators disagree on a sample")
)
