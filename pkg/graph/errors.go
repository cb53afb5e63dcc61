package graph

import "errors"

// Sentinel errors for graph mutation, per the "graph structural errors"
// category of §7: each leaves the graph unchanged and triggers no
// evaluator notification.
var (
	ErrUnknownDag       = errors.New("graph: unknown dag handle")
	ErrUnknownNode      = errors.New("graph: unknown node handle")
	ErrUnknownEdge      = errors.New("graph: unknown edge")
	ErrDuplicateHandle  = errors.New("graph: node handle already in use")
	ErrReservedHandle   = errors.New("graph: local id 0 is reserved for NULL")
	ErrSlotRange        = errors.New("graph: slot not valid for node's declared schema")
	ErrInvalidEdge      = errors.New("graph: edge endpoints must be distinct")
	ErrDuplicateInput   = errors.New("graph: input slot already has a source")
	ErrWouldCreateCycle = errors.New("graph: edge would create a zero-cost cycle")
	ErrUnresolvedGraph  = errors.New("graph: nested effect descriptor was not resolved before add_node")
)
