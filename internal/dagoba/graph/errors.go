package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	// ErrDuplicateIdentifier is returned when adding a vertex whose id is
	// already present in the graph. The store is left unchanged.
	ErrDuplicateIdentifier = errors.New("graph: a vertex with that id already exists")

	// ErrInvalidIdentifier is returned when a record's "_id" is present but
	// cannot name a vertex (a boolean, NaN or an infinity). The store is
	// left unchanged.
	ErrInvalidIdentifier = errors.New("graph: invalid vertex identifier")

	// ErrDanglingEndpoint is returned when an edge names a source or
	// destination vertex that does not exist. The store is left unchanged.
	ErrDanglingEndpoint = errors.New("graph: edge endpoint not found")

	// ErrInvalidFilterArgument is returned for an edge or vertex filter that
	// is neither absent, a label, a list of labels, nor a property object.
	ErrInvalidFilterArgument = errors.New("graph: invalid filter argument")
)

// EndpointError reports which side of an edge failed to resolve.
type EndpointError struct {
	Side string // "in" or "out"
	ID   any
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("graph: that edge's %s vertex (%v) wasn't found", e.Side, e.ID)
}

// Unwrap lets errors.Is match ErrDanglingEndpoint.
func (e *EndpointError) Unwrap() error {
	return ErrDanglingEndpoint
}
