package subscriptions

import (
	"slices"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Match reports whether event satisfies every criterion in pattern
func Match(event graph.Event, pattern Pattern) bool {
	if len(pattern.EventTypes) > 0 && !slices.Contains(pattern.EventTypes, event.Type) {
		return false
	}

	// Labels only constrain edge events
	if len(pattern.Labels) > 0 && event.Type == graph.EventEdgeAdded {
		if !slices.Contains(pattern.Labels, event.EdgeLabel) {
			return false
		}
	}

	if len(pattern.VertexIDs) > 0 {
		var ids []string
		switch event.Type {
		case graph.EventVertexAdded:
			ids = []string{string(event.VertexID)}
		case graph.EventEdgeAdded:
			ids = []string{string(event.EdgeOut), string(event.EdgeIn)}
		}
		if !slices.ContainsFunc(ids, func(id string) bool {
			return slices.Contains(pattern.VertexIDs, id)
		}) {
			return false
		}
	}

	return true
}
