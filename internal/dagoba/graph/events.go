package graph

import "time"

// Event describes a successful mutation of the store.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Vertex event fields
	VertexID ID `json:"vertex_id,omitempty"`

	// Edge event fields
	EdgeOut   ID     `json:"edge_out,omitempty"`
	EdgeIn    ID     `json:"edge_in,omitempty"`
	EdgeLabel string `json:"edge_label,omitempty"`
}

// Event type constants
const (
	EventVertexAdded = "vertex.added"
	EventEdgeAdded   = "edge.added"
)

// SetEventEmitter sets the callback for emitting events
func (g *Graph) SetEventEmitter(emitter func(Event)) {
	g.emitter = emitter
}

// emit sends an event to the registered emitter, if any
func (g *Graph) emit(event Event) {
	if g.emitter != nil {
		event.Timestamp = time.Now()
		g.emitter(event)
	}
}
