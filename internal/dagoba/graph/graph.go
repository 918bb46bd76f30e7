// Package graph is the in-memory vertex/edge store behind dagoba queries.
//
// # Ownership Model
//
// The graph owns two arenas: a vertex slice and an edge slice. Vertices
// hold the handles of their outgoing and incoming edges; edges hold the
// handles of their endpoints. Handles are plain indexes into the arenas,
// so the vertex -> edge -> vertex cycle never needs pointer bookkeeping.
//
// Records passed to AddVertex and AddEdge are copied; the caller may reuse
// them afterwards.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. It assumes a single writer and a
// single reader at a time; callers that share a graph (the HTTP server
// does) must serialise access themselves.
//
// # Identifiers
//
// Identifiers are strings. Integer-like values are normalised (see ParseID)
// so that 1, 1.0 and "1" name the same vertex. Auto-assigned identifiers
// count up from the vertex count and skip any id already taken, which is
// only sound because the store is append-only.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Reserved record keys.
const (
	KeyID    = "_id"
	KeyOut   = "_out"
	KeyIn    = "_in"
	KeyLabel = "_label"
)

// ID identifies a vertex within one graph.
type ID string

// Handle addresses a vertex in the graph's vertex arena.
type Handle int

// EdgeHandle addresses an edge in the graph's edge arena.
type EdgeHandle int

// Props is an open property bag.
type Props map[string]any

// Clone returns a shallow copy of p.
func (p Props) Clone() Props {
	c := make(Props, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Vertex is a stored vertex. Its adjacency lists are maintained by the
// graph and are not part of the property bag.
type Vertex struct {
	ID    ID
	Props Props

	handle Handle
	out    []EdgeHandle
	in     []EdgeHandle
}

// Handle returns the vertex's arena handle.
func (v *Vertex) Handle() Handle { return v.handle }

// Get returns a property value; "_id" resolves to the identifier.
func (v *Vertex) Get(key string) (any, bool) {
	if key == KeyID {
		return string(v.ID), true
	}
	val, ok := v.Props[key]
	return val, ok
}

// Record renders the vertex as an open property map including "_id".
func (v *Vertex) Record() Props {
	rec := v.Props.Clone()
	rec[KeyID] = string(v.ID)
	return rec
}

// Edge is a stored, labeled, directed edge from Out() to In().
type Edge struct {
	Label string
	Props Props

	handle EdgeHandle
	out    Handle
	in     Handle
}

// Handle returns the edge's arena handle.
func (e *Edge) Handle() EdgeHandle { return e.handle }

// Out returns the handle of the source vertex.
func (e *Edge) Out() Handle { return e.out }

// In returns the handle of the destination vertex.
func (e *Edge) In() Handle { return e.in }

// Get returns a property value; "_label" resolves to the label.
func (e *Edge) Get(key string) (any, bool) {
	if key == KeyLabel {
		if e.Label == "" {
			return nil, false
		}
		return e.Label, true
	}
	val, ok := e.Props[key]
	return val, ok
}

// Graph holds vertices, edges and the identifier index.
type Graph struct {
	vertices []*Vertex
	edges    []*Edge
	index    map[ID]Handle
	autoID   int

	logger  *slog.Logger
	emitter func(Event)
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used to report rejected records.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithEventEmitter sets the mutation event callback.
func WithEventEmitter(emitter func(Event)) Option {
	return func(g *Graph) {
		g.emitter = emitter
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		index:  make(map[ID]Handle),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Build creates a graph from vertex and edge records. A rejected record is
// logged and does not stop the ones after it; the joined error lists every
// rejection and the graph is usable either way.
func Build(vertices, edges []Props, opts ...Option) (*Graph, error) {
	g := New(opts...)
	verr := g.AddVertices(vertices)
	eerr := g.AddEdges(edges)
	return g, errors.Join(verr, eerr)
}

// AddVertex stores a vertex record and returns its identifier. A record
// whose "_id" is absent, nil or empty gets the next free sequential
// integer.
func (g *Graph) AddVertex(rec Props) (ID, error) {
	var id ID
	if raw, ok := rec[KeyID]; ok && !blankID(raw) {
		id, ok = ParseID(raw)
		if !ok {
			g.logger.Debug("rejecting vertex", slog.Any("id", raw), slog.String("reason", "invalid id"))
			return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, raw)
		}
		if _, taken := g.index[id]; taken {
			g.logger.Debug("rejecting vertex", slog.String("id", string(id)), slog.String("reason", "duplicate"))
			return "", ErrDuplicateIdentifier
		}
	}
	if id == "" {
		id = g.nextAutoID()
	}

	props := make(Props, len(rec))
	for k, v := range rec {
		if k != KeyID {
			props[k] = v
		}
	}

	h := Handle(len(g.vertices))
	v := &Vertex{
		ID:     id,
		Props:  props,
		handle: h,
		out:    []EdgeHandle{},
		in:     []EdgeHandle{},
	}
	g.vertices = append(g.vertices, v)
	g.index[id] = h

	g.emit(Event{Type: EventVertexAdded, VertexID: id})
	return id, nil
}

// blankID reports whether raw asks for an auto-assigned id
func blankID(raw any) bool {
	switch x := raw.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case ID:
		return x == ""
	}
	return false
}

// nextAutoID returns the lowest free integer id at or above both the
// vertex count + 1 and the last auto-assigned id + 1.
func (g *Graph) nextAutoID() ID {
	n := len(g.vertices) + 1
	if n < g.autoID {
		n = g.autoID
	}
	for {
		id := ID(strconv.Itoa(n))
		if _, taken := g.index[id]; !taken {
			g.autoID = n + 1
			return id
		}
		n++
	}
}

// AddEdge stores an edge record. "_out" and "_in" name the source and
// destination vertices, "_label" is the optional label, every other key is
// kept as an edge property.
func (g *Graph) AddEdge(rec Props) error {
	in, inOK := g.resolve(rec[KeyIn])
	out, outOK := g.resolve(rec[KeyOut])
	if !inOK {
		g.logger.Debug("rejecting edge", slog.Any("in", rec[KeyIn]), slog.String("reason", "in vertex not found"))
		return &EndpointError{Side: "in", ID: rec[KeyIn]}
	}
	if !outOK {
		g.logger.Debug("rejecting edge", slog.Any("out", rec[KeyOut]), slog.String("reason", "out vertex not found"))
		return &EndpointError{Side: "out", ID: rec[KeyOut]}
	}

	props := make(Props, len(rec))
	var label string
	for k, v := range rec {
		switch k {
		case KeyIn, KeyOut:
		case KeyLabel:
			if v != nil {
				label = toLabel(v)
			}
		default:
			props[k] = v
		}
	}

	h := EdgeHandle(len(g.edges))
	e := &Edge{Label: label, Props: props, handle: h, out: out, in: in}
	g.edges = append(g.edges, e)
	g.vertices[out].out = append(g.vertices[out].out, h)
	g.vertices[in].in = append(g.vertices[in].in, h)

	g.emit(Event{
		Type:      EventEdgeAdded,
		EdgeOut:   g.vertices[out].ID,
		EdgeIn:    g.vertices[in].ID,
		EdgeLabel: label,
	})
	return nil
}

func toLabel(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	id, _ := ParseID(v)
	return string(id)
}

func (g *Graph) resolve(raw any) (Handle, bool) {
	id, ok := ParseID(raw)
	if !ok {
		return 0, false
	}
	h, ok := g.index[id]
	return h, ok
}

// AddVertices adds each record in order, continuing past failures.
func (g *Graph) AddVertices(recs []Props) error {
	var errs []error
	for i, rec := range recs {
		if _, err := g.AddVertex(rec); err != nil {
			g.logger.Warn("vertex rejected", slog.Int("index", i), slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddEdges adds each record in order, continuing past failures.
func (g *Graph) AddEdges(recs []Props) error {
	var errs []error
	for i, rec := range recs {
		if err := g.AddEdge(rec); err != nil {
			g.logger.Warn("edge rejected", slog.Int("index", i), slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// EdgeLen returns the number of edges.
func (g *Graph) EdgeLen() int { return len(g.edges) }

// Vertex returns the vertex behind h.
func (g *Graph) Vertex(h Handle) *Vertex { return g.vertices[h] }

// Edge returns the edge behind h.
func (g *Graph) Edge(h EdgeHandle) *Edge { return g.edges[h] }

// VertexByID looks a vertex up by identifier.
func (g *Graph) VertexByID(raw any) (*Vertex, bool) {
	h, ok := g.resolve(raw)
	if !ok {
		return nil, false
	}
	return g.vertices[h], true
}

// OutEdges returns the outgoing adjacency list of h. The slice belongs to
// the store; callers must not change its membership.
func (g *Graph) OutEdges(h Handle) []EdgeHandle { return g.vertices[h].out }

// InEdges returns the incoming adjacency list of h. The slice belongs to
// the store; callers must not change its membership.
func (g *Graph) InEdges(h Handle) []EdgeHandle { return g.vertices[h].in }

// Vertices returns the vertices in insertion order.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgeRecord renders e with its endpoints reduced to bare identifiers.
func (g *Graph) EdgeRecord(e *Edge) Props {
	rec := e.Props.Clone()
	rec[KeyOut] = string(g.vertices[e.out].ID)
	rec[KeyIn] = string(g.vertices[e.in].ID)
	if e.Label != "" {
		rec[KeyLabel] = e.Label
	}
	return rec
}

// Records renders the whole graph as vertex and edge records, the inverse
// of Build.
func (g *Graph) Records() (vertices, edges []Props) {
	vertices = make([]Props, 0, len(g.vertices))
	for _, v := range g.vertices {
		vertices = append(vertices, v.Record())
	}
	edges = make([]Props, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, g.EdgeRecord(e))
	}
	return vertices, edges
}
