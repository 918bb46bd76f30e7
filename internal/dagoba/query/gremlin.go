package query

import "github.com/dxnn/dagoba/internal/dagoba/graph"

// Bookmarks holds the named vertices recorded by "as". One bag is shared
// by every gremlin descending from the same source gremlin.
type Bookmarks struct {
	marks map[string]graph.Handle
}

// Set records h under label, replacing any earlier bookmark.
func (b *Bookmarks) Set(label string, h graph.Handle) {
	if b.marks == nil {
		b.marks = make(map[string]graph.Handle)
	}
	b.marks[label] = h
}

// Get returns the vertex bookmarked under label.
func (b *Bookmarks) Get(label string) (graph.Handle, bool) {
	h, ok := b.marks[label]
	return h, ok
}

// Gremlin is a traversal token: a current vertex, an optional result
// override and a shared bookmark bag.
type Gremlin struct {
	vertex    graph.Handle
	result    any
	hasResult bool
	state     *Bookmarks
}

// NewGremlin creates a gremlin on vertex h. A nil state starts a new
// bookmark bag.
func NewGremlin(h graph.Handle, state *Bookmarks) *Gremlin {
	if state == nil {
		state = &Bookmarks{}
	}
	return &Gremlin{vertex: h, state: state}
}

// Vertex returns the gremlin's current vertex.
func (g *Gremlin) Vertex() graph.Handle { return g.vertex }

// Bookmarks returns the shared bookmark bag.
func (g *Gremlin) Bookmarks() *Bookmarks { return g.state }

// Goto clones the gremlin onto h. The clone shares the bookmark bag and
// carries no result override.
func (g *Gremlin) Goto(h graph.Handle) *Gremlin {
	return &Gremlin{vertex: h, state: g.state}
}

// SetResult overrides what this gremlin projects to at the end of a run.
func (g *Gremlin) SetResult(v any) {
	g.result = v
	g.hasResult = true
}

// Result returns the result override, if any.
func (g *Gremlin) Result() (any, bool) { return g.result, g.hasResult }
