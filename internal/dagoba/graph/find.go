package graph

// FindVertices resolves a vertex selector to handles:
//
//   - no arguments: every vertex, as a fresh slice
//   - a property object first: every vertex whose properties loosely match
//   - otherwise a list of identifiers (a single list argument is expanded);
//     identifiers that do not resolve are dropped
//
// The result is never nil.
func (g *Graph) FindVertices(selector ...any) []Handle {
	if len(selector) == 1 {
		if list, ok := asList(selector[0]); ok {
			selector = list
		}
	}

	if len(selector) == 0 {
		all := make([]Handle, len(g.vertices))
		for i := range g.vertices {
			all[i] = Handle(i)
		}
		return all
	}

	if obj, ok := AsObject(selector[0]); ok {
		return g.SearchVertices(obj)
	}

	found := make([]Handle, 0, len(selector))
	for _, raw := range selector {
		if h, ok := g.resolve(raw); ok {
			found = append(found, h)
		}
	}
	return found
}

// SearchVertices returns the vertices whose properties match every
// key/value pair of obj, in insertion order.
func (g *Graph) SearchVertices(obj map[string]any) []Handle {
	found := []Handle{}
	for _, v := range g.vertices {
		if MatchProps(v, obj) {
			found = append(found, v.handle)
		}
	}
	return found
}

// FilterEdges returns the edges of hs accepted by f as a fresh slice.
func (g *Graph) FilterEdges(hs []EdgeHandle, f EdgeFilter) []EdgeHandle {
	out := make([]EdgeHandle, 0, len(hs))
	for _, h := range hs {
		if f.Match(g.edges[h]) {
			out = append(out, h)
		}
	}
	return out
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []ID:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
