package query

import (
	"sync"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// PostQuery is the occasion fired after every run with its results.
const PostQuery = "postquery"

// HookFunc transforms a run's results before they reach the caller.
type HookFunc func(q *Query, results []any) []any

// Hooks holds callbacks keyed by occasion. Registration is additive.
type Hooks struct {
	mu    sync.RWMutex
	hooks map[string][]HookFunc
}

// NewHooks creates an empty hook table.
func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[string][]HookFunc)}
}

// Add appends fn to the callbacks for occasion.
func (h *Hooks) Add(occasion string, fn HookFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks[occasion] = append(h.hooks[occasion], fn)
}

// Fire runs the callbacks for occasion in registration order, each one
// receiving the previous one's output.
func (h *Hooks) Fire(occasion string, q *Query, results []any) []any {
	h.mu.RLock()
	fns := append([]HookFunc(nil), h.hooks[occasion]...)
	h.mu.RUnlock()

	for _, fn := range fns {
		results = fn(q, results)
	}
	return results
}

// Uniqueify drops repeated vertices from results, keeping the first.
// Values that are not vertices pass through untouched.
func Uniqueify(_ *Query, results []any) []any {
	seen := make(map[*graph.Vertex]struct{}, len(results))
	out := results[:0:0]
	for _, r := range results {
		if v, ok := r.(*graph.Vertex); ok {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// CleanClone replaces vertex results with detached property maps that
// carry "_id" but no other underscore-prefixed keys.
func CleanClone(_ *Query, results []any) []any {
	out := make([]any, len(results))
	for i, r := range results {
		v, ok := r.(*graph.Vertex)
		if !ok {
			out[i] = r
			continue
		}
		clean := make(graph.Props, len(v.Props)+1)
		for k, val := range v.Props {
			if len(k) > 0 && k[0] == '_' {
				continue
			}
			clean[k] = deepCopy(val)
		}
		clean[graph.KeyID] = string(v.ID)
		out[i] = clean
	}
	return out
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = deepCopy(val)
		}
		return m
	case graph.Props:
		m := make(graph.Props, len(x))
		for k, val := range x {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return v
	}
}
