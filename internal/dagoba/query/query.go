package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Query is a traversal program bound to a graph, together with the
// per-step state that persists across runs. A Query is not safe for
// concurrent use.
type Query struct {
	engine  *Engine
	graph   *graph.Graph
	program []Step
	slots   []Slot
	errs    []error
}

// Add appends a step and returns q. If name is an alias its steps are
// appended instead. Arguments are not checked until the query runs.
func (q *Query) Add(name string, args ...any) *Query {
	if steps, ok := q.engine.aliases.Expand(name, Args(args)); ok {
		q.program = append(q.program, steps...)
		return q
	}
	q.program = append(q.program, Step{Name: name, Args: Args(args)})
	return q
}

// Out follows outgoing edges, optionally filtered (see graph.ParseEdgeFilter).
func (q *Query) Out(filter ...any) *Query { return q.Add("out", filter...) }

// In follows incoming edges, optionally filtered.
func (q *Query) In(filter ...any) *Query { return q.Add("in", filter...) }

// OutAllN emits every vertex reachable over 1 to limit outgoing hops.
func (q *Query) OutAllN(filter any, limit int) *Query { return q.Add("outAllN", filter, limit) }

// InAllN emits every vertex reachable over 1 to limit incoming hops.
func (q *Query) InAllN(filter any, limit int) *Query { return q.Add("inAllN", filter, limit) }

// Property projects each gremlin onto a vertex property.
func (q *Query) Property(name string) *Query { return q.Add("property", name) }

// Unique drops vertices already seen by this query.
func (q *Query) Unique() *Query { return q.Add("unique") }

// Filter keeps gremlins accepted by a Predicate, a func(*graph.Vertex) bool,
// or a property object.
func (q *Query) Filter(pred any) *Query { return q.Add("filter", pred) }

// Take passes n gremlins per run.
func (q *Query) Take(n int) *Query { return q.Add("take", n) }

// As bookmarks the current vertex under label.
func (q *Query) As(label string) *Query { return q.Add("as", label) }

// Back returns to the vertex bookmarked under label.
func (q *Query) Back(label string) *Query { return q.Add("back", label) }

// Except drops gremlins standing on the vertex bookmarked under label.
func (q *Query) Except(label string) *Query { return q.Add("except", label) }

// Path projects each gremlin onto a JSONPath selection of its vertex.
func (q *Query) Path(expr string) *Query { return q.Add("path", expr) }

// Where keeps gremlins for which a Lua expression is truthy. The "where"
// operator must be registered (see package script).
func (q *Query) Where(src string) *Query { return q.Add("where", src) }

// Graph returns the graph the query runs on.
func (q *Query) Graph() *graph.Graph { return q.graph }

// Steps returns a copy of the program.
func (q *Query) Steps() []Step {
	steps := make([]Step, len(q.program))
	copy(steps, q.program)
	return steps
}

// Errors returns the query-time errors recorded so far, oldest first.
func (q *Query) Errors() []error {
	return append([]error(nil), q.errs...)
}

// String renders the program in the query language.
func (q *Query) String() string {
	var b strings.Builder
	for i, step := range q.program {
		if i > 0 {
			b.WriteByte('.')
		}
		name := step.Name
		if i == 0 && name == "vertex" {
			name = "v"
		}
		b.WriteString(name)
		b.WriteByte('(')
		for j, arg := range step.Args {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(renderArg(arg))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func renderArg(arg any) string {
	data, err := json.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("<%T>", arg)
	}
	return string(data)
}
