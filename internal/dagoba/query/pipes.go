package query

import (
	"fmt"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Predicate decides whether a gremlin passes a filter step.
type Predicate func(v *graph.Vertex, gr *Gremlin) bool

type direction uint8

const (
	outward direction = iota
	inward
)

func (d direction) edges(g *graph.Graph, h graph.Handle) []graph.EdgeHandle {
	if d == outward {
		return g.OutEdges(h)
	}
	return g.InEdges(h)
}

// far returns the endpoint reached by walking e in direction d.
func (d direction) far(g *graph.Graph, e graph.EdgeHandle) graph.Handle {
	if d == outward {
		return g.Edge(e).In()
	}
	return g.Edge(e).Out()
}

type vertexState struct {
	loaded bool
	queue  *arraystack.Stack
}

// vertexPipe is the source step. It materialises its selector once and
// hands out one fresh gremlin per activation.
func vertexPipe(g *graph.Graph, args Args, _ *Gremlin, slot *Slot) (Signal, error) {
	st := SlotState[vertexState](slot)
	if !st.loaded {
		st.queue = arraystack.New()
		for _, h := range g.FindVertices(args...) {
			st.queue.Push(h)
		}
		st.loaded = true
	}

	h, ok := st.queue.Pop()
	if !ok {
		return Done, nil
	}
	return Emit(NewGremlin(h.(graph.Handle), nil)), nil
}

type traversalState struct {
	origin *Gremlin
	edges  *arraystack.Stack
}

func traversal(dir direction) Pipe {
	return func(g *graph.Graph, args Args, in *Gremlin, slot *Slot) (Signal, error) {
		st := SlotState[traversalState](slot)
		if st.edges == nil {
			st.edges = arraystack.New()
		}
		if in == nil && st.edges.Empty() {
			return Pull, nil
		}

		if st.edges.Empty() {
			filter, err := graph.ParseEdgeFilter(args.At(0))
			if err != nil {
				return Pull, err
			}
			st.origin = in
			for _, e := range g.FilterEdges(dir.edges(g, in.Vertex()), filter) {
				st.edges.Push(e)
			}
		}

		e, ok := st.edges.Pop()
		if !ok {
			return Pull, nil
		}
		return Emit(st.origin.Goto(dir.far(g, e.(graph.EdgeHandle)))), nil
	}
}

type traversalNState struct {
	active  bool
	origin  *Gremlin
	levels  [][]graph.EdgeHandle
	current int
}

// traversalN walks breadth first up to limit hops from each incoming
// gremlin, emitting every vertex reached at every depth.
func traversalN(dir direction) Pipe {
	return func(g *graph.Graph, args Args, in *Gremlin, slot *Slot) (Signal, error) {
		limit, err := args.Int(1)
		if err != nil {
			return Pull, err
		}
		if limit < 1 {
			return Pull, fmt.Errorf("%w: hop limit must be positive, got %d", ErrInvalidArgument, limit)
		}
		filter, err := graph.ParseEdgeFilter(args.At(0))
		if err != nil {
			return Pull, err
		}

		st := SlotState[traversalNState](slot)
		if !st.active {
			if in == nil {
				return Pull, nil
			}
			st.active = true
			st.origin = in
			st.current = 0
			st.levels = [][]graph.EdgeHandle{g.FilterEdges(dir.edges(g, in.Vertex()), filter)}
		}

		for len(st.levels[st.current]) == 0 {
			if st.current+1 >= len(st.levels) {
				*st = traversalNState{}
				return Pull, nil
			}
			st.levels[st.current] = nil
			st.current++
		}

		level := st.levels[st.current]
		e := level[len(level)-1]
		st.levels[st.current] = level[:len(level)-1]
		h := dir.far(g, e)

		if st.current < limit-1 {
			if len(st.levels) == st.current+1 {
				st.levels = append(st.levels, nil)
			}
			next := st.current + 1
			st.levels[next] = append(st.levels[next], g.FilterEdges(dir.edges(g, h), filter)...)
		}

		return Emit(st.origin.Goto(h)), nil
	}
}

// propertyPipe projects the gremlin onto a property value. Gremlins whose
// vertex lacks the property are dropped.
func propertyPipe(g *graph.Graph, args Args, in *Gremlin, _ *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	name, err := args.String(0)
	if err != nil {
		return Pull, err
	}

	val, ok := g.Vertex(in.Vertex()).Get(name)
	if !ok || val == nil {
		return Empty, nil
	}
	in.SetResult(val)
	return Emit(in), nil
}

type uniqueState struct {
	seen *hashset.Set
}

func uniquePipe(g *graph.Graph, _ Args, in *Gremlin, slot *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	st := SlotState[uniqueState](slot)
	if st.seen == nil {
		st.seen = hashset.New()
	}

	id := g.Vertex(in.Vertex()).ID
	if st.seen.Contains(id) {
		return Pull, nil
	}
	st.seen.Add(id)
	return Emit(in), nil
}

func filterPipe(g *graph.Graph, args Args, in *Gremlin, _ *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	v := g.Vertex(in.Vertex())

	var pass bool
	switch f := args.At(0).(type) {
	case Predicate:
		pass = f(v, in)
	case func(*graph.Vertex, *Gremlin) bool:
		pass = f(v, in)
	case func(*graph.Vertex) bool:
		pass = f(v)
	default:
		obj, ok := graph.AsObject(f)
		if !ok {
			return Pull, fmt.Errorf("%w: filter is not a predicate or property object: %T", ErrInvalidFilterArgument, f)
		}
		pass = graph.MatchProps(v, obj)
	}

	if !pass {
		return Pull, nil
	}
	return Emit(in), nil
}

type takeState struct {
	taken int
}

// takePipe passes n gremlins, then signals Done and rearms for the next
// run. This is what pages a query across repeated runs.
func takePipe(_ *graph.Graph, args Args, in *Gremlin, slot *Slot) (Signal, error) {
	n, err := args.Int(0)
	if err != nil {
		return Pull, err
	}
	if n < 0 {
		return Pull, fmt.Errorf("%w: take count must not be negative, got %d", ErrInvalidArgument, n)
	}

	st := SlotState[takeState](slot)
	if st.taken == n {
		st.taken = 0
		return Done, nil
	}
	if in == nil {
		return Pull, nil
	}
	st.taken++
	return Emit(in), nil
}

func asPipe(_ *graph.Graph, args Args, in *Gremlin, _ *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	label, err := args.String(0)
	if err != nil {
		return Pull, err
	}
	in.Bookmarks().Set(label, in.Vertex())
	return Emit(in), nil
}

func backPipe(_ *graph.Graph, args Args, in *Gremlin, _ *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	label, err := args.String(0)
	if err != nil {
		return Pull, err
	}
	h, ok := in.Bookmarks().Get(label)
	if !ok {
		return Pull, fmt.Errorf("%w: %q", ErrUnboundBookmark, label)
	}
	return Emit(in.Goto(h)), nil
}

func exceptPipe(_ *graph.Graph, args Args, in *Gremlin, _ *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	label, err := args.String(0)
	if err != nil {
		return Pull, err
	}
	h, ok := in.Bookmarks().Get(label)
	if !ok {
		return Pull, fmt.Errorf("%w: %q", ErrUnboundBookmark, label)
	}
	if in.Vertex() == h {
		return Pull, nil
	}
	return Emit(in), nil
}
