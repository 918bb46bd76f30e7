package script

import (
	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
)

// Register adds the "where" operator to reg.
func Register(reg *query.Registry) {
	reg.Register("where", wherePipe)
}

type whereState struct {
	script *Script
}

// wherePipe keeps gremlins whose vertex satisfies the Lua source in its
// first argument. The script is compiled once per step.
func wherePipe(g *graph.Graph, args query.Args, in *query.Gremlin, slot *query.Slot) (query.Signal, error) {
	if in == nil {
		return query.Pull, nil
	}
	src, err := args.String(0)
	if err != nil {
		return query.Pull, err
	}

	st := query.SlotState[whereState](slot)
	if st.script == nil || st.script.Source() != src {
		s, err := Compile(src)
		if err != nil {
			return query.Pull, err
		}
		st.script = s
	}

	ok, err := st.script.Eval(g.Vertex(in.Vertex()))
	if err != nil {
		return query.Pull, err
	}
	if !ok {
		return query.Pull, nil
	}
	return query.Emit(in), nil
}
