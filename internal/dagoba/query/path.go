package query

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

type pathState struct {
	src  string
	expr jp.Expr
}

// pathPipe projects the gremlin onto the values a JSONPath expression
// selects from its vertex record. A single match becomes the result, more
// than one become a list, none drops the gremlin.
func pathPipe(g *graph.Graph, args Args, in *Gremlin, slot *Slot) (Signal, error) {
	if in == nil {
		return Pull, nil
	}
	src, err := args.String(0)
	if err != nil {
		return Pull, err
	}

	st := SlotState[pathState](slot)
	if st.expr == nil || st.src != src {
		expr, err := jp.ParseString(src)
		if err != nil {
			return Pull, fmt.Errorf("%w: path %q: %v", ErrInvalidArgument, src, err)
		}
		st.src, st.expr = src, expr
	}

	matches := st.expr.Get(map[string]any(g.Vertex(in.Vertex()).Record()))
	switch len(matches) {
	case 0:
		return Empty, nil
	case 1:
		in.SetResult(matches[0])
	default:
		in.SetResult(matches)
	}
	return Emit(in), nil
}
