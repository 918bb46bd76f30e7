package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

func TestBasics(t *testing.T) {
	g := fruitGraph(t)
	e := quietEngine()

	t.Run("v(1)", func(t *testing.T) {
		out := e.V(g, 1).Run()
		require.Len(t, out, 1)
		v := out[0].(*graph.Vertex)
		assert.Equal(t, graph.Props{"_id": "1", "name": "foo", "type": "banana"}, v.Record())
	})

	t.Run("v(1).out()", func(t *testing.T) {
		assert.Equal(t, []any{"bar"}, names(e.V(g, 1).Out().Run()))
	})

	t.Run("v(2).in()", func(t *testing.T) {
		assert.Equal(t, []any{"foo"}, names(e.V(g, 2).In().Run()))
	})

	t.Run("v(2).out() follows no edge", func(t *testing.T) {
		out := e.V(g, 2).Out().Run()
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("property object selector", func(t *testing.T) {
		assert.Equal(t, []any{"foo"}, names(e.V(g, map[string]any{"type": "banana"}).Run()))
	})

	t.Run("missing vertex", func(t *testing.T) {
		assert.Empty(t, e.V(g, 99).Out().Run())
	})

	t.Run("empty graph", func(t *testing.T) {
		assert.Empty(t, e.V(graph.New()).Run())
	})
}

func TestFamily(t *testing.T) {
	g := familyGraph(t)
	e := quietEngine()

	tests := []struct {
		name  string
		query *Query
		want  []any
	}{
		{"grandkids", e.V(g, 1).Out().Out(), []any{"Lucy", "Harry", "Dick", "Tom"}},
		{"his son's father", e.V(g, 1).Out().In().Out(), []any{"Bob"}},
		{"granddaughters", e.V(g, 1).Out().Out("daughter"), []any{"Lucy"}},
		{"tom's sister", e.V(g, 3).Out("sister"), []any{"Lucy"}},
		{"brother's grandfather", e.V(g, 3).Out().In("son").In("son"), []any{"Fred", "Fred"}},
		{"unique grandfather", e.V(g, 3).Out().In("son").In("son").Unique(), []any{"Fred"}},
		{"label list", e.V(g, 2).Out([]string{"daughter"}), []any{"Lucy"}},
		{"edge object", e.V(g, 2).Out(map[string]any{"_label": "son"}), []any{"Harry", "Dick", "Tom"}},
		{"male heirs", e.V(g, 1).OutAllN("son", 2).Property("name"), []any{"Bob", "Harry", "Dick", "Tom"}},
		{"one hop", e.V(g, 1).OutAllN("son", 1), []any{"Bob"}},
		{"ancestors", e.V(g, 4).InAllN("son", 5), []any{"Bob", "Fred"}},
		{"property", e.V(g, 1, 2).Property("name"), []any{"Bob", "Fred"}},
		{"missing property dropped", e.V(g, 1).Out().Property("age"), []any{}},
		{"filter object", e.V(g, 2).Out().Filter(map[string]any{"name": "Dick"}), []any{"Dick"}},
		{"filter func", e.V(g, 2).Out().Filter(func(v *graph.Vertex) bool { return v.ID != "3" }), []any{"Lucy", "Harry", "Dick"}},
		{"path", e.V(g, 1).Path("$.name"), []any{"Fred"}},
		{"path without match", e.V(g, 1).Path("$.age"), []any{}},
		{"back", e.V(g, 1).As("me").Out().Out().Back("me").Unique(), []any{"Fred"}},
		{"except", e.V(g, 3).As("me").Out("brother").Out("brother").Except("me").Unique(), []any{"Dick", "Harry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.query.Run()
			assert.ElementsMatch(t, tt.want, names(out))
			assert.Empty(t, tt.query.Errors())
		})
	}

	t.Run("breadth first order", func(t *testing.T) {
		// Every depth drains before the next one starts.
		out := names(e.V(g, 1).OutAllN("son", 2).Run())
		require.Len(t, out, 4)
		assert.Equal(t, "Bob", out[0])
	})

	t.Run("predicate sees the gremlin", func(t *testing.T) {
		var pred Predicate = func(v *graph.Vertex, gr *Gremlin) bool {
			mark, ok := gr.Bookmarks().Get("parent")
			return ok && mark == 1 && v.Props["name"] == "Tom"
		}
		out := e.V(g, 2).As("parent").Out().Filter(pred).Run()
		assert.Equal(t, []any{"Tom"}, names(out))
	})
}

func TestAsgard(t *testing.T) {
	g := asgardGraph(t)
	e := quietEngine()

	t.Run("thor", func(t *testing.T) {
		out := e.V(g, "Thor").Out().In().Run()
		require.NotEmpty(t, out)
		thor, ok := g.VertexByID("Thor")
		require.True(t, ok)
		assert.Contains(t, out, thor)
		assert.Equal(t, "Aesir", thor.Props["species"])

		out2 := e.V(g, "Thor").Out().In().Unique().Run()
		assert.Contains(t, out2, thor)
		assert.Greater(t, len(out), len(out2))
	})

	t.Run("siblings of a parent", func(t *testing.T) {
		q := e.V(g, "Thor").Out().As("parent").Out().In().Except("parent").Unique()
		assert.ElementsMatch(t, []any{"Vili", "Ve", "Hœnir"}, names(q.Run()))
	})

	t.Run("species selector", func(t *testing.T) {
		assert.Len(t, e.V(g, map[string]any{"species": "Vanir"}).Run(), len(vanir))
	})

	t.Run("several ids", func(t *testing.T) {
		assert.ElementsMatch(t, []any{"Thor", "Odin"}, names(e.V(g, "Thor", "Odin").Run()))
	})
}

func TestTakePagination(t *testing.T) {
	g := familyGraph(t)
	e := quietEngine()

	t.Run("pages", func(t *testing.T) {
		q := e.V(g, 1).Out().Out().Take(2)
		assert.Equal(t, []any{"Lucy", "Harry"}, names(q.Run()))
		assert.Equal(t, []any{"Dick", "Tom"}, names(q.Run()))
		assert.Empty(t, q.Run())
		assert.Empty(t, q.Run())
	})

	// For every page size k the runs partition the full result into
	// ceil(n/k) pages, then stay empty.
	for k := 1; k <= 7; k++ {
		full := e.V(g).Out().Run()
		n := len(full)

		q := e.V(g).Out().Take(k)
		var collected []any
		for page := 0; page < (n+k-1)/k; page++ {
			out := q.Run()
			if page < n/k {
				require.Len(t, out, k, "k=%d page=%d", k, page)
			} else {
				require.Len(t, out, n%k, "k=%d last page", k)
			}
			collected = append(collected, out...)
		}
		assert.ElementsMatch(t, full, collected, "k=%d", k)
		for i := 0; i < 3; i++ {
			assert.Empty(t, q.Run(), "k=%d after exhaustion", k)
		}
		assert.Empty(t, q.Errors())
	}

	t.Run("take zero", func(t *testing.T) {
		q := e.V(g).Take(0)
		assert.Empty(t, q.Run())
		assert.Empty(t, q.Run())
	})
}

func TestUniqueLaw(t *testing.T) {
	g := familyGraph(t)
	e := quietEngine()

	pipelines := []func() *Query{
		func() *Query { return e.V(g) },
		func() *Query { return e.V(g).Out() },
		func() *Query { return e.V(g).Out().In() },
		func() *Query { return e.V(g, 3).Out().Out().Out() },
		func() *Query { return e.V(g, 6).InAllN(nil, 3) },
	}

	for i, build := range pipelines {
		plain := build().Run()
		uniq := build().Unique().Run()
		assert.LessOrEqual(t, len(uniq), len(plain), "pipeline %d", i)

		seen := map[graph.ID]bool{}
		for _, r := range uniq {
			id := r.(*graph.Vertex).ID
			assert.False(t, seen[id], "pipeline %d repeats %s", i, id)
			seen[id] = true
		}
		for _, r := range plain {
			assert.True(t, seen[r.(*graph.Vertex).ID], "pipeline %d lost a vertex", i)
		}
	}
}

func TestResume(t *testing.T) {
	g := familyGraph(t)
	e := quietEngine()

	q := e.V(g, 2).Out()
	assert.Len(t, q.Run(), 4)
	// the source step is exhausted; state is not rebuilt
	assert.Empty(t, q.Run())

	t.Run("unique remembers across runs", func(t *testing.T) {
		q := e.V(g, 2).Out().Unique().Take(2)
		first := q.Run()
		second := q.Run()
		require.Len(t, first, 2)
		require.Len(t, second, 2)
		for _, v := range first {
			assert.NotContains(t, second, v)
		}
	})
}

func TestQueryErrorsDegrade(t *testing.T) {
	g := familyGraph(t)
	e := quietEngine()

	tests := []struct {
		name  string
		query *Query
		want  error
	}{
		{"unknown operator", e.V(g, 1).Add("sideways"), ErrUnknownOperator},
		{"unknown operator midway", e.V(g, 2).Out().Add("sideways").Out(), ErrUnknownOperator},
		{"bad filter", e.V(g, 1).Filter(42), ErrInvalidFilterArgument},
		{"bad edge filter", e.V(g, 1).Out(42), ErrInvalidFilterArgument},
		{"bad take", e.V(g, 1).Add("take", "two"), ErrInvalidArgument},
		{"negative take", e.V(g, 1).Take(-1), ErrInvalidArgument},
		{"zero hop limit", e.V(g, 1).OutAllN("son", 0), ErrInvalidArgument},
		{"unbound back", e.V(g, 1).Back("nowhere"), ErrUnboundBookmark},
		{"unbound except", e.V(g, 1).Except("nowhere"), ErrUnboundBookmark},
		{"bad path", e.V(g, 1).Path("$.a["), ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.query.Run()
			assert.NotNil(t, out)
			assert.Empty(t, out)

			errs := tt.query.Errors()
			require.NotEmpty(t, errs)
			assert.ErrorIs(t, errs[0], tt.want)

			var stepErr *StepError
			require.True(t, errors.As(errs[0], &stepErr))
			assert.Equal(t, tt.query.Steps()[stepErr.Step].Name, stepErr.Name)
		})
	}

	t.Run("rest of the pipeline continues", func(t *testing.T) {
		// every gremlin reaching the broken filter is swallowed and reported
		q := e.V(g, 2).Out().Filter("not a predicate")
		assert.Empty(t, q.Run())
		assert.Len(t, q.Errors(), 4)
	})
}

func TestRegistryResolvesAtRunTime(t *testing.T) {
	g := fruitGraph(t)
	e := quietEngine()

	q := e.V(g, 1).Add("shout")
	e.Registry().Register("shout", func(g *graph.Graph, _ Args, in *Gremlin, _ *Slot) (Signal, error) {
		if in == nil {
			return Pull, nil
		}
		in.SetResult(g.Vertex(in.Vertex()).Props["name"].(string) + "!")
		return Emit(in), nil
	})

	assert.Equal(t, []any{"foo!"}, q.Run())
	assert.Empty(t, q.Errors())

	t.Run("overwrite", func(t *testing.T) {
		e.Registry().Register("out", func(*graph.Graph, Args, *Gremlin, *Slot) (Signal, error) {
			return Done, nil
		})
		assert.Empty(t, e.V(g, 1).Out().Run())
		assert.NotEmpty(t, quietEngine().V(g, 1).Out().Run())
	})
}

func TestOutWithoutEdgesPulls(t *testing.T) {
	g := fruitGraph(t)
	pipe := traversal(outward)
	slot := &Slot{}

	sig, err := pipe(g, nil, NewGremlin(1, nil), slot)
	require.NoError(t, err)
	assert.Equal(t, KindPull, sig.Kind)

	sig, err = pipe(g, nil, nil, slot)
	require.NoError(t, err)
	assert.Equal(t, KindPull, sig.Kind)
}

func TestGremlinClone(t *testing.T) {
	gr := NewGremlin(1, nil)
	gr.SetResult("x")
	gr.Bookmarks().Set("a", 1)

	clone := gr.Goto(2)
	assert.Equal(t, graph.Handle(2), clone.Vertex())
	_, has := clone.Result()
	assert.False(t, has)

	clone.Bookmarks().Set("b", 2)
	h, ok := gr.Bookmarks().Get("b")
	assert.True(t, ok)
	assert.Equal(t, graph.Handle(2), h)
}

func TestSlotState(t *testing.T) {
	var slot Slot
	st := SlotState[takeState](&slot)
	st.taken = 3
	assert.Equal(t, 3, SlotState[takeState](&slot).taken)

	// a different type replaces the state
	SlotState[uniqueState](&slot)
	assert.Equal(t, 0, SlotState[takeState](&slot).taken)

	slot.Reset()
	assert.Nil(t, slot.state)
}

func TestQueryString(t *testing.T) {
	g := fruitGraph(t)
	q := quietEngine().V(g, 1).Out("fruitier").Take(2).OutAllN([]string{"a", "b"}, 3)
	assert.Equal(t, `v(1).out("fruitier").take(2).outAllN(["a","b"], 3)`, q.String())
	assert.Len(t, q.Steps(), 4)
}
