package graph

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fruitGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(
		[]Props{
			{"_id": 1, "name": "foo", "type": "banana"},
			{"_id": 2, "name": "bar", "type": "orange"},
			{"_id": 3, "name": "baz", "type": "banana", "ripe": true},
		},
		[]Props{
			{"_out": 1, "_in": 2, "_label": "fruitier"},
			{"_out": 3, "_in": 1, "_label": "riper", "weight": 2},
		},
	)
	require.NoError(t, err)
	return g
}

func TestAddVertex(t *testing.T) {
	t.Run("invalid id is rejected", func(t *testing.T) {
		g := New()
		for _, raw := range []any{true, false, math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, err := g.AddVertex(Props{"_id": raw, "name": "x"})
			assert.ErrorIs(t, err, ErrInvalidIdentifier, "%v", raw)
		}
		assert.Equal(t, 0, g.Len())

		id, err := g.AddVertex(Props{"name": "auto"})
		require.NoError(t, err)
		assert.Equal(t, ID("1"), id)
	})

	t.Run("blank id is auto-assigned", func(t *testing.T) {
		g := New()
		for i, raw := range []any{nil, "", ID("")} {
			id, err := g.AddVertex(Props{"_id": raw})
			require.NoError(t, err)
			assert.Equal(t, ID(strconv.Itoa(i+1)), id)
		}
	})

	t.Run("explicit id", func(t *testing.T) {
		g := New()
		id, err := g.AddVertex(Props{"_id": "thor", "realm": "asgard"})
		require.NoError(t, err)
		assert.Equal(t, ID("thor"), id)

		v, ok := g.VertexByID("thor")
		require.True(t, ok)
		assert.Equal(t, Props{"realm": "asgard"}, v.Props)
		assert.Equal(t, Props{"_id": "thor", "realm": "asgard"}, v.Record())
	})

	t.Run("integer ids normalise", func(t *testing.T) {
		g := New()
		_, err := g.AddVertex(Props{"_id": 7})
		require.NoError(t, err)

		for _, raw := range []any{7, int64(7), 7.0, "7", ID("7")} {
			_, ok := g.VertexByID(raw)
			assert.True(t, ok, "lookup by %T", raw)
		}
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		g := New()
		_, err := g.AddVertex(Props{"_id": 1, "name": "first"})
		require.NoError(t, err)

		_, err = g.AddVertex(Props{"_id": "1", "name": "second"})
		assert.ErrorIs(t, err, ErrDuplicateIdentifier)
		assert.Equal(t, 1, g.Len())

		v, _ := g.VertexByID(1)
		assert.Equal(t, "first", v.Props["name"])
	})

	t.Run("auto ids never reused", func(t *testing.T) {
		g := New()
		// "2" is taken before auto-assignment reaches it
		_, err := g.AddVertex(Props{"_id": 2})
		require.NoError(t, err)

		seen := map[ID]bool{"2": true}
		for i := 0; i < 5; i++ {
			id, err := g.AddVertex(Props{"n": i})
			require.NoError(t, err)
			assert.False(t, seen[id], "id %s reused", id)
			seen[id] = true
		}
		assert.Equal(t, 6, g.Len())
	})

	t.Run("record is copied", func(t *testing.T) {
		g := New()
		rec := Props{"name": "foo"}
		id, err := g.AddVertex(rec)
		require.NoError(t, err)
		rec["name"] = "changed"

		v, _ := g.VertexByID(id)
		assert.Equal(t, "foo", v.Props["name"])
	})
}

func TestAddEdge(t *testing.T) {
	t.Run("adjacency", func(t *testing.T) {
		g := fruitGraph(t)
		assert.Equal(t, 2, g.EdgeLen())

		// each edge sits in exactly one out list and one in list
		outCount := map[EdgeHandle]int{}
		inCount := map[EdgeHandle]int{}
		for _, v := range g.Vertices() {
			for _, e := range g.OutEdges(v.Handle()) {
				outCount[e]++
				assert.Equal(t, v.Handle(), g.Edge(e).Out())
			}
			for _, e := range g.InEdges(v.Handle()) {
				inCount[e]++
				assert.Equal(t, v.Handle(), g.Edge(e).In())
			}
		}
		for _, e := range g.Edges() {
			assert.Equal(t, 1, outCount[e.Handle()])
			assert.Equal(t, 1, inCount[e.Handle()])
		}
	})

	t.Run("dangling endpoints", func(t *testing.T) {
		tests := []struct {
			name string
			rec  Props
			side string
		}{
			{"missing in", Props{"_out": 1, "_in": 99}, "in"},
			{"missing out", Props{"_out": 99, "_in": 1}, "out"},
			{"both missing", Props{"_out": 98, "_in": 99}, "in"},
			{"absent in", Props{"_out": 1}, "in"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				g := fruitGraph(t)
				err := g.AddEdge(tt.rec)
				require.ErrorIs(t, err, ErrDanglingEndpoint)

				var endpoint *EndpointError
				require.True(t, errors.As(err, &endpoint))
				assert.Equal(t, tt.side, endpoint.Side)
				assert.Equal(t, 2, g.EdgeLen())
			})
		}
	})

	t.Run("label and props", func(t *testing.T) {
		g := fruitGraph(t)
		e := g.Edge(1)
		assert.Equal(t, "riper", e.Label)
		assert.Equal(t, Props{"weight": 2}, e.Props)

		label, ok := e.Get("_label")
		assert.True(t, ok)
		assert.Equal(t, "riper", label)
	})
}

func TestBuildContinuesPastFailures(t *testing.T) {
	g, err := Build(
		[]Props{{"_id": 1}, {"_id": 1}, {"_id": 2}},
		[]Props{{"_out": 1, "_in": 3}, {"_out": 1, "_in": 2}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	assert.ErrorIs(t, err, ErrDanglingEndpoint)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.EdgeLen())
}

func TestEvents(t *testing.T) {
	var events []Event
	g := New(WithEventEmitter(func(e Event) { events = append(events, e) }))

	_, err := g.AddVertex(Props{"_id": "a"})
	require.NoError(t, err)
	_, err = g.AddVertex(Props{"_id": "b"})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(Props{"_out": "a", "_in": "b", "_label": "likes"}))
	_, err = g.AddVertex(Props{"_id": "a"})
	require.Error(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, EventVertexAdded, events[0].Type)
	assert.Equal(t, ID("a"), events[0].VertexID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, EventEdgeAdded, events[2].Type)
	assert.Equal(t, ID("a"), events[2].EdgeOut)
	assert.Equal(t, ID("b"), events[2].EdgeIn)
	assert.Equal(t, "likes", events[2].EdgeLabel)
}

func TestRecords(t *testing.T) {
	g := fruitGraph(t)
	vertices, edges := g.Records()

	require.Len(t, vertices, 3)
	assert.Equal(t, Props{"_id": "1", "name": "foo", "type": "banana"}, vertices[0])

	require.Len(t, edges, 2)
	assert.Equal(t, Props{"_out": "1", "_in": "2", "_label": "fruitier"}, edges[0])
	assert.Equal(t, Props{"_out": "3", "_in": "1", "_label": "riper", "weight": 2}, edges[1])

	rebuilt, err := Build(vertices, edges)
	require.NoError(t, err)
	v2, e2 := rebuilt.Records()
	assert.Equal(t, vertices, v2)
	assert.Equal(t, edges, e2)
}
