package query

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

func quietEngine(opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return NewEngine(opts...)
}

func fruitGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(
		[]graph.Props{
			{"_id": 1, "name": "foo", "type": "banana"},
			{"_id": 2, "name": "bar", "type": "orange"},
		},
		[]graph.Props{
			{"_out": 1, "_in": 2, "_label": "fruitier"},
		},
	)
	require.NoError(t, err)
	return g
}

// familyGraph: Fred's son is Bob; Bob's children are Tom, Dick, Harry and
// Lucy, who are all siblings of each other.
func familyGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(
		[]graph.Props{
			{"_id": 1, "name": "Fred"},
			{"_id": 2, "name": "Bob"},
			{"_id": 3, "name": "Tom"},
			{"_id": 4, "name": "Dick"},
			{"_id": 5, "name": "Harry"},
			{"_id": 6, "name": "Lucy"},
		},
		[]graph.Props{
			{"_out": 1, "_in": 2, "_label": "son"},
			{"_out": 2, "_in": 3, "_label": "son"},
			{"_out": 2, "_in": 4, "_label": "son"},
			{"_out": 2, "_in": 5, "_label": "son"},
			{"_out": 2, "_in": 6, "_label": "daughter"},
			{"_out": 3, "_in": 4, "_label": "brother"},
			{"_out": 4, "_in": 5, "_label": "brother"},
			{"_out": 5, "_in": 3, "_label": "brother"},
			{"_out": 3, "_in": 5, "_label": "brother"},
			{"_out": 4, "_in": 3, "_label": "brother"},
			{"_out": 5, "_in": 4, "_label": "brother"},
			{"_out": 3, "_in": 6, "_label": "sister"},
			{"_out": 4, "_in": 6, "_label": "sister"},
			{"_out": 5, "_in": 6, "_label": "sister"},
			{"_out": 6, "_in": 3, "_label": "brother"},
			{"_out": 6, "_in": 4, "_label": "brother"},
			{"_out": 6, "_in": 5, "_label": "brother"},
		},
	)
	require.NoError(t, err)
	require.Equal(t, 6, g.Len())
	require.Equal(t, 17, g.EdgeLen())
	return g
}

var aesir = []string{
	"Ymir", "Þrúðgelmir", "Bergelmir", "Búri", "Borr", "Bölþorn", "Bestla", "Odin", "Vili", "Ve",
	"Hœnir", "Ægir", "Rán", "Fjörgynn", "Frigg", "Heimdallr", "Nörfi", "Jörð", "Nepr", "Gríðr",
	"Rindr", "Dellingr", "Nótt", "Nanna", "Baldr", "Höðr", "Hermóðr", "Bragi", "Iðunn", "Víðarr",
	"Váli", "Skjöldr", "Gefjon", "Ullr", "Sif", "Nine sisters", "Thor", "Járnsaxa", "Týr", "Dagr",
	"Forseti", "Scyldings", "Móði", "Þrúðr", "Magni",
}

var vanir = []string{
	"Alvaldi", "Þjazi", "Iði", "Gangr", "Fárbauti", "Nál", "Gymir", "Aurboða", "Njörðr", "Skaði",
	"Sigyn", "Loki", "Angrboða", "Býleistr", "Helblindi", "Beli", "Gerðr", "Freyr", "Freyja",
	"Óðr", "Vali", "Narfi", "Hyrrokkin", "Fenrir", "Jörmungandr", "Hel", "Fjölnir",
	"Hnoss", "Gersemi", "Hati Hróðvitnisson", "Sköll", "Mánagarmr",
}

// parentage pairs are (parent, child). Edges point from child to parent.
var parentage = [][2]string{
	{"Ymir", "Þrúðgelmir"},
	{"Þrúðgelmir", "Bergelmir"},
	{"Bergelmir", "Búri"},
	{"Bergelmir", "Bölþorn"},
	{"Búri", "Borr"},
	{"Bölþorn", "Bestla"},
	{"Bestla", "Odin"},
	{"Bestla", "Vili"},
	{"Bestla", "Ve"},
	{"Bestla", "Hœnir"},
	{"Ægir", "Nine sisters"},
	{"Rán", "Nine sisters"},
	{"Nine sisters", "Heimdallr"},
	{"Fjörgynn", "Frigg"},
	{"Frigg", "Baldr"},
	{"Odin", "Baldr"},
	{"Nepr", "Nanna"},
	{"Nanna", "Forseti"},
	{"Baldr", "Forseti"},
	{"Jörð", "Thor"},
	{"Odin", "Thor"},
	{"Thor", "Móði"},
	{"Thor", "Þrúðr"},
	{"Sif", "Móði"},
	{"Sif", "Þrúðr"},
	{"Thor", "Magni"},
	{"Járnsaxa", "Magni"},
}

func asgardGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(graph.WithLogger(slog.New(slog.DiscardHandler)))
	for _, name := range aesir {
		_, err := g.AddVertex(graph.Props{"_id": name, "species": "Aesir"})
		require.NoError(t, err)
	}
	for _, name := range vanir {
		_, err := g.AddVertex(graph.Props{"_id": name, "species": "Vanir"})
		require.NoError(t, err)
	}
	for _, pair := range parentage {
		require.NoError(t, g.AddEdge(graph.Props{"_in": pair[0], "_out": pair[1], "_label": "parent"}))
	}
	require.Equal(t, 77, g.Len())
	require.Equal(t, 27, g.EdgeLen())
	return g
}

// names reduces vertex results to their "name" property, or their id when
// they have none. Other results pass through.
func names(results []any) []any {
	out := make([]any, len(results))
	for i, r := range results {
		v, ok := r.(*graph.Vertex)
		if !ok {
			out[i] = r
			continue
		}
		if name, ok := v.Props["name"]; ok {
			out[i] = name
		} else {
			out[i] = string(v.ID)
		}
	}
	return out
}
