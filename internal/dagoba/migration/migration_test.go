package migration

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

func family(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(
		[]graph.Props{
			{"_id": 1, "name": "Fred", "age": 70, "tags": []any{"grandfather"}},
			{"_id": 2, "name": "Bob", "height": 1.85},
			{"_id": "lucy", "name": "Lucy", "pet": map[string]any{"kind": "cat"}},
		},
		[]graph.Props{
			{"_out": 1, "_in": 2, "_label": "son"},
			{"_out": 2, "_in": "lucy", "_label": "daughter", "since": 2001},
			{"_out": "lucy", "_in": 1},
		},
	)
	require.NoError(t, err)
	return g
}

func exportString(t *testing.T, g *graph.Graph, format Format) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g, format))
	return buf.String()
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{JSON, YAML, Archive} {
		t.Run(string(format), func(t *testing.T) {
			g := family(t)
			first := exportString(t, g, format)

			imported, err := Read(strings.NewReader(first), format)
			require.NoError(t, err)
			assert.Equal(t, g.Len(), imported.Len())
			assert.Equal(t, g.EdgeLen(), imported.EdgeLen())

			// compare through JSON so archive timestamps and numeric
			// types from the decoder do not matter
			assert.JSONEq(t, exportString(t, g, JSON), exportString(t, imported, JSON))

			lucy, ok := imported.VertexByID("lucy")
			require.True(t, ok)
			pet, _ := lucy.Get("pet")
			assert.Equal(t, map[string]any{"kind": "cat"}, pet)
		})
	}
}

func TestExportShape(t *testing.T) {
	doc := Export(family(t))
	require.Len(t, doc.V, 3)
	assert.Equal(t, "1", doc.V[0]["_id"])
	assert.Equal(t, graph.Props{"_out": "2", "_in": "lucy", "_label": "daughter", "since": 2001}, doc.E[1])
	assert.NotContains(t, doc.E[2], "_label")

	t.Run("empty graph", func(t *testing.T) {
		assert.JSONEq(t, `{"V": [], "E": []}`, exportString(t, graph.New(), JSON))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not an object", `[1, 2]`},
		{"missing vertices", `{"E": []}`},
		{"vertex not an object", `{"V": [1]}`},
		{"bad id", `{"V": [{"_id": true}]}`},
		{"edge without endpoint", `{"V": [{"_id": 1}], "E": [{"_out": 1}]}`},
		{"bad label", `{"V": [{"_id": 1}], "E": [{"_out": 1, "_in": 1, "_label": 3}]}`},
		{"malformed json", `{"V": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Read(strings.NewReader(tt.src), JSON)
			assert.ErrorIs(t, err, ErrInvalidDocument)
			assert.Nil(t, g)
		})
	}

	t.Run("edges are optional", func(t *testing.T) {
		g, err := Read(strings.NewReader(`{"V": [{"_id": 1}, {"name": "auto"}]}`), JSON)
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
	})
}

func TestImportRejectsRecords(t *testing.T) {
	src := `{"V": [{"_id": 1}, {"_id": 1}], "E": [{"_out": 1, "_in": 9}]}`
	g, err := Read(strings.NewReader(src), JSON)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrDuplicateIdentifier)
	assert.ErrorIs(t, err, graph.ErrDanglingEndpoint)

	// the graph keeps what could be added
	require.NotNil(t, g)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 0, g.EdgeLen())
}

func TestImportOptions(t *testing.T) {
	quiet := slog.New(slog.DiscardHandler)

	t.Run("prefix", func(t *testing.T) {
		src := exportString(t, family(t), JSON)
		g, err := NewImporter(strings.NewReader(src), JSON, ImportOptions{Prefix: "x:"}).Import()
		require.NoError(t, err)

		_, ok := g.VertexByID("x:1")
		assert.True(t, ok)
		_, ok = g.VertexByID("1")
		assert.False(t, ok)

		v, _ := g.VertexByID("x:2")
		in := g.InEdges(v.Handle())
		require.Len(t, in, 1)
		assert.Equal(t, graph.ID("x:1"), g.Vertex(g.Edge(in[0]).Out()).ID)
	})

	t.Run("skip", func(t *testing.T) {
		g := family(t)
		src := `{"V": [{"_id": 1, "name": "Other"}, {"_id": 9, "name": "New"}], "E": [{"_out": 9, "_in": 1}]}`
		err := NewImporter(strings.NewReader(src), JSON, ImportOptions{OnConflict: Skip}).
			WithLogger(quiet).
			ImportInto(g)
		require.NoError(t, err)

		assert.Equal(t, 4, g.Len())
		fred, _ := g.VertexByID(1)
		name, _ := fred.Get("name")
		assert.Equal(t, "Fred", name)
		assert.Len(t, g.InEdges(fred.Handle()), 2)
	})

	t.Run("rename", func(t *testing.T) {
		g := family(t)
		src := exportString(t, g, JSON)
		err := NewImporter(strings.NewReader(src), JSON, ImportOptions{OnConflict: Rename}).
			WithLogger(quiet).
			ImportInto(g)
		require.NoError(t, err)

		assert.Equal(t, 6, g.Len())
		assert.Equal(t, 6, g.EdgeLen())

		bob, ok := g.VertexByID("2-2")
		require.True(t, ok)
		out := g.OutEdges(bob.Handle())
		require.Len(t, out, 1)
		assert.Equal(t, graph.ID("lucy-2"), g.Vertex(g.Edge(out[0]).In()).ID)
	})

	t.Run("fail", func(t *testing.T) {
		g := family(t)
		err := NewImporter(strings.NewReader(`{"V": [{"_id": 1}]}`), JSON, ImportOptions{}).ImportInto(g)
		assert.ErrorIs(t, err, graph.ErrDuplicateIdentifier)
		assert.Equal(t, 3, g.Len())
	})

	t.Run("unknown strategy leaves the graph unchanged", func(t *testing.T) {
		g := family(t)
		before := g.Len()
		doc := `{"V": [{"_id": "a"}, {"_id": 1}, {"_id": "c"}], "E": [{"_out": "a", "_in": 1}]}`
		err := NewImporter(strings.NewReader(doc), JSON, ImportOptions{OnConflict: "merge"}).ImportInto(g)
		assert.ErrorIs(t, err, ErrInvalidOptions)
		assert.Equal(t, before, g.Len())
		_, ok := g.VertexByID("a")
		assert.False(t, ok)
	})

	t.Run("unknown strategy fails before decoding", func(t *testing.T) {
		_, err := NewImporter(strings.NewReader(`not json`), JSON, ImportOptions{OnConflict: "bogus"}).Decode()
		assert.ErrorIs(t, err, ErrInvalidOptions)
		assert.NotErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.tar")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, NewExporter(family(t), f, Archive).WithSource("test").Export())
	require.NoError(t, f.Close())

	assert.NoError(t, VerifyArchive(path))

	t.Run("not an archive", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.tar")
		require.NoError(t, os.WriteFile(bad, []byte(`{"V": []}`), 0644))
		assert.Error(t, VerifyArchive(bad))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, VerifyArchive(filepath.Join(dir, "nope.tar")))
	})
}

func TestFormats(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"json", JSON},
		{"", JSON},
		{"YML", YAML},
		{"archive", Archive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, YAML, FormatFromPath("graph.yaml"))
	assert.Equal(t, Archive, FormatFromPath("/tmp/g.TAR"))
	assert.Equal(t, JSON, FormatFromPath("graph"))
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"g.json", "g.yaml", "g.tar"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, family(t)))

			g, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, 3, g.Len())
			assert.Equal(t, 3, g.EdgeLen())
		})
	}

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
