package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxnn/dagoba/internal/dagoba/config"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

func family(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(
		[]graph.Props{
			{"_id": 1, "name": "Fred", "tags": []any{"grandfather"}},
			{"_id": 2, "name": "Bob"},
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

// testRepository runs the shared save/load contract against repo
func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	t.Run("load before save", func(t *testing.T) {
		_, err := repo.Load(ctx)
		assert.ErrorIs(t, err, ErrNoSnapshot)
	})

	t.Run("round trip", func(t *testing.T) {
		g := family(t)
		require.NoError(t, repo.Save(ctx, g))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)

		wantV, wantE := g.Records()
		gotV, gotE := loaded.Records()
		require.Len(t, gotV, len(wantV))
		require.Len(t, gotE, len(wantE))
		for i := range wantV {
			assert.Equal(t, wantV[i]["_id"], gotV[i]["_id"])
			assert.Equal(t, wantV[i]["name"], gotV[i]["name"])
		}
		for i := range wantE {
			assert.Equal(t, wantE[i]["_out"], gotE[i]["_out"])
			assert.Equal(t, wantE[i]["_in"], gotE[i]["_in"])
			assert.Equal(t, wantE[i]["_label"], gotE[i]["_label"])
		}

		lucy, ok := loaded.VertexByID("lucy")
		require.True(t, ok)
		pet, _ := lucy.Get("pet")
		assert.Equal(t, map[string]any{"kind": "cat"}, pet)
	})

	t.Run("save replaces", func(t *testing.T) {
		small, err := graph.Build([]graph.Props{{"_id": "only"}}, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, small))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Len())
		assert.Equal(t, 0, loaded.EdgeLen())
	})

	t.Run("empty graph", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, graph.New()))
		loaded, err := repo.Load(ctx)
		if err == nil {
			assert.Equal(t, 0, loaded.Len())
		} else {
			assert.ErrorIs(t, err, ErrNoSnapshot)
		}
	})
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "dagoba.db"))
	require.NoError(t, err)
	defer repo.Close(ctx)

	testRepository(t, repo)
}

func TestBadger(t *testing.T) {
	repo, err := NewBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer repo.Close(context.Background())

	testRepository(t, repo)

	t.Run("path required", func(t *testing.T) {
		_, err := NewBadger(BadgerConfig{})
		assert.Error(t, err)
	})
}

func TestNeo4jUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewNeo4j(ctx, Neo4jConfig{URI: "bolt://127.0.0.1:1", Username: "neo4j", Password: "x"})
	assert.Error(t, err)

	_, err = NewNeo4j(ctx, Neo4jConfig{URI: "ftp://example.com"})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		repo, err := Open(ctx, config.Default(), nil)
		require.NoError(t, err)
		assert.Nil(t, repo)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage = config.Storage{Backend: config.StorageSQLite, DSN: filepath.Join(t.TempDir(), "s.db")}
		repo, err := Open(ctx, cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &SQLiteRepository{}, repo)
		require.NoError(t, repo.Close(ctx))
	})

	t.Run("badger", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage = config.Storage{Backend: config.StorageBadger, DSN: filepath.Join(t.TempDir(), "b")}
		repo, err := Open(ctx, cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &BadgerRepository{}, repo)
		require.NoError(t, repo.Close(ctx))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Backend = "mongo"
		_, err := Open(ctx, cfg, nil)
		assert.Error(t, err)
	})
}
