// Package snapshot persists whole graphs to durable storage. A snapshot
// is the graph's vertex and edge records in insertion order; saving
// replaces the previous snapshot and loading rebuilds the graph through
// the normal construction path.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dxnn/dagoba/internal/dagoba/config"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("snapshot: no snapshot saved")

// Repository defines the interface for snapshot storage backends.
// SQLite, Badger and Neo4j implement this interface.
type Repository interface {
	Save(ctx context.Context, g *graph.Graph) error
	Load(ctx context.Context, opts ...graph.Option) (*graph.Graph, error)
	Close(ctx context.Context) error
}

// Open creates the repository selected by cfg. It returns nil and no
// error when snapshots are disabled.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Repository, error) {
	var (
		repo Repository
		err  error
	)
	switch cfg.Storage.Backend {
	case "", config.StorageNone:
		return nil, nil
	case config.StorageSQLite:
		repo, err = NewSQLite(ctx, cfg.Storage.DSN)
	case config.StorageBadger:
		bc := DefaultBadgerConfig()
		bc.Path = cfg.Storage.DSN
		bc.Logger = logger
		repo, err = NewBadger(bc)
	case config.StorageNeo4j:
		repo, err = NewNeo4j(ctx, Neo4jConfig{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// record is one stored vertex or edge: its identifying columns plus the
// full JSON record used to rebuild it.
type record struct {
	ID    string // vertex id, empty for edges
	Out   string // edge endpoints, empty for vertices
	In    string
	Label string
	Data  []byte
}

func encode(g *graph.Graph) (vertices, edges []record, err error) {
	vrecs, erecs := g.Records()

	vertices = make([]record, 0, len(vrecs))
	for _, rec := range vrecs {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling vertex %v: %w", rec[graph.KeyID], err)
		}
		id, _ := rec[graph.KeyID].(string)
		vertices = append(vertices, record{ID: id, Data: data})
	}

	edges = make([]record, 0, len(erecs))
	for _, rec := range erecs {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling edge: %w", err)
		}
		out, _ := rec[graph.KeyOut].(string)
		in, _ := rec[graph.KeyIn].(string)
		label, _ := rec[graph.KeyLabel].(string)
		edges = append(edges, record{Out: out, In: in, Label: label, Data: data})
	}
	return vertices, edges, nil
}

func decode(vertices, edges [][]byte, opts ...graph.Option) (*graph.Graph, error) {
	vrecs, err := unmarshalRecords(vertices)
	if err != nil {
		return nil, fmt.Errorf("decoding vertices: %w", err)
	}
	erecs, err := unmarshalRecords(edges)
	if err != nil {
		return nil, fmt.Errorf("decoding edges: %w", err)
	}
	return graph.Build(vrecs, erecs, opts...)
}

func unmarshalRecords(blobs [][]byte) ([]graph.Props, error) {
	recs := make([]graph.Props, 0, len(blobs))
	for _, data := range blobs {
		var rec graph.Props
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
