package snapshot

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Neo4jConfig holds Neo4j connection configuration
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jRepository stores snapshots as (:Vertex)-[:EDGE]->(:Vertex)
// patterns. Property bags are kept as JSON strings since Neo4j does not
// support nested maps.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j creates a new Neo4j repository
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	// Verify connectivity
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jRepository{driver: driver, database: database}, nil
}

// Close closes the Neo4j connection
func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Save replaces the stored graph with g in one transaction
func (r *Neo4jRepository) Save(ctx context.Context, g *graph.Graph) error {
	vertices, edges, err := encode(g)
	if err != nil {
		return err
	}

	vparams := make([]map[string]any, 0, len(vertices))
	for i, v := range vertices {
		vparams = append(vparams, map[string]any{
			"seq":    i,
			"id":     v.ID,
			"record": string(v.Data),
		})
	}
	eparams := make([]map[string]any, 0, len(edges))
	for i, e := range edges {
		eparams = append(eparams, map[string]any{
			"seq":    i,
			"out":    e.Out,
			"in":     e.In,
			"label":  e.Label,
			"record": string(e.Data),
		})
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MATCH (n:Vertex) DETACH DELETE n`, nil); err != nil {
			return nil, fmt.Errorf("clearing snapshot: %w", err)
		}

		query := `
			UNWIND $vertices AS v
			CREATE (:Vertex {id: v.id, seq: v.seq, record: v.record})
		`
		if _, err := tx.Run(ctx, query, map[string]any{"vertices": vparams}); err != nil {
			return nil, fmt.Errorf("creating vertices: %w", err)
		}

		query = `
			UNWIND $edges AS e
			MATCH (source:Vertex {id: e.out})
			MATCH (target:Vertex {id: e.in})
			CREATE (source)-[:EDGE {seq: e.seq, label: e.label, record: e.record}]->(target)
		`
		if _, err := tx.Run(ctx, query, map[string]any{"edges": eparams}); err != nil {
			return nil, fmt.Errorf("creating edges: %w", err)
		}
		return nil, nil
	})

	return err
}

// Load rebuilds the graph from the stored vertices and edges
func (r *Neo4jRepository) Load(ctx context.Context, opts ...graph.Option) (*graph.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		vertices, err := readRecords(ctx, tx, `MATCH (n:Vertex) RETURN n.record AS record ORDER BY n.seq`)
		if err != nil {
			return nil, fmt.Errorf("reading vertices: %w", err)
		}
		edges, err := readRecords(ctx, tx, `MATCH (:Vertex)-[r:EDGE]->(:Vertex) RETURN r.record AS record ORDER BY r.seq`)
		if err != nil {
			return nil, fmt.Errorf("reading edges: %w", err)
		}
		return [2][][]byte{vertices, edges}, nil
	})
	if err != nil {
		return nil, err
	}

	blobs := result.([2][][]byte)
	if len(blobs[0]) == 0 {
		return nil, ErrNoSnapshot
	}
	return decode(blobs[0], blobs[1], opts...)
}

func readRecords(ctx context.Context, tx neo4j.ManagedTransaction, query string) ([][]byte, error) {
	result, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	var blobs [][]byte
	for result.Next(ctx) {
		value, _ := result.Record().Get("record")
		rec, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected record value %T", value)
		}
		blobs = append(blobs, []byte(rec))
	}
	return blobs, result.Err()
}
