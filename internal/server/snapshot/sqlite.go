package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite repository
func NewSQLite(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// Pragmas are per connection
	db.SetMaxOpenConns(1)

	// Verify connectivity
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the SQLite connection
func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

// Save writes g as a new snapshot and drops the older ones
func (r *SQLiteRepository) Save(ctx context.Context, g *graph.Graph) error {
	vertices, edges, err := encode(g)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, vertices, edges) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), len(vertices), len(edges),
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	for i, v := range vertices {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO vertices (snapshot_id, seq, id, record) VALUES (?, ?, ?, ?)`,
			id, i, v.ID, string(v.Data),
		)
		if err != nil {
			return fmt.Errorf("inserting vertex %s: %w", v.ID, err)
		}
	}

	for i, e := range edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO edges (snapshot_id, seq, out_id, in_id, label, record) VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, e.Out, e.In, e.Label, string(e.Data),
		)
		if err != nil {
			return fmt.Errorf("inserting edge %s->%s: %w", e.Out, e.In, err)
		}
	}

	for _, stmt := range []string{
		`DELETE FROM vertices WHERE snapshot_id != ?`,
		`DELETE FROM edges WHERE snapshot_id != ?`,
		`DELETE FROM snapshots WHERE id != ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("pruning snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load rebuilds the graph from the latest snapshot
func (r *SQLiteRepository) Load(ctx context.Context, opts ...graph.Option) (*graph.Graph, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM snapshots ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("finding snapshot: %w", err)
	}

	vertices, err := r.records(ctx, `SELECT record FROM vertices WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("reading vertices: %w", err)
	}
	edges, err := r.records(ctx, `SELECT record FROM edges WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}

	return decode(vertices, edges, opts...)
}

func (r *SQLiteRepository) records(ctx context.Context, query string, id string) ([][]byte, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blobs [][]byte
	for rows.Next() {
		var rec string
		if err := rows.Scan(&rec); err != nil {
			return nil, err
		}
		blobs = append(blobs, []byte(rec))
	}
	return blobs, rows.Err()
}
