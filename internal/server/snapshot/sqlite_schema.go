package snapshot

// SQLite schema DDL constants

const schemaSnapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    vertices INTEGER NOT NULL,
    edges INTEGER NOT NULL
)`

const schemaVertices = `
CREATE TABLE IF NOT EXISTS vertices (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    record TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, seq)
)`

const schemaEdges = `
CREATE TABLE IF NOT EXISTS edges (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    out_id TEXT NOT NULL,
    in_id TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    record TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, seq)
)`

// Index definitions
const indexVerticesID = `CREATE INDEX IF NOT EXISTS idx_vertices_id ON vertices(id)`
const indexEdgesOut = `CREATE INDEX IF NOT EXISTS idx_edges_out ON edges(out_id)`
const indexEdgesIn = `CREATE INDEX IF NOT EXISTS idx_edges_in ON edges(in_id)`
const indexEdgesLabel = `CREATE INDEX IF NOT EXISTS idx_edges_label ON edges(label)`

// SQLite pragmas
const pragmaWAL = `PRAGMA journal_mode=WAL`
const pragmaFK = `PRAGMA foreign_keys=ON`
const pragmaBusyTimeout = `PRAGMA busy_timeout=5000`
const pragmaSynchronous = `PRAGMA synchronous=NORMAL`

// allSchemaStatements returns all schema DDL in order
func allSchemaStatements() []string {
	return []string{
		schemaSnapshots,
		schemaVertices,
		schemaEdges,
		indexVerticesID,
		indexEdgesOut,
		indexEdgesIn,
		indexEdgesLabel,
	}
}

// allPragmas returns all pragma statements
func allPragmas() []string {
	return []string{
		pragmaWAL,
		pragmaFK,
		pragmaBusyTimeout,
		pragmaSynchronous,
	}
}
