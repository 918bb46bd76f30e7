package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Key prefixes. Sequence numbers are zero padded so key order is
// insertion order.
var (
	vertexPrefix = []byte("v/")
	edgePrefix   = []byte("e/")
	savedKey     = []byte("saved")
)

// BadgerConfig holds configuration for a BadgerDB snapshot store.
type BadgerConfig struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns defaults for production use.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{SyncWrites: true}
}

// InMemoryBadgerConfig returns configuration for tests.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerRepository implements Repository using BadgerDB
type BadgerRepository struct {
	db *badger.DB
}

// NewBadger opens a BadgerDB snapshot store
func NewBadger(cfg BadgerConfig) (*BadgerRepository, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerRepository{db: db}, nil
}

// Close closes the database
func (r *BadgerRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

// Save replaces the stored snapshot with g
func (r *BadgerRepository) Save(ctx context.Context, g *graph.Graph) error {
	vertices, edges, err := encode(g)
	if err != nil {
		return err
	}

	if err := r.db.DropPrefix(vertexPrefix, edgePrefix); err != nil {
		return fmt.Errorf("dropping previous snapshot: %w", err)
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()

	for i, v := range vertices {
		if err := wb.Set(seqKey(vertexPrefix, i), v.Data); err != nil {
			return fmt.Errorf("writing vertex %s: %w", v.ID, err)
		}
	}
	for i, e := range edges {
		if err := wb.Set(seqKey(edgePrefix, i), e.Data); err != nil {
			return fmt.Errorf("writing edge %s->%s: %w", e.Out, e.In, err)
		}
	}

	if err := wb.Set(savedKey, []byte(time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
		return fmt.Errorf("writing snapshot marker: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	return nil
}

// Load rebuilds the graph from the stored snapshot
func (r *BadgerRepository) Load(ctx context.Context, opts ...graph.Option) (*graph.Graph, error) {
	var vertices, edges [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(savedKey); err != nil {
			return err
		}
		var err error
		if vertices, err = scan(txn, vertexPrefix); err != nil {
			return err
		}
		edges, err = scan(txn, edgePrefix)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return decode(vertices, edges, opts...)
}

func scan(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var blobs [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, data)
	}
	return blobs, nil
}

func seqKey(prefix []byte, seq int) []byte {
	return fmt.Appendf(append([]byte(nil), prefix...), "%020d", seq)
}
