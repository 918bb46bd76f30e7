// Package config loads dagoba's configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/dxnn/dagoba/internal/dagoba/logger"
)

// Storage backends for graph snapshots
const (
	StorageNone   = "none"
	StorageSQLite = "sqlite"
	StorageBadger = "badger"
	StorageNeo4j  = "neo4j"
)

// Config holds the dagoba configuration
type Config struct {
	Server  Server        `yaml:"server"`
	Storage Storage       `yaml:"storage"`
	Neo4j   Neo4j         `yaml:"neo4j"`
	Log     logger.Config `yaml:"log"`
	Query   Query         `yaml:"query"`
}

// Server configures the HTTP server
type Server struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     int    `yaml:"read_timeout"` // seconds
	WriteTimeout    int    `yaml:"write_timeout"`
	IdleTimeout     int    `yaml:"idle_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"`
}

// Storage selects the snapshot repository
type Storage struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"` // sqlite file or badger directory
}

// Neo4j holds connection settings for the neo4j backend
type Neo4j struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Query configures query execution
type Query struct {
	Graph      string `yaml:"graph"`       // graph document loaded at startup
	PageSize   int    `yaml:"page_size"`   // default take() for cursors
	MaxCursors int    `yaml:"max_cursors"` // resumable queries kept by the server
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 5,
		},
		Storage: Storage{
			Backend: StorageNone,
		},
		Neo4j: Neo4j{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "password",
			Database: "neo4j",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "text",
		},
		Query: Query{
			PageSize:   100,
			MaxCursors: 1024,
		},
	}
}

// Load reads the configuration at path on top of the defaults, then
// applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("DAGOBA_ADDR", c.Server.Addr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DAGOBA_ADDR") == "" {
		c.Server.Addr = ":" + port
	}
	c.Storage.Backend = getEnv("DAGOBA_STORAGE", c.Storage.Backend)
	c.Storage.DSN = getEnv("DAGOBA_DSN", c.Storage.DSN)
	c.Neo4j.URI = getEnv("NEO4J_URI", c.Neo4j.URI)
	c.Neo4j.Username = getEnv("NEO4J_USER", c.Neo4j.Username)
	c.Neo4j.Password = getEnv("NEO4J_PASSWORD", c.Neo4j.Password)
	c.Neo4j.Database = getEnv("NEO4J_DATABASE", c.Neo4j.Database)
	c.Log.Level = getEnv("DAGOBA_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DAGOBA_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("DAGOBA_LOG_FILE", c.Log.File)
	c.Query.Graph = getEnv("DAGOBA_GRAPH", c.Query.Graph)

	if v := os.Getenv("DAGOBA_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DAGOBA_PAGE_SIZE: %w", err)
		}
		c.Query.PageSize = n
	}
	return nil
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Storage.Backend {
	case "", StorageNone, StorageNeo4j:
	case StorageSQLite, StorageBadger:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for %s", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend: %s", c.Storage.Backend))
	}
	if c.Storage.Backend == StorageNeo4j && c.Neo4j.URI == "" {
		errs = append(errs, errors.New("neo4j.uri is required"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Query.PageSize < 1 {
		errs = append(errs, errors.New("query.page_size must be positive"))
	}
	if c.Query.MaxCursors < 1 {
		errs = append(errs, errors.New("query.max_cursors must be positive"))
	}
	return errors.Join(errs...)
}

// Timeout converts a seconds setting to a duration
func Timeout(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
