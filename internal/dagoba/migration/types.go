package migration

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Version is the current archive format version
const Version = 1

// Format selects the serialization of a graph document
type Format string

const (
	JSON    Format = "json"
	YAML    Format = "yaml"
	Archive Format = "tar"
)

// ParseFormat maps a format name to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "tar", "archive":
		return Archive, nil
	}
	return "", fmt.Errorf("unknown format: %s", name)
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	case ".tar":
		return Archive
	default:
		return JSON
	}
}

// Conflict resolution strategies for identifiers already in the target graph
const (
	Fail   = ""       // Report the duplicate and drop the vertex
	Skip   = "skip"   // Skip importing conflicting vertices
	Rename = "rename" // Rename imported vertices to avoid conflicts
)

// Document is the serialized form of a graph: vertex records and edge
// records with endpoints reduced to bare identifiers
type Document struct {
	V []graph.Props `json:"V" yaml:"V"`
	E []graph.Props `json:"E" yaml:"E"`
}

// Manifest contains metadata about an archive export
type Manifest struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Vertices int       `json:"vertices"`
	Edges    int       `json:"edges"`
	Source   string    `json:"source,omitempty"`
}

// ImportOptions configures import behavior
type ImportOptions struct {
	Prefix     string // Prefix to add to imported vertex IDs
	OnConflict string // How to handle ID conflicts (fail/skip/rename)
}

// Validate checks the options before any record is read
func (o ImportOptions) Validate() error {
	switch o.OnConflict {
	case Fail, Skip, Rename:
		return nil
	}
	return fmt.Errorf("%w: invalid conflict resolution strategy: %s", ErrInvalidOptions, o.OnConflict)
}
