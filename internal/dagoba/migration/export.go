package migration

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Archive entry names
const (
	manifestEntry = "manifest.json"
	verticesEntry = "V.json"
	edgesEntry    = "E.json"
)

// Export renders g as a document
func Export(g *graph.Graph) Document {
	v, e := g.Records()
	return Document{V: v, E: e}
}

// Exporter handles graph export
type Exporter struct {
	graph  *graph.Graph
	writer io.Writer
	format Format
	source string
}

// NewExporter creates a new exporter
func NewExporter(g *graph.Graph, w io.Writer, format Format) *Exporter {
	return &Exporter{
		graph:  g,
		writer: w,
		format: format,
	}
}

// WithSource records where the graph came from in archive manifests
func (e *Exporter) WithSource(source string) *Exporter {
	e.source = source
	return e
}

// Export writes the entire graph
func (e *Exporter) Export() error {
	doc := Export(e.graph)

	switch e.format {
	case JSON:
		enc := json.NewEncoder(e.writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil

	case YAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if _, err := e.writer.Write(data); err != nil {
			return fmt.Errorf("writing yaml: %w", err)
		}
		return nil

	case Archive:
		return e.exportArchive(doc)
	}
	return fmt.Errorf("unknown format: %s", e.format)
}

func (e *Exporter) exportArchive(doc Document) error {
	tw := tar.NewWriter(e.writer)

	manifest := Manifest{
		Version:  Version,
		Created:  time.Now(),
		Vertices: len(doc.V),
		Edges:    len(doc.E),
		Source:   e.source,
	}

	entries := []struct {
		name  string
		value any
	}{
		{manifestEntry, manifest},
		{verticesEntry, doc.V},
		{edgesEntry, doc.E},
	}
	for _, entry := range entries {
		if err := writeEntry(tw, entry.name, entry.value); err != nil {
			return fmt.Errorf("writing %s: %w", entry.name, err)
		}
	}

	return tw.Close()
}

func writeEntry(tw *tar.Writer, name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}

	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing data: %w", err)
	}
	return nil
}

// Write exports g to w in the given format
func Write(w io.Writer, g *graph.Graph, format Format) error {
	return NewExporter(g, w, format).Export()
}

// WriteFile exports g to the file at path, picking the format from its
// extension
func WriteFile(path string, g *graph.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, g, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
