package migration

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
)

// Importer handles graph imports
type Importer struct {
	reader  io.Reader
	format  Format
	options ImportOptions
	logger  *slog.Logger
}

// NewImporter creates a new importer
func NewImporter(r io.Reader, format Format, opts ImportOptions) *Importer {
	return &Importer{
		reader:  r,
		format:  format,
		options: opts,
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger used to report skipped and renamed vertices
func (i *Importer) WithLogger(logger *slog.Logger) *Importer {
	i.logger = logger
	return i
}

// Import builds a new graph from the input. Decoding and validation
// failures return a nil graph; rejected records are reported in the
// returned error alongside a usable graph.
func (i *Importer) Import(opts ...graph.Option) (*graph.Graph, error) {
	doc, err := i.Decode()
	if err != nil {
		return nil, err
	}
	g := graph.New(opts...)
	return g, i.Apply(g, doc)
}

// ImportInto merges the input into an existing graph. A decoding or
// option error leaves g untouched.
func (i *Importer) ImportInto(g *graph.Graph) error {
	doc, err := i.Decode()
	if err != nil {
		return err
	}
	return i.Apply(g, doc)
}

// Decode checks the options, then reads and validates the input document
func (i *Importer) Decode() (Document, error) {
	if err := i.options.Validate(); err != nil {
		return Document{}, err
	}
	raw, err := i.decodeRaw()
	if err != nil {
		return Document{}, err
	}
	if err := Validate(raw); err != nil {
		return Document{}, err
	}
	return toDocument(raw), nil
}

func (i *Importer) decodeRaw() (any, error) {
	var raw any
	switch i.format {
	case JSON:
		dec := json.NewDecoder(i.reader)
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: decoding json: %v", ErrInvalidDocument, err)
		}

	case YAML:
		data, err := io.ReadAll(i.reader)
		if err != nil {
			return nil, fmt.Errorf("reading yaml: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: decoding yaml: %v", ErrInvalidDocument, err)
		}

	case Archive:
		return i.decodeArchive()

	default:
		return nil, fmt.Errorf("unknown format: %s", i.format)
	}
	return raw, nil
}

func (i *Importer) decodeArchive() (any, error) {
	// Read entire content into buffer so the manifest can be checked first
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, i.reader); err != nil {
		return nil, fmt.Errorf("buffering content: %w", err)
	}

	manifest, err := readManifest(tar.NewReader(bytes.NewReader(buf.Bytes())))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if manifest.Version > Version {
		return nil, fmt.Errorf("%w: archive version %d is newer than %d", ErrInvalidDocument, manifest.Version, Version)
	}

	raw := map[string]any{}
	tr := tar.NewReader(bytes.NewReader(buf.Bytes()))
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}

		var key string
		switch header.Name {
		case verticesEntry:
			key = "V"
		case edgesEntry:
			key = "E"
		default:
			continue
		}

		var records any
		if err := json.NewDecoder(tr).Decode(&records); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidDocument, header.Name, err)
		}
		raw[key] = records
	}
	return raw, nil
}

func readManifest(tr *tar.Reader) (*Manifest, error) {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: manifest not found", ErrInvalidDocument)
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if header.Name != manifestEntry {
			continue
		}

		var manifest Manifest
		if err := json.NewDecoder(tr).Decode(&manifest); err != nil {
			return nil, fmt.Errorf("%w: parsing manifest: %v", ErrInvalidDocument, err)
		}
		return &manifest, nil
	}
}

// toDocument converts a validated raw document
func toDocument(raw any) Document {
	var doc Document
	m, _ := raw.(map[string]any)
	doc.V = toRecords(m["V"])
	doc.E = toRecords(m["E"])
	return doc
}

func toRecords(v any) []graph.Props {
	list, _ := v.([]any)
	records := make([]graph.Props, 0, len(list))
	for _, item := range list {
		if obj, ok := graph.AsObject(item); ok {
			records = append(records, graph.Props(obj))
		}
	}
	return records
}

// Apply adds a decoded document's records to g, honouring the prefix and
// conflict options. Rejected records are joined into the error; the
// records that were accepted stay in g.
func (i *Importer) Apply(g *graph.Graph, doc Document) error {
	if err := i.options.Validate(); err != nil {
		return err
	}

	renamed := make(map[graph.ID]graph.ID)
	var errs []error

	for _, rec := range doc.V {
		rec = rec.Clone()
		if raw, ok := rec[graph.KeyID]; ok {
			id, ok := graph.ParseID(raw)
			if ok {
				newID := graph.ID(i.options.Prefix) + id
				if _, exists := g.VertexByID(newID); exists {
					switch i.options.OnConflict {
					case Skip:
						i.logger.Info("skipping existing vertex", slog.String("id", string(newID)))
						continue
					case Rename:
						renamedID := freeID(g, newID)
						i.logger.Info("renaming vertex", slog.String("from", string(newID)), slog.String("to", string(renamedID)))
						newID = renamedID
					}
				}
				if newID != id {
					renamed[id] = newID
				}
				rec[graph.KeyID] = string(newID)
			}
		}
		if _, err := g.AddVertex(rec); err != nil {
			errs = append(errs, err)
		}
	}

	for _, rec := range doc.E {
		rec = rec.Clone()
		for _, key := range []string{graph.KeyOut, graph.KeyIn} {
			id, ok := graph.ParseID(rec[key])
			if !ok {
				continue
			}
			if newID, ok := renamed[id]; ok {
				rec[key] = string(newID)
			} else if i.options.Prefix != "" {
				rec[key] = i.options.Prefix + string(id)
			}
		}
		if err := g.AddEdge(rec); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// freeID returns id with the lowest numeric suffix that is not taken in g
func freeID(g *graph.Graph, id graph.ID) graph.ID {
	for n := 2; ; n++ {
		candidate := id + graph.ID("-"+strconv.Itoa(n))
		if _, taken := g.VertexByID(candidate); !taken {
			return candidate
		}
	}
}

// Read imports a new graph from r
func Read(r io.Reader, format Format, opts ...graph.Option) (*graph.Graph, error) {
	return NewImporter(r, format, ImportOptions{}).Import(opts...)
}

// ReadFile imports a new graph from the file at path, picking the format
// from its extension
func ReadFile(path string, opts ...graph.Option) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening graph: %w", err)
	}
	defer f.Close()
	return Read(f, FormatFromPath(path), opts...)
}
