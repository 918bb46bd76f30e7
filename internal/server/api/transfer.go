package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/migration"
	"github.com/dxnn/dagoba/internal/server/snapshot"
)

var contentTypes = map[migration.Format]string{
	migration.JSON:    "application/json",
	migration.YAML:    "application/yaml",
	migration.Archive: "application/x-tar",
}

// Export handles GET /api/export?format=json|yaml|tar
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	format, err := migration.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, span := tracer.Start(r.Context(), "api.export")
	defer span.End()
	span.SetAttributes(attribute.String("format", string(format)))

	var buf bytes.Buffer
	s.mu.RLock()
	err = migration.NewExporter(s.graph, &buf, format).WithSource("dagoba-server").Export()
	s.mu.RUnlock()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	if format == migration.Archive {
		w.Header().Set("Content-Disposition", `attachment; filename="graph.tar"`)
	}
	w.Write(buf.Bytes())
}

// ImportResponse reports the outcome of an import
type ImportResponse struct {
	Vertices int      `json:"vertices"`
	Edges    int      `json:"edges"`
	Rejected []string `json:"rejected,omitempty"`
}

// Import handles POST /api/import
// Query params: format, mode=replace|merge (default replace), prefix,
// on_conflict=skip|rename (merge only).
func (s *Server) Import(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	format, err := migration.ParseFormat(params.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode := params.Get("mode")
	if mode != "" && mode != "replace" && mode != "merge" {
		http.Error(w, "mode must be replace or merge", http.StatusBadRequest)
		return
	}

	_, span := tracer.Start(r.Context(), "api.import")
	defer span.End()
	span.SetAttributes(attribute.String("format", string(format)), attribute.String("mode", mode))

	importer := migration.NewImporter(r.Body, format, migration.ImportOptions{
		Prefix:     params.Get("prefix"),
		OnConflict: params.Get("on_conflict"),
	}).WithLogger(s.logger)

	// Nothing touches the served graph until the document decodes.
	doc, err := importer.Decode()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rejected error
	s.mu.Lock()
	if mode == "merge" {
		rejected = importer.Apply(s.graph, doc)
	} else {
		g := graph.New(graph.WithLogger(s.logger))
		rejected = importer.Apply(g, doc)
		s.setGraph(g)
	}
	resp := ImportResponse{Vertices: s.graph.Len(), Edges: s.graph.EdgeLen()}
	s.mu.Unlock()

	resp.Rejected = splitErrors(rejected)
	span.SetAttributes(attribute.Int("rejected", len(resp.Rejected)))
	writeJSON(w, http.StatusOK, resp)
}

func splitErrors(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, splitErrors(e)...)
		}
		return out
	}
	return []string{err.Error()}
}

// SaveSnapshot handles POST /api/snapshot
func (s *Server) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		http.Error(w, "snapshot storage not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, span := tracer.Start(r.Context(), "api.snapshot.save")
	defer span.End()

	s.mu.RLock()
	err := s.repo.Save(ctx, s.graph)
	vertices, edges := s.graph.Len(), s.graph.EdgeLen()
	s.mu.RUnlock()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"saved":    true,
		"vertices": vertices,
		"edges":    edges,
	})
}

// RestoreSnapshot handles POST /api/snapshot/restore
func (s *Server) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		http.Error(w, "snapshot storage not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, span := tracer.Start(r.Context(), "api.snapshot.restore")
	defer span.End()

	g, err := s.repo.Load(ctx, graph.WithLogger(s.logger))
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if g == nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(w, fmt.Sprintf("loading snapshot: %v", err), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.setGraph(g)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"restored": true,
		"vertices": g.Len(),
		"edges":    g.EdgeLen(),
		"rejected": splitErrors(err),
	})
}
