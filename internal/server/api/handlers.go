package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/server/subscriptions"
)

// CreateVertexResponse is the response for creating a vertex
type CreateVertexResponse struct {
	ID graph.ID `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeRecord reads a JSON object with numbers kept as json.Number so
// integer identifiers survive unchanged
func decodeRecord(r *http.Request) (graph.Props, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var rec graph.Props
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("record must be a JSON object")
	}
	return rec, nil
}

// CreateVertex handles POST /api/vertices
func (s *Server) CreateVertex(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	id, err := s.graph.AddVertex(rec)
	s.mu.Unlock()

	if errors.Is(err, graph.ErrDuplicateIdentifier) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, CreateVertexResponse{ID: id})
}

// CreateEdge handles POST /api/edges
func (s *Server) CreateEdge(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err = s.graph.AddEdge(rec)
	s.mu.Unlock()

	if errors.Is(err, graph.ErrDanglingEndpoint) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// GetVertex handles GET /api/vertices/{id}
func (s *Server) GetVertex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.graph.VertexByID(id)
	if !ok {
		http.Error(w, "vertex not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v.Record())
}

// GetEdges handles GET /api/vertices/{id}/edges
// Supports ?direction=out|in|both (default both) and ?label=...
func (s *Server) GetEdges(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	direction := r.URL.Query().Get("direction")
	label := r.URL.Query().Get("label")

	var filter any
	if label != "" {
		filter = label
	}
	ef, err := graph.ParseEdgeFilter(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.graph.VertexByID(id)
	if !ok {
		http.Error(w, "vertex not found: "+id, http.StatusNotFound)
		return
	}

	var handles []graph.EdgeHandle
	switch direction {
	case "out":
		handles = s.graph.OutEdges(v.Handle())
	case "in":
		handles = s.graph.InEdges(v.Handle())
	case "", "both":
		handles = append(append([]graph.EdgeHandle{}, s.graph.OutEdges(v.Handle())...), s.graph.InEdges(v.Handle())...)
	default:
		http.Error(w, "direction must be out, in or both", http.StatusBadRequest)
		return
	}

	handles = s.graph.FilterEdges(handles, ef)
	edges := make([]graph.Props, 0, len(handles))
	for _, h := range handles {
		edges = append(edges, s.graph.EdgeRecord(s.graph.Edge(h)))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"edges": edges,
		"count": len(edges),
	})
}

// ListVertices handles GET /api/vertices
// Supports ?limit=N&offset=N and property equality filters ?key=value
func (s *Server) ListVertices(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	want := map[string]any{}
	for key, values := range r.URL.Query() {
		if key == "limit" || key == "offset" || len(values) == 0 {
			continue
		}
		want[key] = values[0]
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.graph.FindVertices()
	if len(want) > 0 {
		matched = s.graph.SearchVertices(want)
	}

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)

	vertices := make([]graph.Props, 0, end-start)
	for _, h := range matched[start:end] {
		vertices = append(vertices, s.graph.Vertex(h).Record())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vertices": vertices,
		"count":    len(vertices),
		"total":    total,
	})
}

// Stats handles GET /api/stats
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	vertices, edges := s.graph.Len(), s.graph.EdgeLen()
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"vertices":  vertices,
		"edges":     edges,
		"operators": s.engine.Registry().Names(),
		"cursors":   s.cursors.Len(),
	})
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// parsePagination extracts limit and offset from query parameters
func parsePagination(r *http.Request) (limit int, offset int, err error) {
	limit = 100
	q := r.URL.Query()
	if l := q.Get("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil || limit < 0 {
			return 0, 0, errors.New("invalid limit parameter")
		}
	}
	if o := q.Get("offset"); o != "" {
		if offset, err = strconv.Atoi(o); err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset parameter")
		}
	}
	return limit, offset, nil
}

// ============== Subscription Handlers ==============

// CreateSubscription handles POST /api/subscriptions
func (s *Server) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	if s.subMgr == nil {
		http.Error(w, "subscriptions not enabled", http.StatusServiceUnavailable)
		return
	}

	var req subscriptions.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := s.subMgr.Register(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions handles GET /api/subscriptions
func (s *Server) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	if s.subMgr == nil {
		http.Error(w, "subscriptions not enabled", http.StatusServiceUnavailable)
		return
	}

	subs := s.subMgr.List()
	writeJSON(w, http.StatusOK, subscriptions.ListResponse{
		Subscriptions: subs,
		Count:         len(subs),
	})
}

// GetSubscription handles GET /api/subscriptions/{id}
func (s *Server) GetSubscription(w http.ResponseWriter, r *http.Request) {
	if s.subMgr == nil {
		http.Error(w, "subscriptions not enabled", http.StatusServiceUnavailable)
		return
	}

	sub, err := s.subMgr.Get(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// UpdateSubscription handles PATCH /api/subscriptions/{id}
func (s *Server) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	if s.subMgr == nil {
		http.Error(w, "subscriptions not enabled", http.StatusServiceUnavailable)
		return
	}

	var req subscriptions.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub, err := s.subMgr.Update(chi.URLParam(r, "id"), &req)
	if errors.Is(err, subscriptions.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// DeleteSubscription handles DELETE /api/subscriptions/{id}
func (s *Server) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if s.subMgr == nil {
		http.Error(w, "subscriptions not enabled", http.StatusServiceUnavailable)
		return
	}

	if err := s.subMgr.Unregister(chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
