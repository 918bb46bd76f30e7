package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dxnn/dagoba/internal/dagoba/dsl"
	"github.com/dxnn/dagoba/internal/dagoba/graph"
	"github.com/dxnn/dagoba/internal/dagoba/query"
)

// QueryRequest is the request body for running a query
type QueryRequest struct {
	Query    string `json:"query"`
	PageSize int    `json:"page_size,omitempty"` // cursors only
}

// QueryResponse carries one run's results
type QueryResponse struct {
	Query   string   `json:"query"`
	Results []any    `json:"results"`
	Count   int      `json:"count"`
	Errors  []string `json:"errors,omitempty"`
}

// CursorResponse describes an open cursor
type CursorResponse struct {
	ID      string    `json:"id"`
	Query   string    `json:"query"`
	Created time.Time `json:"created"`
}

// PageResponse is one page of a cursor. Done is set once a run comes
// back empty.
type PageResponse struct {
	QueryResponse
	Page int  `json:"page"`
	Done bool `json:"done"`
}

func decodeQuery(r *http.Request) (QueryRequest, error) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	if req.Query == "" {
		return req, errors.New("query is required")
	}
	return req, nil
}

// runQuery runs q under the read lock and renders its results
func (s *Server) runQuery(r *http.Request, q *query.Query) QueryResponse {
	s.mu.RLock()
	results := q.RunContext(r.Context())
	rendered := render(results)
	s.mu.RUnlock()

	errs := q.Errors()
	resp := QueryResponse{
		Query:   q.String(),
		Results: rendered,
		Count:   len(rendered),
	}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

// render replaces vertex results with their records
func render(results []any) []any {
	out := make([]any, len(results))
	for i, r := range results {
		if v, ok := r.(*graph.Vertex); ok {
			out[i] = v.Record()
		} else {
			out[i] = r
		}
	}
	return out
}

// Query handles POST /api/query
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := dsl.Compile(s.engine, s.Graph(), req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.runQuery(r, q))
}

// CreateCursor handles POST /api/cursors
// A take(page_size) step is appended unless the query already ends in take.
func (s *Server) CreateCursor(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := dsl.Compile(s.engine, s.Graph(), req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	steps := q.Steps()
	if steps[len(steps)-1].Name != "take" {
		size := req.PageSize
		if size <= 0 {
			size = s.pageSize
		}
		q.Take(size)
	}

	c := &cursor{
		id:      uuid.New().String(),
		query:   q,
		created: time.Now(),
	}
	if evicted := s.cursors.Put(c); evicted != "" {
		s.logger.Info("evicted cursor", slog.String("id", evicted))
	}

	writeJSON(w, http.StatusCreated, CursorResponse{
		ID:      c.id,
		Query:   q.String(),
		Created: c.created,
	})
}

// NextPage handles POST /api/cursors/{id}/next
func (s *Server) NextPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.cursors.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "cursor not found", http.StatusNotFound)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp := s.runQuery(r, c.query)
	c.pages++
	writeJSON(w, http.StatusOK, PageResponse{
		QueryResponse: resp,
		Page:          c.pages,
		Done:          resp.Count == 0,
	})
}

// DeleteCursor handles DELETE /api/cursors/{id}
func (s *Server) DeleteCursor(w http.ResponseWriter, r *http.Request) {
	if !s.cursors.Delete(chi.URLParam(r, "id")) {
		http.Error(w, "cursor not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
