package api

import (
	"net/http"
	"strings"

	"github.com/studyvoice/advisor/internal/catalog"
)

// searchModules handles GET /api/modules?query=. An empty query returns the
// whole catalog; results are capped by the catalog client.
func (s *Server) searchModules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	modules := s.deps.Catalog.Search(r.Context(), query)
	if modules == nil {
		modules = []catalog.Module{}
	}
	respondJSON(w, http.StatusOK, modules)
}

// getModule handles GET /api/modules/{name}.
func (s *Server) getModule(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	m, ok := s.deps.Catalog.ByName(r.Context(), name)
	if !ok {
		respondError(w, http.StatusNotFound, "module not found")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// replaceModule handles PUT /api/modules/{name}. The path names the record;
// the body carries the replacement. Renaming is not supported.
func (s *Server) replaceModule(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")

	var m catalog.Module
	if err := decodeJSON(w, r, &m); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if m.Name == "" {
		m.Name = name
	}
	if !strings.EqualFold(m.Name, name) {
		respondError(w, http.StatusBadRequest, "module name cannot be changed")
		return
	}

	if !s.deps.Catalog.Replace(r.Context(), m) {
		respondError(w, http.StatusNotFound, "module not found")
		return
	}

	updated, _ := s.deps.Catalog.ByName(r.Context(), name)
	respondJSON(w, http.StatusOK, updated)
}
