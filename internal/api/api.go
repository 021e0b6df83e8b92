// Package api exposes one advising session over HTTP: a JSON REST surface
// for the catalog, recommendations, semester plan, and bookmarks, a
// WebSocket change stream for the UI, and the operational endpoints
// (health probes, Prometheus scrape).
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studyvoice/advisor/internal/advisor"
	"github.com/studyvoice/advisor/internal/bookmark"
	"github.com/studyvoice/advisor/internal/catalog"
	"github.com/studyvoice/advisor/internal/health"
	"github.com/studyvoice/advisor/internal/observe"
	"github.com/studyvoice/advisor/internal/planner"
	"github.com/studyvoice/advisor/internal/recommend"
)

// maxBodyBytes caps request bodies. Transcripts are small; anything larger
// is a client bug.
const maxBodyBytes = 1 << 20

// Deps carries the collaborators the server routes requests to.
type Deps struct {
	Catalog   catalog.Client
	Courses   recommend.Store
	Planner   *planner.Planner
	Bookmarks *bookmark.MemStore
	Analyzer  *advisor.Analyzer
	Health    *health.Handler

	// Metrics defaults to [observe.DefaultMetrics] when nil.
	Metrics *observe.Metrics
}

// Server is the HTTP front of the advising session.
type Server struct {
	deps Deps
	hub  *hub
}

// New creates a [Server] and subscribes its event hub to the course store's
// change feed, so every mutation reaches connected WebSocket clients.
func New(d Deps) *Server {
	if d.Metrics == nil {
		d.Metrics = observe.DefaultMetrics()
	}
	s := &Server{deps: d, hub: newHub()}
	d.Courses.OnChange(s.hub.broadcast)
	return s
}

// Router builds the chi router with the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(s.deps.Metrics))

	r.Get("/healthz", s.deps.Health.Healthz)
	r.Get("/readyz", s.deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/modules", s.searchModules)
		r.Get("/modules/{name}", s.getModule)
		r.Put("/modules/{name}", s.replaceModule)

		r.Get("/courses", s.listCourses)
		r.Post("/courses", s.addCourse)
		r.Delete("/courses", s.clearCourses)
		r.Put("/courses/{id}", s.updateCourse)
		r.Delete("/courses/{id}", s.removeCourse)

		r.Post("/analyze", s.analyze)

		r.Get("/semesters", s.listSemesters)
		r.Post("/semesters", s.addSemester)
		r.Put("/semesters/{id}", s.updateSemester)
		r.Delete("/semesters/{id}", s.removeSemester)
		r.Post("/semesters/{id}/courses/{courseID}", s.assignCourse)
		r.Delete("/semesters/{id}/courses/{courseID}", s.unassignCourse)

		r.Get("/bookmarks", s.listBookmarks)
		r.Post("/bookmarks", s.addBookmark)
		r.Delete("/bookmarks/{id}", s.removeBookmark)

		r.Get("/events", s.events)
	})

	return r
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// respondJSON writes v with the given status. Encoding failures land in the
// access log via the wrapped writer's status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body.
func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads the request body into dst with a size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// urlParam returns the unescaped route parameter. Module names and the
// name-derived course IDs routinely carry spaces, so clients percent-encode
// them and chi hands them back still escaped.
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
