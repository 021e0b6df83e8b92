package api

import (
	"net/http"
	"strings"

	"github.com/studyvoice/advisor/internal/advisor"
	"github.com/studyvoice/advisor/internal/extract"
	"github.com/studyvoice/advisor/internal/recommend"
)

// listCourses handles GET /api/courses.
func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	courses := s.deps.Courses.List(r.Context())
	if courses == nil {
		courses = []recommend.Course{}
	}
	respondJSON(w, http.StatusOK, courses)
}

// addCourse handles POST /api/courses. A duplicate name is not an error:
// the existing record comes back with a 200 instead of a 201.
func (s *Server) addCourse(w http.ResponseWriter, r *http.Request) {
	var c recommend.Course
	if err := decodeJSON(w, r, &c); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		respondError(w, http.StatusBadRequest, "course name is required")
		return
	}

	stored, created := s.deps.Courses.Add(r.Context(), c)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, stored)
}

// updateCourse handles PUT /api/courses/{id}.
func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
	var c recommend.Course
	if err := decodeJSON(w, r, &c); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = urlParam(r, "id")

	if !s.deps.Courses.Update(r.Context(), c) {
		respondError(w, http.StatusNotFound, "course not found")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// removeCourse handles DELETE /api/courses/{id}.
func (s *Server) removeCourse(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Courses.Remove(r.Context(), urlParam(r, "id")) {
		respondError(w, http.StatusNotFound, "course not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearCourses handles DELETE /api/courses.
func (s *Server) clearCourses(w http.ResponseWriter, r *http.Request) {
	s.deps.Courses.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// analyzeRequest is the POST /api/analyze body.
type analyzeRequest struct {
	Messages []advisor.Message `json:"messages"`
}

// analyze handles POST /api/analyze. Messages without any course signal
// skip the full pipeline via [extract.QuickDetect] and return an empty
// result immediately.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !extract.QuickDetect(assistantText(req.Messages)) {
		respondJSON(w, http.StatusOK, advisor.Result{
			BookedCourses:      []recommend.Course{},
			AssignedBySemester: map[string][]recommend.Course{},
		})
		return
	}

	respondJSON(w, http.StatusOK, s.deps.Analyzer.AnalyzeTranscript(r.Context(), req.Messages))
}

// assistantText joins the assistant turns for the quick-detect check. Only
// those turns feed the pipeline, so user turns must not trigger it.
func assistantText(messages []advisor.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Role != advisor.RoleAssistant {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
