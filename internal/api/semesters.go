package api

import (
	"net/http"

	"github.com/studyvoice/advisor/internal/planner"
)

// semesterView is the JSON shape of one plan bucket, extending the planner
// record with the credit total for the progress display.
type semesterView struct {
	planner.Semester
	TotalECTS float64 `json:"totalEcts"`
}

func newSemesterView(sem planner.Semester) semesterView {
	return semesterView{Semester: sem, TotalECTS: sem.TotalECTS()}
}

// semesterRequest is the body for creating or editing a bucket.
type semesterRequest struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	ECTSGoal float64 `json:"ectsGoal"`
}

// listSemesters handles GET /api/semesters.
func (s *Server) listSemesters(w http.ResponseWriter, r *http.Request) {
	plan := s.deps.Planner.Snapshot(r.Context())
	out := make([]semesterView, len(plan))
	for i, sem := range plan {
		out[i] = newSemesterView(sem)
	}
	respondJSON(w, http.StatusOK, out)
}

// addSemester handles POST /api/semesters.
func (s *Server) addSemester(w http.ResponseWriter, r *http.Request) {
	var req semesterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sem, ok := s.deps.Planner.AddSemester(r.Context(), req.Name, req.Color, req.ECTSGoal)
	if !ok {
		respondError(w, http.StatusBadRequest, "semester name is required")
		return
	}
	respondJSON(w, http.StatusCreated, newSemesterView(sem))
}

// updateSemester handles PUT /api/semesters/{id}. Zero body fields keep the
// current setting.
func (s *Server) updateSemester(w http.ResponseWriter, r *http.Request) {
	var req semesterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := urlParam(r, "id")

	if !s.deps.Planner.UpdateSemester(r.Context(), id, req.Name, req.Color, req.ECTSGoal) {
		respondError(w, http.StatusNotFound, "semester not found")
		return
	}

	for _, sem := range s.deps.Planner.Snapshot(r.Context()) {
		if sem.ID == id {
			respondJSON(w, http.StatusOK, newSemesterView(sem))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// removeSemester handles DELETE /api/semesters/{id}.
func (s *Server) removeSemester(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Planner.RemoveSemester(r.Context(), urlParam(r, "id")) {
		respondError(w, http.StatusNotFound, "semester not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// assignCourse handles POST /api/semesters/{id}/courses/{courseID}. The
// course must already exist in the recommendation store.
func (s *Server) assignCourse(w http.ResponseWriter, r *http.Request) {
	course, ok := s.deps.Courses.Get(r.Context(), urlParam(r, "courseID"))
	if !ok {
		respondError(w, http.StatusNotFound, "course not found")
		return
	}
	if !s.deps.Planner.AssignCourse(r.Context(), urlParam(r, "id"), course) {
		respondError(w, http.StatusNotFound, "semester not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// unassignCourse handles DELETE /api/semesters/{id}/courses/{courseID}.
func (s *Server) unassignCourse(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Planner.RemoveCourse(r.Context(), urlParam(r, "id"), urlParam(r, "courseID")) {
		respondError(w, http.StatusNotFound, "assignment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
