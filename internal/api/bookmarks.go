package api

import (
	"net/http"
	"strings"

	"github.com/studyvoice/advisor/internal/bookmark"
	"github.com/studyvoice/advisor/internal/recommend"
)

// listBookmarks handles GET /api/bookmarks.
func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks := s.deps.Bookmarks.List(r.Context())
	if bookmarks == nil {
		bookmarks = []bookmark.Bookmark{}
	}
	respondJSON(w, http.StatusOK, bookmarks)
}

// addBookmark handles POST /api/bookmarks. A named bookmark also lands in
// the recommendation store so the planner and course list pick it up.
func (s *Server) addBookmark(w http.ResponseWriter, r *http.Request) {
	var b bookmark.Bookmark
	if err := decodeJSON(w, r, &b); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if b.Page < 1 {
		respondError(w, http.StatusBadRequest, "bookmark page must be at least 1")
		return
	}

	stored := s.deps.Bookmarks.Add(r.Context(), b)

	if name := strings.TrimSpace(stored.Name); name != "" {
		s.deps.Courses.Add(r.Context(), recommend.Course{
			Name: name,
			Page: stored.Page,
		})
	}

	respondJSON(w, http.StatusCreated, stored)
}

// removeBookmark handles DELETE /api/bookmarks/{id}.
func (s *Server) removeBookmark(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Bookmarks.Delete(r.Context(), urlParam(r, "id")) {
		respondError(w, http.StatusNotFound, "bookmark not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
