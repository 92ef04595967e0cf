package http

import (
	"net/http"

	"board-reviewer/internal/app"
)

// ProfileHandler serves GET /api/profile with the user's progress summary.
type ProfileHandler struct {
	reviewers *app.Registry
	course    string
}

func NewProfileHandler(reviewers *app.Registry, course string) *ProfileHandler {
	return &ProfileHandler{reviewers: reviewers, course: course}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	userID := r.URL.Query().Get("userId")
	course := r.URL.Query().Get("course")
	if course == "" {
		course = h.course
	}
	if userID == "" || course == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing userId or course"})
		return
	}

	reviewer := h.reviewers.Acquire(r.Context(), userID, course)
	defer h.reviewers.Release(userID, course)
	writeJSON(w, http.StatusOK, reviewer.Profile())
}
