package api

import (
	"net/http"
	"strconv"
)

// handleListDeliveries returns recent delivery log entries. Accepts an
// optional ?limit=N query parameter (default 50).
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.deliveries.ListDeliveries(r.Context(), limit)
	if err != nil {
		s.logger.Error("list deliveries failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
