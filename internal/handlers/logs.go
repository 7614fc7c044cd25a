package handlers

import (
	"net/http"
	"strconv"

	"github.com/lineascope/core/internal/logging"
)

type logsResponse struct {
	Entries []logging.Entry `json:"entries"`
}

// Logs returns the most recent captured log entries, oldest first. A bad
// limit is ignored rather than failing the debug panel's poll.
func (a *API) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	a.writeJSON(w, http.StatusOK, logsResponse{Entries: a.ring.Recent(limit)})
}
