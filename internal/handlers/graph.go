package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lineascope/core/internal/models"
)

// AllGraphs returns every snapshot in one document, the page-load payload of
// the visualizer.
func (a *API) AllGraphs(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.store.All())
}

// GraphBySnapshot returns a single snapshot graph.
func (a *API) GraphBySnapshot(w http.ResponseWriter, r *http.Request) {
	id := models.SnapshotID(chi.URLParam(r, "snapshot"))
	if !id.Valid() {
		a.writeError(w, http.StatusNotFound, "unknown snapshot: "+string(id))
		return
	}

	graph, err := a.store.Graph(id)
	if err != nil {
		a.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.writeJSON(w, http.StatusOK, graph)
}
