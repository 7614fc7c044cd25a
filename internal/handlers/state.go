package handlers

import (
	"net/http"

	"github.com/lineascope/core/internal/layout"
	"github.com/lineascope/core/internal/models"
	"github.com/lineascope/core/internal/render"
)

// StateResponse is the selector document the UI polls.
type StateResponse struct {
	render.Status
	Search string `json:"search"`
}

type searchResponse struct {
	StateResponse
	Matches []string `json:"matches"`
	Focused string   `json:"focused,omitempty"`
}

func (a *API) stateResponse() StateResponse {
	a.mu.Lock()
	query := a.query
	a.mu.Unlock()
	return StateResponse{Status: a.controller.Status(), Search: query}
}

// State reports the active snapshot, layout, lifecycle phase and search term.
func (a *API) State(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.stateResponse())
}

// SelectSnapshot switches the rendered snapshot, keeping the active layout
// and re-applying any search term to the new view.
func (a *API) SelectSnapshot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Snapshot models.SnapshotID `json:"snapshot"`
	}
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if !body.Snapshot.Valid() {
		a.writeError(w, http.StatusBadRequest, "unknown snapshot: "+string(body.Snapshot))
		return
	}

	a.mu.Lock()
	strategy := a.strategy
	a.mu.Unlock()

	if err := a.controller.ShowView(body.Snapshot, strategy); err != nil {
		// The previous view stays rendered.
		a.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	a.mu.Lock()
	a.snapshot = body.Snapshot
	a.mu.Unlock()

	a.reapplySearch()
	a.writeJSON(w, http.StatusOK, a.stateResponse())
}

// SelectLayout switches the layout strategy on the active snapshot.
func (a *API) SelectLayout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Layout string `json:"layout"`
	}
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	strategy, err := layout.ParseStrategy(body.Layout)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.mu.Lock()
	snapshot := a.snapshot
	a.mu.Unlock()

	if err := a.controller.ShowView(snapshot, strategy); err != nil {
		a.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	a.mu.Lock()
	a.strategy = strategy
	a.mu.Unlock()

	a.reapplySearch()
	a.writeJSON(w, http.StatusOK, a.stateResponse())
}

// SetSearch applies a search term to the live view and remembers it for
// later snapshot or layout switches.
func (a *API) SetSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	result, err := a.searcher.Apply(body.Query)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.mu.Lock()
	a.query = body.Query
	a.mu.Unlock()

	a.writeJSON(w, http.StatusOK, searchResponse{
		StateResponse: a.stateResponse(),
		Matches:       result.MatchIDs,
		Focused:       result.Focused,
	})
}

// SetPhysics resumes or pauses the simulation.
func (a *API) SetPhysics(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if body.Enabled == nil {
		a.writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	a.controller.SetPhysics(*body.Enabled)
	a.writeJSON(w, http.StatusOK, a.stateResponse())
}

// reapplySearch re-runs the remembered term against a freshly built view.
func (a *API) reapplySearch() {
	a.mu.Lock()
	query := a.query
	a.mu.Unlock()
	if query == "" {
		return
	}
	if _, err := a.searcher.Apply(query); err != nil {
		a.log.Warnw("Search re-apply failed", "query", query, "error", err)
	}
}
