// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/dataset"
	"github.com/lineascope/core/internal/layout"
	"github.com/lineascope/core/internal/logging"
	"github.com/lineascope/core/internal/models"
	"github.com/lineascope/core/internal/render"
	"github.com/lineascope/core/internal/search"
)

// API wires the HTTP surface to the domain components. It also owns the
// selector state the UI round-trips: which snapshot, layout and search term
// are active.
type API struct {
	store      *dataset.Store
	controller *render.Controller
	searcher   *search.Searcher
	ring       *logging.Ring
	engineWS   http.Handler
	log        *zap.SugaredLogger

	mu       sync.Mutex
	snapshot models.SnapshotID
	strategy layout.Strategy
	query    string
}

// NewAPI builds the handler set. engineWS may be nil when no bridge is
// mounted (tests).
func NewAPI(store *dataset.Store, controller *render.Controller, searcher *search.Searcher, ring *logging.Ring, engineWS http.Handler, log *zap.SugaredLogger) *API {
	return &API{
		store:      store,
		controller: controller,
		searcher:   searcher,
		ring:       ring,
		engineWS:   engineWS,
		log:        log,
		snapshot:   models.SnapshotCurrent,
		strategy:   layout.ClusteredForce,
	}
}

// Router assembles the route tree. CORS is applied by the caller so the
// middleware stack stays in one place.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", a.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", a.AllGraphs)
		r.Get("/graph/{snapshot}", a.GraphBySnapshot)
		r.Get("/state", a.State)
		r.Post("/state/snapshot", a.SelectSnapshot)
		r.Post("/state/layout", a.SelectLayout)
		r.Post("/state/search", a.SetSearch)
		r.Post("/state/physics", a.SetPhysics)
		r.Get("/logs", a.Logs)
	})
	if a.engineWS != nil {
		r.Method(http.MethodGet, "/ws", a.engineWS)
	}
	return r
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Warnw("Response encoding failed", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) writeError(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
