package handlers

import (
	"net/http"

	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	backlog *controllers.BacklogController
	rituals *controllers.RitualController
	search  *controllers.SearchController
	logger  *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(
	backlog *controllers.BacklogController,
	rituals *controllers.RitualController,
	search *controllers.SearchController,
	logger *logrus.Logger,
) *StatusHandler {
	return &StatusHandler{
		backlog: backlog,
		rituals: rituals,
		search:  search,
		logger:  logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	controllers.Stats
	Roster        []string `json:"roster"`
	ActiveRituals int      `json:"active_rituals"`
	SearchEnabled bool     `json:"search_enabled"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backlog.Stats()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Stats:         *stats,
		Roster:        h.backlog.Roster(),
		ActiveRituals: h.rituals.Active(),
		SearchEnabled: h.search.Enabled(),
	})
}
