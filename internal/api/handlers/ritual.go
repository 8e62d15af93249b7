package handlers

import (
	"net/http"

	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// RitualHandler serves movie night rituals
type RitualHandler struct {
	rituals *controllers.RitualController
	logger  *logrus.Logger
}

// NewRitualHandler creates a new ritual handler
func NewRitualHandler(rituals *controllers.RitualController, logger *logrus.Logger) *RitualHandler {
	return &RitualHandler{
		rituals: rituals,
		logger:  logger,
	}
}

// StartRequest restricts a new ritual to some media types. Empty means all.
type StartRequest struct {
	Types []string `json:"types"`
}

// BallotRequest is one participant's choice
type BallotRequest struct {
	Candidate string `json:"candidate"`
}

// CommitRequest names the winner. Empty accepts a unique leader.
type CommitRequest struct {
	Choice string `json:"choice"`
}

// DrawResponse is one sampled leader
type DrawResponse struct {
	Candidate string `json:"candidate"`
}

// Start opens a ritual over tonight's ranking
func (h *RitualHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	types := make([]models.MediaType, 0, len(req.Types))
	for _, raw := range req.Types {
		t, err := models.ParseMediaType(raw)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		types = append(types, t)
	}

	view, err := h.rituals.Start(types...)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get returns the ritual state
func (h *RitualHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.rituals.View(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Ballot records or replaces a participant's ballot
func (h *RitualHandler) Ballot(w http.ResponseWriter, r *http.Request) {
	var req BallotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	view, err := h.rituals.Submit(chi.URLParam(r, "id"), chi.URLParam(r, "user"), req.Candidate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Tally counts the ballots. A no-ballots outcome is a regular response.
func (h *RitualHandler) Tally(w http.ResponseWriter, r *http.Request) {
	tally, err := h.rituals.Tally(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

// Runoff restricts a tied ritual to its leaders
func (h *RitualHandler) Runoff(w http.ResponseWriter, r *http.Request) {
	view, err := h.rituals.Runoff(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Draw samples a leader. It may be called any number of times.
func (h *RitualHandler) Draw(w http.ResponseWriter, r *http.Request) {
	candidate, err := h.rituals.Draw(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DrawResponse{Candidate: candidate})
}

// Commit finalizes the winner
func (h *RitualHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	pick, err := h.rituals.Commit(chi.URLParam(r, "id"), req.Choice)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

// Reset reopens the ritual over its original candidates
func (h *RitualHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.rituals.Reset(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Abandon discards a ritual
func (h *RitualHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.rituals.Abandon(chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History lists past picks
func (h *RitualHandler) History(w http.ResponseWriter, r *http.Request) {
	picks, err := h.rituals.History()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if picks == nil {
		picks = []*models.Pick{}
	}
	writeJSON(w, http.StatusOK, picks)
}
