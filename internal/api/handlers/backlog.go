package handlers

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// BacklogHandler serves the backlog grid
type BacklogHandler struct {
	backlog *controllers.BacklogController
	logger  *logrus.Logger
}

// NewBacklogHandler creates a new backlog handler
func NewBacklogHandler(backlog *controllers.BacklogController, logger *logrus.Logger) *BacklogHandler {
	return &BacklogHandler{
		backlog: backlog,
		logger:  logger,
	}
}

// MediaRequest is a whole-row add event
type MediaRequest struct {
	Type        string                      `json:"type"`
	Name        string                      `json:"name"`
	Reporter    string                      `json:"reporter"`
	Notes       string                      `json:"notes"`
	Viewed      bool                        `json:"viewed"`
	ScheduledOn *models.Date                `json:"scheduled_on"`
	ViewedOn    *models.Date                `json:"viewed_on"`
	Episode     *models.Ordinal             `json:"episode"`
	Season      *models.Ordinal             `json:"season"`
	Votes       map[string]models.VoteValue `json:"votes"`
}

// Media builds the unsaved record. Votes follow roster order so stored rows are stable.
func (req MediaRequest) Media(roster models.Roster) (*models.Media, error) {
	mediaType, err := models.ParseMediaType(req.Type)
	if err != nil {
		return nil, err
	}

	m := &models.Media{
		Type:        mediaType,
		Name:        req.Name,
		Reporter:    req.Reporter,
		Notes:       req.Notes,
		Viewed:      req.Viewed,
		ScheduledOn: req.ScheduledOn,
		ViewedOn:    req.ViewedOn,
		Episode:     req.Episode,
		Season:      req.Season,
	}
	for _, user := range roster {
		if v, ok := req.Votes[user]; ok {
			m.SetVote(user, v)
		}
	}
	// unknown voters are kept so validation reports them
	for _, user := range slices.Sorted(maps.Keys(req.Votes)) {
		if !roster.Contains(user) {
			m.SetVote(user, req.Votes[user])
		}
	}
	return m, nil
}

// CreateResponse is returned after an insert
type CreateResponse struct {
	Media   *models.Media `json:"media"`
	Similar []string      `json:"similar"`
}

// List returns the aggregated backlog rows.
// Query: type (repeatable or comma separated), viewed, missing_votes, enabled, scheduled.
func (h *BacklogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseViewFilter(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows, err := h.backlog.View(filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Tonight returns the eligible rows, best first
func (h *BacklogHandler) Tonight(w http.ResponseWriter, r *http.Request) {
	types, err := parseTypes(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	rows, err := h.backlog.Tonight(types...)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Get returns one record
func (h *BacklogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	media, err := h.backlog.Get(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

// Create inserts a new proposal
func (h *BacklogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MediaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	media, err := req.Media(h.backlog.Roster())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	media, similar, err := h.backlog.Add(media)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if similar == nil {
		similar = []string{}
	}
	writeJSON(w, http.StatusCreated, CreateResponse{Media: media, Similar: similar})
}

// Patch applies a row-level partial edit
func (h *BacklogHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch controllers.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	media, err := h.backlog.Edit(id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func parseID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", models.ErrValidation, raw)
	}
	return id, nil
}

func parseTypes(r *http.Request) ([]models.MediaType, error) {
	var types []models.MediaType
	for _, value := range r.URL.Query()["type"] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			t, err := models.ParseMediaType(part)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
	}
	return types, nil
}

func parseViewFilter(r *http.Request) (controllers.ViewFilter, error) {
	var filter controllers.ViewFilter
	types, err := parseTypes(r)
	if err != nil {
		return filter, err
	}
	filter.Types = types

	if filter.Viewed, err = parseOptionalBool(r, "viewed"); err != nil {
		return filter, err
	}
	if filter.MissingVotes, err = parseOptionalBool(r, "missing_votes"); err != nil {
		return filter, err
	}
	if filter.Enabled, err = parseOptionalBool(r, "enabled"); err != nil {
		return filter, err
	}
	if filter.Scheduled, err = parseOptionalBool(r, "scheduled"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseOptionalBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", models.ErrValidation, key)
	}
	return &b, nil
}
