package handlers

import (
	"net/http"

	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// SearchHandler serves metadata lookups
type SearchHandler struct {
	search *controllers.SearchController
	logger *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search *controllers.SearchController, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		search: search,
		logger: logger,
	}
}

// ProposeRequest adds a search result to the backlog
type ProposeRequest struct {
	Result   tmdb.Result `json:"result"`
	Reporter string      `json:"reporter"`
}

// Search runs ?q=...&type=movie|show, movie by default
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind := models.MediaTypeMovie
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := models.ParseMediaType(raw)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		kind = t
	}

	results, err := h.search.Search(r.Context(), r.URL.Query().Get("q"), kind)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if results == nil {
		results = []tmdb.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Propose turns a result into a backlog record
func (h *SearchHandler) Propose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	media, similar, err := h.search.Propose(req.Result, req.Reporter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if similar == nil {
		similar = []string{}
	}
	writeJSON(w, http.StatusCreated, CreateResponse{Media: media, Similar: similar})
}
