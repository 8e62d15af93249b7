package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/ritual"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithError(err).Error("Request failed")
		msg = "Internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ritual.ErrInvalidBallot),
		errors.Is(err, ritual.ErrUnknownParticipant),
		errors.Is(err, ritual.ErrNotLeader):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, ritual.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ritual.ErrDecided),
		errors.Is(err, ritual.ErrNotTied),
		errors.Is(err, ritual.ErrNoLeaders),
		errors.Is(err, ritual.ErrNoCandidates):
		return http.StatusConflict
	case errors.Is(err, tmdb.ErrSearchFailed):
		return http.StatusBadGateway
	case errors.Is(err, controllers.ErrSearchDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a single JSON document. Decoding failures are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decode(w, r, v, false)
}

// decodeOptionalJSON is decodeJSON that also accepts an empty body
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decode(w, r, v, true)
}

func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}
