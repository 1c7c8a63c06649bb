package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skylog/internal/logger"
	"github.com/MrSnakeDoc/skylog/internal/observation"
)

// jsonOverhead leaves room for the non-photo fields of a JSON candidate on
// top of the base64 photo itself (4/3 of the raw size).
const jsonOverhead = 64 << 10

// ListObservations serves GET /api/observations?category=.
func ListObservations(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := domain.ParseFilter(r.URL.Query().Get("category"))
		if err != nil {
			writeError(w, http.StatusBadRequest, domain.ErrInvalidCategory.Code, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, d.Store.Filter(filter))
	}
}

// CreateObservation serves POST /api/observations with a JSON candidate.
func CreateObservation(d deps.Deps) http.HandlerFunc {
	maxBody := d.MaxPhotoBytes*4/3 + jsonOverhead

	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var c domain.Candidate
		if err := dec.Decode(&c); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "bad_request", "body must be a JSON observation")
			return
		}

		obs, ok := addObservation(w, r, d, c)
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, obs)
	}
}

// addObservation hands c to the store and writes the JSON error response
// when it is refused.
func addObservation(w http.ResponseWriter, r *http.Request, d deps.Deps, c domain.Candidate) (domain.Observation, bool) {
	obs, err := d.Store.Add(r.Context(), c)
	if err == nil {
		return obs, true
	}

	var verr *domain.ValidationError
	var perr *observation.PersistError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Code, verr.Message)
	case errors.As(err, &perr):
		d.Logger.Error("failed to persist observation", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "persist_failed", "the observation could not be saved")
	default:
		d.Logger.Error("failed to add observation", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", http.StatusText(http.StatusInternalServerError))
	}
	return domain.Observation{}, false
}
