// Package transport provides HTTP handlers for saved preferences.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/preferences"
)

// Handler handles HTTP requests for preferences
type Handler struct {
	svc preferences.Service
}

// NewHandler creates a new preferences HTTP handler
func NewHandler(svc preferences.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the preference routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/launches", h.handleGet)
	r.Put("/launches", h.handlePut)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.svc.Load(r.Context())
	if err != nil {
		apperror.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*prefs))
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	var prefs preferences.LaunchPreferences
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&prefs); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apperror.WriteBody(w, http.StatusRequestEntityTooLarge, apperror.Body{
				Code:    apperror.CodeBodyTooLarge,
				Message: "Request body too large",
				Icon:    "doc.badge.ellipsis",
				Color:   "yellow",
			})
			return
		}
		apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest("Invalid JSON body"))
		return
	}

	if err := h.svc.Save(r.Context(), prefs); err != nil {
		if errors.Is(err, preferences.ErrInvalidPreferences) {
			apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest(err.Error()))
			return
		}
		apperror.WriteHTTP(w, err)
		return
	}

	prefs.Filter = prefs.Filter.Normalized()
	writeJSON(w, http.StatusOK, toResponse(prefs))
}

// LaunchPreferencesResponse is the saved preferences plus display labels
type LaunchPreferencesResponse struct {
	preferences.LaunchPreferences
	SortDisplay   string `json:"sortDisplay"`
	FilterDisplay string `json:"filterDisplay"`
}

func toResponse(p preferences.LaunchPreferences) LaunchPreferencesResponse {
	return LaunchPreferencesResponse{
		LaunchPreferences: p,
		SortDisplay:       p.SortOption.DisplayName(),
		FilterDisplay:     p.Filter.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
