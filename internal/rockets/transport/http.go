// Package transport provides HTTP handlers for the rockets domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/rockets/domain"
	"github.com/pendergraft/launchcache/internal/validation"
)

// Service is the subset of the rocket repository the handlers use
type Service interface {
	GetAllRocketNames(ctx context.Context, forceRefresh bool) (map[string]string, error)
	GetRocketNames(ctx context.Context, ids []string) (map[string]string, error)
	GetRocket(ctx context.Context, id string) (*domain.Rocket, error)
}

// Handler handles HTTP requests for rockets
type Handler struct {
	svc Service
}

// NewHandler creates a new rockets HTTP handler
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the rocket routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/names", h.handleNames)
	r.Get("/{id}", h.handleGet)
}

// handleNames serves GET /names?ids=a,b. Without ids every known name is
// returned, refreshed from upstream when refresh=true
func (h *Handler) handleNames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var ids []string
	for _, raw := range q["ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	for _, id := range ids {
		if err := validation.ValidateID(id); err != nil {
			apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest(err.Error()))
			return
		}
	}

	var (
		names map[string]string
		err   error
	)
	if len(ids) == 0 {
		refresh, _ := strconv.ParseBool(q.Get("refresh"))
		names, err = h.svc.GetAllRocketNames(r.Context(), refresh)
	} else {
		names, err = h.svc.GetRocketNames(r.Context(), ids)
	}
	if err != nil {
		apperror.WriteHTTP(w, err)
		return
	}
	if names == nil {
		names = map[string]string{}
	}

	writeJSON(w, http.StatusOK, NamesResponse{Names: names})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validation.ValidateID(id); err != nil {
		apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest(err.Error()))
		return
	}

	rocket, err := h.svc.GetRocket(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRocketNotFound) {
			apperror.WriteBody(w, http.StatusNotFound, apperror.NotFound("Rocket not found"))
			return
		}
		apperror.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RocketResponse{
		Rocket:             *rocket,
		CostDisplay:        rocket.CostDisplay(),
		SuccessRateDisplay: rocket.SuccessRateDisplay(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
