// Package transport provides HTTP handlers for the company domain.
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/company/domain"
)

// Service is the company repository as seen by the handlers
type Service interface {
	GetCompany(ctx context.Context, forceRefresh bool) (*domain.Company, error)
}

// Handler handles HTTP requests for the company record
type Handler struct {
	svc Service
}

// NewHandler creates a new company HTTP handler
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the company routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	company, err := h.svc.GetCompany(r.Context(), refresh)
	if err != nil {
		apperror.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompanyResponse{
		Company:          *company,
		ValuationDisplay: company.ValuationDisplay(),
		Description:      company.Description(),
	})
}

// CompanyResponse is the company plus its display strings
type CompanyResponse struct {
	domain.Company
	ValuationDisplay string `json:"valuationDisplay"`
	Description      string `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
