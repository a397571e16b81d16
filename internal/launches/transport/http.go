// Package transport provides HTTP handlers for the launches domain.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/launches/domain"
	"github.com/pendergraft/launchcache/internal/validation"
)

// Service is the subset of the launch repository the handlers use
type Service interface {
	GetLaunches(ctx context.Context, page, pageSize int, sort domain.SortOption, filter domain.Filter, forceRefresh bool) (*domain.Page, error)
	GetAvailableYears(ctx context.Context) ([]int, error)
	GetLaunch(ctx context.Context, id string) (*domain.Launch, error)
}

// Handler handles HTTP requests for launches
type Handler struct {
	svc Service
	now func() time.Time
}

// NewHandler creates a new launches HTTP handler
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// RegisterRoutes registers the launch routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/years", h.handleYears)
	r.Get("/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest(err.Error()))
		return
	}

	page, err := h.svc.GetLaunches(r.Context(), params.Page, params.Limit, params.Sort, params.filter(), params.Refresh)
	if err != nil {
		if isInvalidQuery(err) {
			apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest(err.Error()))
			return
		}
		apperror.WriteHTTP(w, err)
		return
	}

	resp := ListResponse{
		Launches:    make([]LaunchResponse, len(page.Launches)),
		TotalCount:  page.TotalCount,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		HasNextPage: page.HasNextPage,
		HasPrevPage: page.HasPrevPage,
		PageSize:    page.PageSize,
		Sort:        params.Sort,
		Filter:      params.filter().String(),
	}
	for i, l := range page.Launches {
		resp.Launches[i] = toResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.svc.GetAvailableYears(r.Context())
	if err != nil {
		apperror.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, YearsResponse{Years: years})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validation.ValidateID(id); err != nil {
		apperror.WriteBody(w, http.StatusBadRequest, apperror.InvalidRequest(err.Error()))
		return
	}

	launch, err := h.svc.GetLaunch(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLaunchNotFound) {
			apperror.WriteBody(w, http.StatusNotFound, apperror.NotFound("Launch not found"))
			return
		}
		apperror.WriteHTTP(w, err)
		return
	}

	now := h.now()
	writeJSON(w, http.StatusOK, DetailResponse{
		LaunchResponse: toResponse(*launch),
		DaysSince:      launch.DaysSince(now),
		DaysUntil:      launch.DaysUntil(now),
	})
}

// listParams are the validated query parameters of the list endpoint
type listParams struct {
	Page    int `validate:"gte=1"`
	Limit   int `validate:"gte=1,lte=100"`
	Sort    domain.SortOption
	Years   []int `validate:"omitempty,dive,gte=1900,lte=2100"`
	Success domain.SuccessFilter
	Refresh bool
}

func (p listParams) filter() domain.Filter {
	return domain.Filter{Years: p.Years, Success: p.Success}
}

func parseListParams(r *http.Request) (listParams, error) {
	q := r.URL.Query()
	p := listParams{Page: 1, Limit: domain.DefaultPageSize}

	var err error
	if v := q.Get("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return p, errors.New("page must be an integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			return p, errors.New("limit must be an integer")
		}
	}
	if p.Sort, err = domain.ParseSortOption(q.Get("sort")); err != nil {
		return p, err
	}
	if p.Success, err = domain.ParseSuccessFilter(q.Get("success")); err != nil {
		return p, err
	}

	// year may repeat or carry a comma-separated list
	for _, raw := range q["year"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			y, err := strconv.Atoi(part)
			if err != nil {
				return p, errors.New("year must be an integer")
			}
			p.Years = append(p.Years, y)
		}
	}

	p.Refresh, _ = strconv.ParseBool(q.Get("refresh"))

	if err := validation.Struct(p); err != nil {
		return p, err
	}
	return p, nil
}

func isInvalidQuery(err error) bool {
	return errors.Is(err, domain.ErrInvalidPage) ||
		errors.Is(err, domain.ErrInvalidPageSize) ||
		errors.Is(err, domain.ErrInvalidSortOption) ||
		errors.Is(err, domain.ErrInvalidSuccessFilter) ||
		errors.Is(err, domain.ErrTooManyOrConditions)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
