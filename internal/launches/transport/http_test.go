package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/launches/domain"
)

// mockService implements Service for testing
type mockService struct {
	page      *domain.Page
	years     []int
	launches  map[string]*domain.Launch
	err       error
	lastPage  int
	lastSize  int
	lastSort  domain.SortOption
	lastFilt  domain.Filter
	lastForce bool
}

func (m *mockService) GetLaunches(ctx context.Context, page, pageSize int, sort domain.SortOption, filter domain.Filter, forceRefresh bool) (*domain.Page, error) {
	m.lastPage, m.lastSize, m.lastSort, m.lastFilt, m.lastForce = page, pageSize, sort, filter, forceRefresh
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockService) GetAvailableYears(ctx context.Context) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.years, nil
}

func (m *mockService) GetLaunch(ctx context.Context, id string) (*domain.Launch, error) {
	if m.err != nil {
		return nil, m.err
	}
	if l, ok := m.launches[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLaunchNotFound
}

func boolPtr(b bool) *bool { return &b }

func setupRouter(svc Service) (*chi.Mux, *Handler) {
	h := NewHandler(svc)
	h.now = func() time.Time { return time.Date(2006, 3, 29, 22, 30, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/api/v1/launches", h.RegisterRoutes)
	return r, h
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apperror.Body {
	t.Helper()
	var env apperror.Envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env.Error
}

func TestHandleList(t *testing.T) {
	svc := &mockService{page: &domain.Page{
		Launches: []domain.Launch{
			{ID: "5eb87cd9ffd86e000604b32a", Name: "FalconSat", Success: boolPtr(false), DateUTC: "2006-03-24T22:30:00.000Z"},
			{ID: "5eb87cdaffd86e000604b32b", Name: "DemoSat", Upcoming: true},
		},
		TotalCount:  187,
		CurrentPage: 2,
		TotalPages:  94,
		HasNextPage: true,
		HasPrevPage: true,
		PageSize:    2,
	}}
	router, _ := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/launches?page=2&limit=2&sort=name_desc&refresh=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, svc.lastPage)
	assert.Equal(t, 2, svc.lastSize)
	assert.Equal(t, domain.SortNameDesc, svc.lastSort)
	assert.True(t, svc.lastForce)
	assert.False(t, svc.lastFilt.IsActive())

	var resp ListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 187, resp.TotalCount)
	assert.Equal(t, "All Launches", resp.Filter)
	require.Len(t, resp.Launches, 2)
	assert.Equal(t, "failed", resp.Launches[0].Status)
	assert.Equal(t, "upcoming", resp.Launches[1].Status)
	assert.Equal(t, "FalconSat", resp.Launches[0].Name)
}

func TestHandleList_Defaults(t *testing.T) {
	svc := &mockService{page: &domain.Page{}}
	router, _ := setupRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, svc.lastPage)
	assert.Equal(t, domain.DefaultPageSize, svc.lastSize)
	assert.Equal(t, domain.DefaultSortOption, svc.lastSort)
	assert.False(t, svc.lastForce)
}

func TestHandleList_Filter(t *testing.T) {
	svc := &mockService{page: &domain.Page{}}
	router, _ := setupRouter(svc)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches?year=2024&year=2022,2023&success=successful", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{2024, 2022, 2023}, svc.lastFilt.Years)
	assert.Equal(t, domain.SuccessSuccessful, svc.lastFilt.Success)

	var resp ListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "2022, 2023, 2024 • Successful", resp.Filter)
}

func TestHandleList_BadRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"page not a number", "page=two"},
		{"page zero", "page=0"},
		{"limit too large", "limit=101"},
		{"limit zero", "limit=0"},
		{"unknown sort", "sort=flight_number"},
		{"unknown success", "success=partial"},
		{"year not a number", "year=twenty"},
		{"year out of range", "year=1800"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{page: &domain.Page{}}
			router, _ := setupRouter(svc)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apperror.CodeInvalidRequest, decodeError(t, rr).Code)
			assert.Zero(t, svc.lastPage, "repository not called")
		})
	}
}

func TestHandleList_RepositoryErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"network", apperror.NetworkUnavailable(errors.New("offline")), http.StatusServiceUnavailable, "NETWORK_UNAVAILABLE"},
		{"pinning", apperror.CertificatePinningFailure(errors.New("pin")), http.StatusBadGateway, "CERTIFICATE_PINNING_FAILURE"},
		{"server", apperror.ServerError(500), http.StatusBadGateway, "SERVER_ERROR"},
		{"corrupt", apperror.DataCorrupted(errors.New("eof")), http.StatusBadGateway, "DATA_CORRUPTED"},
		{"invalid query", &apperror.Error{Kind: apperror.KindUnknown, Err: fmt.Errorf("%w: 0", domain.ErrInvalidPage)}, http.StatusBadRequest, apperror.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(&mockService{err: tt.err})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeError(t, rr)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Icon)
			assert.NotEmpty(t, body.Color)
		})
	}
}

func TestHandleYears(t *testing.T) {
	router, _ := setupRouter(&mockService{years: []int{2022, 2021, 2006}})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches/years", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"years":[2022,2021,2006]}`, rr.Body.String())
}

func TestHandleGet(t *testing.T) {
	svc := &mockService{launches: map[string]*domain.Launch{
		"5eb87cd9ffd86e000604b32a": {ID: "5eb87cd9ffd86e000604b32a", Name: "FalconSat", Success: boolPtr(false), DateUTC: "2006-03-24T22:30:00.000Z"},
	}}
	router, _ := setupRouter(svc)

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches/5eb87cd9ffd86e000604b32a", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp DetailResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "FalconSat", resp.Name)
		assert.Equal(t, "failed", resp.Status)
		assert.Equal(t, 5, resp.DaysSince)
		assert.Equal(t, 0, resp.DaysUntil)
	})

	t.Run("not cached", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches/5eb87cdaffd86e000604b32b", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, apperror.CodeNotFound, decodeError(t, rr).Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/launches/falconsat", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
