package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/rockets/domain"
)

const (
	falcon1ID = "5e9d0d95eda69955f709d1eb"
	falcon9ID = "5e9d0d95eda69973a809d1ec"
)

// mockService implements Service for testing
type mockService struct {
	rockets     map[string]*domain.Rocket
	err         error
	lastRefresh bool
	lastIDs     []string
}

func newMockService() *mockService {
	cost := int64(6700000)
	return &mockService{rockets: map[string]*domain.Rocket{
		falcon1ID: {ID: falcon1ID, Name: "Falcon 1", CostPerLaunch: &cost, SuccessRatePct: 40, FlickrImages: []string{}},
		falcon9ID: {ID: falcon9ID, Name: "Falcon 9", SuccessRatePct: 98, FlickrImages: []string{}},
	}}
}

func (m *mockService) GetAllRocketNames(ctx context.Context, forceRefresh bool) (map[string]string, error) {
	m.lastRefresh = forceRefresh
	if m.err != nil {
		return nil, m.err
	}
	names := make(map[string]string, len(m.rockets))
	for id, r := range m.rockets {
		names[id] = r.Name
	}
	return names, nil
}

func (m *mockService) GetRocketNames(ctx context.Context, ids []string) (map[string]string, error) {
	m.lastIDs = ids
	if m.err != nil {
		return nil, m.err
	}
	names := make(map[string]string)
	for _, id := range ids {
		if r, ok := m.rockets[id]; ok {
			names[id] = r.Name
		}
	}
	return names, nil
}

func (m *mockService) GetRocket(ctx context.Context, id string) (*domain.Rocket, error) {
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.rockets[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRocketNotFound
}

func setupRouter(svc Service) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/rockets", NewHandler(svc).RegisterRoutes)
	return r
}

func TestHandleNames(t *testing.T) {
	t.Run("all names", func(t *testing.T) {
		svc := newMockService()
		rr := httptest.NewRecorder()
		setupRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rockets/names?refresh=true", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, svc.lastRefresh)
		assert.JSONEq(t, `{"names":{"`+falcon1ID+`":"Falcon 1","`+falcon9ID+`":"Falcon 9"}}`, rr.Body.String())
	})

	t.Run("selected ids", func(t *testing.T) {
		svc := newMockService()
		rr := httptest.NewRecorder()
		url := "/api/v1/rockets/names?ids=" + falcon9ID + ",5e9d0d95eda69974db09d1ed"
		setupRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{falcon9ID, "5e9d0d95eda69974db09d1ed"}, svc.lastIDs)

		var resp NamesResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, map[string]string{falcon9ID: "Falcon 9"}, resp.Names)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := newMockService()
		rr := httptest.NewRecorder()
		setupRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rockets/names?ids=falcon9", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Nil(t, svc.lastIDs)
	})

	t.Run("offline", func(t *testing.T) {
		svc := newMockService()
		svc.err = apperror.NetworkUnavailable(errors.New("dial tcp: no route to host"))
		rr := httptest.NewRecorder()
		setupRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rockets/names", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		var env apperror.Envelope
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
		assert.Equal(t, "wifi.exclamationmark", env.Error.Icon)
	})
}

func TestHandleGet(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"found", falcon1ID, http.StatusOK},
		{"unknown", "5e9d0d95eda69974db09d1ed", http.StatusNotFound},
		{"malformed", "falcon-heavy", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			setupRouter(newMockService()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rockets/"+tt.id, nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	rr := httptest.NewRecorder()
	setupRouter(newMockService()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rockets/"+falcon1ID, nil))
	var resp RocketResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Falcon 1", resp.Name)
	assert.Equal(t, "$6.7M", resp.CostDisplay)
	assert.Equal(t, "40%", resp.SuccessRateDisplay)
}
