package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		want       Body
	}{
		{
			name:       "network",
			err:        NetworkUnavailable(errors.New("dial tcp: refused")),
			wantStatus: http.StatusServiceUnavailable,
			want: Body{
				Code:    "NETWORK_UNAVAILABLE",
				Message: "Network connection failed. Please check your internet connection.",
				Icon:    "wifi.exclamationmark",
				Color:   "orange",
			},
		},
		{
			name:       "server",
			err:        ServerError(503),
			wantStatus: http.StatusBadGateway,
			want:       Body{Code: "SERVER_ERROR", Message: "Server error (Code: 503)", Icon: "server.rack", Color: "red"},
		},
		{
			name:       "unclassified",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			want:       Body{Code: "UNKNOWN", Message: "disk full", Icon: "questionmark.circle", Color: "gray"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteHTTP(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var env Envelope
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
			assert.Equal(t, tt.want, env.Error)
		})
	}
}

func TestWriteBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteBody(rr, http.StatusNotFound, NotFound("Launch not found"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"Launch not found","icon":"magnifyingglass","color":"gray"}}`, rr.Body.String())
}
