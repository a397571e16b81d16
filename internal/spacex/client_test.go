package spacex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/launchcache/internal/apperror"
	launchdomain "github.com/pendergraft/launchcache/internal/launches/domain"
)

const launchPageJSON = `{
  "docs": [
    {
      "id": "5eb87cd9ffd86e000604b32a",
      "name": "FalconSat",
      "details": "Engine failure at 33 seconds and loss of vehicle",
      "upcoming": false,
      "success": false,
      "date_utc": "2006-03-24T22:30:00.000Z",
      "date_unix": 1,
      "rocket": "5e9d0d95eda69955f709d1eb",
      "flight_number": 1,
      "links": {
        "patch": {"small": "https://images2.imgbox.com/94/f2/NN6Ph45r_o.png", "large": null},
        "webcast": "https://www.youtube.com/watch?v=0a_00nJ_Y88",
        "wikipedia": "https://en.wikipedia.org/wiki/DemoSat",
        "article": null
      },
      "cores": [
        {"core": "5e9e289df35918033d3b2623", "flight": 1, "reused": false, "landing_attempt": false, "landing_success": null}
      ]
    }
  ],
  "totalDocs": 187,
  "limit": 1,
  "page": 1,
  "totalPages": 187,
  "hasNextPage": true,
  "hasPrevPage": false
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(testLogger()), WithRetry(3, time.Millisecond)}, opts...)
	return New(srv.URL, opts...)
}

type staticObserver bool

func (s staticObserver) IsConnected() bool { return bool(s) }

func TestFetchLaunches(t *testing.T) {
	var gotBody launchdomain.LaunchQuery
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v5/launches/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, launchPageJSON)
	})

	filter := launchdomain.Filter{Years: []int{2006}, Success: launchdomain.SuccessFailed}
	query := launchdomain.NewLaunchQuery(filter, launchdomain.SortDateAsc, 1, 1, nil)

	page, err := client.FetchLaunches(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, 1, gotBody.Options.Page)
	require.NotNil(t, gotBody.Query)
	require.Len(t, gotBody.Query.Or, 1)
	assert.Equal(t, "^2006-", gotBody.Query.Or[0].DateUTC.Regex)

	assert.Equal(t, 187, page.TotalCount)
	assert.Equal(t, 187, page.TotalPages)
	assert.Equal(t, 1, page.PageSize)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPrevPage)
	require.Len(t, page.Launches, 1)

	l := page.Launches[0]
	assert.Equal(t, "FalconSat", l.Name)
	assert.Equal(t, "5e9d0d95eda69955f709d1eb", l.RocketID)
	assert.Equal(t, int64(1143239400), l.DateUnix, "date_unix follows date_utc")
	assert.Equal(t, launchdomain.StatusFailed, l.Status())
	require.NotNil(t, l.Links.PatchSmall)
	assert.Nil(t, l.Links.PatchLarge)
	assert.Nil(t, l.Links.Article)
	require.Len(t, l.Cores, 1)
	assert.Nil(t, l.Cores[0].LandingSuccess)
	require.NotNil(t, l.Cores[0].Flight)
	assert.Equal(t, 1, *l.Cores[0].Flight)
}

func TestFetchAvailableYears(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"docs":[
			{"date_utc":"2022-12-29T09:34:00.000Z"},
			{"date_utc":"2022-01-06T21:49:00.000Z"},
			{"date_utc":"not a date"},
			{"date_utc":"2006-03-24T22:30:00.000Z"}
		],"totalDocs":4}`)
	})

	years, err := client.FetchAvailableYears(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2006}, years)

	// The query is sent even though its limit exceeds the local page size cap.
	options := gotBody["options"].(map[string]any)
	assert.EqualValues(t, 2000, options["limit"])
	assert.Equal(t, map[string]any{"date_utc": float64(1)}, options["select"])
}

func TestFetchAvailableYears_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"no docs", `{"items":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.FetchAvailableYears(context.Background())
			assert.ErrorIs(t, apperror.From(err), apperror.ErrDataCorrupted)
		})
	}
}

func TestFetchRockets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/v4/rockets":
			_, _ = io.WriteString(w, `[
				{"id":"5e9d0d95eda69955f709d1eb","name":"Falcon 1","active":false,"cost_per_launch":6700000,"success_rate_pct":40,"flickr_images":[]},
				{"id":"5e9d0d95eda69973a809d1ec","name":"Falcon 9","active":true,"cost_per_launch":50000000,"success_rate_pct":98}
			]`)
		case "/v4/rockets/5e9d0d95eda69973a809d1ec":
			_, _ = io.WriteString(w, `{"id":"5e9d0d95eda69973a809d1ec","name":"Falcon 9","description":"Two-stage","wikipedia":"https://en.wikipedia.org/wiki/Falcon_9"}`)
		default:
			http.NotFound(w, r)
		}
	})

	all, err := client.FetchAllRockets(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Falcon 1", all[0].Name)
	assert.Equal(t, "$6.7M", all[0].CostDisplay())
	assert.Equal(t, []string{}, all[1].FlickrImages)

	one, err := client.FetchRocket(context.Background(), "5e9d0d95eda69973a809d1ec")
	require.NoError(t, err)
	assert.Equal(t, "Two-stage", one.Description)

	_, err = client.FetchRocket(context.Background(), "5e9d0d95eda69973a809d1ff")
	assert.ErrorIs(t, apperror.From(err), apperror.ServerError(http.StatusNotFound))
}

func TestFetchCompanyInfo(t *testing.T) {
	tests := []struct {
		name        string
		bypass      bool
		wantControl string
	}{
		{"cached", false, ""},
		{"bypass", true, "no-cache"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v4/company", r.URL.Path)
				assert.Equal(t, tt.wantControl, r.Header.Get("Cache-Control"))
				_, _ = io.WriteString(w, `{
					"name":"SpaceX","founder":"Elon Musk","founded":2002,"employees":9500,
					"ceo":"Elon Musk","valuation":74000000000,
					"headquarters":{"address":"Rocket Road","city":"Hawthorne","state":"California"},
					"links":{"website":"https://www.spacex.com/","twitter":"https://twitter.com/SpaceX","elon_twitter":"https://twitter.com/elonmusk"},
					"summary":"SpaceX designs rockets."}`)
			})

			c, err := client.FetchCompanyInfo(context.Background(), tt.bypass)
			require.NoError(t, err)
			assert.Equal(t, "SpaceX", c.Name)
			assert.Equal(t, "California", c.Headquarters.State)
			assert.Equal(t, "https://twitter.com/elonmusk", c.Links.ElonTwitter)
			assert.Equal(t, "$74.0B", c.ValuationDisplay())
		})
	}
}

func TestVersionsAreConfigurable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/company", r.URL.Path)
		_, _ = io.WriteString(w, `{"name":"SpaceX"}`)
	}, WithVersions(Versions{Launches: "v5", Rockets: "v4", Company: "v3"}))

	_, err := client.FetchCompanyInfo(context.Background(), false)
	require.NoError(t, err)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    *apperror.Error
	}{
		{
			name:    "server error keeps status",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			want:    apperror.ServerError(http.StatusServiceUnavailable),
		},
		{
			name:    "client error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			want:    apperror.ServerError(http.StatusTooManyRequests),
		},
		{
			name:    "decode failure",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, `{"name":`) },
			want:    apperror.ErrDataCorrupted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchCompanyInfo(context.Background(), false)
			require.Error(t, err)
			assert.ErrorIs(t, apperror.From(err), tt.want)
		})
	}
}

func TestOfflineFailsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, WithObserver(staticObserver(false)))

	_, err := client.FetchAllRockets(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOffline)
	assert.ErrorIs(t, apperror.From(err), apperror.ErrNetworkUnavailable)
	assert.Zero(t, hits.Load())
}

func TestRetry(t *testing.T) {
	t.Run("transport failures are retried", func(t *testing.T) {
		var hits atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				conn, _, err := w.(http.Hijacker).Hijack()
				if assert.NoError(t, err) {
					_ = conn.Close()
				}
				return
			}
			_, _ = io.WriteString(w, `[]`)
		})

		rockets, err := client.FetchAllRockets(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rockets)
		assert.EqualValues(t, 3, hits.Load())
	})

	t.Run("status errors are not retried", func(t *testing.T) {
		var hits atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.FetchAllRockets(context.Background())
		require.Error(t, err)
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("queries are never retried", func(t *testing.T) {
		var hits atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			conn, _, err := w.(http.Hijacker).Hijack()
			if assert.NoError(t, err) {
				_ = conn.Close()
			}
		})

		_, err := client.FetchAvailableYears(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, apperror.From(err), apperror.ErrNetworkUnavailable)
		assert.EqualValues(t, 1, hits.Load())
	})
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connectivity", &NetworkError{Kind: apperror.KindNetworkUnavailable, Err: errors.New("connection reset")}, true},
		{"offline", &NetworkError{Kind: apperror.KindNetworkUnavailable, Err: ErrOffline}, false},
		{"cancelled", &NetworkError{Kind: apperror.KindNetworkUnavailable, Err: context.Canceled}, false},
		{"rate limited", &NetworkError{Kind: apperror.KindNetworkUnavailable, Err: errRateLimited}, false},
		{"pinning", &NetworkError{Kind: apperror.KindCertificatePinning, Err: ErrCertificatePinning}, false},
		{"server", &NetworkError{Kind: apperror.KindServer, StatusCode: 502}, false},
		{"decode", &NetworkError{Kind: apperror.KindDataCorrupted}, false},
		{"foreign", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}

func TestCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchAllRockets(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, apperror.From(err), apperror.ErrNetworkUnavailable)
}

func TestRateLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}, WithRateLimit(1, 1))

	_, err := client.FetchAllRockets(context.Background())
	require.NoError(t, err)

	// The bucket is empty; a short deadline cannot wait a full second.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.FetchAllRockets(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, apperror.From(err), apperror.ErrNetworkUnavailable)
}
