//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pendergraft/launchcache/internal/cacheclock"
	"github.com/pendergraft/launchcache/internal/config"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
	"github.com/pendergraft/launchcache/internal/preferences"
	"github.com/pendergraft/launchcache/internal/repositories"
	"github.com/pendergraft/launchcache/internal/server"
	"github.com/pendergraft/launchcache/internal/spacex"
	"github.com/pendergraft/launchcache/internal/storage"
	"github.com/pendergraft/launchcache/pkg/client"
)

const (
	falconSatID = "5eb87cd9ffd86e000604b32a"
	demoSatID   = "5eb87cdaffd86e000604b32b"
	crew5ID     = "5eb87d46ffd86e000604b389"
	falcon1ID   = "5e9d0d95eda69955f709d1eb"
	falcon9ID   = "5e9d0d95eda69973a809d1ec"
)

// TestContext holds shared test infrastructure
type TestContext struct {
	PostgresContainer *postgres.PostgresContainer
	ConnString        string
	RedisContainer    testcontainers.Container
	RedisAddr         string
	Upstream          *fakeUpstream
	TestServer        *httptest.Server
	Store             storage.Store
	KV                storage.KVStore

	app *server.Server
}

// Close stops the server and releases the stores
func (tc *TestContext) Close() {
	tc.TestServer.Close()
	tc.app.Close()
	tc.KV.Close()
	tc.Store.Close()
}

// Client returns an API client for the test server
func (tc *TestContext) Client() *client.Client {
	return client.New(tc.TestServer.URL)
}

// fakeUpstream serves a fixed slice of the SpaceX API and counts calls.
// Taking it offline makes the server's client refuse to dial, as the
// reachability monitor would
type fakeUpstream struct {
	*httptest.Server
	online      atomic.Bool
	launchCalls atomic.Int64
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{}
	f.online.Store(true)

	launches := []map[string]any{
		{"id": falconSatID, "name": "FalconSat", "flight_number": 1, "date_utc": "2006-03-24T22:30:00.000Z", "date_unix": 1143239400, "success": false, "upcoming": false, "rocket": falcon1ID, "cores": []any{}, "links": map[string]any{}},
		{"id": demoSatID, "name": "DemoSat", "flight_number": 2, "date_utc": "2007-03-21T01:10:00.000Z", "date_unix": 1174439400, "success": false, "upcoming": false, "rocket": falcon1ID, "cores": []any{}, "links": map[string]any{}},
		{"id": crew5ID, "name": "Crew-5", "flight_number": 187, "date_utc": "2022-10-05T16:00:00.000Z", "date_unix": 1664985600, "success": true, "upcoming": false, "rocket": falcon9ID, "cores": []any{}, "links": map[string]any{}},
	}
	rockets := map[string]map[string]any{
		falcon1ID: {"id": falcon1ID, "name": "Falcon 1", "active": false, "cost_per_launch": 6700000, "success_rate_pct": 40, "flickr_images": []string{}, "wikipedia": "https://en.wikipedia.org/wiki/Falcon_1", "description": "The Falcon 1 was an expendable launch system."},
		falcon9ID: {"id": falcon9ID, "name": "Falcon 9", "active": true, "cost_per_launch": 50000000, "success_rate_pct": 98, "flickr_images": []string{}, "wikipedia": "https://en.wikipedia.org/wiki/Falcon_9", "description": "Falcon 9 is a two-stage rocket."},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v5/launches/query", func(w http.ResponseWriter, r *http.Request) {
		f.launchCalls.Add(1)
		var body struct {
			Query   map[string]any `json:"query"`
			Options struct {
				Select map[string]any `json:"select"`
			} `json:"options"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		// years lookup selects date_utc only
		if _, ok := body.Options.Select["date_utc"]; ok && len(body.Options.Select) == 1 {
			docs := make([]map[string]any, len(launches))
			for i, l := range launches {
				docs[i] = map[string]any{"date_utc": l["date_utc"]}
			}
			writeUpstream(w, map[string]any{"docs": docs, "totalDocs": len(docs)})
			return
		}

		docs := launches
		if success, ok := body.Query["success"].(bool); ok {
			docs = nil
			for _, l := range launches {
				if l["success"] == success {
					docs = append(docs, l)
				}
			}
		}
		writeUpstream(w, map[string]any{
			"docs": docs, "totalDocs": len(docs), "limit": 20, "page": 1,
			"totalPages": 1, "hasNextPage": false, "hasPrevPage": false,
		})
	})
	mux.HandleFunc("GET /v4/rockets", func(w http.ResponseWriter, r *http.Request) {
		writeUpstream(w, []map[string]any{rockets[falcon1ID], rockets[falcon9ID]})
	})
	mux.HandleFunc("GET /v4/rockets/{id}", func(w http.ResponseWriter, r *http.Request) {
		rocket, ok := rockets[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeUpstream(w, rocket)
	})
	mux.HandleFunc("GET /v4/company", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"SpaceX","founder":"Elon Musk","founded":2002,"employees":9500,"ceo":"Elon Musk",
			"valuation":74000000000,"headquarters":{"address":"Rocket Road","city":"Hawthorne","state":"California"},
			"links":{"website":"https://www.spacex.com/","twitter":"https://twitter.com/SpaceX"},"summary":"SpaceX designs rockets."}`)
	})

	f.Server = httptest.NewServer(mux)
	return f
}

// IsConnected reports the simulated network state
func (f *fakeUpstream) IsConnected() bool {
	return f.online.Load()
}

// goOffline takes the upstream offline until the test ends
func (f *fakeUpstream) goOffline(t *testing.T) {
	t.Helper()
	f.online.Store(false)
	t.Cleanup(func() { f.online.Store(true) })
}

func writeUpstream(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// setupPostgresE starts a Postgres container and returns the connection string
func setupPostgresE(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("launchcache"),
		postgres.WithUsername("launchcache"),
		postgres.WithPassword("launchcache"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = postgresContainer.Terminate(ctx)
		return nil, "", fmt.Errorf("failed to get postgres connection string: %w", err)
	}

	return postgresContainer, connString, nil
}

// setupRedisE starts a Redis container and returns its address
func setupRedisE(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, fmt.Sprintf("%s:%s", host, port.Port()), nil
}

// startServerE starts the launchcache server in-process over Postgres and Redis
func startServerE(tc *TestContext) error {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Type:     "postgres",
			Postgres: config.PostgresConfig{URL: tc.ConnString},
		},
		KV: config.KVConfig{
			Type:  "redis",
			Redis: config.RedisConfig{Addr: tc.RedisAddr, Prefix: "launchcache-e2e"},
		},
		Cache: config.CacheConfig{
			LaunchTTL:  time.Hour,
			YearsTTL:   time.Hour,
			RocketTTL:  time.Hour,
			CompanyTTL: time.Hour,
		},
		Logging:   config.LoggingConfig{Level: "debug", Format: "text"},
		RateLimit: config.RateLimitConfig{Enabled: false},
		Security:  config.SecurityConfig{MaxBodySizeKB: 64},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics.Init(false, "launchcache-e2e")

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return fmt.Errorf("running migrations: %w", err)
	}

	kv, err := storage.NewKV(cfg.KV, store, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("initializing kv: %w", err)
	}

	remote := spacex.New(tc.Upstream.URL,
		spacex.WithObserver(tc.Upstream),
		spacex.WithRetry(1, time.Millisecond),
		spacex.WithLogger(logger),
	)

	app := server.New(cfg, server.Deps{
		Repos: repositories.New(repositories.Deps{
			Store:  store,
			Clock:  cacheclock.New(kv),
			Remote: remote,
			Cache:  cfg.Cache,
			Logger: logger,
		}),
		Preferences: preferences.NewService(kv, logger),
		Checks: map[string]server.Check{
			"store": func(ctx context.Context) error {
				_, err := store.CountLaunches(ctx)
				return err
			},
		},
		Upstream: tc.Upstream,
	}, logger)

	tc.Store = store
	tc.KV = kv
	tc.app = app
	tc.TestServer = httptest.NewServer(app.Handler())
	return nil
}
