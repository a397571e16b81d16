package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/cacheclock"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
	"github.com/pendergraft/launchcache/internal/storage"
)

const metricsDomain = "rockets"

// DefaultTTL is the global rocket cache lifetime
const DefaultTTL = 24 * time.Hour

// LocalStore is the subset of storage the rocket repository needs
type LocalStore interface {
	SaveRockets(ctx context.Context, rockets []storage.Rocket) error
	GetRocket(ctx context.Context, id string) (*storage.Rocket, error)
	ListRockets(ctx context.Context) ([]storage.Rocket, error)
}

// RemoteService fetches rockets from the upstream API
type RemoteService interface {
	FetchAllRockets(ctx context.Context) ([]Rocket, error)
	FetchRocket(ctx context.Context, id string) (*Rocket, error)
}

// Repository resolves rockets and rocket names
type Repository interface {
	// GetAllRocketNames returns every known rocket name keyed by id
	GetAllRocketNames(ctx context.Context, forceRefresh bool) (map[string]string, error)

	// GetRocketNames resolves the given ids. Ids that cannot be resolved are
	// absent from the result
	GetRocketNames(ctx context.Context, ids []string) (map[string]string, error)

	// GetRocket returns a rocket, or ErrRocketNotFound
	GetRocket(ctx context.Context, id string) (*Rocket, error)
}

// Config tunes the repository. Zero values select the defaults
type Config struct {
	TTL    time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

type repository struct {
	local  LocalStore
	remote RemoteService
	clock  cacheclock.Clock
	cfg    Config
	logger *slog.Logger
}

// NewRepository creates a rocket repository
func NewRepository(local LocalStore, remote RemoteService, clock cacheclock.Clock, cfg Config) Repository {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &repository{local: local, remote: remote, clock: clock, cfg: cfg, logger: logger}
}

func (r *repository) GetAllRocketNames(ctx context.Context, forceRefresh bool) (map[string]string, error) {
	if !forceRefresh {
		cached, err := r.local.ListRockets(ctx)
		if err != nil {
			r.logger.Warn("listing cached rockets failed", "error", err)
		}
		if len(cached) > 0 {
			_, stamped, _ := r.clock.Get(ctx, cacheclock.KeyRockets)
			switch {
			case !stamped:
				// Rows written before the clock existed are adopted as fresh.
				r.stamp(ctx)
				metrics.CacheLookup(metricsDomain, metrics.ResultHit)
				return namesOf(cached), nil
			case cacheclock.Fresh(ctx, r.clock, cacheclock.KeyRockets, r.cfg.TTL, r.cfg.Now()):
				metrics.CacheLookup(metricsDomain, metrics.ResultHit)
				return namesOf(cached), nil
			}
			metrics.CacheLookup(metricsDomain, metrics.ResultExpired)
		} else {
			metrics.CacheLookup(metricsDomain, metrics.ResultMiss)
		}
	}

	rockets, err := r.remote.FetchAllRockets(ctx)
	if err != nil {
		return nil, apperror.From(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.From(err)
	}

	if err := r.local.SaveRockets(ctx, toRecords(rockets)); err != nil {
		r.logger.Warn("saving rockets failed", "error", err)
	} else {
		r.stamp(ctx)
		r.logger.Info("rocket cache updated", "count", len(rockets))
	}

	names := make(map[string]string, len(rockets))
	for _, rocket := range rockets {
		names[rocket.ID] = rocket.Name
	}
	return names, nil
}

func (r *repository) GetRocketNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	if len(ids) == 0 {
		return names, nil
	}

	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		cached, err := r.local.GetRocket(ctx, id)
		if err == nil {
			names[id] = cached.Name
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Debug("rocket cache read failed", "id", id, "error", err)
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		metrics.CacheLookup(metricsDomain, metrics.ResultHit)
		return names, nil
	}
	metrics.CacheLookup(metricsDomain, metrics.ResultMiss)

	fetched := r.fetchEach(ctx, missing)
	if err := ctx.Err(); err != nil {
		return nil, apperror.From(err)
	}

	if len(fetched) > 0 {
		if err := r.local.SaveRockets(ctx, toRecords(fetched)); err != nil {
			r.logger.Warn("saving rockets failed", "error", err)
		} else {
			r.stamp(ctx)
		}
	}
	for _, rocket := range fetched {
		names[rocket.ID] = rocket.Name
	}
	return names, nil
}

// fetchEach fetches every id concurrently. A failed id is logged and left
// out; it never cancels its siblings
func (r *repository) fetchEach(ctx context.Context, ids []string) []Rocket {
	var (
		mu      sync.Mutex
		fetched []Rocket
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			rocket, err := r.remote.FetchRocket(gctx, id)
			if err != nil {
				r.logger.Debug("rocket fetch failed", "id", id, "error", err)
				return nil
			}
			mu.Lock()
			fetched = append(fetched, *rocket)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return fetched
}

func (r *repository) GetRocket(ctx context.Context, id string) (*Rocket, error) {
	cached, err := r.local.GetRocket(ctx, id)
	if err == nil {
		metrics.CacheLookup(metricsDomain, metrics.ResultHit)
		rocket := fromRecord(*cached)
		return &rocket, nil
	}
	metrics.CacheLookup(metricsDomain, metrics.ResultMiss)

	rocket, err := r.remote.FetchRocket(ctx, id)
	if err != nil {
		r.logger.Debug("rocket fetch failed", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrRocketNotFound, id)
	}
	if ctx.Err() != nil {
		return rocket, nil
	}

	if err := r.local.SaveRockets(ctx, []storage.Rocket{toRecord(*rocket)}); err != nil {
		r.logger.Warn("saving rocket failed", "id", id, "error", err)
	} else {
		r.stamp(ctx)
	}
	return rocket, nil
}

func (r *repository) stamp(ctx context.Context) {
	if err := r.clock.Set(ctx, cacheclock.KeyRockets, r.cfg.Now()); err != nil {
		r.logger.Warn("stamping rocket cache failed", "error", err)
	}
}

func namesOf(rockets []storage.Rocket) map[string]string {
	names := make(map[string]string, len(rockets))
	for _, r := range rockets {
		names[r.ID] = r.Name
	}
	return names
}
