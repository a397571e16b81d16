package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/cacheclock"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
	"github.com/pendergraft/launchcache/internal/storage"
)

const metricsDomain = "launches"

// Default TTLs
const (
	DefaultLaunchTTL = 5 * time.Minute
	DefaultYearsTTL  = 24 * time.Hour
)

// errCacheMiss signals that the local store cannot serve a page
var errCacheMiss = errors.New("launch cache miss")

// LocalStore is the subset of storage the launch repository needs
type LocalStore interface {
	SaveLaunches(ctx context.Context, launches []storage.Launch) error
	GetLaunch(ctx context.Context, id string) (*storage.Launch, error)
	ListLaunchPage(ctx context.Context, page, pageSize int, order storage.LaunchOrder) ([]storage.Launch, error)
	CountLaunches(ctx context.Context) (int, error)
	ClearLaunches(ctx context.Context) error
	SaveLaunchYears(ctx context.Context, years []int) error
	ListLaunchYears(ctx context.Context) ([]int, error)
}

// RemoteService fetches launches from the upstream API
type RemoteService interface {
	FetchLaunches(ctx context.Context, query LaunchQuery) (*Page, error)
	FetchAvailableYears(ctx context.Context) ([]int, error)
}

// Repository serves launches from cache or network
type Repository interface {
	// GetLaunches returns one page of launches
	GetLaunches(ctx context.Context, page, pageSize int, sort SortOption, filter Filter, forceRefresh bool) (*Page, error)

	// GetAvailableYears returns the years with launches, newest first
	GetAvailableYears(ctx context.Context) ([]int, error)

	// GetLaunch returns a cached launch by id
	GetLaunch(ctx context.Context, id string) (*Launch, error)
}

// Config tunes the repository. Zero values select the defaults
type Config struct {
	LaunchTTL time.Duration
	YearsTTL  time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

type repository struct {
	local  LocalStore
	remote RemoteService
	clock  cacheclock.Clock
	cfg    Config
	logger *slog.Logger
}

// NewRepository creates a launch repository
func NewRepository(local LocalStore, remote RemoteService, clock cacheclock.Clock, cfg Config) Repository {
	if cfg.LaunchTTL <= 0 {
		cfg.LaunchTTL = DefaultLaunchTTL
	}
	if cfg.YearsTTL <= 0 {
		cfg.YearsTTL = DefaultYearsTTL
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

func (r *repository) GetLaunches(ctx context.Context, page, pageSize int, sort SortOption, filter Filter, forceRefresh bool) (*Page, error) {
	if sort == "" {
		sort = DefaultSortOption
	}
	if _, err := ParseSortOption(string(sort)); err != nil {
		return nil, invalidRequest(err)
	}

	query := NewLaunchQuery(filter, sort, page, pageSize, r.logger)
	if err := query.Validate(); err != nil {
		r.logger.Error("invalid launch query", "error", err)
		return nil, invalidRequest(err)
	}

	// Filtered result sets are never cached.
	if filter.IsActive() {
		metrics.CacheLookup(metricsDomain, metrics.ResultBypass)
		result, err := r.remote.FetchLaunches(ctx, query)
		if err != nil {
			return nil, apperror.From(err)
		}
		return result, nil
	}

	if !forceRefresh {
		key := cacheclock.LaunchKey(string(sort))
		if cacheclock.Fresh(ctx, r.clock, key, r.cfg.LaunchTTL, r.cfg.Now()) {
			cached, err := r.loadFromCache(ctx, page, pageSize, sort)
			if err == nil {
				metrics.CacheLookup(metricsDomain, metrics.ResultHit)
				return cached, nil
			}
			metrics.CacheLookup(metricsDomain, metrics.ResultMiss)
			r.logger.Debug("launch cache miss for page", "page", page, "sort", sort)
		} else {
			metrics.CacheLookup(metricsDomain, metrics.ResultExpired)
			r.logger.Debug("launch cache expired", "sort", sort)
		}
	}

	result, err := r.fetchAndStore(ctx, query, sort, forceRefresh)
	if err != nil {
		return r.fallback(ctx, page, pageSize, sort, err)
	}
	return result, nil
}

// fetchAndStore fetches one page and writes it through to the cache.
// A forced refresh replaces every cached launch first
func (r *repository) fetchAndStore(ctx context.Context, query LaunchQuery, sort SortOption, replace bool) (*Page, error) {
	result, err := r.remote.FetchLaunches(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if replace {
		if err := r.clearAll(ctx); err != nil {
			r.logger.Warn("clearing launch cache failed", "error", err)
		}
	}

	if err := r.local.SaveLaunches(ctx, toRecords(result.Launches)); err != nil {
		r.logger.Warn("saving launches to cache failed", "error", err)
		return result, nil
	}
	if err := r.clock.Set(ctx, cacheclock.LaunchKey(string(sort)), r.cfg.Now()); err != nil {
		r.logger.Warn("stamping launch cache failed", "sort", sort, "error", err)
	}
	r.logger.Info("launch cache updated", "sort", sort, "page", query.Options.Page, "count", len(result.Launches))
	return result, nil
}

func (r *repository) clearAll(ctx context.Context) error {
	if err := r.local.ClearLaunches(ctx); err != nil {
		return fmt.Errorf("clearing launches: %w", err)
	}
	for _, opt := range SortOptions {
		if err := r.clock.Delete(ctx, cacheclock.LaunchKey(string(opt))); err != nil {
			return fmt.Errorf("clearing timestamp for %s: %w", opt, err)
		}
	}
	return nil
}

// fallback serves the page from cache after a network failure, or
// returns the classified network error when the cache cannot help.
// Certificate failures fall back too; only the company engine refuses them
func (r *repository) fallback(ctx context.Context, page, pageSize int, sort SortOption, netErr error) (*Page, error) {
	appErr := apperror.From(netErr)
	if ctx.Err() != nil {
		return nil, appErr
	}

	cached, err := r.loadFromCache(ctx, page, pageSize, sort)
	if err != nil {
		r.logger.Debug("launch cache fallback unavailable", "error", err, "network_error", appErr)
		return nil, appErr
	}

	metrics.CacheFallback(metricsDomain, appErr.Kind.String())
	r.logger.Warn("serving launches from cache after network failure", "sort", sort, "page", page, "error", appErr)
	return cached, nil
}

// loadFromCache reads one page from the store. An empty store or an empty
// page is a miss, never an empty result
func (r *repository) loadFromCache(ctx context.Context, page, pageSize int, sort SortOption) (*Page, error) {
	total, err := r.local.CountLaunches(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting launches: %w", err)
	}
	if total == 0 {
		return nil, errCacheMiss
	}

	rows, err := r.local.ListLaunchPage(ctx, page, pageSize, sort.LocalOrder())
	if err != nil {
		return nil, fmt.Errorf("listing launches: %w", err)
	}
	if len(rows) == 0 {
		return nil, errCacheMiss
	}

	launches := make([]Launch, len(rows))
	for i, row := range rows {
		launches[i] = fromRecord(row)
	}

	return &Page{
		Launches:    launches,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  (total + pageSize - 1) / pageSize,
		HasNextPage: len(launches) == pageSize,
		HasPrevPage: page > 1,
		PageSize:    pageSize,
	}, nil
}

func (r *repository) GetAvailableYears(ctx context.Context) ([]int, error) {
	if cacheclock.Fresh(ctx, r.clock, cacheclock.KeyLaunchYears, r.cfg.YearsTTL, r.cfg.Now()) {
		cached, err := r.local.ListLaunchYears(ctx)
		if err == nil && len(cached) > 0 {
			metrics.CacheLookup(metricsDomain+"_years", metrics.ResultHit)
			return cached, nil
		}
		metrics.CacheLookup(metricsDomain+"_years", metrics.ResultMiss)
	} else {
		metrics.CacheLookup(metricsDomain+"_years", metrics.ResultExpired)
	}

	fetched, err := r.remote.FetchAvailableYears(ctx)
	if err != nil {
		appErr := apperror.From(err)
		// Stale years are preferred over failing.
		if ctx.Err() == nil {
			if cached, cerr := r.local.ListLaunchYears(ctx); cerr == nil && len(cached) > 0 {
				metrics.CacheFallback(metricsDomain+"_years", appErr.Kind.String())
				r.logger.Warn("serving launch years from cache after network failure", "error", appErr)
				return sortYearsDesc(cached), nil
			}
		}
		return nil, appErr
	}

	years := sortYearsDesc(fetched)
	if ctx.Err() != nil {
		return nil, apperror.From(ctx.Err())
	}
	if err := r.local.SaveLaunchYears(ctx, years); err != nil {
		r.logger.Warn("saving launch years failed", "error", err)
		return years, nil
	}
	if err := r.clock.Set(ctx, cacheclock.KeyLaunchYears, r.cfg.Now()); err != nil {
		r.logger.Warn("stamping launch years failed", "error", err)
	}
	return years, nil
}

func (r *repository) GetLaunch(ctx context.Context, id string) (*Launch, error) {
	row, err := r.local.GetLaunch(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrLaunchNotFound
		}
		return nil, fmt.Errorf("getting launch: %w", err)
	}
	l := fromRecord(*row)
	return &l, nil
}

func sortYearsDesc(years []int) []int {
	set := make(map[int]struct{}, len(years))
	for _, y := range years {
		set[y] = struct{}{}
	}
	return sortedYearsDesc(set)
}

// invalidRequest classifies a rejected query without hiding its cause
func invalidRequest(err error) error {
	return &apperror.Error{Kind: apperror.KindUnknown, Message: err.Error(), Err: err}
}
