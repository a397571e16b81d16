package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/pendergraft/launchcache/internal/apperror"
	"github.com/pendergraft/launchcache/internal/cacheclock"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
	"github.com/pendergraft/launchcache/internal/storage"
)

const metricsDomain = "company"

// DefaultTTL is the company cache lifetime
const DefaultTTL = 15 * time.Minute

// LocalStore is the subset of storage the company repository needs
type LocalStore interface {
	SaveCompany(ctx context.Context, c *storage.Company) error
	GetCompany(ctx context.Context) (*storage.Company, error)
}

// RemoteService fetches the company from the upstream API
type RemoteService interface {
	FetchCompanyInfo(ctx context.Context, bypassCache bool) (*Company, error)
}

// Repository serves the company record
type Repository interface {
	// GetCompany returns the company. A forced refresh never hides a
	// certificate failure behind cached data
	GetCompany(ctx context.Context, forceRefresh bool) (*Company, error)
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

// NewRepository creates a company repository
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

func (r *repository) GetCompany(ctx context.Context, forceRefresh bool) (*Company, error) {
	if !forceRefresh {
		if cacheclock.Fresh(ctx, r.clock, cacheclock.KeyCompany, r.cfg.TTL, r.cfg.Now()) {
			if cached, ok := r.cached(ctx); ok {
				metrics.CacheLookup(metricsDomain, metrics.ResultHit)
				return cached, nil
			}
			metrics.CacheLookup(metricsDomain, metrics.ResultMiss)
		} else {
			metrics.CacheLookup(metricsDomain, metrics.ResultExpired)
		}
	}

	company, err := r.remote.FetchCompanyInfo(ctx, forceRefresh)
	if err != nil {
		appErr := apperror.From(err)
		if forceRefresh && appErr.Kind == apperror.KindCertificatePinning {
			r.logger.Error("certificate pinning failed on forced company refresh", "error", err)
			return nil, appErr
		}
		if ctx.Err() == nil {
			if cached, ok := r.cached(ctx); ok {
				metrics.CacheFallback(metricsDomain, appErr.Kind.String())
				r.logger.Warn("serving company from cache after network failure", "error", appErr)
				return cached, nil
			}
		}
		return nil, appErr
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.From(err)
	}

	if err := r.local.SaveCompany(ctx, toRecord(*company)); err != nil {
		r.logger.Warn("saving company failed", "error", err)
		return company, nil
	}
	if err := r.clock.Set(ctx, cacheclock.KeyCompany, r.cfg.Now()); err != nil {
		r.logger.Warn("stamping company cache failed", "error", err)
	}
	return company, nil
}

// cached reads the stored company. Any read error counts as absent
func (r *repository) cached(ctx context.Context) (*Company, bool) {
	record, err := r.local.GetCompany(ctx)
	if err != nil {
		return nil, false
	}
	return fromRecord(record), true
}
