// Package repositories wires the launch, rocket and company repositories
// over one store, clock and remote client.
package repositories

import (
	"log/slog"
	"time"

	"github.com/pendergraft/launchcache/internal/cacheclock"
	companydomain "github.com/pendergraft/launchcache/internal/company/domain"
	"github.com/pendergraft/launchcache/internal/config"
	launchdomain "github.com/pendergraft/launchcache/internal/launches/domain"
	rocketdomain "github.com/pendergraft/launchcache/internal/rockets/domain"
	"github.com/pendergraft/launchcache/internal/storage"
)

// Remote is the union of the remote services. *spacex.Client satisfies it
type Remote interface {
	launchdomain.RemoteService
	rocketdomain.RemoteService
	companydomain.RemoteService
}

// Local is the union of the local stores. Every storage.Store satisfies it
type Local interface {
	launchdomain.LocalStore
	rocketdomain.LocalStore
	companydomain.LocalStore
}

// Deps are the shared dependencies of every repository
type Deps struct {
	Store  Local
	Clock  cacheclock.Clock
	Remote Remote
	Cache  config.CacheConfig
	Logger *slog.Logger
	Now    func() time.Time
}

// Repositories holds one repository per domain, each wrapped in its
// logging middleware
type Repositories struct {
	Launches launchdomain.Repository
	Rockets  rocketdomain.Repository
	Company  companydomain.Repository
}

// New builds the repositories from deps
func New(deps Deps) *Repositories {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	launches := launchdomain.NewRepository(deps.Store, deps.Remote, deps.Clock, launchdomain.Config{
		LaunchTTL: deps.Cache.LaunchTTL,
		YearsTTL:  deps.Cache.YearsTTL,
		Logger:    logger.With("domain", "launches"),
		Now:       deps.Now,
	})
	rockets := rocketdomain.NewRepository(deps.Store, deps.Remote, deps.Clock, rocketdomain.Config{
		TTL:    deps.Cache.RocketTTL,
		Logger: logger.With("domain", "rockets"),
		Now:    deps.Now,
	})
	company := companydomain.NewRepository(deps.Store, deps.Remote, deps.Clock, companydomain.Config{
		TTL:    deps.Cache.CompanyTTL,
		Logger: logger.With("domain", "company"),
		Now:    deps.Now,
	})

	return &Repositories{
		Launches: launchdomain.LoggingMiddleware(logger)(launches),
		Rockets:  rocketdomain.LoggingMiddleware(logger)(rockets),
		Company:  companydomain.LoggingMiddleware(logger)(company),
	}
}

var _ Local = storage.Store(nil)
