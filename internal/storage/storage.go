package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pendergraft/launchcache/internal/config"
)

// LaunchStore handles cached launch rows. Paging and counting never apply a
// filter: filtered result sets are served from the network only
type LaunchStore interface {
	SaveLaunches(ctx context.Context, launches []Launch) error
	GetLaunch(ctx context.Context, id string) (*Launch, error)
	ListLaunches(ctx context.Context) ([]Launch, error)
	ListLaunchPage(ctx context.Context, page, pageSize int, order LaunchOrder) ([]Launch, error)
	CountLaunches(ctx context.Context) (int, error)
	DeleteLaunch(ctx context.Context, id string) error
	ClearLaunches(ctx context.Context) error
	SaveLaunchYears(ctx context.Context, years []int) error
	ListLaunchYears(ctx context.Context) ([]int, error)
}

// RocketStore handles cached rockets
type RocketStore interface {
	SaveRockets(ctx context.Context, rockets []Rocket) error
	GetRocket(ctx context.Context, id string) (*Rocket, error)
	ListRockets(ctx context.Context) ([]Rocket, error)
	CountRockets(ctx context.Context) (int, error)
	DeleteRocket(ctx context.Context, id string) error
	ClearRockets(ctx context.Context) error
}

// CompanyStore handles the singleton company row
type CompanyStore interface {
	SaveCompany(ctx context.Context, c *Company) error
	GetCompany(ctx context.Context) (*Company, error)
	ClearCompany(ctx context.Context) error
}

// TimestampStore persists the last write instant per cache key
type TimestampStore interface {
	GetCacheTimestamp(ctx context.Context, key string) (time.Time, error)
	SetCacheTimestamp(ctx context.Context, key string, at time.Time) error
	DeleteCacheTimestamp(ctx context.Context, key string) error
	ListCacheTimestamps(ctx context.Context) (map[string]time.Time, error)
}

// PreferenceStore persists opaque user preference blobs
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) ([]byte, error)
	SetPreference(ctx context.Context, key string, value []byte) error
}

// KVStore is the key/value subset that can live outside the main database
type KVStore interface {
	TimestampStore
	PreferenceStore
	Close() error
}

// Store combines all storage interfaces with lifecycle methods.
// Domain packages define their own minimal interfaces based on their actual usage
type Store interface {
	LaunchStore
	RocketStore
	CompanyStore
	TimestampStore
	PreferenceStore

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// Launch is the stored shape of a launch. Cores and links are embedded as JSON
type Launch struct {
	ID           string
	Name         string
	Details      *string
	Upcoming     bool
	Success      *bool
	DateUTC      string
	DateUnix     int64
	RocketID     string
	FlightNumber int
	Cores        []LaunchCore
	Links        LaunchLinks
	UpdatedAt    time.Time
}

// LaunchCore is one booster core flown on a launch
type LaunchCore struct {
	Core           *string `json:"core,omitempty"`
	Flight         *int    `json:"flight,omitempty"`
	Reused         *bool   `json:"reused,omitempty"`
	LandingAttempt *bool   `json:"landing_attempt,omitempty"`
	LandingSuccess *bool   `json:"landing_success,omitempty"`
}

// LaunchLinks holds the media links of a launch
type LaunchLinks struct {
	PatchSmall *string `json:"patch_small,omitempty"`
	PatchLarge *string `json:"patch_large,omitempty"`
	Webcast    *string `json:"webcast,omitempty"`
	Wikipedia  *string `json:"wikipedia,omitempty"`
	Article    *string `json:"article,omitempty"`
}

// LaunchOrder is the local ORDER BY for a page of launches
type LaunchOrder struct {
	Field      string // "date_utc" or "name"
	Descending bool
}

// Rocket is the stored shape of a rocket. Images are an opaque JSON blob
type Rocket struct {
	ID             string
	Name           string
	Description    string
	Active         bool
	CostPerLaunch  *int64
	SuccessRatePct int
	FlickrImages   []string
	Wikipedia      string
	UpdatedAt      time.Time
}

// Company is the stored shape of the singleton company row
type Company struct {
	Name         string
	Founder      string
	Founded      int
	Employees    int
	CEO          string
	Valuation    int64
	Headquarters Headquarters
	Links        CompanyLinks
	Summary      string
	UpdatedAt    time.Time
}

// Headquarters is the company address
type Headquarters struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// CompanyLinks are the company's web links
type CompanyLinks struct {
	Website     string `json:"website"`
	Flickr      string `json:"flickr"`
	Twitter     string `json:"twitter"`
	ElonTwitter string `json:"elon_twitter"`
}

// New creates a new store based on configuration
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewKV returns the key/value backend for cache timestamps and preferences.
// The "store" backend reuses the main database
func NewKV(cfg config.KVConfig, store Store, logger *slog.Logger) (KVStore, error) {
	switch cfg.Type {
	case "", "store":
		return store, nil
	case "redis":
		return NewRedisKV(cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown kv backend: %s", cfg.Type)
	}
}
