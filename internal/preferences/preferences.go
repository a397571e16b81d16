// Package preferences persists the user's launch list settings.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pendergraft/launchcache/internal/launches/domain"
	"github.com/pendergraft/launchcache/internal/storage"
	"github.com/pendergraft/launchcache/internal/validation"
)

// Storage keys
const (
	KeySortOption = "launch.sort_option"
	KeyFilter     = "launch.filter"
)

// ErrInvalidPreferences wraps validation failures from Save
var ErrInvalidPreferences = errors.New("invalid preferences")

// LaunchPreferences is the saved sort and filter of the launch list
type LaunchPreferences struct {
	SortOption domain.SortOption `json:"sortOption" validate:"required,oneof=date_asc date_desc name_asc name_desc"`
	Filter     domain.Filter     `json:"filter"`
}

// Defaults returns the preferences used before anything is saved
func Defaults() LaunchPreferences {
	return LaunchPreferences{
		SortOption: domain.DefaultSortOption,
		Filter:     domain.Filter{Success: domain.SuccessAll},
	}
}

// Service loads and saves launch preferences
type Service interface {
	// Load never fails on missing or undecodable values; it substitutes defaults
	Load(ctx context.Context) (*LaunchPreferences, error)

	// Save validates and stores both values
	Save(ctx context.Context, prefs LaunchPreferences) error
}

type service struct {
	store  storage.PreferenceStore
	logger *slog.Logger
}

// NewService creates a preference service on top of store
func NewService(store storage.PreferenceStore, logger *slog.Logger) Service {
	return &service{store: store, logger: logger}
}

func (s *service) Load(ctx context.Context) (*LaunchPreferences, error) {
	prefs := Defaults()

	raw, err := s.read(ctx, KeySortOption)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if opt, decodeErr := decodeSortOption(raw); decodeErr != nil {
			s.logger.Warn("discarding stored sort option", "error", decodeErr)
		} else {
			prefs.SortOption = opt
		}
	}

	raw, err = s.read(ctx, KeyFilter)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		var filter domain.Filter
		decodeErr := json.Unmarshal(raw, &filter)
		if decodeErr == nil {
			decodeErr = validation.Struct(filter)
		}
		if decodeErr != nil {
			s.logger.Warn("discarding stored launch filter", "error", decodeErr)
		} else {
			prefs.Filter = filter.Normalized()
		}
	}

	return &prefs, nil
}

func (s *service) Save(ctx context.Context, prefs LaunchPreferences) error {
	if err := validation.Struct(prefs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPreferences, err)
	}

	sortJSON, err := json.Marshal(string(prefs.SortOption))
	if err != nil {
		return fmt.Errorf("failed to encode sort option: %w", err)
	}
	filterJSON, err := json.Marshal(prefs.Filter.Normalized())
	if err != nil {
		return fmt.Errorf("failed to encode launch filter: %w", err)
	}

	if err := s.store.SetPreference(ctx, KeySortOption, sortJSON); err != nil {
		return fmt.Errorf("failed to save sort option: %w", err)
	}
	if err := s.store.SetPreference(ctx, KeyFilter, filterJSON); err != nil {
		return fmt.Errorf("failed to save launch filter: %w", err)
	}

	s.logger.Info("launch preferences saved", "sort", prefs.SortOption, "filter", prefs.Filter.String())
	return nil
}

func decodeSortOption(raw []byte) (domain.SortOption, error) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", err
	}
	return domain.ParseSortOption(value)
}

// read returns nil without error for a missing key
func (s *service) read(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.store.GetPreference(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return raw, nil
}
