package domain

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMiddleware returns a repository middleware that logs all operations
func LoggingMiddleware(logger *slog.Logger) func(Repository) Repository {
	return func(next Repository) Repository {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Repository
	logger *slog.Logger
}

func (m *loggingMiddleware) GetLaunches(ctx context.Context, page, pageSize int, sort SortOption, filter Filter, forceRefresh bool) (*Page, error) {
	start := time.Now()
	result, err := m.next.GetLaunches(ctx, page, pageSize, sort, filter, forceRefresh)
	level := slog.LevelDebug
	if forceRefresh {
		level = slog.LevelInfo
	}
	count := 0
	if result != nil {
		count = len(result.Launches)
	}
	m.logger.Log(ctx, level, "GetLaunches",
		"page", page,
		"pageSize", pageSize,
		"sort", sort,
		"filter", filter.String(),
		"forceRefresh", forceRefresh,
		"count", count,
		"duration", time.Since(start),
		"error", err,
	)
	return result, err
}

func (m *loggingMiddleware) GetAvailableYears(ctx context.Context) ([]int, error) {
	start := time.Now()
	years, err := m.next.GetAvailableYears(ctx)
	m.logger.Debug("GetAvailableYears",
		"count", len(years),
		"duration", time.Since(start),
		"error", err,
	)
	return years, err
}

func (m *loggingMiddleware) GetLaunch(ctx context.Context, id string) (*Launch, error) {
	start := time.Now()
	launch, err := m.next.GetLaunch(ctx, id)
	m.logger.Debug("GetLaunch",
		"id", id,
		"duration", time.Since(start),
		"error", err,
	)
	return launch, err
}
