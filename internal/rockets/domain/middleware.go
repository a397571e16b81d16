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

func (m *loggingMiddleware) GetAllRocketNames(ctx context.Context, forceRefresh bool) (map[string]string, error) {
	start := time.Now()
	names, err := m.next.GetAllRocketNames(ctx, forceRefresh)
	level := slog.LevelDebug
	if forceRefresh {
		level = slog.LevelInfo
	}
	m.logger.Log(ctx, level, "GetAllRocketNames",
		"forceRefresh", forceRefresh,
		"count", len(names),
		"duration", time.Since(start),
		"error", err,
	)
	return names, err
}

func (m *loggingMiddleware) GetRocketNames(ctx context.Context, ids []string) (map[string]string, error) {
	start := time.Now()
	names, err := m.next.GetRocketNames(ctx, ids)
	m.logger.Debug("GetRocketNames",
		"requested", len(ids),
		"resolved", len(names),
		"duration", time.Since(start),
		"error", err,
	)
	return names, err
}

func (m *loggingMiddleware) GetRocket(ctx context.Context, id string) (*Rocket, error) {
	start := time.Now()
	rocket, err := m.next.GetRocket(ctx, id)
	m.logger.Debug("GetRocket",
		"id", id,
		"duration", time.Since(start),
		"error", err,
	)
	return rocket, err
}
