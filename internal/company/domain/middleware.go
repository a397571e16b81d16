package domain

import (
	"context"
	"log/slog"
	"time"
)

// LoggingMiddleware returns a repository middleware that logs all operations
func LoggingMiddleware(logger *slog.Logger) func(Repository) Repository {
	return func(next Repository) Repository {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

type loggingMiddleware struct {
	next   Repository
	logger *slog.Logger
}

func (m *loggingMiddleware) GetCompany(ctx context.Context, forceRefresh bool) (*Company, error) {
	start := time.Now()
	company, err := m.next.GetCompany(ctx, forceRefresh)
	level := slog.LevelDebug
	if forceRefresh {
		level = slog.LevelInfo
	}
	m.logger.Log(ctx, level, "GetCompany",
		"forceRefresh", forceRefresh,
		"duration", time.Since(start),
		"error", err,
	)
	return company, err
}
