package service

import (
	"context"
	"errors"
	"time"

	"tripfare/internal/analytics/repository"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	mongodb "tripfare/pkg/db/mongo"
	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/model"
)

const storeRetryBackoff = 50 * time.Millisecond

type AnalyticsService interface {
	Report(ctx context.Context, top int) (*model.AnalyticsReport, error)
}

type analyticsService struct {
	repo  repository.SummaryRepository
	clock clock.Clock
	cfg   *config.Config
}

func NewAnalyticsService(repo repository.SummaryRepository, clk clock.Clock, cfg *config.Config) AnalyticsService {
	return &analyticsService{
		repo:  repo,
		clock: clk,
		cfg:   cfg,
	}
}

// Report computes the rollup from current state. It only reads.
func (s *analyticsService) Report(ctx context.Context, top int) (*model.AnalyticsReport, error) {
	top = config.NormalizeTopItems(top)
	policy := mongodb.RetryPolicy{MaxRetries: s.cfg.StoreMaxRetries, Backoff: storeRetryBackoff}

	var records []repository.RecordSummary
	err := mongodb.WithRetry(ctx, policy, func(ctx context.Context) error {
		var findErr error
		records, findErr = s.repo.RecordSummaries(ctx)
		return findErr
	})
	if err != nil {
		return nil, s.storeError("Failed to summarize price records", err)
	}

	var freezes []repository.FreezeSummary
	err = mongodb.WithRetry(ctx, policy, func(ctx context.Context) error {
		var findErr error
		freezes, findErr = s.repo.FreezeSummaries(ctx)
		return findErr
	})
	if err != nil {
		return nil, s.storeError("Failed to summarize price freezes", err)
	}

	report := Aggregate(records, freezes, top, s.clock.Now())
	s.cfg.Log.Debug("Analytics computed",
		"records", report.TotalRecords,
		"freezes", len(freezes),
		"top", top,
	)
	return report, nil
}

func (s *analyticsService) storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(message).WithCause(err)
	}
	s.cfg.Log.Error(message, "error", err)
	if mongodb.IsTransient(err) {
		return apperrors.Unavailable("analytics store", err)
	}
	return apperrors.Internal(message, err)
}
