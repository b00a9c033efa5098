package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/internal/analytics/repository"
	"tripfare/pkg/clock"
	"tripfare/pkg/config"
	apperrors "tripfare/pkg/errors"
	"tripfare/pkg/logger"
	"tripfare/pkg/model"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type mockSummaryRepository struct {
	recordSummariesFunc func(ctx context.Context) ([]repository.RecordSummary, error)
	freezeSummariesFunc func(ctx context.Context) ([]repository.FreezeSummary, error)
}

func (m *mockSummaryRepository) RecordSummaries(ctx context.Context) ([]repository.RecordSummary, error) {
	return m.recordSummariesFunc(ctx)
}

func (m *mockSummaryRepository) FreezeSummaries(ctx context.Context) ([]repository.FreezeSummary, error) {
	return m.freezeSummariesFunc(ctx)
}

func fixtureRecords() []repository.RecordSummary {
	return []repository.RecordSummary{
		{ItemKind: model.KindFlight, ItemID: "FL-1", DateKey: "2025-04-10", BasePrice: 8500, CurrentPrice: 17680, Snapshots: 12},
		{ItemKind: model.KindFlight, ItemID: "FL-2", DateKey: "2025-04-10", BasePrice: 10000, CurrentPrice: 11000, Snapshots: 3},
		{ItemKind: model.KindHotel, ItemID: "H-1", DateKey: "2025-04-10_2025-04-12", BasePrice: 10000, CurrentPrice: 8500, Snapshots: 5},
		{ItemKind: model.KindHotel, ItemID: "H-2", DateKey: "2025-04-11", BasePrice: 20000, CurrentPrice: 20000, Snapshots: 1},
		{ItemKind: model.KindHotel, ItemID: "H-3", DateKey: "2025-04-11", BasePrice: 12000, CurrentPrice: 11000, Snapshots: 0},
	}
}

func fixtureFreezes() []repository.FreezeSummary {
	later := testNow.Add(12 * time.Hour)
	earlier := testNow.Add(-time.Hour)
	return []repository.FreezeSummary{
		{State: model.FreezeActive, WindowEnd: later, Savings: 700},
		{State: model.FreezeActive, WindowEnd: later, Savings: 300},
		{State: model.FreezeActive, WindowEnd: earlier, Savings: 900},
		{State: model.FreezeUsed, WindowEnd: earlier, Savings: 1500},
		{State: model.FreezeUsed, WindowEnd: later, Savings: 1350},
		{State: model.FreezeExpired, WindowEnd: earlier, Savings: 4000},
	}
}

func TestAggregate_MixedStates(t *testing.T) {
	report := Aggregate(fixtureRecords(), fixtureFreezes(), 3, testNow)

	assert.Equal(t, 5, report.TotalRecords)
	assert.Equal(t, 21, report.TotalSnapshots)

	assert.Equal(t, 2, report.ActiveFreezes)
	assert.Equal(t, 2, report.UsedFreezes)
	assert.Equal(t, 2, report.ExpiredFreezes, "lapsed active freezes count as expired")
	assert.Equal(t, int64(2850), report.TotalSavingsFromFreezes, "only used freezes contribute savings")

	// increases: +9180 (108%), +1000 (10%)
	assert.Equal(t, model.PriceDeltaStats{Count: 2, AverageDelta: 5090, AveragePercent: 59}, report.PriceIncreases)
	// decreases: -1500 (-15%), -1000 (-8.333%)
	assert.Equal(t, 2, report.PriceDecreases.Count)
	assert.Equal(t, -1250.0, report.PriceDecreases.AverageDelta)
	assert.InDelta(t, -11.67, report.PriceDecreases.AveragePercent, 1e-9)

	require.Len(t, report.TopItems, 3)
	assert.Equal(t, "H-2", report.TopItems[0].ItemID)
	assert.Equal(t, "FL-1", report.TopItems[1].ItemID)
	assert.Equal(t, "FL-2", report.TopItems[2].ItemID, "ties break by kind then id")
	assert.Equal(t, testNow, report.GeneratedAt)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	records := fixtureRecords()
	freezes := fixtureFreezes()

	Aggregate(records, freezes, 5, testNow)

	assert.Equal(t, fixtureRecords(), records)
	assert.Equal(t, model.FreezeActive, freezes[2].State)
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil, nil, 5, testNow)

	assert.Zero(t, report.TotalSnapshots)
	assert.Equal(t, model.PriceDeltaStats{}, report.PriceIncreases)
	assert.NotNil(t, report.TopItems)
	assert.Empty(t, report.TopItems)
	assert.Zero(t, report.TotalSavingsFromFreezes)
}

func TestAggregate_NegativeTop(t *testing.T) {
	var report *model.AnalyticsReport
	require.NotPanics(t, func() {
		report = Aggregate(fixtureRecords(), fixtureFreezes(), -1, testNow)
	})
	assert.Empty(t, report.TopItems)
	assert.NotNil(t, report.TopItems)
	assert.Equal(t, len(fixtureRecords()), report.TotalRecords)
}

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		top      int
		wantTop  int
		recErr   error
		wantCode string
	}{
		{name: "default top", top: 0, wantTop: 5},
		{name: "explicit top", top: 2, wantTop: 2},
		{name: "store failure", top: 5, recErr: errors.New("cursor killed"), wantCode: apperrors.CodeInternal},
		{name: "deadline", top: 5, recErr: context.DeadlineExceeded, wantCode: apperrors.CodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSummaryRepository{
				recordSummariesFunc: func(context.Context) ([]repository.RecordSummary, error) {
					if tt.recErr != nil {
						return nil, tt.recErr
					}
					return fixtureRecords(), nil
				},
				freezeSummariesFunc: func(context.Context) ([]repository.FreezeSummary, error) {
					return fixtureFreezes(), nil
				},
			}
			svc := NewAnalyticsService(repo, clock.NewMockClock(testNow), &config.Config{Log: logger.Discard()})

			report, err := svc.Report(context.Background(), tt.top)
			if tt.wantCode != "" {
				assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, report.TopItems, tt.wantTop)
			assert.Equal(t, int64(2850), report.TotalSavingsFromFreezes)
		})
	}
}
