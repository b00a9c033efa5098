package service

import (
	"math"
	"sort"
	"time"

	"tripfare/internal/analytics/repository"
	"tripfare/pkg/model"
)

// Aggregate rolls records and freezes into a report as of now. It never mutates its input;
// active freezes whose window has passed are counted as expired. A negative top lists no items.
func Aggregate(records []repository.RecordSummary, freezes []repository.FreezeSummary, top int, now time.Time) *model.AnalyticsReport {
	top = max(top, 0)
	report := &model.AnalyticsReport{
		TotalRecords: len(records),
		TopItems:     make([]model.TopItem, 0, min(top, len(records))),
		GeneratedAt:  now,
	}

	var increases, decreases deltaAccumulator
	for _, rec := range records {
		report.TotalSnapshots += rec.Snapshots

		delta := rec.CurrentPrice - rec.BasePrice
		switch {
		case delta > 0:
			increases.add(delta, rec.BasePrice)
		case delta < 0:
			decreases.add(delta, rec.BasePrice)
		}
	}
	report.PriceIncreases = increases.stats()
	report.PriceDecreases = decreases.stats()

	ranked := make([]repository.RecordSummary, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CurrentPrice != b.CurrentPrice {
			return a.CurrentPrice > b.CurrentPrice
		}
		if a.ItemKind != b.ItemKind {
			return a.ItemKind < b.ItemKind
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		return a.DateKey < b.DateKey
	})
	for _, rec := range ranked[:min(top, len(ranked))] {
		report.TopItems = append(report.TopItems, model.TopItem{
			ItemKind:     rec.ItemKind,
			ItemID:       rec.ItemID,
			DateKey:      rec.DateKey,
			CurrentPrice: rec.CurrentPrice,
			BasePrice:    rec.BasePrice,
		})
	}

	for _, f := range freezes {
		switch presentState(f, now) {
		case model.FreezeActive:
			report.ActiveFreezes++
		case model.FreezeUsed:
			report.UsedFreezes++
			report.TotalSavingsFromFreezes += f.Savings
		case model.FreezeExpired:
			report.ExpiredFreezes++
		}
	}
	return report
}

func presentState(f repository.FreezeSummary, now time.Time) model.FreezeState {
	freeze := model.PriceFreeze{State: f.State, WindowEnd: f.WindowEnd}
	return freeze.Present(now)
}

type deltaAccumulator struct {
	count      int
	deltaSum   int64
	percentSum float64
}

func (a *deltaAccumulator) add(delta, base int64) {
	a.count++
	a.deltaSum += delta
	if base > 0 {
		a.percentSum += float64(delta) / float64(base) * 100
	}
}

func (a *deltaAccumulator) stats() model.PriceDeltaStats {
	if a.count == 0 {
		return model.PriceDeltaStats{}
	}
	return model.PriceDeltaStats{
		Count:          a.count,
		AverageDelta:   round2(float64(a.deltaSum) / float64(a.count)),
		AveragePercent: round2(a.percentSum / float64(a.count)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
