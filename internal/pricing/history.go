package pricing

import (
	"sort"
	"time"

	"tripfare/pkg/model"
)

const (
	DefaultHistoryRetention  = 30 * 24 * time.Hour
	DefaultHistoryMaxEntries = 100
)

// HistoryPolicy bounds a record's snapshot history by age and by count.
type HistoryPolicy struct {
	Retention  time.Duration
	MaxEntries int
}

func DefaultHistoryPolicy() HistoryPolicy {
	return HistoryPolicy{Retention: DefaultHistoryRetention, MaxEntries: DefaultHistoryMaxEntries}
}

// Append adds snap, drops entries older than Retention relative to now, then keeps only the
// newest MaxEntries. The input slice is not modified.
func (p HistoryPolicy) Append(history []model.PriceSnapshot, snap model.PriceSnapshot, now time.Time) []model.PriceSnapshot {
	out := make([]model.PriceSnapshot, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, snap)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })

	cutoff := now.Add(-p.Retention)
	first := 0
	for first < len(out) && out[first].TakenAt.Before(cutoff) {
		first++
	}
	out = out[first:]

	if p.MaxEntries > 0 && len(out) > p.MaxEntries {
		out = out[len(out)-p.MaxEntries:]
	}
	return out
}

// Query returns a copy of the snapshots taken within the last days at now, oldest first.
// The window never reaches past Retention, so records that have not been appended to lately
// still drop snapshots that aged out.
func (p HistoryPolicy) Query(history []model.PriceSnapshot, days int, now time.Time) []model.PriceSnapshot {
	window := time.Duration(days) * 24 * time.Hour
	if p.Retention > 0 && p.Retention < window {
		window = p.Retention
	}
	cutoff := now.Add(-window)
	out := make([]model.PriceSnapshot, 0, len(history))
	for _, s := range history {
		if !s.TakenAt.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
