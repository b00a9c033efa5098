package model

import "time"

// Quote is the read view of a PriceRecord returned to collaborators.
type Quote struct {
	ItemKind           ItemKind       `json:"item_kind"`
	ItemID             string         `json:"item_id"`
	DateKey            string         `json:"date_key"`
	CurrentPrice       int64          `json:"current_price"`
	BasePrice          int64          `json:"base_price"`
	OccupancyRatio     float64        `json:"occupancy_ratio"`
	BookingTrend       BookingTrend   `json:"booking_trend"`
	PriceChangePercent float64        `json:"price_change_percent"`
	DemandMultiplier   float64        `json:"demand_multiplier"`
	Factors            []DemandFactor `json:"factors"`
	CapacityTotal      int            `json:"capacity_total"`
	CapacityAvailable  int            `json:"capacity_available"`
	LastComputedAt     time.Time      `json:"last_computed_at"`
	NextRefreshAt      time.Time      `json:"next_refresh_at"`
}

func NewQuote(rec *PriceRecord, refreshInterval time.Duration) *Quote {
	return &Quote{
		ItemKind:           rec.ItemKind,
		ItemID:             rec.ItemID,
		DateKey:            rec.DateKey,
		CurrentPrice:       rec.CurrentPrice,
		BasePrice:          rec.BasePrice,
		OccupancyRatio:     rec.OccupancyRatio,
		BookingTrend:       rec.BookingTrend,
		PriceChangePercent: rec.PriceChangePercent(),
		DemandMultiplier:   rec.DemandMultiplier,
		Factors:            rec.Factors,
		CapacityTotal:      rec.CapacityTotal,
		CapacityAvailable:  rec.CapacityAvailable,
		LastComputedAt:     rec.LastComputedAt,
		NextRefreshAt:      rec.LastComputedAt.Add(refreshInterval),
	}
}

// HistoryEntry is a snapshot tagged with the date record it belongs to.
type HistoryEntry struct {
	DateKey string `json:"date_key"`
	PriceSnapshot
}

type PriceHistory struct {
	ItemKind  ItemKind       `json:"item_kind"`
	ItemID    string         `json:"item_id"`
	Days      int            `json:"days"`
	Snapshots []HistoryEntry `json:"snapshots"`
}

// OccupancyUpdate is the booking layer's capacity report for one item date. A zero
// CapacityTotal keeps the stored total.
type OccupancyUpdate struct {
	ItemKind          ItemKind  `json:"item_kind" validate:"required,oneof=flight hotel"`
	ItemID            string    `json:"item_id" validate:"required,item_id"`
	DateKey           string    `json:"date_key" validate:"required,date_key"`
	CapacityTotal     int       `json:"capacity_total,omitempty" validate:"min=0,max=100000"`
	CapacityAvailable int       `json:"capacity_available" validate:"min=0,max=100000"`
	ReportedAt        time.Time `json:"reported_at,omitempty"`
}
