package model

import "time"

// PriceDeltaStats averages currentPrice - basePrice over records on one side of base.
type PriceDeltaStats struct {
	Count          int     `json:"count"`
	AverageDelta   float64 `json:"average_delta"`
	AveragePercent float64 `json:"average_percent"`
}

type TopItem struct {
	ItemKind     ItemKind `json:"item_kind"`
	ItemID       string   `json:"item_id"`
	DateKey      string   `json:"date_key"`
	CurrentPrice int64    `json:"current_price"`
	BasePrice    int64    `json:"base_price"`
}

// AnalyticsReport is computed on demand and never persisted.
type AnalyticsReport struct {
	TotalRecords            int             `json:"total_records"`
	TotalSnapshots          int             `json:"total_snapshots"`
	PriceIncreases          PriceDeltaStats `json:"price_increases"`
	PriceDecreases          PriceDeltaStats `json:"price_decreases"`
	TopItems                []TopItem       `json:"top_items"`
	ActiveFreezes           int             `json:"active_freezes"`
	UsedFreezes             int             `json:"used_freezes"`
	ExpiredFreezes          int             `json:"expired_freezes"`
	TotalSavingsFromFreezes int64           `json:"total_savings_from_freezes"`
	GeneratedAt             time.Time       `json:"generated_at"`
}
