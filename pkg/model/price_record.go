package model

import (
	"math"
	"time"
)

type BookingTrend string

const (
	TrendIncreasing BookingTrend = "increasing"
	TrendDecreasing BookingTrend = "decreasing"
	TrendStable     BookingTrend = "stable"
)

// TrendBetween compares a newly computed price to the one it replaces.
func TrendBetween(previous, current int64) BookingTrend {
	switch {
	case current > previous:
		return TrendIncreasing
	case current < previous:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// PriceSnapshot is one immutable derivation in a record's bounded history.
type PriceSnapshot struct {
	TakenAt          time.Time `json:"taken_at" bson:"taken_at"`
	BasePrice        int64     `json:"base_price" bson:"base_price"`
	FinalPrice       int64     `json:"final_price" bson:"final_price"`
	DemandMultiplier float64   `json:"demand_multiplier" bson:"demand_multiplier"`
	OccupancyRatio   float64   `json:"occupancy_ratio" bson:"occupancy_ratio"`
	BookedUnits      int       `json:"booked_units" bson:"booked_units"`
}

// PriceRecord is the cached price for one (kind, item, dateKey). Version increments on every
// write and guards compare-and-swap updates.
type PriceRecord struct {
	ID                string         `json:"-" bson:"_id"`
	ItemKind          ItemKind       `json:"item_kind" bson:"item_kind"`
	ItemID            string         `json:"item_id" bson:"item_id"`
	DateKey           string         `json:"date_key" bson:"date_key"`
	BasePrice         int64          `json:"base_price" bson:"base_price"`
	CurrentPrice      int64          `json:"current_price" bson:"current_price"`
	PreviousPrice     int64          `json:"previous_price" bson:"previous_price"`
	DemandMultiplier  float64        `json:"demand_multiplier" bson:"demand_multiplier"`
	Factors           []DemandFactor `json:"factors" bson:"factors"`
	OccupancyRatio    float64        `json:"occupancy_ratio" bson:"occupancy_ratio"`
	CapacityTotal     int            `json:"capacity_total" bson:"capacity_total"`
	CapacityAvailable int            `json:"capacity_available" bson:"capacity_available"`
	BookingTrend      BookingTrend   `json:"booking_trend" bson:"booking_trend"`
	LastComputedAt    time.Time      `json:"last_computed_at" bson:"last_computed_at"`
	// OccupancyReportedAt is the ReportedAt of the newest occupancy update applied.
	OccupancyReportedAt time.Time       `json:"-" bson:"occupancy_reported_at,omitempty"`
	History             []PriceSnapshot `json:"-" bson:"history"`
	Version             int64           `json:"-" bson:"version"`
	CreatedAt           time.Time       `json:"created_at" bson:"created_at"`
}

func PriceRecordID(kind ItemKind, itemID, dateKey string) string {
	return string(kind) + ":" + itemID + ":" + dateKey
}

func (r *PriceRecord) BookedUnits() int {
	return r.CapacityTotal - r.CapacityAvailable
}

// PriceChangePercent is the change from PreviousPrice to CurrentPrice, rounded to 2 decimals.
func (r *PriceRecord) PriceChangePercent() float64 {
	if r.PreviousPrice == 0 {
		return 0
	}
	pct := float64(r.CurrentPrice-r.PreviousPrice) / float64(r.PreviousPrice) * 100
	return math.Round(pct*100) / 100
}

// IsStale reports whether the record is due for recomputation at now.
func (r *PriceRecord) IsStale(now time.Time, interval time.Duration) bool {
	return now.Sub(r.LastComputedAt) >= interval
}

// OccupancyRatio returns booked/total clamped to [0,1].
func OccupancyRatio(total, available int) float64 {
	if total <= 0 {
		return 0
	}
	ratio := float64(total-available) / float64(total)
	return math.Max(0, math.Min(1, ratio))
}

// ClampCapacity keeps available within [0, total].
func ClampCapacity(total, available int) int {
	if available < 0 {
		return 0
	}
	if available > total {
		return total
	}
	return available
}
