package pricing

import (
	"time"

	"tripfare/pkg/model"
)

// FactorSource yields the demand factors for an evaluation date.
type FactorSource interface {
	Factors(date time.Time, occupancy float64, kind model.ItemKind) []model.DemandFactor
}

// Repricer recomputes a PriceRecord in memory. It never touches storage or the wall clock;
// callers pass now and persist the result.
type Repricer struct {
	factors   FactorSource
	simulator DemandSimulator
	history   HistoryPolicy
}

func NewRepricer(factors FactorSource, simulator DemandSimulator, history HistoryPolicy) *Repricer {
	if simulator == nil {
		simulator = NoopSimulator{}
	}
	return &Repricer{factors: factors, simulator: simulator, history: history}
}

// History is the policy bounding every record's snapshots.
func (p *Repricer) History() HistoryPolicy {
	return p.history
}

// NewRecord seeds a record from its catalog entry and computes its first price.
func (p *Repricer) NewRecord(item *model.InventoryItem, dateKey string, evalDate, now time.Time) *model.PriceRecord {
	rec := &model.PriceRecord{
		ID:                model.PriceRecordID(item.ItemKind, item.ItemID, dateKey),
		ItemKind:          item.ItemKind,
		ItemID:            item.ItemID,
		DateKey:           dateKey,
		BasePrice:         item.BasePrice,
		CapacityTotal:     item.Capacity,
		CapacityAvailable: item.Capacity,
		BookingTrend:      model.TrendStable,
		CreatedAt:         now,
	}
	p.reprice(rec, evalDate, now)
	return rec
}

// Refresh simulates consumption since the last computation and reprices the record.
// It returns the number of units consumed.
func (p *Repricer) Refresh(rec *model.PriceRecord, evalDate, now time.Time) int {
	consumed := p.simulator.Consume(rec.ItemKind, rec.CapacityAvailable)
	rec.CapacityAvailable = model.ClampCapacity(rec.CapacityTotal, rec.CapacityAvailable-consumed)
	p.reprice(rec, evalDate, now)
	return consumed
}

// ApplyOccupancy reprices against capacity reported by the booking layer. A zero total
// keeps the stored total.
func (p *Repricer) ApplyOccupancy(rec *model.PriceRecord, total, available int, evalDate, now time.Time) {
	if total > 0 {
		rec.CapacityTotal = total
	}
	rec.CapacityAvailable = model.ClampCapacity(rec.CapacityTotal, available)
	p.reprice(rec, evalDate, now)
}

func (p *Repricer) reprice(rec *model.PriceRecord, evalDate, now time.Time) {
	rec.OccupancyRatio = model.OccupancyRatio(rec.CapacityTotal, rec.CapacityAvailable)
	factors := p.factors.Factors(evalDate, rec.OccupancyRatio, rec.ItemKind)
	price, multiplier := ComputePrice(rec.BasePrice, factors)

	if rec.CurrentPrice > 0 {
		rec.PreviousPrice = rec.CurrentPrice
		rec.BookingTrend = model.TrendBetween(rec.PreviousPrice, price)
	}
	rec.CurrentPrice = price
	rec.DemandMultiplier = multiplier
	rec.Factors = factors
	rec.LastComputedAt = now
	rec.History = p.history.Append(rec.History, model.PriceSnapshot{
		TakenAt:          now,
		BasePrice:        rec.BasePrice,
		FinalPrice:       price,
		DemandMultiplier: multiplier,
		OccupancyRatio:   rec.OccupancyRatio,
		BookedUnits:      rec.BookedUnits(),
	}, now)
}
