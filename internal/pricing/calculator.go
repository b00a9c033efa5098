// Package pricing turns demand factors into bounded prices and maintains the bounded
// snapshot history of each price record.
package pricing

import (
	"github.com/shopspring/decimal"

	"tripfare/pkg/model"
)

var (
	MinMultiplier = decimal.NewFromFloat(0.5)
	MaxMultiplier = decimal.NewFromFloat(3.0)
)

// CombinedMultiplier is the product of all active factor multipliers clamped to
// [MinMultiplier, MaxMultiplier]. No factors yields 1.
func CombinedMultiplier(factors []model.DemandFactor) decimal.Decimal {
	total := decimal.NewFromInt(1)
	for _, f := range factors {
		if !f.Active || f.Multiplier <= 0 {
			continue
		}
		total = total.Mul(decimal.NewFromFloat(f.Multiplier))
	}
	if total.LessThan(MinMultiplier) {
		return MinMultiplier
	}
	if total.GreaterThan(MaxMultiplier) {
		return MaxMultiplier
	}
	return total
}

// ComputePrice applies the clamped multiplier to basePrice and rounds half away from zero
// to a whole currency unit.
func ComputePrice(basePrice int64, factors []model.DemandFactor) (price int64, multiplier float64) {
	m := CombinedMultiplier(factors)
	price = decimal.NewFromInt(basePrice).Mul(m).Round(0).IntPart()
	multiplier, _ = m.Round(4).Float64()
	return price, multiplier
}

// ApplyMarkup returns price increased by markup (0.15 = 15%), rounded like ComputePrice.
func ApplyMarkup(price int64, markup float64) int64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(markup))
	return decimal.NewFromInt(price).Mul(factor).Round(0).IntPart()
}
