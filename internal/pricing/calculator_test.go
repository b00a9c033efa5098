package pricing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/internal/demand"
	"tripfare/pkg/locale"
	"tripfare/pkg/model"
)

func factor(kind model.FactorKind, m float64) model.DemandFactor {
	return model.DemandFactor{Kind: kind, Name: string(kind), Multiplier: m, Active: true}
}

func TestComputePrice(t *testing.T) {
	tests := []struct {
		name      string
		base      int64
		factors   []model.DemandFactor
		wantPrice int64
		wantMult  float64
	}{
		{
			name:      "no factors",
			base:      10000,
			wantPrice: 10000,
			wantMult:  1,
		},
		{
			name:      "high demand during event",
			base:      8500,
			factors:   []model.DemandFactor{factor(model.FactorOccupancy, 1.3), factor(model.FactorEvent, 1.6)},
			wantPrice: 17680,
			wantMult:  2.08,
		},
		{
			name:      "low demand discount",
			base:      10000,
			factors:   []model.DemandFactor{factor(model.FactorOccupancy, 0.85)},
			wantPrice: 8500,
			wantMult:  0.85,
		},
		{
			name: "clamped to ceiling",
			base: 1000,
			factors: []model.DemandFactor{
				factor(model.FactorSeasonal, 1.5), factor(model.FactorTimeBased, 1.15),
				factor(model.FactorOccupancy, 1.3), factor(model.FactorEvent, 1.8), factor(model.FactorEvent, 1.7),
			},
			wantPrice: 3000,
			wantMult:  3,
		},
		{
			name:      "clamped to floor",
			base:      1000,
			factors:   []model.DemandFactor{factor(model.FactorOccupancy, 0.3), factor(model.FactorSeasonal, 0.9)},
			wantPrice: 500,
			wantMult:  0.5,
		},
		{
			name:      "rounds half away from zero",
			base:      1001,
			factors:   []model.DemandFactor{factor(model.FactorTimeBased, 1.5)},
			wantPrice: 1502,
			wantMult:  1.5,
		},
		{
			name:      "inactive factor ignored",
			base:      1000,
			factors:   []model.DemandFactor{{Kind: model.FactorEvent, Multiplier: 1.8, Active: false}},
			wantPrice: 1000,
			wantMult:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, mult := ComputePrice(tt.base, tt.factors)
			assert.Equal(t, tt.wantPrice, price)
			assert.Equal(t, tt.wantMult, mult)
		})
	}
}

func TestComputePrice_AlwaysWithinClamp(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		base := int64(rng.Intn(100000) + 1)
		n := rng.Intn(8)
		factors := make([]model.DemandFactor, 0, n)
		for j := 0; j < n; j++ {
			factors = append(factors, factor(model.FactorEvent, 0.05+rng.Float64()*2.5))
		}

		price, _ := ComputePrice(base, factors)
		floor, _ := ComputePrice(base, []model.DemandFactor{factor(model.FactorOccupancy, 0.01)})
		ceil, _ := ComputePrice(base, []model.DemandFactor{factor(model.FactorEvent, 100)})

		require.GreaterOrEqual(t, price, floor, "base=%d factors=%v", base, factors)
		require.LessOrEqual(t, price, ceil, "base=%d factors=%v", base, factors)

		again, _ := ComputePrice(base, factors)
		require.Equal(t, price, again, "ComputePrice must be deterministic")
	}
}

func TestComputePrice_WithEngine(t *testing.T) {
	market, err := locale.Lookup("US")
	require.NoError(t, err)
	engine := demand.NewEngine(market, demand.Calendar{
		Seasons: demand.DefaultSeasons(),
		Events: []demand.Event{{
			Name:       "Spring Festival",
			Start:      demand.MonthDay{Month: time.March, Day: 10},
			End:        demand.MonthDay{Month: time.March, Day: 14},
			Multiplier: 1.6,
		}},
	})
	wednesday := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	price, _ := ComputePrice(8500, engine.Factors(wednesday, 0.85, model.KindFlight))
	assert.Equal(t, int64(17680), price)

	price, _ = ComputePrice(10000, engine.Factors(time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC), 0.2, model.KindHotel))
	assert.Equal(t, int64(8500), price)
}

func TestApplyMarkup(t *testing.T) {
	assert.Equal(t, int64(10350), ApplyMarkup(9000, 0.15))
	assert.Equal(t, int64(10500), ApplyMarkup(9000, 1.0/6))
	assert.Equal(t, int64(9000), ApplyMarkup(9000, 0))
}
