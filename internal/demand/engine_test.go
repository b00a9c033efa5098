package demand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/pkg/locale"
	"tripfare/pkg/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEngine(t *testing.T, region string, events ...Event) *Engine {
	t.Helper()
	market, err := locale.Lookup(region)
	require.NoError(t, err)
	return NewEngine(market, Calendar{Seasons: DefaultSeasons(), Events: events})
}

func names(factors []model.DemandFactor) []string {
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		out = append(out, f.Name)
	}
	return out
}

func TestFactors_Seasonal(t *testing.T) {
	e := newEngine(t, "US")
	tests := []struct {
		name string
		date time.Time
		want string
		mult float64
	}{
		{"december peak", day(2025, 12, 3), "Winter Holiday Peak", 1.5},
		{"january peak", day(2025, 1, 14), "Winter Holiday Peak", 1.5},
		{"summer peak", day(2025, 6, 11), "Summer Peak", 1.4},
		{"shoulder", day(2025, 10, 8), "Shoulder Season", 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := e.Factors(tt.date, 0.5, model.KindFlight)
			require.NotEmpty(t, factors)
			assert.Equal(t, model.FactorSeasonal, factors[0].Kind)
			assert.Equal(t, tt.want, factors[0].Name)
			assert.Equal(t, tt.mult, factors[0].Multiplier)
			assert.True(t, factors[0].Active)
		})
	}

	assert.Empty(t, e.Factors(day(2025, 3, 12), 0.5, model.KindFlight), "march wednesday at mid occupancy has no factors")
}

func TestFactors_SeasonBoundsWrapYear(t *testing.T) {
	e := newEngine(t, "US")
	f := e.Factors(day(2026, 1, 14), 0.5, model.KindHotel)[0]

	require.NotNil(t, f.ValidFrom)
	require.NotNil(t, f.ValidTo)
	assert.Equal(t, day(2025, 12, 1), *f.ValidFrom)
	assert.Equal(t, day(2026, 2, 1).Add(-time.Second), *f.ValidTo)
}

func TestFactors_WeekendPremiumFollowsMarket(t *testing.T) {
	tests := []struct {
		region string
		date   time.Time
		want   bool
	}{
		{"US", day(2025, 3, 7), true},  // Friday
		{"US", day(2025, 3, 8), true},  // Saturday
		{"US", day(2025, 3, 9), false}, // Sunday
		{"US", day(2025, 3, 6), false}, // Thursday
		{"IL", day(2025, 3, 6), true},  // Thursday
		{"IL", day(2025, 3, 7), true},  // Friday
		{"IL", day(2025, 3, 8), false}, // Saturday
	}
	for _, tt := range tests {
		t.Run(tt.region+" "+tt.date.Weekday().String(), func(t *testing.T) {
			e := newEngine(t, tt.region)
			factors := e.Factors(tt.date, 0.5, model.KindFlight)
			found := false
			for _, f := range factors {
				if f.Kind == model.FactorTimeBased {
					found = true
					assert.Equal(t, WeekendPremium, f.Multiplier)
				}
			}
			assert.Equal(t, tt.want, found)
		})
	}
}

func TestFactors_OccupancyThresholds(t *testing.T) {
	e := newEngine(t, "US")
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.85, HighDemandMultiplier},
		{0.81, HighDemandMultiplier},
		{0.8, ModerateDemandMultiplier},
		{0.61, ModerateDemandMultiplier},
		{0.6, 0},
		{0.3, 0},
		{0.29, LowDemandMultiplier},
		{0, LowDemandMultiplier},
	}
	for _, tt := range tests {
		factors := e.Factors(day(2025, 3, 12), tt.ratio, model.KindHotel)
		if tt.want == 0 {
			assert.Empty(t, factors, "ratio %v", tt.ratio)
			continue
		}
		require.Len(t, factors, 1, "ratio %v", tt.ratio)
		assert.Equal(t, model.FactorOccupancy, factors[0].Kind)
		assert.Equal(t, tt.want, factors[0].Multiplier, "ratio %v", tt.ratio)
	}
}

func TestFactors_OverlappingEventsAllApply(t *testing.T) {
	e := newEngine(t, "US",
		Event{Name: "Spring Festival", Start: MonthDay{time.March, 10}, End: MonthDay{time.March, 14}, Multiplier: 1.6},
		Event{Name: "Marathon", Start: MonthDay{time.March, 12}, End: MonthDay{time.March, 12}, Multiplier: 1.4},
		Event{Name: "Hotel Expo", Start: MonthDay{time.March, 1}, End: MonthDay{time.March, 31}, Multiplier: 1.5, Kinds: []model.ItemKind{model.KindHotel}},
	)

	flight := e.Factors(day(2025, 3, 12), 0.5, model.KindFlight)
	assert.Equal(t, []string{"Spring Festival", "Marathon"}, names(flight))

	hotel := e.Factors(day(2025, 3, 12), 0.5, model.KindHotel)
	assert.Equal(t, []string{"Spring Festival", "Marathon", "Hotel Expo"}, names(hotel))

	assert.Empty(t, e.Factors(day(2025, 3, 15), 0.5, model.KindFlight))
}

func TestFactors_EventWrappingNewYear(t *testing.T) {
	e := newEngine(t, "US",
		Event{Name: "New Year", Start: MonthDay{time.December, 28}, End: MonthDay{time.January, 3}, Multiplier: 1.8},
	)

	for _, d := range []time.Time{day(2025, 12, 28), day(2025, 12, 31), day(2026, 1, 1), day(2026, 1, 3)} {
		factors := e.Factors(d, 0.5, model.KindFlight)
		assert.Contains(t, names(factors), "New Year", d.Format("2006-01-02"))
	}
	assert.NotContains(t, names(e.Factors(day(2026, 1, 4), 0.5, model.KindFlight)), "New Year")

	var ev model.DemandFactor
	for _, f := range e.Factors(day(2026, 1, 2), 0.5, model.KindFlight) {
		if f.Kind == model.FactorEvent {
			ev = f
		}
	}
	require.NotNil(t, ev.ValidFrom)
	assert.Equal(t, day(2025, 12, 28), *ev.ValidFrom)
	assert.Equal(t, 2026, ev.ValidTo.Year())
}

func TestFactors_OrderAndDeterminism(t *testing.T) {
	e := newEngine(t, "US",
		Event{Name: "Summer Fair", Start: MonthDay{time.June, 1}, End: MonthDay{time.June, 30}, Multiplier: 1.5},
	)
	date := day(2025, 6, 13) // Friday in June

	first := e.Factors(date, 0.9, model.KindFlight)
	second := e.Factors(date, 0.9, model.KindFlight)
	assert.Equal(t, first, second)

	kinds := make([]model.FactorKind, 0, len(first))
	for _, f := range first {
		kinds = append(kinds, f.Kind)
		assert.Greater(t, f.Multiplier, 0.0)
	}
	assert.Equal(t, []model.FactorKind{
		model.FactorSeasonal, model.FactorTimeBased, model.FactorOccupancy, model.FactorEvent,
	}, kinds)
}
