// Package demand derives the multiplicative demand factors active for an item on a travel date.
//
// The engine is pure: identical inputs always yield identical factors, and it is safe for
// concurrent use without synchronization.
package demand

import (
	"fmt"
	"time"

	"tripfare/pkg/locale"
	"tripfare/pkg/model"
)

const (
	WeekendPremium = 1.15

	HighOccupancyThreshold     = 0.8
	ModerateOccupancyThreshold = 0.6
	LowOccupancyThreshold      = 0.3

	HighDemandMultiplier     = 1.3
	ModerateDemandMultiplier = 1.1
	LowDemandMultiplier      = 0.85
)

type Engine struct {
	market   locale.Country
	calendar Calendar
}

func NewEngine(market locale.Country, calendar Calendar) *Engine {
	return &Engine{market: market, calendar: calendar}
}

// Factors returns the active factors for date, ordered seasonal, time-based, occupancy, events.
func (e *Engine) Factors(date time.Time, occupancy float64, kind model.ItemKind) []model.DemandFactor {
	date = date.UTC()
	factors := make([]model.DemandFactor, 0, 4)

	if f, ok := e.seasonal(date); ok {
		factors = append(factors, f)
	}
	if f, ok := e.timeBased(date); ok {
		factors = append(factors, f)
	}
	if f, ok := occupancyFactor(occupancy); ok {
		factors = append(factors, f)
	}
	return append(factors, e.events(date, kind)...)
}

func (e *Engine) seasonal(date time.Time) (model.DemandFactor, bool) {
	for _, s := range e.calendar.Seasons {
		if !s.includes(date.Month()) {
			continue
		}
		from, to := seasonBounds(s, date)
		return model.DemandFactor{
			Kind:        model.FactorSeasonal,
			Name:        s.Name,
			Multiplier:  s.Multiplier,
			ValidFrom:   &from,
			ValidTo:     &to,
			Active:      true,
			Description: fmt.Sprintf("%s pricing", s.Name),
		}, true
	}
	return model.DemandFactor{}, false
}

// seasonBounds widens date's month to the contiguous run of months in s around it.
func seasonBounds(s Season, date time.Time) (time.Time, time.Time) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	start, end := first, first
	for i := 0; i < 11 && s.includes(start.AddDate(0, -1, 0).Month()); i++ {
		start = start.AddDate(0, -1, 0)
	}
	for i := 0; i < 11 && s.includes(end.AddDate(0, 1, 0).Month()); i++ {
		end = end.AddDate(0, 1, 0)
	}
	return start, end.AddDate(0, 1, 0).Add(-time.Second)
}

func (e *Engine) timeBased(date time.Time) (model.DemandFactor, bool) {
	if !e.market.IsPeakDay(date.Weekday()) {
		return model.DemandFactor{}, false
	}
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)
	return model.DemandFactor{
		Kind:        model.FactorTimeBased,
		Name:        "Weekend Premium",
		Multiplier:  WeekendPremium,
		ValidFrom:   &from,
		ValidTo:     &to,
		Active:      true,
		Description: fmt.Sprintf("%s travel ahead of the %s rest day", date.Weekday(), e.market.Name),
	}, true
}

func occupancyFactor(ratio float64) (model.DemandFactor, bool) {
	f := model.DemandFactor{Kind: model.FactorOccupancy, Active: true}
	switch {
	case ratio > HighOccupancyThreshold:
		f.Name, f.Multiplier = "High Demand", HighDemandMultiplier
	case ratio > ModerateOccupancyThreshold:
		f.Name, f.Multiplier = "Moderate Demand", ModerateDemandMultiplier
	case ratio < LowOccupancyThreshold:
		f.Name, f.Multiplier = "Low Demand Discount", LowDemandMultiplier
	default:
		return model.DemandFactor{}, false
	}
	f.Description = fmt.Sprintf("%.0f%% of capacity booked", ratio*100)
	return f, true
}

func (e *Engine) events(date time.Time, kind model.ItemKind) []model.DemandFactor {
	var out []model.DemandFactor
	for _, ev := range e.calendar.Events {
		if !ev.appliesTo(kind) || !ev.covers(date) {
			continue
		}
		from, to := ev.window(date)
		desc := ev.Description
		if desc == "" {
			desc = fmt.Sprintf("%s (%s to %s)", ev.Name, ev.Start, ev.End)
		}
		out = append(out, model.DemandFactor{
			Kind:        model.FactorEvent,
			Name:        ev.Name,
			Multiplier:  ev.Multiplier,
			ValidFrom:   &from,
			ValidTo:     &to,
			Active:      true,
			Description: desc,
		})
	}
	return out
}
