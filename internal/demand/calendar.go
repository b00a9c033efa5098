package demand

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tripfare/pkg/model"
)

const (
	MinEventMultiplier = 1.4
	MaxEventMultiplier = 1.8
)

// MonthDay is a recurring calendar day written as "MM-DD".
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

func (md MonthDay) before(other MonthDay) bool {
	if md.Month != other.Month {
		return md.Month < other.Month
	}
	return md.Day < other.Day
}

func (md *MonthDay) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseMonthDay(raw)
	if err != nil {
		return err
	}
	*md = parsed
	return nil
}

func ParseMonthDay(s string) (MonthDay, error) {
	// 2000 is a leap year so 02-29 is accepted.
	t, err := time.Parse("2006-01-02", "2000-"+s)
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q (expected MM-DD): %w", s, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

func monthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// Season is a month-of-year bucket carrying one multiplier.
type Season struct {
	Name       string       `yaml:"name"`
	Months     []time.Month `yaml:"months"`
	Multiplier float64      `yaml:"multiplier"`
}

func (s Season) includes(m time.Month) bool {
	for _, month := range s.Months {
		if month == m {
			return true
		}
	}
	return false
}

// Event is a named yearly date range. End may fall before Start, in which case the
// range wraps the new year. An empty Kinds applies the event to every item kind.
type Event struct {
	Name        string           `yaml:"name"`
	Start       MonthDay         `yaml:"start"`
	End         MonthDay         `yaml:"end"`
	Multiplier  float64          `yaml:"multiplier"`
	Kinds       []model.ItemKind `yaml:"kinds,omitempty"`
	Description string           `yaml:"description,omitempty"`
}

func (e Event) wraps() bool {
	return e.End.before(e.Start)
}

func (e Event) covers(date time.Time) bool {
	md := monthDayOf(date)
	if e.wraps() {
		return !md.before(e.Start) || !e.End.before(md)
	}
	return !md.before(e.Start) && !e.End.before(md)
}

func (e Event) appliesTo(kind model.ItemKind) bool {
	if len(e.Kinds) == 0 {
		return true
	}
	for _, k := range e.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// window returns the concrete occurrence of the event that covers date.
func (e Event) window(date time.Time) (time.Time, time.Time) {
	year := date.Year()
	startYear, endYear := year, year
	if e.wraps() {
		if !monthDayOf(date).before(e.Start) {
			endYear = year + 1
		} else {
			startYear = year - 1
		}
	}
	from := time.Date(startYear, e.Start.Month, e.Start.Day, 0, 0, 0, 0, time.UTC)
	to := time.Date(endYear, e.End.Month, e.End.Day, 23, 59, 59, 0, time.UTC)
	return from, to
}

type Calendar struct {
	Seasons []Season `yaml:"seasons"`
	Events  []Event  `yaml:"events"`
}

func DefaultSeasons() []Season {
	return []Season{
		{Name: "Winter Holiday Peak", Months: []time.Month{time.December, time.January}, Multiplier: 1.5},
		{Name: "Summer Peak", Months: []time.Month{time.May, time.June}, Multiplier: 1.4},
		{Name: "Shoulder Season", Months: []time.Month{time.April, time.October, time.November}, Multiplier: 1.2},
	}
}

func DefaultEvents() []Event {
	return []Event{
		{Name: "Christmas", Start: MonthDay{time.December, 20}, End: MonthDay{time.December, 27}, Multiplier: 1.7},
		{Name: "New Year", Start: MonthDay{time.December, 28}, End: MonthDay{time.January, 3}, Multiplier: 1.8},
		{Name: "Spring Break", Start: MonthDay{time.March, 10}, End: MonthDay{time.March, 20}, Multiplier: 1.4},
		{Name: "Independence Day", Start: MonthDay{time.July, 1}, End: MonthDay{time.July, 7}, Multiplier: 1.5},
		{Name: "Thanksgiving", Start: MonthDay{time.November, 22}, End: MonthDay{time.November, 30}, Multiplier: 1.6},
	}
}

func DefaultCalendar() Calendar {
	return Calendar{Seasons: DefaultSeasons(), Events: DefaultEvents()}
}

// LoadCalendar reads a YAML calendar. Sections missing from the file keep their defaults.
func LoadCalendar(path string) (Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Calendar{}, fmt.Errorf("failed to read demand calendar: %w", err)
	}
	return ParseCalendar(data)
}

func ParseCalendar(data []byte) (Calendar, error) {
	var cal Calendar
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return Calendar{}, fmt.Errorf("failed to parse demand calendar: %w", err)
	}
	if cal.Seasons == nil {
		cal.Seasons = DefaultSeasons()
	}
	if cal.Events == nil {
		cal.Events = DefaultEvents()
	}
	if err := cal.Validate(); err != nil {
		return Calendar{}, err
	}
	return cal, nil
}

func (c Calendar) Validate() error {
	var errs []error
	seen := make(map[time.Month]string)
	for _, s := range c.Seasons {
		if s.Name == "" {
			errs = append(errs, errors.New("season name cannot be empty"))
		}
		if s.Multiplier <= 0 {
			errs = append(errs, fmt.Errorf("season %q: multiplier must be positive, got %v", s.Name, s.Multiplier))
		}
		for _, m := range s.Months {
			if m < time.January || m > time.December {
				errs = append(errs, fmt.Errorf("season %q: invalid month %d", s.Name, m))
				continue
			}
			if other, dup := seen[m]; dup {
				errs = append(errs, fmt.Errorf("season %q: month %s already belongs to %q", s.Name, m, other))
			}
			seen[m] = s.Name
		}
	}
	for _, e := range c.Events {
		if e.Name == "" {
			errs = append(errs, errors.New("event name cannot be empty"))
		}
		if e.Multiplier < MinEventMultiplier || e.Multiplier > MaxEventMultiplier {
			errs = append(errs, fmt.Errorf("event %q: multiplier must be between %v and %v, got %v",
				e.Name, MinEventMultiplier, MaxEventMultiplier, e.Multiplier))
		}
		if e.Start.Month == 0 || e.End.Month == 0 {
			errs = append(errs, fmt.Errorf("event %q: start and end are required", e.Name))
		}
		for _, k := range e.Kinds {
			if !k.Valid() {
				errs = append(errs, fmt.Errorf("event %q: unknown item kind %q", e.Name, k))
			}
		}
	}
	return errors.Join(errs...)
}
