package locale

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultRegion   = "US"
	DefaultTimezone = "UTC"
)

// Country describes a market the engine prices for. RestDay drives the weekend premium:
// the two days preceding it are priced higher.
type Country struct {
	Code            string       // ISO 3166-1 alpha-2 country code (e.g., "IL", "US")
	Name            string       // Human-readable country name
	DefaultTimezone string       // IANA timezone identifier (e.g., "Asia/Jerusalem")
	RestDay         time.Weekday // Weekly rest day
}

var Countries = map[string]Country{
	"IL": {
		Code:            "IL",
		Name:            "Israel",
		DefaultTimezone: "Asia/Jerusalem",
		RestDay:         time.Saturday,
	},
	"US": {
		Code:            "US",
		Name:            "United States",
		DefaultTimezone: "America/New_York",
		RestDay:         time.Sunday,
	},
}

func Lookup(code string) (Country, error) {
	c, ok := Countries[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, fmt.Errorf("unsupported market region %q", code)
	}
	return c, nil
}

// PeakDays returns the two weekdays preceding the rest day.
func (c Country) PeakDays() [2]time.Weekday {
	return [2]time.Weekday{
		(c.RestDay + 5) % 7,
		(c.RestDay + 6) % 7,
	}
}

func (c Country) IsPeakDay(d time.Weekday) bool {
	days := c.PeakDays()
	return d == days[0] || d == days[1]
}
