package model

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDateKey accepts "YYYY-MM-DD" or "YYYY-MM-DD_YYYY-MM-DD" (check-in_check-out) and
// returns the evaluation date, which is the first date of the key.
func ParseDateKey(key string) (time.Time, error) {
	first, second, pair := strings.Cut(key, "_")
	start, err := time.Parse(dateLayout, first)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	if !pair {
		return start, nil
	}
	end, err := time.Parse(dateLayout, second)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	if !end.After(start) {
		return time.Time{}, fmt.Errorf("invalid date key %q: end date must be after start date", key)
	}
	return start, nil
}
