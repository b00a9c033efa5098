package demand

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripfare/pkg/model"
)

func TestParseMonthDay(t *testing.T) {
	md, err := ParseMonthDay("02-29")
	require.NoError(t, err)
	assert.Equal(t, MonthDay{time.February, 29}, md)
	assert.Equal(t, "02-29", md.String())

	_, err = ParseMonthDay("13-01")
	assert.Error(t, err)
	_, err = ParseMonthDay("04-31")
	assert.Error(t, err)
}

func TestLoadCalendar(t *testing.T) {
	cal, err := LoadCalendar(filepath.Join("testdata", "events.yaml"))
	require.NoError(t, err)

	require.Len(t, cal.Events, 2)
	assert.Equal(t, "Spring Festival", cal.Events[0].Name)
	assert.Equal(t, MonthDay{time.March, 10}, cal.Events[0].Start)
	assert.Equal(t, 1.6, cal.Events[0].Multiplier)
	assert.Equal(t, []model.ItemKind{model.KindHotel}, cal.Events[1].Kinds)
	assert.Equal(t, DefaultSeasons(), cal.Seasons, "seasons default when the file omits them")
}

func TestParseCalendar_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"multiplier below range", "events:\n  - {name: Fair, start: '03-01', end: '03-02', multiplier: 1.2}\n"},
		{"multiplier above range", "events:\n  - {name: Fair, start: '03-01', end: '03-02', multiplier: 2.5}\n"},
		{"bad date", "events:\n  - {name: Fair, start: '3/1', end: '03-02', multiplier: 1.5}\n"},
		{"unknown kind", "events:\n  - {name: Fair, start: '03-01', end: '03-02', multiplier: 1.5, kinds: [train]}\n"},
		{"duplicate season month", "seasons:\n  - {name: A, months: [1], multiplier: 1.2}\n  - {name: B, months: [1], multiplier: 1.3}\n"},
		{"missing event dates", "events:\n  - {name: Fair, multiplier: 1.5}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCalendar([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCalendar_MissingFile(t *testing.T) {
	_, err := LoadCalendar(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultCalendarIsValid(t *testing.T) {
	assert.NoError(t, DefaultCalendar().Validate())
}
