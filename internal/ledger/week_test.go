package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday midnight", time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"wednesday", wednesday, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"sunday late", time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)},
		{"across month", time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC), time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StartOfWeek(tt.in))
		})
	}
}

func TestDayCodes(t *testing.T) {
	assert.Equal(t, Wed, DayCodeOf(wednesday))
	assert.Equal(t, Sun, DayCodeOf(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)))

	d, err := ParseDayCode(" FRI ")
	assert.NoError(t, err)
	assert.Equal(t, Fri, d)

	_, err = ParseDayCode("funday")
	assert.Error(t, err)
}

func TestInCurrentWeek(t *testing.T) {
	assert.True(t, InCurrentWeek(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), wednesday))
	assert.False(t, InCurrentWeek(time.Date(2026, 10, 11, 23, 59, 0, 0, time.UTC), wednesday))
	assert.False(t, InCurrentWeek(wednesday.Add(time.Minute), wednesday), "future instants are outside [start, now]")
}

func TestPeriodWindowStartsOnMonday(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-8", -8*3600),
		time.FixedZone("UTC+13", 13*3600),
	}
	for _, loc := range zones {
		now := wednesday.In(loc)
		for _, p := range []Period{Fortnightly, Monthly, Quarterly, Yearly} {
			start := periodWindow(p, now)
			assert.Equal(t, time.Monday, start.Weekday(), "%s %s", p, loc)
			assert.False(t, start.After(now), "%s %s", p, loc)
			assert.True(t, start.AddDate(0, 0, p.WindowDays()).After(now), "%s %s", p, loc)
		}
	}
}

func TestWeeklyOccurrences(t *testing.T) {
	assert.Equal(t, "14", Daily.WeeklyOccurrences(2).String())
	assert.Equal(t, "3", Weekly.WeeklyOccurrences(3).String())
	assert.Equal(t, "0.5", Fortnightly.WeeklyOccurrences(1).String())
	assert.Equal(t, "0.25", Yearly.WeeklyOccurrences(13).String())
}
