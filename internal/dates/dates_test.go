package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDayCount(t *testing.T) {
	tests := map[string]struct {
		start, end time.Time
		expected   int
	}{
		"single day":      {Date(2024, 1, 5), Date(2024, 1, 5), 1},
		"inclusive range": {Date(2024, 1, 5), Date(2024, 1, 10), 6},
		"leap february":   {Date(2024, 2, 1), Date(2024, 3, 1), 30},
		"across years":    {Date(2023, 12, 20), Date(2024, 1, 10), 22},
		"time of day ignored": {
			time.Date(2024, 1, 5, 23, 59, 0, 0, time.Local),
			time.Date(2024, 1, 6, 0, 1, 0, 0, time.Local),
			2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := CalendarDayCount(tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDayCountsRejectReversedRange(t *testing.T) {
	start, end := Date(2024, 1, 10), Date(2024, 1, 9)

	_, err := CalendarDayCount(start, end)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = BusinessDayCount(start, end)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = BusinessDayCountExcluding(start, end, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBusinessDayCount(t *testing.T) {
	// 2024-01-01 понедельник
	got, err := BusinessDayCount(Date(2024, 1, 1), Date(2024, 1, 7))
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = BusinessDayCount(Date(2024, 1, 6), Date(2024, 1, 7))
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = BusinessDayCount(Date(2024, 1, 5), Date(2024, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestCalendarEqualsBusinessPlusWeekends(t *testing.T) {
	base := Date(2023, 11, 1)
	for offset := 0; offset < 40; offset++ {
		for length := 0; length < 50; length += 3 {
			start := base.AddDate(0, 0, offset)
			end := start.AddDate(0, 0, length)

			calendar, err := CalendarDayCount(start, end)
			require.NoError(t, err)
			business, err := BusinessDayCount(start, end)
			require.NoError(t, err)

			weekends := 0
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				if IsWeekend(d) {
					weekends++
				}
			}
			assert.Equal(t, calendar, business+weekends, "start=%s end=%s", FormatISO(start), FormatISO(end))
		}
	}
}

func TestBusinessDayCountExcluding(t *testing.T) {
	holidays := []time.Time{
		Date(2024, 1, 1), // понедельник, учитывается
		Date(2024, 1, 1), // дубликат
		Date(2024, 1, 6), // суббота, уже не рабочий
		Date(2024, 2, 1), // вне интервала
	}

	got, err := BusinessDayCountExcluding(Date(2024, 1, 1), Date(2024, 1, 7), holidays)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestMonthsSpanned(t *testing.T) {
	tests := map[string]struct {
		start, end time.Time
		year       int
		expected   MonthSpan
		ok         bool
	}{
		"inside year":         {Date(2024, 3, 10), Date(2024, 5, 2), 2024, MonthSpan{2, 4}, true},
		"starts before year":  {Date(2023, 12, 20), Date(2024, 1, 10), 2024, MonthSpan{0, 0}, true},
		"ends after year":     {Date(2023, 12, 20), Date(2024, 1, 10), 2023, MonthSpan{11, 11}, true},
		"covers whole year":   {Date(2022, 6, 1), Date(2025, 2, 1), 2024, MonthSpan{0, 11}, true},
		"entirely before":     {Date(2022, 6, 1), Date(2022, 7, 1), 2024, MonthSpan{}, false},
		"entirely after":      {Date(2025, 6, 1), Date(2025, 7, 1), 2024, MonthSpan{}, false},
		"reversed is no span": {Date(2024, 7, 1), Date(2024, 6, 1), 2024, MonthSpan{}, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := MonthsSpanned(tc.start, tc.end, tc.year)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestIsActiveInMonth(t *testing.T) {
	t.Run("interval within one month", func(t *testing.T) {
		start, end := Date(2024, 4, 3), Date(2024, 4, 20)
		for month := 0; month < 12; month++ {
			assert.Equal(t, month == 3, IsActiveInMonth(start, end, 2024, month), "month %d", month)
		}
	})

	t.Run("multi-year interval", func(t *testing.T) {
		start, end := Date(2023, 12, 20), Date(2024, 1, 10)
		for month := 0; month < 12; month++ {
			assert.Equal(t, month == 11, IsActiveInMonth(start, end, 2023, month), "2023 month %d", month)
			assert.Equal(t, month == 0, IsActiveInMonth(start, end, 2024, month), "2024 month %d", month)
		}
	})

	t.Run("year strictly inside interval", func(t *testing.T) {
		start, end := Date(2022, 10, 1), Date(2025, 3, 1)
		for month := 0; month < 12; month++ {
			assert.True(t, IsActiveInMonth(start, end, 2024, month))
		}
	})

	t.Run("boundary days", func(t *testing.T) {
		assert.True(t, IsActiveInMonth(Date(2024, 1, 31), Date(2024, 1, 31), 2024, 0))
		assert.False(t, IsActiveInMonth(Date(2024, 1, 31), Date(2024, 1, 31), 2024, 1))
		assert.True(t, IsActiveInMonth(Date(2024, 2, 29), Date(2024, 3, 1), 2024, 1))
	})

	t.Run("invalid month", func(t *testing.T) {
		assert.False(t, IsActiveInMonth(Date(2024, 1, 1), Date(2024, 12, 31), 2024, 12))
		assert.False(t, IsActiveInMonth(Date(2024, 1, 1), Date(2024, 12, 31), 2024, -1))
	})
}

func TestParseISO(t *testing.T) {
	got, err := ParseISO("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 1, 5), got)

	got, err = ParseISO("2024-01-05T23:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 1, 5), got)

	_, err = ParseISO("05.01.2024")
	assert.Error(t, err)

	assert.Equal(t, "2024-01-05", FormatISO(got))
}

func TestMinMax(t *testing.T) {
	a, b := Date(2024, 1, 5), Date(2024, 1, 8)
	assert.Equal(t, b, Max(a, b))
	assert.Equal(t, a, Min(a, b))
	assert.True(t, SameDay(a, a.Add(5*time.Hour)))
}
