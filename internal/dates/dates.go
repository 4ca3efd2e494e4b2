// Package dates содержит функции для работы с календарными интервалами.
// Все даты рассматриваются как календарные дни без времени суток;
// обе границы интервала включаются.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ISOLayout формат обмена датами с хранилищем.
const ISOLayout = "2006-01-02"

// ErrInvalidRange возвращается, если дата окончания раньше даты начала.
var ErrInvalidRange = errors.New("invalid date range")

// MonthSpan диапазон месяцев (индексы 0..11) внутри одного года.
type MonthSpan struct {
	FirstMonth int `json:"first_month"`
	LastMonth  int `json:"last_month"`
}

// Normalize отбрасывает время суток и переводит дату в локальную зону.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Date собирает локальную дату; month задается как time.Month (1..12).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// dayNumber номер дня от эпохи, не зависит от часового пояса и перехода на летнее время.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Before сравнивает только календарные дни.
func Before(a, b time.Time) bool {
	return dayNumber(a) < dayNumber(b)
}

// SameDay проверяет совпадение календарных дней.
func SameDay(a, b time.Time) bool {
	return dayNumber(a) == dayNumber(b)
}

// Max возвращает более позднюю из двух дат.
func Max(a, b time.Time) time.Time {
	if Before(a, b) {
		return b
	}
	return a
}

// Min возвращает более раннюю из двух дат.
func Min(a, b time.Time) time.Time {
	if Before(b, a) {
		return b
	}
	return a
}

func checkRange(start, end time.Time) error {
	if dayNumber(end) < dayNumber(start) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidRange, FormatISO(end), FormatISO(start))
	}
	return nil
}

// CalendarDayCount количество календарных дней в интервале, включая обе границы.
func CalendarDayCount(start, end time.Time) (int, error) {
	if err := checkRange(start, end); err != nil {
		return 0, err
	}
	return int(dayNumber(end)-dayNumber(start)) + 1, nil
}

// BusinessDayCount количество дней с понедельника по пятницу в интервале.
func BusinessDayCount(start, end time.Time) (int, error) {
	total, err := CalendarDayCount(start, end)
	if err != nil {
		return 0, err
	}

	count := (total / 7) * 5
	day := Normalize(start).AddDate(0, 0, (total/7)*7)
	for i := 0; i < total%7; i++ {
		if !IsWeekend(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count, nil
}

// BusinessDayCountExcluding как BusinessDayCount, но дополнительно
// исключает праздничные дни из производственного календаря.
func BusinessDayCountExcluding(start, end time.Time, holidays []time.Time) (int, error) {
	count, err := BusinessDayCount(start, end)
	if err != nil {
		return 0, err
	}

	from, to := dayNumber(start), dayNumber(end)
	seen := make(map[int64]struct{}, len(holidays))
	for _, h := range holidays {
		n := dayNumber(h)
		if n < from || n > to || IsWeekend(h) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		count--
	}
	return count, nil
}

// IsWeekend суббота или воскресенье.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MonthsSpanned возвращает месяцы года year, в которых интервал активен.
// Второе значение false, если интервал не пересекается с годом.
func MonthsSpanned(start, end time.Time, year int) (MonthSpan, bool) {
	if dayNumber(end) < dayNumber(start) {
		return MonthSpan{}, false
	}
	if end.Year() < year || start.Year() > year {
		return MonthSpan{}, false
	}

	span := MonthSpan{FirstMonth: 0, LastMonth: 11}
	if start.Year() == year {
		span.FirstMonth = int(start.Month()) - 1
	}
	if end.Year() == year {
		span.LastMonth = int(end.Month()) - 1
	}
	return span, true
}

// IsActiveInMonth проверяет пересечение интервала с месяцем month (0..11) года year.
func IsActiveInMonth(start, end time.Time, year, month int) bool {
	if month < 0 || month > 11 {
		return false
	}
	monthStart := Date(year, time.Month(month+1), 1)
	monthEnd := Date(year, time.Month(month+2), 0)
	return dayNumber(start) <= dayNumber(monthEnd) && dayNumber(end) >= dayNumber(monthStart)
}

// IsActiveInYear проверяет пересечение интервала с годом.
func IsActiveInYear(start, end time.Time, year int) bool {
	return start.Year() <= year && year <= end.Year()
}

// FormatISO форматирует дату как YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// ParseISO разбирает YYYY-MM-DD. Метки времени вида 2024-01-05T00:00:00Z
// обрезаются до даты, чтобы не сдвигать день при смене часового пояса.
func ParseISO(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(ISOLayout) && value[len(ISOLayout)] == 'T' {
		value = value[:len(ISOLayout)]
	}
	t, err := time.ParseInLocation(ISOLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", value, err)
	}
	return t, nil
}
