// Package weekends разбирает производственный календарь в формате
// xmlcalendar (JSON): список выходных и праздничных дней по месяцам.
package weekends

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON - структура для парсинга исходного JSON
type CalendarJSON struct {
	Year        int             `json:"year"`
	Months      []MonthWeekends `json:"months"`
	Transitions []Transition    `json:"transitions"`
	Statistic   Statistic       `json:"statistic"`
}

type MonthWeekends struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Statistic struct {
	Workdays int `json:"workdays"`
	Holidays int `json:"holidays"`
}

// NonWorkingDay - выходной день календаря
type NonWorkingDay struct {
	Date        time.Time `json:"date"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Day         int       `json:"day"`
	Transferred bool      `json:"transferred"`
}

// ParseWeekendsJSON - читает файл календаря и возвращает выходные дни
func ParseWeekendsJSON(filePath string) ([]NonWorkingDay, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	return Parse(data)
}

// Parse - разбирает календарь. Дни с суффиксом "*" сокращенные рабочие
// и в результат не попадают, "+" отмечает перенесенный выходной.
func Parse(data []byte) ([]NonWorkingDay, error) {
	var calendar CalendarJSON
	if err := json.Unmarshal(data, &calendar); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if calendar.Year == 0 {
		return nil, fmt.Errorf("calendar year is missing")
	}

	nonWorkingDays := []NonWorkingDay{}

	for _, monthData := range calendar.Months {
		if monthData.Month < 1 || monthData.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", monthData.Month)
		}

		for _, dayStr := range strings.Split(monthData.Days, ",") {
			dayStr = strings.TrimSpace(dayStr)
			if dayStr == "" || strings.HasSuffix(dayStr, "*") {
				continue
			}

			transferred := strings.HasSuffix(dayStr, "+")
			dayStr = strings.TrimSuffix(dayStr, "+")

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w",
					dayStr, monthData.Month, err)
			}

			date := time.Date(calendar.Year, time.Month(monthData.Month), day, 0, 0, 0, 0, time.UTC)
			if date.Month() != time.Month(monthData.Month) {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, monthData.Month)
			}

			nonWorkingDays = append(nonWorkingDays, NonWorkingDay{
				Date:        date,
				Year:        calendar.Year,
				Month:       monthData.Month,
				Day:         day,
				Transferred: transferred,
			})
		}
	}

	return nonWorkingDays, nil
}

// Holidays - выходные дни, выпадающие на будни: именно они уменьшают
// число рабочих дней сверх обычных суббот и воскресений.
func Holidays(days []NonWorkingDay) []time.Time {
	var result []time.Time
	for _, day := range days {
		switch day.Date.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		result = append(result, day.Date)
	}
	return result
}
