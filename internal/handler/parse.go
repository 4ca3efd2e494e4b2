package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/export"
	"absence-timeline-bot/internal/textnorm"
)

const displayDate = "02.01.2006"

// parseDate парсит дату из строки. Без года берется год из now.
func parseDate(dateStr string, now time.Time) (time.Time, error) {
	formats := []string{
		"02.01.2006",
		"02-01-2006",
		"2006-01-02",
		"02.01",
		"02-01",
	}

	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err != nil {
			continue
		}
		year := t.Year()
		if !strings.Contains(format, "2006") {
			year = now.Year()
		}
		return dates.Date(year, t.Month(), t.Day()), nil
	}

	return time.Time{}, fmt.Errorf("неверный формат даты %q. Используйте ДД.ММ.ГГГГ или ДД.ММ", dateStr)
}

// absenceArgs аргументы /absence и /editabsence
type absenceArgs struct {
	Start    time.Time
	End      time.Time
	Category string
	Notes    string
}

// parseAbsenceArgs разбирает "начало [окончание] тип [| заметка]".
// Если вторая дата не указана, отсутствие длится один день.
func parseAbsenceArgs(args string, now time.Time) (absenceArgs, error) {
	var result absenceArgs

	head, notes, _ := strings.Cut(args, "|")
	result.Notes = strings.TrimSpace(notes)

	parts := strings.Fields(head)
	if len(parts) < 2 {
		return result, fmt.Errorf("укажите дату начала и тип отсутствия")
	}

	start, err := parseDate(parts[0], now)
	if err != nil {
		return result, err
	}
	result.Start, result.End = start, start
	rest := parts[1:]

	if end, err := parseDate(rest[0], now); err == nil {
		result.End = end
		rest = rest[1:]
	}

	result.Category = strings.Join(rest, " ")
	if result.Category == "" {
		return result, fmt.Errorf("укажите тип отсутствия, список: /categories")
	}
	if dates.Before(result.End, result.Start) {
		return result, fmt.Errorf("дата окончания не может быть раньше даты начала")
	}

	return result, nil
}

// parseMonth номер месяца 1..12 или название ("март", "мар")
func parseMonth(token string) (int, bool) {
	if n, err := strconv.Atoi(token); err == nil {
		return n, n >= 1 && n <= 12
	}

	folded := textnorm.Fold(token)
	if len([]rune(folded)) < 3 {
		return 0, false
	}
	for i, name := range export.MonthNames {
		if strings.HasPrefix(textnorm.Fold(name), folded) {
			return i + 1, true
		}
	}
	return 0, false
}

// parseViewArgs разбирает "[год] [месяц] [team=..] [status=..] [category=..] [search=..]".
// Пробелы в значениях записываются через "_".
func parseViewArgs(args string, now time.Time) (absence.ViewFilter, error) {
	f := absence.ViewFilter{Year: now.Year()}

	for _, token := range strings.Fields(args) {
		if key, value, ok := strings.Cut(token, "="); ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
			switch textnorm.Fold(key) {
			case "team", "команда":
				f.Team = value
			case "status", "статус":
				if strings.EqualFold(value, absence.All) {
					f.StatusFilter = ""
					continue
				}
				status, err := absence.ParseStatus(value)
				if err != nil {
					return f, fmt.Errorf("неизвестный статус %q", value)
				}
				f.StatusFilter = string(status)
			case "category", "тип":
				f.CategoryFilter = value
			case "search", "поиск":
				f.SearchText = value
			default:
				return f, fmt.Errorf("неизвестный параметр %q", key)
			}
			continue
		}

		if len(token) == 4 {
			if year, err := strconv.Atoi(token); err == nil {
				f.Year = year
				continue
			}
		}

		month, ok := parseMonth(token)
		if !ok {
			return f, fmt.Errorf("не удалось разобрать %q", token)
		}
		f.Month = absence.Month(month - 1)
	}

	return f, nil
}
