package handler

import (
	"fmt"
	"strings"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/export"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/palette"
)

// Лимит Telegram 4096 символов, оставляем запас
const maxMessageLen = 4000

func statusEmoji(status absence.Status) string {
	switch status {
	case absence.StatusApproved:
		return "✅"
	case absence.StatusRejected:
		return "❌"
	default:
		return "⏳"
	}
}

func formatPeriod(r absence.Record) string {
	if r.StartDate.Equal(r.EndDate) {
		return r.StartDate.Format(displayDate)
	}
	return fmt.Sprintf("%s - %s", r.StartDate.Format(displayDate), r.EndDate.Format(displayDate))
}

func formatRecordLine(r absence.Record, pal *palette.Palette) string {
	entry := pal.Resolve(r.Category)
	return fmt.Sprintf("%s %s %s: %s (%d дн.)",
		statusEmoji(r.Status), palette.Emoji(entry.Primary), r.Category, formatPeriod(r), r.TotalDays)
}

func describeFilter(f absence.ViewFilter) string {
	title := fmt.Sprintf("%d", f.Year)
	if f.Month != nil {
		title = fmt.Sprintf("%s %d", export.MonthNames[*f.Month], f.Year)
	}

	var extra []string
	if f.Team != "" {
		extra = append(extra, "команда: "+f.Team)
	}
	if f.StatusFilter != "" {
		extra = append(extra, "статус: "+f.StatusFilter)
	}
	if f.CategoryFilter != "" {
		extra = append(extra, "тип: "+f.CategoryFilter)
	}
	if f.SearchText != "" {
		extra = append(extra, "поиск: "+f.SearchText)
	}
	if len(extra) > 0 {
		title += " (" + strings.Join(extra, ", ") + ")"
	}
	return title
}

// formatTimeline график по сотрудникам
func formatTimeline(view absence.View, pal *palette.Palette) string {
	var lines []string
	lines = append(lines, "📅 График отсутствий: "+describeFilter(view.Filter))
	lines = append(lines, "")

	if len(view.Groups) == 0 {
		lines = append(lines, "📭 Нет отсутствий по выбранному фильтру.")
		return strings.Join(lines, "\n")
	}

	for _, g := range view.Groups {
		header := "👤 " + g.Person.DisplayName
		if g.Person.Team != "" {
			header += fmt.Sprintf(" [%s]", g.Person.Team)
		}
		lines = append(lines, header)
		for _, r := range g.Records {
			lines = append(lines, "   "+formatRecordLine(r, pal))
		}
	}

	if n := len(view.Conflicts); n > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("⚠️ Пересечений: %d, подробнее /conflicts", n))
	}
	return strings.Join(lines, "\n")
}

// formatConflicts список пересечений одобренных отсутствий
func formatConflicts(view absence.View) string {
	var lines []string
	lines = append(lines, "⚠️ Пересечения отсутствий: "+describeFilter(view.Filter))
	lines = append(lines, "")

	if len(view.Conflicts) == 0 {
		lines = append(lines, "✅ Пересечений нет.")
		return strings.Join(lines, "\n")
	}

	for i, c := range view.Conflicts {
		period := c.OverlapStart.Format(displayDate)
		if c.OverlapDays > 1 {
			period += " - " + c.OverlapEnd.Format(displayDate)
		}
		lines = append(lines, fmt.Sprintf("%d. %s и %s: %s (%d дн.)",
			i+1, c.PersonA, c.PersonB, period, c.OverlapDays))
	}
	return strings.Join(lines, "\n")
}

// formatMonths статистика по месяцам с полосами
func formatMonths(view absence.View) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("📊 Отсутствия по месяцам, %d", view.Filter.Year))
	lines = append(lines, "")

	maxTotal := 0
	for _, b := range view.Months {
		maxTotal = max(maxTotal, b.Total)
	}

	const barWidth = 10
	for _, b := range view.Months {
		bar := ""
		if maxTotal > 0 {
			bar = strings.Repeat("█", (b.Total*barWidth+maxTotal-1)/maxTotal)
		}
		name := []rune(export.MonthNames[b.MonthIndex])
		lines = append(lines, fmt.Sprintf("%s %-10s %2d (✅%d ⏳%d ❌%d)",
			string(name[:3]), bar, b.Total, b.Approved, b.Pending, b.Rejected))
	}
	return strings.Join(lines, "\n")
}

// formatLegend легенда цветов по типам
func formatLegend(pal *palette.Palette) string {
	var lines []string
	lines = append(lines, "🎨 Легенда:")
	for _, e := range pal.Legend() {
		lines = append(lines, fmt.Sprintf("%s %s (%s)", palette.Emoji(e.Primary), e.Label, e.Primary))
	}
	lines = append(lines, "")
	lines = append(lines, "✅ одобрено  ⏳ ожидает  ❌ отклонено")
	return strings.Join(lines, "\n")
}

func formatOptions(title string, options []absence.Option) string {
	var lines []string
	lines = append(lines, title)
	for i, o := range options {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, o.Label))
	}
	return strings.Join(lines, "\n")
}

// splitMessage режет текст по строкам на части не длиннее limit байт
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if current.Len() > 0 && current.Len()+1+len(line) > limit {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

var weekdayShort = [7]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

// formatHolidays выходные и праздники производственного календаря за месяц (1..12)
func formatHolidays(year, month int, days []models.NonWorkingDay) string {
	title := fmt.Sprintf("%s %d", export.MonthNames[month-1], year)
	if len(days) == 0 {
		return "📭 В календаре нет выходных на " + title + ".\nЗагрузить календарь: /loadholidays"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("📆 Выходные и праздники: %s (%d)", title, len(days)))
	lines = append(lines, "")
	for _, d := range days {
		t, err := dates.ParseISO(d.Date)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s %s", t.Format("02.01"), weekdayShort[t.Weekday()]))
	}
	return strings.Join(lines, "\n")
}
