// Package export выгружает график отсутствий в Excel и iCalendar.
package export

import (
	"fmt"
	"io"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/palette"

	"github.com/xuri/excelize/v2"
)

const (
	SheetTimeline  = "Timeline"
	SheetMonths    = "Months"
	SheetConflicts = "Conflicts"

	displayDate = "02.01.2006"
)

// MonthNames названия месяцев по индексу 0..11
var MonthNames = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var (
	timelineHeader  = []string{"Сотрудник", "Команда", "Тип", "Статус", "Согласовал", "Начало", "Окончание", "Дней", "Заметки"}
	monthsHeader    = []string{"Месяц", "Всего", "Одобрено", "Ожидает", "Отклонено"}
	conflictsHeader = []string{"Сотрудник 1", "Сотрудник 2", "Тип 1", "Тип 2", "Начало", "Окончание", "Дней"}
)

type xlsxWriter struct {
	f      *excelize.File
	fills  map[string]int
	header int
}

// WriteXLSX пишет книгу с тремя листами: график по сотрудникам с
// заливкой по типу отсутствия, помесячная статистика с диаграммой и
// список пересечений.
func WriteXLSX(w io.Writer, view absence.View, pal *palette.Palette) error {
	f := excelize.NewFile()
	defer f.Close()

	x := &xlsxWriter{f: f, fills: make(map[string]int)}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDDDDD"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	x.header = header

	if err := f.SetSheetName("Sheet1", SheetTimeline); err != nil {
		return err
	}
	for _, sheet := range []string{SheetMonths, SheetConflicts} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	if err := x.writeTimeline(view, pal); err != nil {
		return err
	}
	if err := x.writeMonths(view); err != nil {
		return err
	}
	if err := x.writeConflicts(view); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func (x *xlsxWriter) writeRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return x.f.SetSheetRow(sheet, cell, &values)
}

func (x *xlsxWriter) writeHeader(sheet string, columns []string) error {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	if err := x.writeRow(sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return x.f.SetCellStyle(sheet, "A1", last, x.header)
}

// fill стиль заливки, один на цвет
func (x *xlsxWriter) fill(color string) (int, error) {
	if id, ok := x.fills[color]; ok {
		return id, nil
	}
	id, err := x.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, err
	}
	x.fills[color] = id
	return id, nil
}

// statusColor одобренные основным цветом, ожидающие дополнительным,
// отклоненные осветленным основным.
func statusColor(entry palette.Entry, status absence.Status) string {
	switch status {
	case absence.StatusPending:
		return entry.Secondary
	case absence.StatusRejected:
		if light, err := palette.Lighten(entry.Primary, 0.6); err == nil {
			return light
		}
	}
	return entry.Primary
}

func (x *xlsxWriter) writeTimeline(view absence.View, pal *palette.Palette) error {
	if err := x.writeHeader(SheetTimeline, timelineHeader); err != nil {
		return err
	}

	row := 2
	for _, group := range view.Groups {
		for _, r := range group.Records {
			values := []any{
				group.Person.DisplayName,
				group.Person.Team,
				r.Category,
				string(r.Status),
				r.DecidedBy,
				r.StartDate.Format(displayDate),
				r.EndDate.Format(displayDate),
				r.TotalDays,
				r.Notes,
			}
			if err := x.writeRow(SheetTimeline, row, values); err != nil {
				return err
			}

			style, err := x.fill(statusColor(pal.Resolve(r.Category), r.Status))
			if err != nil {
				return fmt.Errorf("create fill style: %w", err)
			}
			cell, _ := excelize.CoordinatesToCellName(3, row)
			if err := x.f.SetCellStyle(SheetTimeline, cell, cell, style); err != nil {
				return err
			}
			row++
		}
	}

	if err := x.f.SetColWidth(SheetTimeline, "A", "A", 28); err != nil {
		return err
	}
	return x.f.SetColWidth(SheetTimeline, "B", "E", 22)
}

func (x *xlsxWriter) writeMonths(view absence.View) error {
	if err := x.writeHeader(SheetMonths, monthsHeader); err != nil {
		return err
	}

	for i, b := range view.Months {
		values := []any{MonthNames[b.MonthIndex], b.Total, b.Approved, b.Pending, b.Rejected}
		if err := x.writeRow(SheetMonths, i+2, values); err != nil {
			return err
		}
	}

	series := make([]excelize.ChartSeries, 0, 3)
	for _, name := range []string{"C", "D", "E"} {
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", SheetMonths, name),
			Categories: fmt.Sprintf("%s!$A$2:$A$13", SheetMonths),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$13", SheetMonths, name, name),
		})
	}

	return x.f.AddChart(SheetMonths, "G2", &excelize.Chart{
		Type:   excelize.ColStacked,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: fmt.Sprintf("Отсутствия по месяцам, %d", view.Filter.Year)}},
	})
}

func (x *xlsxWriter) writeConflicts(view absence.View) error {
	if err := x.writeHeader(SheetConflicts, conflictsHeader); err != nil {
		return err
	}

	for i, c := range view.Conflicts {
		values := []any{
			c.PersonA.DisplayName,
			c.PersonB.DisplayName,
			c.RecordA.Category,
			c.RecordB.Category,
			c.OverlapStart.Format(displayDate),
			c.OverlapEnd.Format(displayDate),
			c.OverlapDays,
		}
		if err := x.writeRow(SheetConflicts, i+2, values); err != nil {
			return err
		}
	}
	return nil
}
