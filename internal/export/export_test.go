package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/palette"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
)

var (
	alice = absence.Person{ID: "1", DisplayName: "Alice", Team: "Team A"}
	bob   = absence.Person{ID: "2", DisplayName: "Bob", Team: "Team A"}
)

func sampleRecords() []absence.Record {
	mk := func(id string, p absence.Person, category string, status absence.Status, start, end time.Time) absence.Record {
		days, _ := dates.CalendarDayCount(start, end)
		return absence.Record{ID: id, Person: p, Category: category, Status: status,
			StartDate: start, EndDate: end, RequestedOn: start, TotalDays: days}
	}
	return []absence.Record{
		mk("a1", alice, "Annual Leave", absence.StatusApproved,
			dates.Date(2024, time.January, 5), dates.Date(2024, time.January, 10)),
		mk("b1", bob, "Annual Leave", absence.StatusApproved,
			dates.Date(2024, time.January, 8), dates.Date(2024, time.January, 12)),
		mk("b2", bob, "Medical Leave", absence.StatusPending,
			dates.Date(2024, time.March, 4), dates.Date(2024, time.March, 6)),
	}
}

func TestWriteXLSX(t *testing.T) {
	records := sampleRecords()
	records[0].DecidedBy = "Carla"
	view := absence.ComputeView(records, absence.ViewFilter{Year: 2024}, absence.ViewOptions{Language: language.English})
	pal := palette.Build(absence.Labels(absence.DefaultCategories))

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, view, pal))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetTimeline, SheetMonths, SheetConflicts}, f.GetSheetList())

	rows, err := f.GetRows(SheetTimeline)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Согласовал", rows[0][4])
	assert.Equal(t, "Alice", rows[1][0])
	assert.Equal(t, "Carla", rows[1][4])
	assert.Equal(t, "05.01.2024", rows[1][5])
	assert.Equal(t, "Bob", rows[2][0])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "Medical Leave", rows[3][2])

	styleID, err := f.GetCellStyle(SheetTimeline, "C2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color)
	assert.Contains(t, strings.ToUpper(style.Fill.Color[0]), strings.TrimPrefix(palette.Green.Primary, "#"))

	january, err := f.GetCellValue(SheetMonths, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", january)
	marchPending, err := f.GetCellValue(SheetMonths, "D4")
	require.NoError(t, err)
	assert.Equal(t, "1", marchPending)

	conflicts, err := f.GetRows(SheetConflicts)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, []string{"Alice", "Bob", "Annual Leave", "Annual Leave", "08.01.2024", "10.01.2024", "3"}, conflicts[1])
}

func TestStatusColor(t *testing.T) {
	entry := palette.Entry{Color: palette.Orange, Label: "Other"}

	assert.Equal(t, "#FF8000", statusColor(entry, absence.StatusApproved))
	assert.Equal(t, "#FFB366", statusColor(entry, absence.StatusPending))
	assert.Equal(t, "#FFCC99", statusColor(entry, absence.StatusRejected))
}

func TestWriteICS(t *testing.T) {
	now := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, sampleRecords(), "Отсутствия", now))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2, "only approved records are exported")

	first := events[0]
	assert.Equal(t, "a1@"+icsDomain, first.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "Alice: Annual Leave", first.Props.Get(ical.PropSummary).Value)

	start, err := first.DateTimeStart(time.UTC)
	require.NoError(t, err)
	end, err := first.DateTimeEnd(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC), end)
}

func TestWriteICSEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, nil, "", time.Now()))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
}
