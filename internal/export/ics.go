package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"absence-timeline-bot/internal/absence"

	"github.com/emersion/go-ical"
)

const (
	icsProductID = "-//absence-timeline-bot//Absence Calendar//RU"
	icsDomain    = "absence-timeline-bot"
)

// emptyCalendar кодировщик не принимает календарь без событий
const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + icsProductID + "\r\nEND:VCALENDAR\r\n"

// WriteICS пишет одобренные отсутствия как события на весь день.
// DTEND по RFC 5545 не включается, поэтому это день после окончания.
func WriteICS(w io.Writer, records []absence.Record, calName string, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	if calName != "" {
		cal.Props.SetText("X-WR-CALNAME", calName)
	}

	for _, r := range records {
		if r.Status != absence.StatusApproved {
			continue
		}
		cal.Children = append(cal.Children, recordEvent(r, now).Component)
	}

	if len(cal.Children) == 0 {
		_, err := io.WriteString(w, emptyCalendar)
		return err
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func recordEvent(r absence.Record, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", r.ID, icsDomain))
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetText(ical.PropSummary, fmt.Sprintf("%s: %s", r.Person.DisplayName, r.Category))
	event.Props.SetDate(ical.PropDateTimeStart, r.StartDate)
	event.Props.SetDate(ical.PropDateTimeEnd, r.EndDate.AddDate(0, 0, 1))
	event.Props.SetText(ical.PropCategories, r.Category)
	event.Props.SetText(ical.PropStatus, "CONFIRMED")
	event.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	if r.Notes != "" {
		event.Props.SetText(ical.PropDescription, r.Notes)
	}
	return event
}
