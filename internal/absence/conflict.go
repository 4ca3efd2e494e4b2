package absence

import (
	"time"

	"absence-timeline-bot/internal/dates"
)

// ConflictEntry пересечение двух одобренных отсутствий.
type ConflictEntry struct {
	PersonA      string    `json:"person_a"`
	PersonB      string    `json:"person_b"`
	RecordA      string    `json:"record_a"`
	RecordB      string    `json:"record_b"`
	OverlapStart time.Time `json:"overlap_start"`
	OverlapEnd   time.Time `json:"overlap_end"`
	OverlapDays  int       `json:"overlap_days"`
}

// ConflictOptions настройки поиска пересечений.
type ConflictOptions struct {
	// ExcludeSamePerson не сообщать о пересечении двух записей одного сотрудника.
	ExcludeSamePerson bool
}

// DetectConflicts перебирает все неупорядоченные пары одобренных записей
// и возвращает их пересечения в порядке следования пар во входных данных.
func DetectConflicts(records []Record, opts ConflictOptions) []ConflictEntry {
	var conflicts []ConflictEntry

	for i := 0; i < len(records); i++ {
		a := records[i]
		if a.Status != StatusApproved {
			continue
		}

		for j := i + 1; j < len(records); j++ {
			b := records[j]
			if b.Status != StatusApproved {
				continue
			}
			if a.ID != "" && a.ID == b.ID {
				continue
			}
			if opts.ExcludeSamePerson && a.Person.ID == b.Person.ID {
				continue
			}

			start := dates.Max(a.StartDate, b.StartDate)
			end := dates.Min(a.EndDate, b.EndDate)
			days, err := dates.CalendarDayCount(start, end)
			if err != nil {
				// интервалы не пересекаются
				continue
			}

			conflicts = append(conflicts, ConflictEntry{
				PersonA:      a.Person.DisplayName,
				PersonB:      b.Person.DisplayName,
				RecordA:      a.ID,
				RecordB:      b.ID,
				OverlapStart: dates.Normalize(start),
				OverlapEnd:   dates.Normalize(end),
				OverlapDays:  days,
			})
		}
	}

	return conflicts
}
