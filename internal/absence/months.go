package absence

import "absence-timeline-bot/internal/dates"

// MonthBucket количество отсутствий, активных в месяце, по статусам.
type MonthBucket struct {
	MonthIndex int `json:"month_index"`
	Total      int `json:"total"`
	Approved   int `json:"approved"`
	Pending    int `json:"pending"`
	Rejected   int `json:"rejected"`
}

// AggregateMonths считает записи, активные в каждом месяце года year.
// Ожидает набор, отфильтрованный по году, но не по месяцу.
func AggregateMonths(records []Record, year int) [12]MonthBucket {
	var buckets [12]MonthBucket
	for m := range buckets {
		buckets[m].MonthIndex = m
	}

	for _, r := range records {
		span, ok := dates.MonthsSpanned(r.StartDate, r.EndDate, year)
		if !ok {
			continue
		}
		for m := span.FirstMonth; m <= span.LastMonth; m++ {
			buckets[m].Total++
			switch r.Status {
			case StatusApproved:
				buckets[m].Approved++
			case StatusPending:
				buckets[m].Pending++
			case StatusRejected:
				buckets[m].Rejected++
			}
		}
	}

	return buckets
}
