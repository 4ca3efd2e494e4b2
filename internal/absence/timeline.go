package absence

import (
	"slices"
	"strings"

	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/textnorm"

	"golang.org/x/text/language"
)

// All значение фильтра, отключающее его.
const All = "all"

// ViewFilter параметры представления. Month задается индексом 0..11, nil значит весь год.
type ViewFilter struct {
	Year           int    `json:"year"`
	Month          *int   `json:"month,omitempty"`
	Team           string `json:"team,omitempty"`
	StatusFilter   string `json:"status,omitempty"`
	CategoryFilter string `json:"category,omitempty"`
	SearchText     string `json:"search,omitempty"`
}

// Month возвращает указатель на индекс месяца для ViewFilter.Month.
func Month(index int) *int {
	return &index
}

// ForYearSummary фильтр для помесячной статистики: без месяца и без
// статуса, чтобы в каждом месяце были видны все статусы.
func (f ViewFilter) ForYearSummary() ViewFilter {
	f.Month = nil
	f.StatusFilter = ""
	return f
}

func isAll(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, All)
}

// Matches проверяет запись по всем условиям фильтра.
func (f ViewFilter) Matches(r Record) bool {
	if !dates.IsActiveInYear(r.StartDate, r.EndDate, f.Year) {
		return false
	}
	if f.Month != nil && !dates.IsActiveInMonth(r.StartDate, r.EndDate, f.Year, *f.Month) {
		return false
	}
	if !isAll(f.Team) && !textnorm.EqualTrimFold(r.Person.Team, f.Team) {
		return false
	}
	if !isAll(f.StatusFilter) {
		// Неизвестный статус не совпадает ни с одной записью
		status, err := ParseStatus(f.StatusFilter)
		if err != nil || status != r.Status {
			return false
		}
	}
	if !isAll(f.CategoryFilter) && r.Category != f.CategoryFilter {
		return false
	}
	if search := strings.TrimSpace(f.SearchText); search != "" &&
		!strings.Contains(strings.ToLower(r.Person.DisplayName), strings.ToLower(search)) {
		return false
	}
	return true
}

// Filter возвращает новые записи, прошедшие фильтр, в исходном порядке.
func Filter(records []Record, f ViewFilter) []Record {
	result := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			result = append(result, r)
		}
	}
	return result
}

// Group строка графика: сотрудник и его отсутствия по дате начала.
type Group struct {
	Person  Person   `json:"person"`
	Records []Record `json:"records"`
}

// GroupByPerson группирует записи по Person.ID. Группы сортируются по имени
// с учетом правил языка tag, записи внутри группы по дате начала.
func GroupByPerson(records []Record, tag language.Tag) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, r := range records {
		i, ok := index[r.Person.ID]
		if !ok {
			i = len(groups)
			index[r.Person.ID] = i
			groups = append(groups, Group{Person: r.Person})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Records, func(a, b Record) int {
			if c := a.StartDate.Compare(b.StartDate); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
	}

	collator := textnorm.NewCollator(tag)
	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := collator.CompareString(a.Person.DisplayName, b.Person.DisplayName); c != 0 {
			return c
		}
		if c := strings.Compare(a.Person.DisplayName, b.Person.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.Person.ID, b.Person.ID)
	})

	return groups
}

// BuildTimeline фильтрует записи и группирует их по сотрудникам.
func BuildTimeline(records []Record, f ViewFilter, tag language.Tag) []Group {
	return GroupByPerson(Filter(records, f), tag)
}
