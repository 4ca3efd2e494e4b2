package absence

import "golang.org/x/text/language"

// View результат одного прохода вычислений для фильтра.
type View struct {
	Filter    ViewFilter      `json:"filter"`
	Records   []Record        `json:"-"`
	Groups    []Group         `json:"groups"`
	Conflicts []ConflictEntry `json:"conflicts"`
	Months    [12]MonthBucket `json:"months"`
}

// ViewOptions параметры вычисления представления.
type ViewOptions struct {
	Conflicts ConflictOptions
	Language  language.Tag
}

// ComputeView строит группы и пересечения по полному фильтру, а помесячную
// статистику по тому же году без учета выбранного месяца и статуса.
func ComputeView(records []Record, f ViewFilter, opts ViewOptions) View {
	filtered := Filter(records, f)

	return View{
		Filter:    f,
		Records:   filtered,
		Groups:    GroupByPerson(filtered, opts.Language),
		Conflicts: DetectConflicts(filtered, opts.Conflicts),
		Months:    AggregateMonths(Filter(records, f.ForYearSummary()), f.Year),
	}
}
