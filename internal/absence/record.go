// Package absence вычисляет представления графика отсутствий команды:
// фильтрацию и группировку по сотрудникам, пересечения одобренных
// периодов и помесячную статистику. Пакет не выполняет ввод-вывод
// и не изменяет переданные записи.
package absence

import (
	"fmt"
	"strings"
	"time"

	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/textnorm"
)

// Status статус согласования отсутствия.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Statuses все допустимые статусы в порядке отображения.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// Valid проверяет, что статус входит в допустимый набор.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseStatus разбирает статус; понимает английские, португальские и русские названия.
func ParseStatus(value string) (Status, error) {
	switch textnorm.Fold(value) {
	case "pending", "pendente", "ожидает":
		return StatusPending, nil
	case "approved", "aprovado", "одобрено":
		return StatusApproved, nil
	case "rejected", "rejeitado", "отклонено":
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Person сотрудник. Ключ идентичности ID.
type Person struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Team        string `json:"team,omitempty"`
	Department  string `json:"department,omitempty"`
}

// Record один период отсутствия одного сотрудника; обе даты включаются.
type Record struct {
	ID          string    `json:"id"`
	Person      Person    `json:"person"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	RequestedOn time.Time `json:"requested_on"`
	TotalDays   int       `json:"total_days"`
	Notes       string    `json:"notes,omitempty"`
	ExternalID  *int      `json:"external_id,omitempty"`
	// DecidedBy кто одобрил или отклонил запись
	DecidedBy string `json:"decided_by,omitempty"`
}

// Validate проверяет инварианты записи.
func (r Record) Validate() error {
	days, err := dates.CalendarDayCount(r.StartDate, r.EndDate)
	if err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("record %s: invalid status %q", r.ID, r.Status)
	}
	if r.TotalDays != 0 && r.TotalDays != days {
		return fmt.Errorf("record %s: total days %d does not match range (%d)", r.ID, r.TotalDays, days)
	}
	return nil
}

// Option элемент словаря (типы отсутствий, команды).
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DefaultCategories словарь типов, если хранилище не вернуло свой.
var DefaultCategories = []Option{
	{Key: "Annual Leave", Label: "Annual Leave"},
	{Key: "Medical Leave", Label: "Medical Leave"},
	{Key: "Maternity Leave", Label: "Maternity Leave"},
	{Key: "Paternity Leave", Label: "Paternity Leave"},
	{Key: "Compensatory Time Off", Label: "Compensatory Time Off"},
	{Key: "Justified Absence", Label: "Justified Absence"},
	{Key: "Other", Label: "Other"},
}

// DefaultTeams словарь команд по умолчанию.
var DefaultTeams = []Option{
	{Key: "Team A", Label: "Team A"},
	{Key: "Team B", Label: "Team B"},
	{Key: "Team C", Label: "Team C"},
	{Key: "Team D", Label: "Team D"},
}

// Labels возвращает подписи словаря в исходном порядке.
func Labels(options []Option) []string {
	labels := make([]string, 0, len(options))
	for _, o := range options {
		labels = append(labels, o.Label)
	}
	return labels
}

// legacyCategoryAliases старые подписи из списка, которые встречаются в исторических данных.
var legacyCategoryAliases = map[string]string{
	"ferias anuais":        "Annual Leave",
	"ferias":               "Annual Leave",
	"vacation":             "Annual Leave",
	"licenca medica":       "Medical Leave",
	"sick leave":           "Medical Leave",
	"licenca maternidade":  "Maternity Leave",
	"licenca paternidade":  "Paternity Leave",
	"folga compensatoria":  "Compensatory Time Off",
	"day off":              "Compensatory Time Off",
	"ausencia justificada": "Justified Absence",
	"outros":               "Other",
}

// CanonicalCategory подбирает подпись из словаря для свободного текста.
// Сначала ищется совпадение с подписями словаря (без учета регистра и
// диакритики), затем с историческими синонимами. Если ничего не
// подошло, возвращается исходный текст без лишних пробелов.
func CanonicalCategory(value string, vocabulary []Option) string {
	folded := textnorm.Fold(value)
	for _, o := range vocabulary {
		if textnorm.Fold(o.Label) == folded || textnorm.Fold(o.Key) == folded {
			return o.Label
		}
	}
	if alias, ok := legacyCategoryAliases[folded]; ok {
		for _, o := range vocabulary {
			if o.Label == alias {
				return alias
			}
		}
		if len(vocabulary) == 0 {
			return alias
		}
	}
	return strings.TrimSpace(value)
}
