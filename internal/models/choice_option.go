package models

// Поля, для которых хранится настраиваемый словарь значений.
const (
	ChoiceFieldCategory = "category"
	ChoiceFieldTeam     = "team"
)

// ChoiceOption элемент словаря (тип отсутствия или команда).
type ChoiceOption struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Field    string `gorm:"type:varchar(20);not null;uniqueIndex:idx_choice_field_key" json:"field"`
	Key      string `gorm:"type:varchar(100);not null;uniqueIndex:idx_choice_field_key" json:"key"`
	Label    string `gorm:"type:varchar(100);not null" json:"label"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

func (ChoiceOption) TableName() string {
	return "choice_options"
}
