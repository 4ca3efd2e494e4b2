package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AbsencePeriod период отсутствия в хранилище. Даты хранятся строками
// YYYY-MM-DD, чтобы часовой пояс не сдвигал календарный день.
type AbsencePeriod struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Category    string    `gorm:"type:varchar(100);not null;index" json:"category"`
	Status      string    `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	StartDate   string    `gorm:"type:varchar(10);not null;index" json:"start_date"`
	EndDate     string    `gorm:"type:varchar(10);not null;index" json:"end_date"`
	RequestedOn string    `gorm:"type:varchar(10);not null" json:"requested_on"`
	TotalDays   int       `gorm:"not null;default:0" json:"total_days"`
	Notes       string    `json:"notes"`
	ExternalID  *int      `gorm:"uniqueIndex" json:"external_id,omitempty"`
	DecidedBy   string    `gorm:"type:varchar(200)" json:"decided_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

func (AbsencePeriod) TableName() string {
	return "absence_periods"
}

// BeforeCreate выдает идентификатор, если он не задан
func (p *AbsencePeriod) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
