package repository

import (
	"context"

	"absence-timeline-bot/internal/models"

	"gorm.io/gorm"
)

type NonWorkingDayRepository interface {
	BulkCreate(ctx context.Context, days []models.NonWorkingDay) error
	GetByYearMonth(ctx context.Context, year, month int) ([]models.NonWorkingDay, error)
	GetBetween(ctx context.Context, startDate, endDate string) ([]models.NonWorkingDay, error)
	GetAll(ctx context.Context) ([]models.NonWorkingDay, error)
	DeleteAll(ctx context.Context) error
	IsNonWorkingDay(ctx context.Context, date string) (bool, error)
}

type GormNonWorkingDayRepository struct {
	db *gorm.DB
}

func NewGormNonWorkingDayRepository(db *gorm.DB) (NonWorkingDayRepository, error) {
	// Автомиграция для таблицы non_working_days
	if err := db.AutoMigrate(&models.NonWorkingDay{}); err != nil {
		return nil, err
	}

	return &GormNonWorkingDayRepository{db: db}, nil
}

func (r *GormNonWorkingDayRepository) BulkCreate(ctx context.Context, days []models.NonWorkingDay) error {
	if len(days) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&days).Error
}

func (r *GormNonWorkingDayRepository) GetByYearMonth(ctx context.Context, year, month int) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.WithContext(ctx).Where("year = ? AND month = ?", year, month).Order("date").Find(&days).Error
	return days, err
}

// GetBetween дни в интервале [startDate, endDate], даты в формате YYYY-MM-DD
func (r *GormNonWorkingDayRepository) GetBetween(ctx context.Context, startDate, endDate string) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date").
		Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) GetAll(ctx context.Context) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.WithContext(ctx).Order("date").Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM non_working_days").Error
}

func (r *GormNonWorkingDayRepository) IsNonWorkingDay(ctx context.Context, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.NonWorkingDay{}).
		Where("date = ?", date).
		Count(&count).Error
	return count > 0, err
}
