package repository

import (
	"context"

	"absence-timeline-bot/internal/models"

	"gorm.io/gorm"
)

type ChoiceOptionRepository interface {
	GetByField(ctx context.Context, field string) ([]models.ChoiceOption, error)
	ReplaceField(ctx context.Context, field string, options []models.ChoiceOption) error
}

type GormChoiceOptionRepository struct {
	db *gorm.DB
}

func NewGormChoiceOptionRepository(db *gorm.DB) (ChoiceOptionRepository, error) {
	if err := db.AutoMigrate(&models.ChoiceOption{}); err != nil {
		return nil, err
	}
	return &GormChoiceOptionRepository{db: db}, nil
}

func (r *GormChoiceOptionRepository) GetByField(ctx context.Context, field string) ([]models.ChoiceOption, error) {
	var options []models.ChoiceOption
	err := r.db.WithContext(ctx).
		Where("field = ?", field).
		Order("position ASC, id ASC").
		Find(&options).Error
	return options, err
}

// ReplaceField заменяет словарь поля целиком в одной транзакции
func (r *GormChoiceOptionRepository) ReplaceField(ctx context.Context, field string, options []models.ChoiceOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field = ?", field).Delete(&models.ChoiceOption{}).Error; err != nil {
			return err
		}
		if len(options) == 0 {
			return nil
		}
		for i := range options {
			options[i].ID = 0
			options[i].Field = field
			options[i].Position = i
		}
		return tx.Create(&options).Error
	})
}
