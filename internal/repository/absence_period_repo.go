package repository

import (
	"context"
	"errors"

	"absence-timeline-bot/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAbsenceNotFound = errors.New("absence period not found")
	// ErrStatusChanged статус записи уже не тот, от которого шел переход
	ErrStatusChanged = errors.New("absence status changed concurrently")
)

type AbsencePeriodRepository interface {
	Create(ctx context.Context, period *models.AbsencePeriod) error
	Update(ctx context.Context, period *models.AbsencePeriod) error
	UpdateStatus(ctx context.Context, id, from, to, decidedBy string) error
	GetByID(ctx context.Context, id string) (*models.AbsencePeriod, error)
	GetAll(ctx context.Context) ([]models.AbsencePeriod, error)
	GetByUserID(ctx context.Context, userID uint) ([]models.AbsencePeriod, error)
	CheckPeriodConflict(ctx context.Context, userID uint, startDate, endDate, excludeID string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type GormAbsencePeriodRepository struct {
	db *gorm.DB
}

func NewGormAbsencePeriodRepository(db *gorm.DB) (AbsencePeriodRepository, error) {
	if err := db.AutoMigrate(&models.AbsencePeriod{}); err != nil {
		return nil, err
	}
	return &GormAbsencePeriodRepository{db: db}, nil
}

func (r *GormAbsencePeriodRepository) Create(ctx context.Context, period *models.AbsencePeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *GormAbsencePeriodRepository) Update(ctx context.Context, period *models.AbsencePeriod) error {
	result := r.db.WithContext(ctx).Model(&models.AbsencePeriod{}).
		Where("id = ?", period.ID).
		Select("category", "status", "start_date", "end_date", "total_days", "notes", "external_id", "user_id", "decided_by").
		Updates(period)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAbsenceNotFound
	}
	return nil
}

// UpdateStatus переводит запись из статуса from в to и запоминает, кто
// принял решение. Если статус уже другой, возвращает ErrStatusChanged.
func (r *GormAbsencePeriodRepository) UpdateStatus(ctx context.Context, id, from, to, decidedBy string) error {
	result := r.db.WithContext(ctx).Model(&models.AbsencePeriod{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "decided_by": decidedBy})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AbsencePeriod{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrAbsenceNotFound
	}
	return ErrStatusChanged
}

func (r *GormAbsencePeriodRepository) GetByID(ctx context.Context, id string) (*models.AbsencePeriod, error) {
	var period models.AbsencePeriod
	err := r.db.WithContext(ctx).Preload("User").First(&period, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAbsenceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *GormAbsencePeriodRepository) GetAll(ctx context.Context) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.WithContext(ctx).Preload("User").
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *GormAbsencePeriodRepository) GetByUserID(ctx context.Context, userID uint) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&periods).Error
	return periods, err
}

// CheckPeriodConflict есть ли у пользователя другой неотклоненный период,
// пересекающийся с [startDate, endDate]. Даты в формате YYYY-MM-DD
// сравниваются как строки.
func (r *GormAbsencePeriodRepository) CheckPeriodConflict(ctx context.Context, userID uint, startDate, endDate, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AbsencePeriod{}).
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, endDate, startDate).
		Where("status <> ?", "Rejected")
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *GormAbsencePeriodRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AbsencePeriod{}).Count(&count).Error
	return count, err
}

func (r *GormAbsencePeriodRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.AbsencePeriod{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAbsenceNotFound
	}
	return nil
}
