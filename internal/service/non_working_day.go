package service

import (
	"context"
	"fmt"
	"time"

	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/repository"
	"absence-timeline-bot/pkg/weekends"

	"github.com/sirupsen/logrus"
)

type NonWorkingDayService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewNonWorkingDayService(repo repository.NonWorkingDayRepository, logger *logrus.Logger) *NonWorkingDayService {
	return &NonWorkingDayService{repo: repo, logger: logger}
}

// LoadFromJSON загружает выходные дни из JSON файла в базу данных
func (s *NonWorkingDayService) LoadFromJSON(ctx context.Context, filePath string) (int, error) {
	days, err := weekends.ParseWeekendsJSON(filePath)
	if err != nil {
		return 0, err
	}
	return s.store(ctx, days)
}

// LoadFromBytes загружает календарь, присланный документом в чат
func (s *NonWorkingDayService) LoadFromBytes(ctx context.Context, data []byte) (int, error) {
	days, err := weekends.Parse(data)
	if err != nil {
		return 0, err
	}
	return s.store(ctx, days)
}

func (s *NonWorkingDayService) store(ctx context.Context, days []weekends.NonWorkingDay) (int, error) {
	nonWorkingDays := make([]models.NonWorkingDay, 0, len(days))
	for _, wd := range days {
		nonWorkingDays = append(nonWorkingDays, models.NonWorkingDay{
			Date:  dates.FormatISO(wd.Date),
			Year:  wd.Year,
			Month: wd.Month,
			Day:   wd.Day,
		})
	}

	// Удаляем старые записи (чтобы избежать дублирования)
	if err := s.repo.DeleteAll(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to delete old non-working days")
	}

	if err := s.repo.BulkCreate(ctx, nonWorkingDays); err != nil {
		return 0, fmt.Errorf("save non-working days: %w", err)
	}

	s.logger.WithField("count", len(nonWorkingDays)).Info("Non-working days loaded")
	return len(nonWorkingDays), nil
}

// GetNonWorkingDaysForMonth возвращает выходные дни для указанного месяца (1..12)
func (s *NonWorkingDayService) GetNonWorkingDaysForMonth(ctx context.Context, year, month int) ([]models.NonWorkingDay, error) {
	return s.repo.GetByYearMonth(ctx, year, month)
}

// IsNonWorkingDay проверяет, является ли дата выходным днем
func (s *NonWorkingDayService) IsNonWorkingDay(ctx context.Context, date time.Time) (bool, error) {
	return s.repo.IsNonWorkingDay(ctx, dates.FormatISO(date))
}

// HolidaysBetween праздничные дни календаря в интервале [start, end]
func (s *NonWorkingDayService) HolidaysBetween(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	days, err := s.repo.GetBetween(ctx, dates.FormatISO(start), dates.FormatISO(end))
	if err != nil {
		return nil, err
	}

	holidays := make([]time.Time, 0, len(days))
	for _, d := range days {
		t, err := dates.ParseISO(d.Date)
		if err != nil {
			s.logger.WithError(err).WithField("date", d.Date).Warn("Skipping malformed non-working day")
			continue
		}
		holidays = append(holidays, t)
	}
	return holidays, nil
}

// CountNonWorkingDays возвращает количество выходных дней
func (s *NonWorkingDayService) CountNonWorkingDays(ctx context.Context) (int64, error) {
	days, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(days)), nil
}
