package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/palette"
	"absence-timeline-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

var (
	ErrPeriodOverlap  = errors.New("период пересекается с другим отсутствием сотрудника")
	ErrEmptyCategory  = errors.New("не указан тип отсутствия")
	ErrAlreadyDecided = errors.New("решение по отсутствию уже принято")
)

// RecordInput данные для создания или изменения отсутствия
type RecordInput struct {
	UserID     uint
	Category   string
	Status     absence.Status
	StartDate  time.Time
	EndDate    time.Time
	Notes      string
	ExternalID *int
}

type AbsenceServiceOptions struct {
	Conflicts absence.ConflictOptions
	Language  language.Tag
}

// AbsenceService хранилище записей для движка графика отсутствий.
// При сбое хранилища отдает последний успешно прочитанный набор.
type AbsenceService struct {
	absenceRepo          repository.AbsencePeriodRepository
	userRepo             repository.UserRepository
	choiceRepo           repository.ChoiceOptionRepository
	nonWorkingDayService *NonWorkingDayService
	opts                 AbsenceServiceOptions
	logger               *logrus.Logger
	now                  func() time.Time

	mu       sync.RWMutex
	lastGood []absence.Record
}

func NewAbsenceService(
	absenceRepo repository.AbsencePeriodRepository,
	userRepo repository.UserRepository,
	choiceRepo repository.ChoiceOptionRepository,
	nonWorkingDayService *NonWorkingDayService,
	opts AbsenceServiceOptions,
	logger *logrus.Logger,
) *AbsenceService {
	return &AbsenceService{
		absenceRepo:          absenceRepo,
		userRepo:             userRepo,
		choiceRepo:           choiceRepo,
		nonWorkingDayService: nonWorkingDayService,
		opts:                 opts,
		logger:               logger,
		now:                  time.Now,
	}
}

// FetchAllRecords читает все записи хранилища. Строки, которые не
// удалось разобрать, пропускаются с предупреждением.
func (s *AbsenceService) FetchAllRecords(ctx context.Context) ([]absence.Record, error) {
	periods, err := s.absenceRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch absences: %w", err)
	}

	records := make([]absence.Record, 0, len(periods))
	for _, p := range periods {
		record, err := toRecord(p)
		if err != nil {
			s.logger.WithError(err).WithField("absence_id", p.ID).Warn("Skipping malformed absence")
			continue
		}
		records = append(records, record)
	}

	s.mu.Lock()
	s.lastGood = records
	s.mu.Unlock()

	return slices.Clone(records), nil
}

// LoadRecords как FetchAllRecords, но при ошибке хранилища возвращает
// последний успешный набор (или пустой).
func (s *AbsenceService) LoadRecords(ctx context.Context) []absence.Record {
	records, err := s.FetchAllRecords(ctx)
	if err == nil {
		return records
	}

	s.mu.RLock()
	cached := slices.Clone(s.lastGood)
	s.mu.RUnlock()

	s.logger.WithError(err).WithField("cached", len(cached)).Error("Absence store unavailable, using last good records")
	return cached
}

// FetchCategoryOptions словарь типов отсутствия; при ошибке или пустом
// словаре возвращается набор по умолчанию.
func (s *AbsenceService) FetchCategoryOptions(ctx context.Context) ([]absence.Option, error) {
	return s.fetchOptions(ctx, models.ChoiceFieldCategory, absence.DefaultCategories), nil
}

// FetchTeamOptions словарь команд с тем же поведением при ошибке.
func (s *AbsenceService) FetchTeamOptions(ctx context.Context) ([]absence.Option, error) {
	return s.fetchOptions(ctx, models.ChoiceFieldTeam, absence.DefaultTeams), nil
}

func (s *AbsenceService) fetchOptions(ctx context.Context, field string, fallback []absence.Option) []absence.Option {
	options, err := s.choiceRepo.GetByField(ctx, field)
	if err != nil {
		s.logger.WithError(err).WithField("field", field).Warn("Failed to load choice options, using defaults")
		return slices.Clone(fallback)
	}
	if len(options) == 0 {
		return slices.Clone(fallback)
	}
	return toOptions(options)
}

// SetCategoryOptions заменяет словарь типов отсутствия
func (s *AbsenceService) SetCategoryOptions(ctx context.Context, labels []string) error {
	return s.setOptions(ctx, models.ChoiceFieldCategory, labels)
}

// SetTeamOptions заменяет словарь команд
func (s *AbsenceService) SetTeamOptions(ctx context.Context, labels []string) error {
	return s.setOptions(ctx, models.ChoiceFieldTeam, labels)
}

func (s *AbsenceService) setOptions(ctx context.Context, field string, labels []string) error {
	options := make([]models.ChoiceOption, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		options = append(options, models.ChoiceOption{Key: label, Label: label})
	}
	if len(options) == 0 {
		return fmt.Errorf("%w: empty %s list", palette.ErrInvalidInput, field)
	}

	if err := s.choiceRepo.ReplaceField(ctx, field, options); err != nil {
		return fmt.Errorf("save %s options: %w", field, err)
	}

	s.logger.WithFields(logrus.Fields{"field": field, "count": len(options)}).Info("Choice options replaced")
	return nil
}

// CreateRecord добавляет отсутствие. Тип приводится к подписи из словаря,
// статус по умолчанию Pending.
func (s *AbsenceService) CreateRecord(ctx context.Context, in RecordInput) (absence.Record, error) {
	period, err := s.buildPeriod(ctx, in, "")
	if err != nil {
		return absence.Record{}, err
	}
	period.RequestedOn = dates.FormatISO(s.now())

	if err := s.absenceRepo.Create(ctx, period); err != nil {
		return absence.Record{}, fmt.Errorf("ошибка создания периода: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"absence_id": period.ID,
		"user_id":    period.UserID,
		"category":   period.Category,
		"start":      period.StartDate,
		"end":        period.EndDate,
	}).Info("Absence created")

	return s.GetRecord(ctx, period.ID)
}

// UpdateRecord меняет даты, тип и заметки. Пустой статус во входных
// данных сохраняет текущий, но если изменились даты или тип, запись
// возвращается на согласование.
func (s *AbsenceService) UpdateRecord(ctx context.Context, id string, in RecordInput) (absence.Record, error) {
	existing, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return absence.Record{}, err
	}
	if in.UserID == 0 {
		in.UserID = existing.UserID
	}
	keepStatus := in.Status == ""
	if keepStatus {
		in.Status = absence.Status(existing.Status)
	}
	if in.ExternalID == nil {
		in.ExternalID = existing.ExternalID
	}

	period, err := s.buildPeriod(ctx, in, id)
	if err != nil {
		return absence.Record{}, err
	}
	period.ID = id
	period.RequestedOn = existing.RequestedOn
	period.DecidedBy = existing.DecidedBy

	if keepStatus && period.Status != string(absence.StatusPending) && periodChanged(existing, period) {
		period.Status = string(absence.StatusPending)
	}
	if period.Status == string(absence.StatusPending) {
		period.DecidedBy = ""
	}

	if err := s.absenceRepo.Update(ctx, period); err != nil {
		return absence.Record{}, fmt.Errorf("ошибка обновления периода: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"absence_id": id, "status": period.Status}).Info("Absence updated")
	return s.GetRecord(ctx, id)
}

// periodChanged изменились ли даты, тип или сотрудник
func periodChanged(old, updated *models.AbsencePeriod) bool {
	return old.StartDate != updated.StartDate ||
		old.EndDate != updated.EndDate ||
		old.Category != updated.Category ||
		old.UserID != updated.UserID
}

func (s *AbsenceService) buildPeriod(ctx context.Context, in RecordInput, excludeID string) (*models.AbsencePeriod, error) {
	days, err := dates.CalendarDayCount(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Category) == "" {
		return nil, ErrEmptyCategory
	}
	categories, _ := s.FetchCategoryOptions(ctx)
	category := absence.CanonicalCategory(in.Category, categories)

	status := in.Status
	if status == "" {
		status = absence.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", palette.ErrInvalidInput, status)
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	start, end := dates.FormatISO(in.StartDate), dates.FormatISO(in.EndDate)
	overlap, err := s.absenceRepo.CheckPeriodConflict(ctx, in.UserID, start, end, excludeID)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки конфликтов: %w", err)
	}
	if overlap {
		return nil, ErrPeriodOverlap
	}

	return &models.AbsencePeriod{
		UserID:     in.UserID,
		Category:   category,
		Status:     string(status),
		StartDate:  start,
		EndDate:    end,
		TotalDays:  days,
		Notes:      strings.TrimSpace(in.Notes),
		ExternalID: in.ExternalID,
	}, nil
}

// DeleteRecord удаляет период отсутствия
func (s *AbsenceService) DeleteRecord(ctx context.Context, id string) error {
	if err := s.absenceRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("absence_id", id).Info("Absence deleted")
	return nil
}

// SetStatus согласование: Pending -> Approved или Rejected. Решение
// принимается один раз; одобрение повторно проверяет пересечения
// с другими отсутствиями сотрудника.
func (s *AbsenceService) SetStatus(ctx context.Context, id string, status absence.Status, decidedBy string) (absence.Record, error) {
	if status != absence.StatusApproved && status != absence.StatusRejected {
		return absence.Record{}, fmt.Errorf("%w: status %q", palette.ErrInvalidInput, status)
	}

	existing, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return absence.Record{}, err
	}
	if existing.Status != string(absence.StatusPending) {
		return absence.Record{}, fmt.Errorf("%w: %s", ErrAlreadyDecided, existing.Status)
	}

	if status == absence.StatusApproved {
		overlap, err := s.absenceRepo.CheckPeriodConflict(ctx, existing.UserID, existing.StartDate, existing.EndDate, id)
		if err != nil {
			return absence.Record{}, fmt.Errorf("ошибка проверки конфликтов: %w", err)
		}
		if overlap {
			return absence.Record{}, ErrPeriodOverlap
		}
	}

	err = s.absenceRepo.UpdateStatus(ctx, id, string(absence.StatusPending), string(status), strings.TrimSpace(decidedBy))
	if errors.Is(err, repository.ErrStatusChanged) {
		return absence.Record{}, ErrAlreadyDecided
	}
	if err != nil {
		return absence.Record{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"absence_id": id,
		"status":     status,
		"decided_by": decidedBy,
	}).Info("Absence status changed")
	return s.GetRecord(ctx, id)
}

// GetRecord возвращает одну запись
func (s *AbsenceService) GetRecord(ctx context.Context, id string) (absence.Record, error) {
	period, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return absence.Record{}, err
	}
	return toRecord(*period)
}

// GetUserRecords отсутствия сотрудника, новые первыми
func (s *AbsenceService) GetUserRecords(ctx context.Context, userID uint) ([]absence.Record, error) {
	periods, err := s.absenceRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := make([]absence.Record, 0, len(periods))
	for _, p := range periods {
		record, err := toRecord(p)
		if err != nil {
			s.logger.WithError(err).WithField("absence_id", p.ID).Warn("Skipping malformed absence")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// ComputeView строит график, пересечения и помесячную статистику для
// фильтра, а также палитру по текущему словарю типов.
func (s *AbsenceService) ComputeView(ctx context.Context, f absence.ViewFilter) (absence.View, *palette.Palette) {
	records := s.LoadRecords(ctx)
	categories, _ := s.FetchCategoryOptions(ctx)

	view := absence.ComputeView(records, f, absence.ViewOptions{
		Conflicts: s.opts.Conflicts,
		Language:  s.opts.Language,
	})

	return view, palette.Build(paletteCategories(categories, records))
}

// Palette палитра текущего словаря типов
func (s *AbsenceService) Palette(ctx context.Context) *palette.Palette {
	categories, _ := s.FetchCategoryOptions(ctx)
	return palette.Build(paletteCategories(categories, s.LoadRecords(ctx)))
}

// paletteCategories подписи словаря, затем типы из записей, которых нет
// в словаре, в порядке первого появления.
func paletteCategories(options []absence.Option, records []absence.Record) []string {
	labels := absence.Labels(options)
	known := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		known[l] = struct{}{}
	}
	for _, r := range records {
		if _, ok := known[r.Category]; ok || r.Category == "" {
			continue
		}
		known[r.Category] = struct{}{}
		labels = append(labels, r.Category)
	}
	return labels
}

// BusinessDays рабочие дни интервала без суббот, воскресений и праздников
// производственного календаря.
func (s *AbsenceService) BusinessDays(ctx context.Context, start, end time.Time) (int, error) {
	holidays, err := s.nonWorkingDayService.HolidaysBetween(ctx, start, end)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load holidays, counting weekends only")
		return dates.BusinessDayCount(start, end)
	}
	return dates.BusinessDayCountExcluding(start, end, holidays)
}
