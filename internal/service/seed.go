package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

// demoUsers сотрудники демонстрационного набора. Отрицательные chat_id
// не пересекаются с настоящими чатами Telegram.
var demoUsers = []models.User{
	{ChatID: -1001, FirstName: "Ana", LastName: "Silva", Email: "ana.silva@example.com", Department: "Desenvolvimento", Team: "Team A"},
	{ChatID: -1002, FirstName: "Bruno", LastName: "Santos", Email: "bruno.santos@example.com", Department: "Design", Team: "Team B"},
	{ChatID: -1003, FirstName: "Carla", LastName: "Oliveira", Email: "carla.oliveira@example.com", Department: "Marketing", Team: "Team A"},
	{ChatID: -1004, FirstName: "Diego", LastName: "Ferreira", Email: "diego.ferreira@example.com", Department: "Desenvolvimento", Team: "Team C"},
	{ChatID: -1005, FirstName: "Elena", LastName: "Costa", Email: "elena.costa@example.com", Department: "RH", Team: "Team B"},
	{ChatID: -1006, FirstName: "Felipe", LastName: "Lima", Email: "felipe.lima@example.com", Department: "Vendas", Team: "Team D"},
}

// DemoSeeder заполняет пустую базу демонстрационными отсутствиями
type DemoSeeder struct {
	userRepo    repository.UserRepository
	absenceRepo repository.AbsencePeriodRepository
	logger      *logrus.Logger
}

func NewDemoSeeder(userRepo repository.UserRepository, absenceRepo repository.AbsencePeriodRepository, logger *logrus.Logger) *DemoSeeder {
	return &DemoSeeder{userRepo: userRepo, absenceRepo: absenceRepo, logger: logger}
}

// Seed создает набор на год year, если в базе еще нет отсутствий.
// Один и тот же seed дает один и тот же набор.
func (s *DemoSeeder) Seed(ctx context.Context, year int, seed uint64) (int, error) {
	count, err := s.absenceRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count absences: %w", err)
	}
	if count > 0 {
		s.logger.WithField("absences", count).Info("Store is not empty, demo data skipped")
		return 0, nil
	}

	users := make([]*models.User, 0, len(demoUsers))
	for _, u := range demoUsers {
		existing, err := s.userRepo.GetByChatID(ctx, u.ChatID)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			user := u
			user.Role = models.RoleClient
			if err := s.userRepo.Create(ctx, &user); err != nil {
				return 0, fmt.Errorf("create demo user %s: %w", u.DisplayName(), err)
			}
			existing = &user
		}
		users = append(users, existing)
	}

	periods := generateDemoPeriods(users, year, newRand(seed))
	for i := range periods {
		if err := s.absenceRepo.Create(ctx, &periods[i]); err != nil {
			return 0, fmt.Errorf("create demo absence: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{"year": year, "absences": len(periods)}).Info("Demo data seeded")
	return len(periods), nil
}

var otherDemoCategories = []struct {
	category string
	notes    string
}{
	{"Medical Leave", "Atestado médico apresentado"},
	{"Compensatory Time Off", "Compensação de horas extras"},
	{"Justified Absence", "Questões pessoais urgentes"},
	{"Other", "Diversos motivos"},
}

func generateDemoPeriods(users []*models.User, year int, rnd *rand.Rand) []models.AbsencePeriod {
	var periods []models.AbsencePeriod
	externalID := 1

	add := func(user *models.User, category string, status absence.Status, start time.Time, days int, notes string, requestedBefore int) {
		end := start.AddDate(0, 0, days-1)
		ext := externalID
		externalID++
		periods = append(periods, models.AbsencePeriod{
			UserID:      user.ID,
			Category:    category,
			Status:      string(status),
			StartDate:   dates.FormatISO(start),
			EndDate:     dates.FormatISO(end),
			RequestedOn: dates.FormatISO(start.AddDate(0, 0, -requestedBefore)),
			TotalDays:   days,
			Notes:       notes,
			ExternalID:  &ext,
		})
	}

	randomStart := func() time.Time {
		return dates.Date(year, time.Month(rnd.IntN(12)+1), rnd.IntN(28)+1)
	}

	for _, user := range users {
		vacations := 1
		if rnd.Float64() > 0.3 {
			vacations = 2
		}
		for i := 0; i < vacations; i++ {
			notes := "Férias de verão"
			if i > 0 {
				notes = "Férias de fim de ano"
			}
			add(user, "Annual Leave", absence.StatusApproved, randomStart(), rnd.IntN(15)+6, notes, 30)
		}

		for i := rnd.IntN(4) + 1; i > 0; i-- {
			other := otherDemoCategories[rnd.IntN(len(otherDemoCategories))]
			var days int
			var status absence.Status
			switch other.category {
			case "Medical Leave":
				days = rnd.IntN(7) + 1
				status = pickStatus(rnd, 0.2, absence.StatusPending)
			case "Compensatory Time Off":
				days = rnd.IntN(2) + 1
				status = pickStatus(rnd, 0.1, absence.StatusPending)
			case "Justified Absence":
				days = 1
				status = pickStatus(rnd, 0.2, absence.StatusRejected)
			default:
				days = rnd.IntN(3) + 1
				status = pickStatus(rnd, 0.3, absence.StatusPending)
			}
			add(user, other.category, status, randomStart(), days, other.notes, 7)
		}
	}

	// Длинные периоды, переходящие через границу месяца и года
	if len(users) > 2 {
		add(users[2], "Maternity Leave", absence.StatusApproved, dates.Date(year, time.September, 15), 121,
			"Licença maternidade", 60)
		add(users[1], "Paternity Leave", absence.StatusApproved, dates.Date(year, time.September, 20), 6,
			"Licença paternidade", 15)
	}

	return periods
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// pickStatus с вероятностью p возвращает alt, иначе Approved
func pickStatus(rnd *rand.Rand, p float64, alt absence.Status) absence.Status {
	if rnd.Float64() < p {
		return alt
	}
	return absence.StatusApproved
}
