package service

import (
	"context"
	"io"
	"testing"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/palette"
	"absence-timeline-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	users       *UserService
	absences    *AbsenceService
	nonWorking  *NonWorkingDayService
	userRepo    repository.UserRepository
	absenceRepo repository.AbsencePeriodRepository
	choiceRepo  repository.ChoiceOptionRepository
	log         *logrus.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	userRepo, err := repository.NewGormUserRepository(db)
	require.NoError(t, err)
	absenceRepo, err := repository.NewGormAbsencePeriodRepository(db)
	require.NoError(t, err)
	choiceRepo, err := repository.NewGormChoiceOptionRepository(db)
	require.NoError(t, err)
	nwdRepo, err := repository.NewGormNonWorkingDayRepository(db)
	require.NoError(t, err)

	nonWorking := NewNonWorkingDayService(nwdRepo, log)
	absences := NewAbsenceService(absenceRepo, userRepo, choiceRepo, nonWorking, AbsenceServiceOptions{
		Language: language.Portuguese,
	}, log)
	absences.now = func() time.Time { return dates.Date(2024, time.January, 2) }

	return &testEnv{
		db:          db,
		users:       NewUserService(userRepo),
		absences:    absences,
		nonWorking:  nonWorking,
		userRepo:    userRepo,
		absenceRepo: absenceRepo,
		choiceRepo:  choiceRepo,
		log:         log,
	}
}

func (e *testEnv) user(t *testing.T, chatID int64, first, last, team string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), chatID, "", first, last)
	require.NoError(t, err)
	if team != "" {
		user, err = e.users.SetTeam(context.Background(), chatID, team, absence.DefaultTeams)
		require.NoError(t, err)
	}
	return user
}

func TestCreateRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.user(t, 1, "Ana", "Silva", "team a")

	record, err := env.absences.CreateRecord(ctx, RecordInput{
		UserID:    ana.ID,
		Category:  "férias",
		StartDate: dates.Date(2024, time.January, 5),
		EndDate:   dates.Date(2024, time.January, 10),
		Notes:     "  praia ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Annual Leave", record.Category)
	assert.Equal(t, absence.StatusPending, record.Status)
	assert.Equal(t, 6, record.TotalDays)
	assert.Equal(t, "praia", record.Notes)
	assert.Equal(t, "Ana Silva", record.Person.DisplayName)
	assert.Equal(t, "Team A", record.Person.Team)
	assert.True(t, dates.SameDay(dates.Date(2024, time.January, 2), record.RequestedOn))

	t.Run("overlap with own period", func(t *testing.T) {
		_, err := env.absences.CreateRecord(ctx, RecordInput{
			UserID:    ana.ID,
			Category:  "Other",
			StartDate: dates.Date(2024, time.January, 10),
			EndDate:   dates.Date(2024, time.January, 11),
		})
		assert.ErrorIs(t, err, ErrPeriodOverlap)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := env.absences.CreateRecord(ctx, RecordInput{
			UserID:    ana.ID,
			Category:  "Other",
			StartDate: dates.Date(2024, time.March, 10),
			EndDate:   dates.Date(2024, time.March, 9),
		})
		assert.ErrorIs(t, err, dates.ErrInvalidRange)
	})

	t.Run("empty category", func(t *testing.T) {
		_, err := env.absences.CreateRecord(ctx, RecordInput{
			UserID:    ana.ID,
			StartDate: dates.Date(2024, time.March, 1),
			EndDate:   dates.Date(2024, time.March, 1),
		})
		assert.ErrorIs(t, err, ErrEmptyCategory)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.absences.CreateRecord(ctx, RecordInput{
			UserID:    999,
			Category:  "Other",
			StartDate: dates.Date(2024, time.March, 1),
			EndDate:   dates.Date(2024, time.March, 1),
		})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpdateDeleteAndStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.user(t, 1, "Ana", "", "")

	record, err := env.absences.CreateRecord(ctx, RecordInput{
		UserID:    ana.ID,
		Category:  "Medical Leave",
		StartDate: dates.Date(2024, time.February, 1),
		EndDate:   dates.Date(2024, time.February, 3),
	})
	require.NoError(t, err)

	approved, err := env.absences.SetStatus(ctx, record.ID, absence.StatusApproved, "Admin Root")
	require.NoError(t, err)
	assert.Equal(t, absence.StatusApproved, approved.Status)
	assert.Equal(t, "Admin Root", approved.DecidedBy)

	notes, err := env.absences.UpdateRecord(ctx, record.ID, RecordInput{
		Category:  "Medical Leave",
		StartDate: dates.Date(2024, time.February, 1),
		EndDate:   dates.Date(2024, time.February, 3),
		Notes:     "справка в отделе кадров",
	})
	require.NoError(t, err)
	assert.Equal(t, absence.StatusApproved, notes.Status, "notes-only edit keeps the decision")
	assert.Equal(t, "Admin Root", notes.DecidedBy)

	updated, err := env.absences.UpdateRecord(ctx, record.ID, RecordInput{
		Category:  "Medical Leave",
		StartDate: dates.Date(2024, time.February, 1),
		EndDate:   dates.Date(2024, time.February, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.TotalDays)
	assert.Equal(t, absence.StatusPending, updated.Status, "date edit goes back to approval")
	assert.Empty(t, updated.DecidedBy)

	kept, err := env.absences.UpdateRecord(ctx, record.ID, RecordInput{
		Category:  "Medical Leave",
		Status:    absence.StatusApproved,
		StartDate: dates.Date(2024, time.February, 1),
		EndDate:   dates.Date(2024, time.February, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, absence.StatusApproved, kept.Status, "explicit status wins")

	_, err = env.absences.SetStatus(ctx, record.ID, absence.Status("Done"), "Admin Root")
	assert.ErrorIs(t, err, palette.ErrInvalidInput)

	require.NoError(t, env.absences.DeleteRecord(ctx, record.ID))
	assert.ErrorIs(t, env.absences.DeleteRecord(ctx, record.ID), repository.ErrAbsenceNotFound)

	records, err := env.absences.GetUserRecords(ctx, ana.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSetStatusTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.user(t, 1, "Ana", "", "")

	create := func(t *testing.T, start, end time.Time) absence.Record {
		t.Helper()
		r, err := env.absences.CreateRecord(ctx, RecordInput{
			UserID: ana.ID, Category: "Annual Leave", StartDate: start, EndDate: end,
		})
		require.NoError(t, err)
		return r
	}

	t.Run("decision is final", func(t *testing.T) {
		r := create(t, dates.Date(2024, time.April, 1), dates.Date(2024, time.April, 2))

		rejected, err := env.absences.SetStatus(ctx, r.ID, absence.StatusRejected, "Carla")
		require.NoError(t, err)
		assert.Equal(t, absence.StatusRejected, rejected.Status)
		assert.Equal(t, "Carla", rejected.DecidedBy)

		_, err = env.absences.SetStatus(ctx, r.ID, absence.StatusApproved, "Dario")
		assert.ErrorIs(t, err, ErrAlreadyDecided)

		stored, err := env.absences.GetRecord(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, absence.StatusRejected, stored.Status)
		assert.Equal(t, "Carla", stored.DecidedBy)
	})

	t.Run("pending is not a decision", func(t *testing.T) {
		r := create(t, dates.Date(2024, time.May, 6), dates.Date(2024, time.May, 7))
		_, err := env.absences.SetStatus(ctx, r.ID, absence.StatusPending, "Carla")
		assert.ErrorIs(t, err, palette.ErrInvalidInput)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := env.absences.SetStatus(ctx, "missing", absence.StatusApproved, "Carla")
		assert.ErrorIs(t, err, repository.ErrAbsenceNotFound)
	})

	t.Run("approval rechecks overlap", func(t *testing.T) {
		approved := create(t, dates.Date(2024, time.June, 3), dates.Date(2024, time.June, 7))
		_, err := env.absences.SetStatus(ctx, approved.ID, absence.StatusApproved, "Carla")
		require.NoError(t, err)

		// Пересекающаяся заявка могла попасть в базу в обход сервиса
		// (импорт, демо-данные)
		overlapping := &models.AbsencePeriod{
			UserID:      ana.ID,
			Category:    "Training",
			Status:      string(absence.StatusPending),
			StartDate:   "2024-06-05",
			EndDate:     "2024-06-10",
			RequestedOn: "2024-01-02",
			TotalDays:   6,
		}
		require.NoError(t, env.absenceRepo.Create(ctx, overlapping))

		_, err = env.absences.SetStatus(ctx, overlapping.ID, absence.StatusApproved, "Carla")
		assert.ErrorIs(t, err, ErrPeriodOverlap)

		stored, err := env.absences.GetRecord(ctx, overlapping.ID)
		require.NoError(t, err)
		assert.Equal(t, absence.StatusPending, stored.Status)

		rejected, err := env.absences.SetStatus(ctx, overlapping.ID, absence.StatusRejected, "Carla")
		require.NoError(t, err)
		assert.Equal(t, absence.StatusRejected, rejected.Status)
	})

	t.Run("rejected request reopens after edit", func(t *testing.T) {
		r := create(t, dates.Date(2024, time.August, 1), dates.Date(2024, time.August, 2))
		_, err := env.absences.SetStatus(ctx, r.ID, absence.StatusRejected, "Carla")
		require.NoError(t, err)

		reopened, err := env.absences.UpdateRecord(ctx, r.ID, RecordInput{
			Category:  "Annual Leave",
			StartDate: dates.Date(2024, time.August, 5),
			EndDate:   dates.Date(2024, time.August, 6),
		})
		require.NoError(t, err)
		assert.Equal(t, absence.StatusPending, reopened.Status)

		approved, err := env.absences.SetStatus(ctx, r.ID, absence.StatusApproved, "Dario")
		require.NoError(t, err)
		assert.Equal(t, "Dario", approved.DecidedBy)
	})
}

func TestDeleteUserDropsAbsences(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.user(t, 1, "Ana", "", "Team A")
	bob := env.user(t, 2, "Bob", "", "Team A")

	for _, id := range []uint{ana.ID, bob.ID} {
		_, err := env.absences.CreateRecord(ctx, RecordInput{
			UserID: id, Category: "Annual Leave", Status: absence.StatusApproved,
			StartDate: dates.Date(2024, time.March, 4), EndDate: dates.Date(2024, time.March, 8),
		})
		require.NoError(t, err)
	}

	require.NoError(t, env.users.DeleteUser(ctx, 1))

	records, err := env.absences.FetchAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bob", records[0].Person.DisplayName)

	view, _ := env.absences.ComputeView(ctx, absence.ViewFilter{Year: 2024})
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "Bob", view.Groups[0].Person.DisplayName)
	assert.Empty(t, view.Conflicts)
}

func TestRecordWithoutUserIsSkipped(t *testing.T) {
	_, err := toRecord(models.AbsencePeriod{
		ID:          "orphan",
		UserID:      7,
		Category:    "Other",
		Status:      "Approved",
		StartDate:   "2024-03-01",
		EndDate:     "2024-03-02",
		RequestedOn: "2024-01-01",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetNonWorkingDaysForMonth(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.nonWorking.LoadFromBytes(ctx, []byte(`{"year": 2024, "months": [
		{"month": 1, "days": "1,2,6,7"},
		{"month": 2, "days": "3,4,23"}
	]}`))
	require.NoError(t, err)

	feb, err := env.nonWorking.GetNonWorkingDaysForMonth(ctx, 2024, 2)
	require.NoError(t, err)
	require.Len(t, feb, 3)
	for _, d := range feb {
		assert.Equal(t, 2, d.Month)
	}

	none, err := env.nonWorking.GetNonWorkingDaysForMonth(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChoiceOptionsFallback(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	categories, err := env.absences.FetchCategoryOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, absence.DefaultCategories, categories)

	teams, err := env.absences.FetchTeamOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 4)

	require.NoError(t, env.absences.SetTeamOptions(ctx, []string{"Squad A", " ", "Squad B", "Squad A"}))
	teams, err = env.absences.FetchTeamOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Squad A", "Squad B"}, absence.Labels(teams))

	assert.ErrorIs(t, env.absences.SetCategoryOptions(ctx, nil), palette.ErrInvalidInput)
}

func TestComputeView(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.user(t, 1, "Alice", "", "Team A")
	bob := env.user(t, 2, "Bob", "", "Team A")

	for _, in := range []RecordInput{
		{UserID: alice.ID, Category: "Annual Leave", Status: absence.StatusApproved,
			StartDate: dates.Date(2024, time.January, 5), EndDate: dates.Date(2024, time.January, 10)},
		{UserID: bob.ID, Category: "Annual Leave", Status: absence.StatusApproved,
			StartDate: dates.Date(2024, time.January, 8), EndDate: dates.Date(2024, time.January, 12)},
		{UserID: bob.ID, Category: "Training", Status: absence.StatusPending,
			StartDate: dates.Date(2024, time.March, 4), EndDate: dates.Date(2024, time.March, 4)},
	} {
		_, err := env.absences.CreateRecord(ctx, in)
		require.NoError(t, err)
	}

	view, pal := env.absences.ComputeView(ctx, absence.ViewFilter{Year: 2024, Month: absence.Month(0)})

	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Alice", view.Groups[0].Person.DisplayName)
	require.Len(t, view.Conflicts, 1)
	assert.Equal(t, 3, view.Conflicts[0].OverlapDays)
	assert.Equal(t, 1, view.Months[2].Pending)

	assert.Equal(t, palette.Green, pal.Resolve("Annual Leave").Color)
	assert.Equal(t, "Training", pal.Resolve("Training").Label)
	assert.Equal(t, len(absence.DefaultCategories)+1, pal.Len())
}

func TestLoadRecordsFallsBackToLastGood(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ana := env.user(t, 1, "Ana", "", "")

	_, err := env.absences.CreateRecord(ctx, RecordInput{
		UserID:    ana.ID,
		Category:  "Other",
		StartDate: dates.Date(2024, time.May, 1),
		EndDate:   dates.Date(2024, time.May, 2),
	})
	require.NoError(t, err)

	records, err := env.absences.FetchAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = env.absences.FetchAllRecords(ctx)
	assert.Error(t, err)

	cached := env.absences.LoadRecords(ctx)
	assert.Equal(t, records, cached)

	categories, err := env.absences.FetchCategoryOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, absence.DefaultCategories, categories)
}

func TestBusinessDays(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.nonWorking.LoadFromBytes(ctx, []byte(`{"year": 2024, "months": [
		{"month": 1, "days": "1,2,3,6,7,13,14,20,21,27,28"}
	]}`))
	require.NoError(t, err)

	// 1-14 января 2024: 10 будних дней, из них 1-3 праздники
	days, err := env.absences.BusinessDays(ctx, dates.Date(2024, time.January, 1), dates.Date(2024, time.January, 14))
	require.NoError(t, err)
	assert.Equal(t, 7, days)

	is, err := env.nonWorking.IsNonWorkingDay(ctx, dates.Date(2024, time.January, 6))
	require.NoError(t, err)
	assert.True(t, is)

	count, err := env.nonWorking.CountNonWorkingDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), count)
}

func TestDemoSeeder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seeder := NewDemoSeeder(env.userRepo, env.absenceRepo, env.log)

	n, err := seeder.Seed(ctx, 2024, 42)
	require.NoError(t, err)
	assert.Greater(t, n, len(demoUsers))

	again, err := seeder.Seed(ctx, 2024, 42)
	require.NoError(t, err)
	assert.Zero(t, again)

	records, err := env.absences.FetchAllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, n)
	for _, r := range records {
		assert.NoError(t, r.Validate())
	}

	// Отпуск по уходу за ребенком переходит на следующий год
	view, _ := env.absences.ComputeView(ctx, absence.ViewFilter{Year: 2025, CategoryFilter: "Maternity Leave"})
	assert.Len(t, view.Groups, 1)
}

func TestGenerateDemoPeriodsIsDeterministic(t *testing.T) {
	users := []*models.User{{ID: 1}, {ID: 2}, {ID: 3}}
	a := generateDemoPeriods(users, 2024, newRand(7))
	b := generateDemoPeriods(users, 2024, newRand(7))
	assert.Equal(t, a, b)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.users.InitializeAdmin(ctx, 10))
	isAdmin, err := env.users.IsAdmin(ctx, 10)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	env.user(t, 20, "Bruno", "", "")

	err = env.users.UpdateRole(ctx, 20, 10, models.RoleClient)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, env.users.UpdateRole(ctx, 10, 20, models.RoleAdmin))

	_, err = env.users.SetTeam(ctx, 20, "Team Z", absence.DefaultTeams)
	assert.Error(t, err)

	user, err := env.users.SetEmail(ctx, 20, " bruno@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "bruno@example.com", user.Email)

	for _, bad := range []string{"not-an-email", "Bruno <bruno@example.com>", "bruno@", ""} {
		_, err = env.users.SetEmail(ctx, 20, bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}

	_, err = env.users.GetUser(ctx, 30)
	assert.ErrorIs(t, err, ErrUserNotFound)

	text, err := env.users.FormatAllUsers(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "Администраторов: 2")
}
