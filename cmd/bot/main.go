package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/api"
	"absence-timeline-bot/internal/config"
	"absence-timeline-bot/internal/handler"
	"absence-timeline-bot/internal/repository"
	"absence-timeline-bot/internal/service"
	"absence-timeline-bot/pkg/telegram"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.GetBotConfig()
	log := cfg.NewLogger()
	log.Info("Config initialized...")

	// Инициализируем SQLite базу данных
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	// Включаем поддержку внешних ключей (требуется для SQLite)
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		log.Warnf("Failed to enable foreign keys: %v", err)
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create user repository")
	}

	absenceRepo, err := repository.NewGormAbsencePeriodRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create absence repository")
	}

	nonWorkingDayRepo, err := repository.NewGormNonWorkingDayRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create non-working day repository")
	}

	choiceRepo, err := repository.NewGormChoiceOptionRepository(db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create choice option repository")
	}

	userService := service.NewUserService(userRepo)
	nonWorkingDayService := service.NewNonWorkingDayService(nonWorkingDayRepo, log)
	absenceService := service.NewAbsenceService(
		absenceRepo,
		userRepo,
		choiceRepo,
		nonWorkingDayService,
		service.AbsenceServiceOptions{
			Conflicts: absence.ConflictOptions{ExcludeSamePerson: cfg.ExcludeSamePersonConflicts},
			Language:  cfg.Language,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем администратора из конфига
	if err := userService.InitializeAdmin(ctx, cfg.BaseAdminChatID); err != nil {
		log.Warnf("Failed to initialize admin: %v", err)
	} else if cfg.BaseAdminChatID != 0 {
		log.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	if cfg.WeekendsFile != "" {
		if count, err := nonWorkingDayService.LoadFromJSON(ctx, cfg.WeekendsFile); err != nil {
			log.WithError(err).Warn("Failed to load production calendar")
		} else {
			log.Infof("Loaded %d non-working days from %s", count, cfg.WeekendsFile)
		}
	}

	if cfg.SeedDemoData {
		seeder := service.NewDemoSeeder(userRepo, absenceRepo, log)
		if _, err := seeder.Seed(ctx, cfg.DemoYear, cfg.DemoSeed); err != nil {
			log.WithError(err).Warn("Failed to seed demo data")
		}
	}

	// Создаем клиент Telegram
	client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
	if err != nil {
		log.Fatal("Failed to create Telegram client:", err)
	}

	log.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(
		client,
		userService,
		absenceService,
		nonWorkingDayService,
		cfg,
		log,
	)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.HTTPAddr
	server := api.NewServer(serverConfig, absenceService, log)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	go func() {
		defer wg.Done()
		botHandler.HandleUpdates(ctx, client.Updates())
	}()

	log.Info("Bot started. Press Ctrl+C to stop.")
	<-ctx.Done()

	client.Stop()
	wg.Wait()

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		log.Errorf("Error closing database: %v", err)
	}

	log.Info("Bot stopped gracefully")
}
