package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

type BotConfig struct {
	TelegramToken   string
	TelegramDebug   bool
	BaseAdminChatID int64
	DatabaseURL     string
	WeekendsFile    string

	HTTPAddr string
	LogLevel logrus.Level

	// Язык сортировки имен на графике
	Language language.Tag
	// Не считать пересечением два периода одного сотрудника
	ExcludeSamePersonConflicts bool

	SeedDemoData bool
	DemoSeed     uint64
	DemoYear     int
}

var instance *BotConfig
var once sync.Once

// GetBotConfig читает .env и окружение один раз; при ошибке процесс завершается
func GetBotConfig() *BotConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logrus.Fatalf("error loading env variables: %s", err.Error())
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatal(err)
		}
		instance = cfg
	})

	return instance
}

// Load собирает конфигурацию из переменных окружения
func Load() (*BotConfig, error) {
	cfg := &BotConfig{}

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("could not get bot token")
	}

	cfg.BaseAdminChatID = getEnvAsInt("BASE_ADMIN_CHAT_ID", -2)
	if cfg.BaseAdminChatID == -2 {
		return nil, fmt.Errorf("could not get admin chat id")
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("could not get db url")
	}

	cfg.TelegramDebug = getEnvAsBool("TELEGRAM_DEBUG", false)
	cfg.WeekendsFile = getEnv("WEEKENDS_FILE", "")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	tag, err := language.Parse(getEnv("TIMELINE_LANGUAGE", "pt-BR"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMELINE_LANGUAGE: %w", err)
	}
	cfg.Language = tag

	cfg.ExcludeSamePersonConflicts = getEnvAsBool("EXCLUDE_SAME_PERSON_CONFLICTS", false)
	cfg.SeedDemoData = getEnvAsBool("SEED_DEMO_DATA", false)
	cfg.DemoSeed = uint64(getEnvAsInt("DEMO_SEED", 1))
	cfg.DemoYear = int(getEnvAsInt("DEMO_YEAR", int64(time.Now().Year())))

	return cfg, nil
}

// NewLogger логгер с форматом и уровнем из конфига
func (c *BotConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
