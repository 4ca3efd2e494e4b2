package handler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/export"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// viewFilter разбирает аргументы фильтра и приводит тип к словарю
func (h *Handler) viewFilter(ctx context.Context, chatID int64, args string) (absence.ViewFilter, bool) {
	f, err := parseViewArgs(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nПример: /timeline 2026 июль team=Team_A status=approved")
		return f, false
	}

	if f.CategoryFilter != "" {
		categories, _ := h.absenceService.FetchCategoryOptions(ctx)
		f.CategoryFilter = absence.CanonicalCategory(f.CategoryFilter, categories)
	}
	return f, true
}

// showTimeline график отсутствий по сотрудникам
func (h *Handler) showTimeline(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	f, ok := h.viewFilter(ctx, chatID, args)
	if !ok {
		return
	}

	view, pal := h.absenceService.ComputeView(ctx, f)
	h.reply(chatID, formatTimeline(view, pal))
}

// showConflicts пересечения одобренных отсутствий
func (h *Handler) showConflicts(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	f, ok := h.viewFilter(ctx, chatID, args)
	if !ok {
		return
	}

	view, _ := h.absenceService.ComputeView(ctx, f)
	h.reply(chatID, formatConflicts(view))
}

// showMonths помесячная статистика за год
func (h *Handler) showMonths(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	f, ok := h.viewFilter(ctx, chatID, args)
	if !ok {
		return
	}

	view, _ := h.absenceService.ComputeView(ctx, f)
	h.reply(chatID, formatMonths(view))
}

func (h *Handler) showLegend(ctx context.Context, message *tgbotapi.Message) {
	h.reply(message.Chat.ID, formatLegend(h.absenceService.Palette(ctx)))
}

func (h *Handler) showCategories(ctx context.Context, message *tgbotapi.Message) {
	categories, _ := h.absenceService.FetchCategoryOptions(ctx)
	h.reply(message.Chat.ID, formatOptions("🏷 Типы отсутствий:", categories))
}

func (h *Handler) showTeams(ctx context.Context, message *tgbotapi.Message) {
	teams, _ := h.absenceService.FetchTeamOptions(ctx)
	h.reply(message.Chat.ID, formatOptions("👥 Команды:", teams)+"\n\nВыбрать свою: /setteam название")
}

// setTeam привязывает пользователя к команде из словаря
func (h *Handler) setTeam(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if _, ok := h.requireUser(ctx, chatID); !ok {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.reply(chatID, "❌ Укажите команду.\nПример: /setteam Team A\nСписок: /teams")
		return
	}

	teams, _ := h.absenceService.FetchTeamOptions(ctx)
	user, err := h.userService.SetTeam(ctx, chatID, args, teams)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nСписок: /teams")
		return
	}

	h.reply(chatID, "✅ Команда сохранена: "+user.Team)
}

// exportXLSX отправляет график, статистику и пересечения в Excel
func (h *Handler) exportXLSX(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	f, ok := h.viewFilter(ctx, chatID, args)
	if !ok {
		return
	}

	view, pal := h.absenceService.ComputeView(ctx, f)

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, view, pal); err != nil {
		h.logger.WithError(err).Error("Failed to build xlsx export")
		h.reply(chatID, "❌ Ошибка формирования файла: "+err.Error())
		return
	}

	h.sendFile(chatID, fmt.Sprintf("absences-%d.xlsx", f.Year), buf.Bytes(), "📊 "+describeFilter(f))
}

// exportCalendar отправляет одобренные отсутствия в формате iCalendar.
// Без аргументов выгружаются все годы.
func (h *Handler) exportCalendar(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	records := h.absenceService.LoadRecords(ctx)
	if strings.TrimSpace(args) != "" {
		f, ok := h.viewFilter(ctx, chatID, args)
		if !ok {
			return
		}
		records = absence.Filter(records, f)
	}

	var buf bytes.Buffer
	if err := export.WriteICS(&buf, records, "Отсутствия", h.now()); err != nil {
		h.logger.WithError(err).Error("Failed to build calendar")
		h.reply(chatID, "❌ Ошибка формирования календаря: "+err.Error())
		return
	}

	h.sendFile(chatID, "absences.ics", buf.Bytes(), "📆 Одобренные отсутствия")
}

// showHolidays выходные дни календаря за месяц, по умолчанию текущий
func (h *Handler) showHolidays(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	f, err := parseViewArgs(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nПример: /holidays 2026 май")
		return
	}
	month := int(h.now().Month())
	if f.Month != nil {
		month = *f.Month + 1
	}

	days, err := h.nonWorkingDayService.GetNonWorkingDaysForMonth(ctx, f.Year, month)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get non-working days")
		h.reply(chatID, "❌ Ошибка получения календаря: "+err.Error())
		return
	}

	h.reply(chatID, formatHolidays(f.Year, month, days))
}
