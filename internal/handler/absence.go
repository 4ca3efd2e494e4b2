package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/repository"
	"absence-timeline-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	callbackApprove = "approve:"
	callbackReject  = "reject:"
)

const absenceUsage = `🏖️ Добавление отсутствия

Формат команды:
/absence дата_начала [дата_окончания] тип [| заметка]

Примеры:
/absence 01.07.2026 14.07.2026 Férias
→ Отпуск с 1 по 14 июля 2026

/absence 15.08 Day Off | к врачу
→ Отгул 15 августа текущего года

💡 Типы отсутствий: /categories
• Новое отсутствие ожидает согласования администратора
• Нельзя пересекаться с другими своими отсутствиями`

func statusLabel(status absence.Status) string {
	switch status {
	case absence.StatusApproved:
		return "одобрено"
	case absence.StatusRejected:
		return "отклонено"
	default:
		return "ожидает согласования"
	}
}

// describeError переводит ошибки сервиса в текст для пользователя
func describeError(err error) string {
	switch {
	case errors.Is(err, service.ErrPeriodOverlap):
		return "период пересекается с другим отсутствием сотрудника. Посмотреть: /myabsences"
	case errors.Is(err, service.ErrAlreadyDecided):
		return "решение по этому отсутствию уже принято"
	case errors.Is(err, repository.ErrAbsenceNotFound):
		return "отсутствие не найдено"
	case errors.Is(err, service.ErrUserNotFound):
		return "пользователь не найден"
	default:
		return err.Error()
	}
}

func ownsRecord(user *models.User, r absence.Record) bool {
	return r.Person.ID == strconv.FormatUint(uint64(user.ID), 10)
}

// formatRecordDetails подробности одного отсутствия с рабочими днями
func (h *Handler) formatRecordDetails(ctx context.Context, r absence.Record) string {
	business, err := h.absenceService.BusinessDays(ctx, r.StartDate, r.EndDate)
	if err != nil {
		business = -1
	}
	return recordDetails(r, business)
}

// recordDetails текст карточки отсутствия; business < 0 если рабочие дни не посчитаны
func recordDetails(r absence.Record, business int) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("🆔 %s", r.ID))
	lines = append(lines, fmt.Sprintf("👤 %s", r.Person.DisplayName))
	lines = append(lines, fmt.Sprintf("🏷 Тип: %s", r.Category))
	lines = append(lines, fmt.Sprintf("📅 Период: %s", formatPeriod(r)))
	lines = append(lines, fmt.Sprintf("🗓 Календарных дней: %d", r.TotalDays))
	if business >= 0 {
		lines = append(lines, fmt.Sprintf("💼 Рабочих дней: %d", business))
	}
	lines = append(lines, fmt.Sprintf("%s Статус: %s", statusEmoji(r.Status), statusLabel(r.Status)))
	if r.DecidedBy != "" && r.Status != absence.StatusPending {
		lines = append(lines, "👮 Решение: "+r.DecidedBy)
	}
	if r.Notes != "" {
		lines = append(lines, "📝 "+r.Notes)
	}
	return strings.Join(lines, "\n")
}

// addAbsence добавляет отсутствие текущему пользователю
func (h *Handler) addAbsence(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.requireUser(ctx, chatID)
	if !ok {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.reply(chatID, absenceUsage)
		return
	}

	parsed, err := parseAbsenceArgs(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	record, err := h.absenceService.CreateRecord(ctx, service.RecordInput{
		UserID:    user.ID,
		Category:  parsed.Category,
		StartDate: parsed.Start,
		EndDate:   parsed.End,
		Notes:     parsed.Notes,
	})
	if err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to add absence")
		h.reply(chatID, "❌ Ошибка добавления отсутствия: "+describeError(err))
		return
	}

	h.reply(chatID, "✅ Отсутствие добавлено!\n\n"+h.formatRecordDetails(ctx, record))
	h.notifyAdmins(ctx, chatID, record)
}

// notifyAdmins отправляет администраторам запрос на согласование
func (h *Handler) notifyAdmins(ctx context.Context, authorChatID int64, record absence.Record) {
	if record.Status != absence.StatusPending {
		return
	}

	admins, err := h.userService.GetAdmins(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load admins for notification")
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", callbackApprove+record.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", callbackReject+record.ID),
		),
	)

	text := "📨 Новый запрос на отсутствие:\n\n" + h.formatRecordDetails(ctx, record)
	for _, admin := range admins {
		if admin.ChatID == authorChatID || admin.ChatID <= 0 {
			continue
		}
		msg := tgbotapi.NewMessage(admin.ChatID, text)
		msg.ReplyMarkup = keyboard
		if _, err := h.client.Bot.Send(msg); err != nil {
			h.logger.WithError(err).WithField("chat_id", admin.ChatID).Warn("Failed to notify admin")
		}
	}
}

// editAbsence меняет даты, тип и заметку
func (h *Handler) editAbsence(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.requireUser(ctx, chatID)
	if !ok {
		return
	}

	id, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if id == "" || strings.TrimSpace(rest) == "" {
		h.reply(chatID, "❌ Неверный формат.\nПример: /editabsence ID 01.07.2026 10.07.2026 Férias | заметка")
		return
	}

	record, ok := h.loadOwnedRecord(ctx, chatID, user, id)
	if !ok {
		return
	}

	parsed, err := parseAbsenceArgs(rest, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	notes := parsed.Notes
	if !strings.Contains(rest, "|") {
		notes = record.Notes
	}

	in := service.RecordInput{
		Category:  parsed.Category,
		StartDate: parsed.Start,
		EndDate:   parsed.End,
		Notes:     notes,
	}
	// Правка администратора решение не сбрасывает
	if user.IsAdmin() {
		in.Status = record.Status
	}

	updated, err := h.absenceService.UpdateRecord(ctx, record.ID, in)
	if err != nil {
		h.logger.WithError(err).WithField("absence_id", id).Error("Failed to update absence")
		h.reply(chatID, "❌ Ошибка изменения отсутствия: "+describeError(err))
		return
	}

	text := "✅ Отсутствие изменено!\n\n" + h.formatRecordDetails(ctx, updated)
	if reopened(record, updated) {
		text += "\n\n⏳ Даты или тип изменились, отсутствие снова ждет согласования."
		h.notifyAdmins(ctx, chatID, updated)
	}
	h.reply(chatID, text)
}

// reopened правка вернула уже решенное отсутствие на согласование
func reopened(before, after absence.Record) bool {
	return before.Status != absence.StatusPending && after.Status == absence.StatusPending
}

// deleteAbsence удаляет отсутствие
func (h *Handler) deleteAbsence(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	user, ok := h.requireUser(ctx, chatID)
	if !ok {
		return
	}

	id := strings.TrimSpace(args)
	if id == "" {
		h.reply(chatID, "❌ Укажите ID отсутствия.\nID можно узнать в /myabsences")
		return
	}

	record, ok := h.loadOwnedRecord(ctx, chatID, user, id)
	if !ok {
		return
	}

	if err := h.absenceService.DeleteRecord(ctx, record.ID); err != nil {
		h.logger.WithError(err).WithField("absence_id", id).Error("Failed to delete absence")
		h.reply(chatID, "❌ Ошибка удаления: "+describeError(err))
		return
	}

	h.reply(chatID, fmt.Sprintf("🗑 Отсутствие удалено: %s, %s", record.Category, formatPeriod(record)))
}

// loadOwnedRecord возвращает запись, если пользователь ее владелец или администратор
func (h *Handler) loadOwnedRecord(ctx context.Context, chatID int64, user *models.User, id string) (absence.Record, bool) {
	record, err := h.absenceService.GetRecord(ctx, id)
	if err != nil {
		h.reply(chatID, "❌ "+describeError(err))
		return absence.Record{}, false
	}

	if !ownsRecord(user, record) && !user.IsAdmin() {
		h.logger.WithFields(logrus.Fields{"chat_id": chatID, "absence_id": id}).Warn("Attempt to change foreign absence")
		h.reply(chatID, "❌ Можно изменять только свои отсутствия.")
		return absence.Record{}, false
	}
	return record, true
}

// setAbsenceStatus /approve и /reject
func (h *Handler) setAbsenceStatus(ctx context.Context, message *tgbotapi.Message, args string, status absence.Status) {
	chatID := message.Chat.ID

	id := strings.TrimSpace(args)
	if id == "" {
		h.reply(chatID, "❌ Укажите ID отсутствия.\nСписок ожидающих: /pending")
		return
	}

	h.changeStatus(ctx, chatID, id, status)
}

func (h *Handler) changeStatus(ctx context.Context, chatID int64, id string, status absence.Status) {
	if !h.requireAdmin(ctx, chatID) {
		return
	}

	admin, ok := h.requireUser(ctx, chatID)
	if !ok {
		return
	}

	record, err := h.absenceService.SetStatus(ctx, id, status, admin.DisplayName())
	if err != nil {
		h.logger.WithError(err).WithField("absence_id", id).Error("Failed to change absence status")
		h.reply(chatID, "❌ Ошибка согласования: "+describeError(err))
		return
	}

	h.reply(chatID, fmt.Sprintf("%s %s: %s, %s - %s",
		statusEmoji(status), record.Person.DisplayName, record.Category, formatPeriod(record), statusLabel(status)))
	h.notifyOwner(ctx, chatID, record)
}

// notifyOwner сообщает сотруднику о решении по его отсутствию
func (h *Handler) notifyOwner(ctx context.Context, adminChatID int64, record absence.Record) {
	userID, err := strconv.ParseUint(record.Person.ID, 10, 64)
	if err != nil {
		return
	}

	owner, err := h.userService.GetUserByID(ctx, uint(userID))
	if err != nil || owner.ChatID == adminChatID || owner.ChatID <= 0 {
		return
	}

	text := fmt.Sprintf("%s Ваше отсутствие %s (%s) %s.",
		statusEmoji(record.Status), record.Category, formatPeriod(record), statusLabel(record.Status))
	h.reply(owner.ChatID, text)
}

// showMyAbsences показывает отсутствия пользователя
func (h *Handler) showMyAbsences(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, ok := h.requireUser(ctx, chatID)
	if !ok {
		return
	}

	records, err := h.absenceService.GetUserRecords(ctx, user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user absences")
		h.reply(chatID, "❌ Ошибка получения данных: "+err.Error())
		return
	}

	if len(records) == 0 {
		h.reply(chatID, "📭 У вас нет отсутствий. Добавить: /absence")
		return
	}

	pal := h.absenceService.Palette(ctx)

	var lines []string
	lines = append(lines, "📋 Мои отсутствия:")
	lines = append(lines, "")

	totals := make(map[string]int)
	var order []string
	for _, r := range records {
		lines = append(lines, formatRecordLine(r, pal))
		lines = append(lines, "   🆔 "+r.ID)

		if r.Status == absence.StatusRejected {
			continue
		}
		if _, seen := totals[r.Category]; !seen {
			order = append(order, r.Category)
		}
		business, err := h.absenceService.BusinessDays(ctx, r.StartDate, r.EndDate)
		if err != nil {
			continue
		}
		totals[r.Category] += business
	}

	lines = append(lines, "")
	lines = append(lines, "📊 Рабочих дней (без отклоненных):")
	for _, category := range order {
		lines = append(lines, fmt.Sprintf("• %s: %d", category, totals[category]))
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}

// showPending отсутствия, ожидающие согласования
func (h *Handler) showPending(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	var pending []absence.Record
	for _, r := range h.absenceService.LoadRecords(ctx) {
		if r.Status == absence.StatusPending {
			pending = append(pending, r)
		}
	}

	if len(pending) == 0 {
		h.reply(chatID, "✅ Нет отсутствий, ожидающих согласования.")
		return
	}

	pal := h.absenceService.Palette(ctx)

	var lines []string
	lines = append(lines, fmt.Sprintf("⏳ Ожидают согласования: %d", len(pending)))
	lines = append(lines, "")
	for _, r := range pending {
		lines = append(lines, fmt.Sprintf("👤 %s", r.Person.DisplayName))
		lines = append(lines, "   "+formatRecordLine(r, pal))
		lines = append(lines, fmt.Sprintf("   /approve %s", r.ID))
		lines = append(lines, fmt.Sprintf("   /reject %s", r.ID))
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}
