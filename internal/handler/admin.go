package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Максимальный размер загружаемого календаря
const maxCalendarFileSize = 1 << 20

// showAllUsers показывает всех пользователей
func (h *Handler) showAllUsers(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	allUsers, err := h.userService.FormatAllUsers(ctx)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения списка пользователей: "+err.Error())
		return
	}

	h.reply(chatID, allUsers)
}

// showStats показывает статистику (только для админов)
func (h *Handler) showStats(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	total, admins, err := h.userService.GetStats(ctx)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения статистики: "+err.Error())
		return
	}

	records := h.absenceService.LoadRecords(ctx)
	pending := 0
	for _, r := range records {
		if r.Status == absence.StatusPending {
			pending++
		}
	}

	holidays, err := h.nonWorkingDayService.CountNonWorkingDays(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to count non-working days")
	}

	text := fmt.Sprintf(`📊 Статистика бота:

👥 Всего пользователей: %d
👑 Администраторов: %d
👤 Клиентов: %d
🏖️ Отсутствий: %d (ожидают согласования: %d)
📆 Дней в производственном календаре: %d
💾 Хранилище: SQLite`,
		total, admins, total-admins, len(records), pending, holidays)

	h.reply(chatID, text)
}

// showAdmins показывает всех администраторов (только для админов)
func (h *Handler) showAdmins(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	admins, err := h.userService.GetAdmins(ctx)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения списка администраторов: "+err.Error())
		return
	}

	if len(admins) == 0 {
		h.reply(chatID, "👑 Список администраторов пуст.")
		return
	}

	var lines []string
	lines = append(lines, "👑 Администраторы:")
	lines = append(lines, "")

	for i, admin := range admins {
		adminInfo := fmt.Sprintf("%d. %s ", i+1, admin.DisplayName())
		if admin.Username != "" {
			adminInfo += fmt.Sprintf("(@%s) ", admin.Username)
		}
		adminInfo += fmt.Sprintf("- ID: %d", admin.ChatID)
		lines = append(lines, adminInfo)
	}

	h.reply(chatID, strings.Join(lines, "\n"))
}

// promoteToAdmin назначает пользователя администратором
func (h *Handler) promoteToAdmin(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	targetChatID, ok := h.parseTargetID(chatID, args, "/promote")
	if !ok {
		return
	}

	if err := h.userService.UpdateRole(ctx, chatID, targetChatID, models.RoleAdmin); err != nil {
		h.reply(chatID, "❌ Ошибка назначения администратора: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пользователь с ID %d теперь администратор!", targetChatID))
}

// demoteToClient снимает пользователя с должности администратора
func (h *Handler) demoteToClient(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	targetChatID, ok := h.parseTargetID(chatID, args, "/demote")
	if !ok {
		return
	}

	// Не позволяем снять главного администратора из конфига
	if h.isBaseAdmin(targetChatID) {
		h.reply(chatID, "❌ Нельзя снять главного администратора, заданного в конфигурации!")
		return
	}

	if err := h.userService.UpdateRole(ctx, chatID, targetChatID, models.RoleClient); err != nil {
		h.reply(chatID, "❌ Ошибка снятия администратора: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Пользователь с ID %d теперь клиент!", targetChatID))
}

// setUserRole изменяет роль пользователя
func (h *Handler) setUserRole(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Неверный формат.\nПример: /setrole 123456789 admin\nДоступные роли: admin, client")
		return
	}

	targetChatID, ok := h.parseTargetID(chatID, parts[0], "/setrole")
	if !ok {
		return
	}

	role := models.Role(strings.ToLower(parts[1]))
	switch role {
	case models.RoleAdmin:
	case models.RoleClient:
		if h.isBaseAdmin(targetChatID) {
			h.reply(chatID, "❌ Нельзя изменить роль главного администратора, заданного в конфигурации!")
			return
		}
	default:
		h.reply(chatID, "❌ Неизвестная роль.\nДоступные роли: admin, client")
		return
	}

	if err := h.userService.UpdateRole(ctx, chatID, targetChatID, role); err != nil {
		h.reply(chatID, "❌ Ошибка изменения роли: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Роль пользователя с ID %d изменена на '%s'!", targetChatID, role))
}

func (h *Handler) isBaseAdmin(chatID int64) bool {
	return h.config.BaseAdminChatID != 0 && chatID == h.config.BaseAdminChatID
}

func (h *Handler) parseTargetID(chatID int64, arg, command string) (int64, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		h.reply(chatID, fmt.Sprintf("❌ Укажите ID пользователя.\nПример: %s 123456789", command))
		return 0, false
	}

	targetChatID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		h.reply(chatID, "❌ Неверный формат ID.\nID должен быть числом.")
		return 0, false
	}
	return targetChatID, true
}

// splitLabels делит список по ";" или переводу строки
func splitLabels(args string) []string {
	return strings.FieldsFunc(args, func(r rune) bool {
		return r == ';' || r == '\n'
	})
}

// setCategories заменяет словарь типов отсутствий
func (h *Handler) setCategories(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	if err := h.absenceService.SetCategoryOptions(ctx, splitLabels(args)); err != nil {
		h.reply(chatID, "❌ Укажите типы через \";\".\nПример: /setcategories Annual Leave; Medical Leave; Other")
		return
	}

	h.showCategories(ctx, message)
}

// setTeams заменяет словарь команд
func (h *Handler) setTeams(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	if err := h.absenceService.SetTeamOptions(ctx, splitLabels(args)); err != nil {
		h.reply(chatID, "❌ Укажите команды через \";\".\nПример: /setteams Team A; Team B")
		return
	}

	h.showTeams(ctx, message)
}

// loadHolidays загружает производственный календарь: из документа, на
// который отвечает команда, из указанного пути или из WEEKENDS_FILE.
func (h *Handler) loadHolidays(ctx context.Context, message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	var (
		count int
		err   error
	)

	switch {
	case message.ReplyToMessage != nil && message.ReplyToMessage.Document != nil:
		var data []byte
		data, err = h.downloadDocument(ctx, message.ReplyToMessage.Document)
		if err == nil {
			count, err = h.nonWorkingDayService.LoadFromBytes(ctx, data)
		}
	case strings.TrimSpace(args) != "":
		count, err = h.nonWorkingDayService.LoadFromJSON(ctx, strings.TrimSpace(args))
	case h.config.WeekendsFile != "":
		count, err = h.nonWorkingDayService.LoadFromJSON(ctx, h.config.WeekendsFile)
	default:
		h.reply(chatID, "❌ Ответьте командой /loadholidays на JSON-файл календаря или укажите путь к файлу.")
		return
	}

	if err != nil {
		h.logger.WithError(err).Error("Failed to load non-working days")
		h.reply(chatID, "❌ Ошибка загрузки календаря: "+err.Error())
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ Производственный календарь загружен: %d нерабочих дней.", count))
}

func (h *Handler) downloadDocument(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	if doc.FileSize > maxCalendarFileSize {
		return nil, fmt.Errorf("файл слишком большой (%d байт)", doc.FileSize)
	}

	url, err := h.client.Bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка скачивания файла: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ошибка скачивания файла: HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxCalendarFileSize))
}
