package handler

import (
	"context"
	"strings"
	"time"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/config"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/service"
	"absence-timeline-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	client               *telegram.Client
	userService          *service.UserService
	absenceService       *service.AbsenceService
	nonWorkingDayService *service.NonWorkingDayService
	userStates           map[int64]string
	config               *config.BotConfig
	logger               *logrus.Logger
	now                  func() time.Time
}

func NewHandler(
	client *telegram.Client,
	userService *service.UserService,
	absenceService *service.AbsenceService,
	nonWorkingDayService *service.NonWorkingDayService,
	cfg *config.BotConfig,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		client:               client,
		userService:          userService,
		absenceService:       absenceService,
		nonWorkingDayService: nonWorkingDayService,
		userStates:           make(map[int64]string),
		config:               cfg,
		logger:               logger,
		now:                  time.Now,
	}
}

// HandleUpdates обрабатывает обновления до закрытия канала или отмены ctx
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			// Обработка callback query (для inline кнопок)
			if update.CallbackQuery != nil {
				h.handleCallbackQuery(ctx, update.CallbackQuery)
				continue
			}

			if update.Message == nil {
				continue
			}

			h.handleMessage(ctx, update.Message)
		}
	}
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	data := callback.Data

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.client.Bot.Send(editMsg)

	// Согласование отсутствия из уведомления
	if id, ok := strings.CutPrefix(data, callbackApprove); ok {
		h.changeStatus(ctx, chatID, id, absence.StatusApproved)
	} else if id, ok := strings.CutPrefix(data, callbackReject); ok {
		h.changeStatus(ctx, chatID, id, absence.StatusRejected)
	}

	switch data {
	case "confirm_delete":
		err := h.userService.DeleteUser(ctx, chatID)
		if err != nil {
			h.reply(chatID, "❌ Ошибка удаления профиля: "+err.Error())
		} else {
			h.reply(chatID, "✅ Ваш профиль успешно удален!")
		}

	case "cancel_delete":
		h.reply(chatID, "❌ Удаление профиля отменено.")
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	callbackConfig := tgbotapi.NewCallback(callback.ID, "")
	h.client.Bot.Request(callbackConfig)
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From != nil {
		h.logger.Infof("[%s] %s", message.From.UserName, message.Text)
	}

	chatID := message.Chat.ID

	// Проверяем, находится ли пользователь в процессе создания/обновления профиля
	if state, exists := h.userStates[chatID]; exists && !message.IsCommand() {
		h.handleProfileState(ctx, message, state)
		return
	}

	if message.IsCommand() {
		delete(h.userStates, chatID)
		h.handleCommand(ctx, message)
		return
	}

	h.reply(chatID, "🤖 Я понимаю только команды. Список команд: /help")
}

// reply отправляет текст, при необходимости разбивая его на части
func (h *Handler) reply(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := h.client.Bot.Send(msg); err != nil {
			h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
			return
		}
	}
}

// sendFile отправляет файл документом
func (h *Handler) sendFile(chatID int64, name string, data []byte, caption string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := h.client.Bot.Send(doc); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send document")
		h.reply(chatID, "❌ Не удалось отправить файл: "+err.Error())
	}
}

// requireUser возвращает профиль или сообщает, что его нужно создать
func (h *Handler) requireUser(ctx context.Context, chatID int64) (*models.User, bool) {
	user, err := h.userService.GetUser(ctx, chatID)
	if err != nil || user == nil {
		h.logger.WithField("chat_id", chatID).Warn("User not found")
		h.reply(chatID, "❌ Профиль не найден.\nИспользуйте /createprofile чтобы создать профиль.")
		return nil, false
	}
	return user, true
}

// requireAdmin проверяет права администратора
func (h *Handler) requireAdmin(ctx context.Context, chatID int64) bool {
	isAdmin, err := h.userService.IsAdmin(ctx, chatID)
	if err != nil {
		h.logger.WithError(err).Error("Error checking admin status")
		h.reply(chatID, "❌ Ошибка проверки прав доступа: "+err.Error())
		return false
	}

	if !isAdmin {
		h.logger.WithField("chat_id", chatID).Warn("Unauthorized access to admin command")
		h.reply(chatID, "❌ Доступ запрещен. Эта команда только для администраторов.")
		return false
	}
	return true
}
