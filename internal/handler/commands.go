package handler

import (
	"context"
	"fmt"

	"absence-timeline-bot/internal/absence"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start", "help":
		h.sendHelpMessage(message)
	case "helpadmin":
		h.sendAdminHelpMessage(ctx, message)

	// Профиль
	case "createprofile":
		h.startProfileCreation(ctx, message)
	case "myprofile":
		h.showProfile(ctx, message)
	case "updateprofile":
		h.startProfileUpdate(ctx, message)
	case "deleteprofile":
		h.deleteProfile(message)
	case "setemail":
		h.setEmail(ctx, message, args)
	case "setteam":
		h.setTeam(ctx, message, args)

	// Отсутствия (все пользователи)
	case "absence", "vacation":
		h.addAbsence(ctx, message, args)
	case "editabsence":
		h.editAbsence(ctx, message, args)
	case "deleteabsence":
		h.deleteAbsence(ctx, message, args)
	case "myabsences":
		h.showMyAbsences(ctx, message)

	// График (все пользователи)
	case "timeline":
		h.showTimeline(ctx, message, args)
	case "conflicts":
		h.showConflicts(ctx, message, args)
	case "months":
		h.showMonths(ctx, message, args)
	case "legend":
		h.showLegend(ctx, message)
	case "categories":
		h.showCategories(ctx, message)
	case "teams":
		h.showTeams(ctx, message)
	case "export":
		h.exportXLSX(ctx, message, args)
	case "calendar":
		h.exportCalendar(ctx, message, args)
	case "holidays":
		h.showHolidays(ctx, message, args)

	// Администрирование
	case "allusers":
		h.showAllUsers(ctx, message)
	case "stats":
		h.showStats(ctx, message)
	case "setrole":
		h.setUserRole(ctx, message, args)
	case "promote":
		h.promoteToAdmin(ctx, message, args)
	case "demote":
		h.demoteToClient(ctx, message, args)
	case "admins":
		h.showAdmins(ctx, message)
	case "pending":
		h.showPending(ctx, message)
	case "approve":
		h.setAbsenceStatus(ctx, message, args, absence.StatusApproved)
	case "reject":
		h.setAbsenceStatus(ctx, message, args, absence.StatusRejected)
	case "setcategories":
		h.setCategories(ctx, message, args)
	case "setteams":
		h.setTeams(ctx, message, args)
	case "loadholidays":
		h.loadHolidays(ctx, message, args)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

const helpText = `📋 Доступные команды:

👤 Профиль:
/createprofile - Создать профиль (ФИО)
/myprofile - Показать мой профиль
/updateprofile - Обновить профиль
/deleteprofile - Удалить профиль
/setteam [команда] - Выбрать команду
/setemail [email] - Указать рабочую почту

🏖️ Отсутствия:
/absence начало [окончание] тип [| заметка] - Добавить отсутствие
    Пример: /absence 01.07.2026 14.07.2026 Annual Leave
/editabsence ID начало [окончание] тип [| заметка] - Изменить
/deleteabsence ID - Удалить
/myabsences - Мои отсутствия

📅 График:
/timeline [год] [месяц] [фильтры] - График по сотрудникам
    Пример: /timeline 2026 июль team=Team_A status=approved
/conflicts [год] [месяц] [фильтры] - Пересечения одобренных отсутствий
/months [год] [фильтры] - Статистика по месяцам
/legend - Цвета типов отсутствий
/categories - Типы отсутствий
/teams - Команды
/export [год] [месяц] [фильтры] - Выгрузка в Excel
/calendar [год] [фильтры] - Выгрузка в календарь (.ics)
/holidays [год] [месяц] - Выходные и праздники месяца

🔎 Фильтры:
team=... status=pending|approved|rejected|all category=... search=...
Пробелы в значениях пишутся через "_".

💡 Как пользоваться:
1. Создайте профиль командой /createprofile
2. Выберите команду через /setteam
3. Добавляйте отсутствия командой /absence
4. Смотрите график командой /timeline`

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, helpText)
}

func (h *Handler) sendAdminHelpMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !h.requireAdmin(ctx, chatID) {
		return
	}

	text := `📋 Команды администратора:

👑 Администрирование:
/allusers - Показать всех пользователей
/stats - Статистика бота
/admins - Показать администраторов
/promote [ID] - Назначить администратора
/demote [ID] - Снять администратора
/setrole [ID] [role] - Изменить роль

✅ Согласование:
/pending - Отсутствия, ожидающие согласования
/approve ID - Одобрить
/reject ID - Отклонить
/editabsence, /deleteabsence - работают для любых отсутствий

📚 Справочники:
/setcategories тип; тип; ... - Заменить типы отсутствий
/setteams команда; команда; ... - Заменить команды
/loadholidays [путь] - Загрузить производственный календарь
    (или ответьте командой на JSON-файл календаря)`

	if h.config.BaseAdminChatID != 0 {
		text += fmt.Sprintf("\n\n🔧 ID главного администратора: %d", h.config.BaseAdminChatID)
	}

	h.reply(chatID, text)
}
