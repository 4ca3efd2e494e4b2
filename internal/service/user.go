package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/models"
	"absence-timeline-bot/internal/repository"
	"absence-timeline-bot/internal/textnorm"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUserNotFound = errors.New("пользователь не найден")
	ErrForbidden    = errors.New("доступ запрещен")
	ErrInvalidEmail = errors.New("некорректный email")
)

var validate = validator.New()

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUser создает нового пользователя с ролью client по умолчанию
func (s *UserService) CreateUser(ctx context.Context, chatID int64, username, firstName, lastName string) (*models.User, error) {
	if firstName == "" {
		return nil, fmt.Errorf("имя не может быть пустым")
	}

	user := &models.User{
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleClient,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return user, nil
}

// GetUser возвращает пользователя по chatID
func (s *UserService) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// GetUserByID возвращает пользователя по внутреннему ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// UpdateUser обновляет данные пользователя из Telegram
func (s *UserService) UpdateUser(ctx context.Context, chatID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}

	// Обновляем поля (кроме роли)
	if username != "" {
		user.Username = username
	}
	if firstName != "" {
		user.FirstName = firstName
	}
	if lastName != "" {
		user.LastName = lastName
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return user, nil
}

// SetTeam назначает команду из словаря. Название сравнивается без учета
// регистра и диакритики, сохраняется подпись из словаря.
func (s *UserService) SetTeam(ctx context.Context, chatID int64, team string, teams []absence.Option) (*models.User, error) {
	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}

	label := ""
	for _, t := range teams {
		if textnorm.Fold(t.Label) == textnorm.Fold(team) || textnorm.Fold(t.Key) == textnorm.Fold(team) {
			label = t.Label
			break
		}
	}
	if label == "" {
		return nil, fmt.Errorf("команда %q не найдена", strings.TrimSpace(team))
	}

	user.Team = label
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return user, nil
}

// SetEmail сохраняет рабочую почту сотрудника
func (s *UserService) SetEmail(ctx context.Context, chatID int64, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	user, err := s.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}

	user.Email = email
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return user, nil
}

// UpdateRole обновляет роль пользователя (только для админов)
func (s *UserService) UpdateRole(ctx context.Context, adminChatID, targetChatID int64, role models.Role) error {
	admin, err := s.repo.GetByChatID(ctx, adminChatID)
	if err != nil {
		return fmt.Errorf("ошибка проверки админа: %w", err)
	}

	if admin == nil || !admin.IsAdmin() {
		return fmt.Errorf("%w: только администраторы могут менять роли", ErrForbidden)
	}

	if _, err := s.GetUser(ctx, targetChatID); err != nil {
		return err
	}

	return s.repo.UpdateRole(ctx, targetChatID, role)
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль пользователя:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID чата: %d", user.ChatID))

	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))
	}

	lines = append(lines, fmt.Sprintf("👨‍💼 Имя: %s", user.FirstName))

	if user.LastName != "" {
		lines = append(lines, fmt.Sprintf("👨‍💼 Фамилия: %s", user.LastName))
	}
	if user.Email != "" {
		lines = append(lines, fmt.Sprintf("📧 Email: %s", user.Email))
	}

	team := user.Team
	if team == "" {
		team = "не указана (/setteam)"
	}
	lines = append(lines, fmt.Sprintf("👥 Команда: %s", team))

	roleEmoji := "👤"
	if user.IsAdmin() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji, string(user.Role)))

	return strings.Join(lines, "\n")
}

// DeleteUser удаляет пользователя
func (s *UserService) DeleteUser(ctx context.Context, chatID int64) error {
	exists, err := s.repo.Exists(ctx, chatID)
	if err != nil {
		return fmt.Errorf("ошибка проверки пользователя: %w", err)
	}

	if !exists {
		return ErrUserNotFound
	}

	return s.repo.Delete(ctx, chatID)
}

// GetAllUsers возвращает всех пользователей
func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAll(ctx)
}

// GetAdmins возвращает всех администраторов
func (s *UserService) GetAdmins(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAdmins(ctx)
}

// GetStats возвращает статистику
func (s *UserService) GetStats(ctx context.Context) (int, int, error) {
	return s.repo.GetStats(ctx)
}

// FormatAllUsers форматирует список всех пользователей
func (s *UserService) FormatAllUsers(ctx context.Context) (string, error) {
	users, err := s.GetAllUsers(ctx)
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "📭 Список пользователей пуст.", nil
	}

	var lines []string
	lines = append(lines, "📋 Все пользователи:")
	lines = append(lines, "")

	for i, user := range users {
		roleEmoji := "👤"
		if user.IsAdmin() {
			roleEmoji = "👑"
		}

		userInfo := fmt.Sprintf("%d. %s %s ", i+1, roleEmoji, user.DisplayName())
		if user.Username != "" {
			userInfo += fmt.Sprintf("(@%s) ", user.Username)
		}
		if user.Team != "" {
			userInfo += fmt.Sprintf("[%s] ", user.Team)
		}
		userInfo += fmt.Sprintf("- ID: %d", user.ChatID)
		lines = append(lines, userInfo)
	}

	total, admins, _ := s.GetStats(ctx)
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📊 Всего пользователей: %d", total))
	lines = append(lines, fmt.Sprintf("👑 Администраторов: %d", admins))

	return strings.Join(lines, "\n"), nil
}

// IsAdmin проверяет, является ли пользователь администратором
func (s *UserService) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return false, err
	}

	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin инициализирует администратора из конфига
func (s *UserService) InitializeAdmin(ctx context.Context, adminChatID int64) error {
	if adminChatID == 0 {
		return nil // Админ не задан в конфиге
	}

	existingUser, err := s.repo.GetByChatID(ctx, adminChatID)
	if err != nil {
		return err
	}

	if existingUser != nil {
		return s.repo.UpdateRole(ctx, adminChatID, models.RoleAdmin)
	}

	adminUser := &models.User{
		ChatID:    adminChatID,
		Username:  "admin",
		FirstName: "Администратор",
		Role:      models.RoleAdmin,
	}

	return s.repo.Create(ctx, adminUser)
}
