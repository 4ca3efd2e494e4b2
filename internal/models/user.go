package models

import "strings"

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// User сотрудник, зарегистрированный в боте.
type User struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
	ChatID     int64  `gorm:"uniqueIndex;not null" json:"chat_id"`
	Username   string `json:"username"`
	FirstName  string `gorm:"not null" json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Team       string `gorm:"index" json:"team"`
	Department string `json:"department"`
	Role       Role   `gorm:"type:varchar(20);default:'client'" json:"role"`
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetRole устанавливает роль
func (u *User) SetRole(role Role) {
	u.Role = role
}

// DisplayName имя и фамилия через пробел
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// TableName задает имя таблицы в БД
func (User) TableName() string {
	return "users"
}
