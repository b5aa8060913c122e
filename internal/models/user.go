package models

import "time"

// User представляет пользователя системы.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Phone     string    `db:"phone" json:"phone"`
	Password  string    `db:"password" json:"-"` // Не отправляем пароль в JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// RegisterRequest представляет тело запроса на регистрацию.
type RegisterRequest struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterResponse представляет данные ответа при успешной регистрации.
type RegisterResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// LoginRequest представляет тело запроса на вход.
// В поле Account передается имя пользователя или номер телефона.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// UserInfo представляет краткую информацию о пользователе.
type UserInfo struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// LoginResponse представляет данные ответа при успешном входе.
type LoginResponse struct {
	Token    string   `json:"token"`
	UserInfo UserInfo `json:"userInfo"`
}

// ChangePasswordRequest представляет тело запроса на смену пароля.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}
