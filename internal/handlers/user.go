package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/middleware"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/services"
)

// UserService определяет интерфейс для сервиса профиля пользователя.
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserInfo, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// UserHandler обрабатывает HTTP-запросы, связанные с профилем пользователя.
type UserHandler struct {
	service UserService
}

// NewUserHandler создает новый экземпляр UserHandler.
func NewUserHandler(s UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Profile обрабатывает запрос на получение профиля текущего пользователя.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:Profile] Не удалось получить личность из контекста")
		api.Fail(w, api.CodeInternal, "Внутренняя ошибка сервера")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Токен пережил пользователя: учетная запись удалена после выпуска токена
			api.Fail(w, api.CodeNotFound, "Пользователь не найден")
			return
		}
		log.Printf("[UserHandler:Profile] Ошибка получения профиля пользователя %d: %v", identity.UserID, err)
		api.Fail(w, api.CodeInternal, "Не удалось получить профиль")
		return
	}

	api.OK(w, "Профиль получен", profile)
}

// ChangePassword обрабатывает запрос на смену пароля текущего пользователя.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Printf("[UserHandler:ChangePassword] Не удалось получить личность из контекста")
		api.Fail(w, api.CodeInternal, "Внутренняя ошибка сервера")
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[UserHandler:ChangePassword] Ошибка декодирования запроса: %v", err)
		api.Fail(w, api.CodeBadRequest, "Неверный формат запроса")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		api.Fail(w, api.CodeBadRequest, "Не заполнены обязательные поля")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		api.Fail(w, api.CodeBadRequest, "Введенные новые пароли не совпадают")
		return
	}

	err := h.service.ChangePassword(r.Context(), identity.UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			api.Fail(w, api.CodeNotFound, "Пользователь не найден")
		case errors.Is(err, services.ErrWrongOldPassword):
			api.Fail(w, api.CodeBadRequest, "Старый пароль неверен")
		case errors.Is(err, services.ErrPasswordUnchanged):
			api.Fail(w, api.CodeBadRequest, "Новый пароль не должен совпадать со старым")
		default:
			log.Printf("[UserHandler:ChangePassword] Ошибка смены пароля пользователя %d: %v",
				identity.UserID, err)
			api.Fail(w, api.CodeInternal, "Смена пароля не удалась")
		}
		return
	}

	api.OK(w, "Пароль изменен, войдите заново", nil)
}
