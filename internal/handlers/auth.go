package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/services"
)

// AuthService определяет интерфейс для сервиса аутентификации.
// Это позволит нам легко подменять реализацию (например, для тестов).
type AuthService interface {
	Register(ctx context.Context, username, phone, password string) (*models.RegisterResponse, error)
	Login(ctx context.Context, account, password string) (*models.LoginResponse, error)
}

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service AuthService // Зависимость от интерфейса, а не конкретной реализации
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

// Register обрабатывает запрос на регистрацию нового пользователя.
// Порядок проверок: заполненность полей, затем уникальность имени и телефона
// (первая сработавшая проверка определяет ответ).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса регистрации: %v", err)
		api.Fail(w, api.CodeBadRequest, "Неверный формат запроса")
		return
	}

	if req.Username == "" || req.Phone == "" || req.Password == "" {
		log.Printf("[AuthHandler] Не заполнены обязательные поля при регистрации")
		api.Fail(w, api.CodeBadRequest, "Не заполнены обязательные поля")
		return
	}

	resp, err := h.service.Register(r.Context(), req.Username, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			api.Fail(w, api.CodeBadRequest, "Имя пользователя уже занято")
		case errors.Is(err, services.ErrPhoneTaken):
			api.Fail(w, api.CodeBadRequest, "Номер телефона уже зарегистрирован")
		default:
			log.Printf("[AuthHandler] Внутренняя ошибка при регистрации '%s': %v", req.Username, err)
			api.Fail(w, api.CodeInternal, "Регистрация не удалась, попробуйте еще раз")
		}
		return
	}

	api.OK(w, "Регистрация успешна", resp)
}

// Login обрабатывает запрос на вход пользователя.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[AuthHandler] Ошибка декодирования запроса входа: %v", err)
		api.Fail(w, api.CodeBadRequest, "Неверный формат запроса")
		return
	}

	if req.Account == "" || req.Password == "" {
		log.Printf("[AuthHandler] Не указан аккаунт или пароль при входе")
		api.Fail(w, api.CodeBadRequest, "Не указан аккаунт или пароль")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Account, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			api.Fail(w, api.CodeUnauthorized, "Аккаунт не существует или пароль неверен")
			return
		}
		log.Printf("[AuthHandler] Внутренняя ошибка при входе '%s': %v", req.Account, err)
		api.Fail(w, api.CodeInternal, "Вход не удался, попробуйте еще раз")
		return
	}

	api.OK(w, "Вход выполнен", resp)
}

// Logout обрабатывает запрос на выход. Токены не хранятся на сервере,
// поэтому выход - пустая операция: клиенту достаточно забыть свой токен.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	api.OK(w, "Выход выполнен", nil)
}
