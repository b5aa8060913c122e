package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/auth"
	"github.com/avkuznetsov/moments/server/internal/middleware"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/services"
)

// PostService определяет интерфейс для сервиса записей.
type PostService interface {
	CreatePost(ctx context.Context, identity *auth.Identity, content, tags string) (int64, error)
	ListPosts(ctx context.Context) (*models.PostList, error)
	GetPost(ctx context.Context, postID int64) (*models.Post, error)
	UpdatePost(ctx context.Context, identity *auth.Identity, postID int64, content, tags string) (*models.Post, error)
	PatchPost(ctx context.Context, identity *auth.Identity, postID int64, content, tags *string) (*models.Post, error)
	DeletePost(ctx context.Context, identity *auth.Identity, postID int64) error
}

// PostHandler обрабатывает HTTP-запросы, связанные с записями.
type PostHandler struct {
	service PostService
}

// NewPostHandler создает новый экземпляр PostHandler.
func NewPostHandler(s PostService) *PostHandler {
	return &PostHandler{service: s}
}

// postIDFromRequest извлекает ID записи из URL-параметра.
func postIDFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// failMutation переводит ошибки изменяющих операций сервиса в конверт ответа.
func failMutation(w http.ResponseWriter, err error, fallbackMessage string) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		api.Fail(w, api.CodeNotFound, "Запись не найдена")
	case errors.Is(err, services.ErrForbidden):
		api.Fail(w, api.CodeForbidden, "Нет прав на изменение чужой записи")
	default:
		api.Fail(w, api.CodeInternal, fallbackMessage)
	}
}

// Create обрабатывает запрос на публикацию новой записи.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Printf("[PostHandler:Create] Не удалось получить личность из контекста")
		api.Fail(w, api.CodeInternal, "Внутренняя ошибка сервера")
		return
	}

	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[PostHandler:Create] Ошибка декодирования запроса: %v", err)
		api.Fail(w, api.CodeBadRequest, "Неверный формат запроса")
		return
	}

	if req.Content == "" {
		api.Fail(w, api.CodeBadRequest, "Содержимое записи не может быть пустым")
		return
	}

	postID, err := h.service.CreatePost(r.Context(), identity, req.Content, req.Tags)
	if err != nil {
		log.Printf("[PostHandler:Create] Ошибка создания записи пользователем %d: %v", identity.UserID, err)
		api.Fail(w, api.CodeInternal, "Публикация не удалась")
		return
	}

	api.OK(w, "Публикация успешна", map[string]int64{"postId": postID})
}

// List обрабатывает запрос на получение списка записей. Вход не требуется.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPosts(r.Context())
	if err != nil {
		log.Printf("[PostHandler:List] Ошибка получения списка записей: %v", err)
		api.Fail(w, api.CodeInternal, "Не удалось получить список записей")
		return
	}

	api.OK(w, "success", list)
}

// Get обрабатывает запрос на получение одной записи. Вход не требуется.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := postIDFromRequest(r)
	if err != nil {
		api.Fail(w, api.CodeBadRequest, "Неверный ID записи")
		return
	}

	post, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			api.Fail(w, api.CodeNotFound, "Запись не найдена")
			return
		}
		log.Printf("[PostHandler:Get] Ошибка получения записи %d: %v", postID, err)
		api.Fail(w, api.CodeInternal, "Не удалось получить запись")
		return
	}

	api.OK(w, "success", map[string]*models.Post{"post": post})
}

// Update обрабатывает запрос на полное обновление записи.
// Обновить запись может только ее автор.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Printf("[PostHandler:Update] Не удалось получить личность из контекста")
		api.Fail(w, api.CodeInternal, "Внутренняя ошибка сервера")
		return
	}

	postID, err := postIDFromRequest(r)
	if err != nil {
		api.Fail(w, api.CodeBadRequest, "Неверный ID записи")
		return
	}

	var req models.UpdatePostRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[PostHandler:Update] Ошибка декодирования запроса: %v", err)
		api.Fail(w, api.CodeBadRequest, "Неверный формат запроса")
		return
	}

	post, err := h.service.UpdatePost(r.Context(), identity, postID, req.Content, req.Tags)
	if err != nil {
		failMutation(w, err, "Обновление записи не удалось")
		return
	}

	api.OK(w, "Обновление успешно", map[string]any{"postId": postID, "post": post})
}

// Patch обрабатывает запрос на частичное обновление записи:
// меняются только переданные в теле поля.
func (h *PostHandler) Patch(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Printf("[PostHandler:Patch] Не удалось получить личность из контекста")
		api.Fail(w, api.CodeInternal, "Внутренняя ошибка сервера")
		return
	}

	postID, err := postIDFromRequest(r)
	if err != nil {
		api.Fail(w, api.CodeBadRequest, "Неверный ID записи")
		return
	}

	var req models.PatchPostRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[PostHandler:Patch] Ошибка декодирования запроса: %v", err)
		api.Fail(w, api.CodeBadRequest, "Неверный формат запроса")
		return
	}

	post, err := h.service.PatchPost(r.Context(), identity, postID, req.Content, req.Tags)
	if err != nil {
		failMutation(w, err, "Обновление записи не удалось")
		return
	}

	api.OK(w, "Обновление успешно", map[string]any{"postId": postID, "post": post})
}

// Delete обрабатывает запрос на удаление записи.
// Удалить запись может только ее автор.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.Printf("[PostHandler:Delete] Не удалось получить личность из контекста")
		api.Fail(w, api.CodeInternal, "Внутренняя ошибка сервера")
		return
	}

	postID, err := postIDFromRequest(r)
	if err != nil {
		api.Fail(w, api.CodeBadRequest, "Неверный ID записи")
		return
	}

	if err = h.service.DeletePost(r.Context(), identity, postID); err != nil {
		failMutation(w, err, "Удаление записи не удалось")
		return
	}

	api.OK(w, "Удаление успешно", map[string]int64{"postId": postID})
}
