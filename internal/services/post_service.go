package services

import (
	"context"
	"errors"
	"log"

	"github.com/avkuznetsov/moments/server/internal/auth"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/repository"
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

// CanModify - правило авторизации для изменяющих операций над записью:
// изменять запись может только пользователь, чей ID совпадает с ID автора.
// Чистая функция, не обращается к хранилищу.
func CanModify(post *models.Post, userID int64) bool {
	return post.UserID == userID
}

// Убедимся, что postService удовлетворяет интерфейсу PostService.
var _ PostService = (*postService)(nil)

type postService struct {
	postRepo repository.PostRepository
}

// NewPostService создает новый экземпляр сервиса записей.
func NewPostService(postRepo repository.PostRepository) PostService {
	return &postService{postRepo: postRepo}
}

// CreatePost публикует новую запись от имени аутентифицированного пользователя.
func (s *postService) CreatePost(
	ctx context.Context,
	identity *auth.Identity,
	content, tags string,
) (int64, error) {
	post := &models.Post{
		UserID:   identity.UserID,
		Username: identity.Username,
		Content:  content,
		Tags:     tags,
	}

	postID, err := s.postRepo.CreatePost(ctx, post)
	if err != nil {
		log.Printf("[PostService] Ошибка создания записи пользователем %d: %v", identity.UserID, err)
		return 0, errors.New("внутренняя ошибка сервера при создании записи")
	}
	return postID, nil
}

// ListPosts возвращает список всех записей, новые первыми.
func (s *postService) ListPosts(ctx context.Context) (*models.PostList, error) {
	posts, err := s.postRepo.ListPosts(ctx)
	if err != nil {
		log.Printf("[PostService] Ошибка получения списка записей: %v", err)
		return nil, errors.New("внутренняя ошибка сервера при получении списка записей")
	}
	return &models.PostList{List: posts, Total: len(posts)}, nil
}

// GetPost возвращает запись по ее ID.
func (s *postService) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		log.Printf("[PostService] Ошибка получения записи %d: %v", postID, err)
		return nil, errors.New("внутренняя ошибка сервера при получении записи")
	}
	return post, nil
}

// authorizeMutation находит запись и проверяет право текущего пользователя
// на ее изменение. Проверка выполняется заново для каждого запроса по
// текущему состоянию хранилища.
func (s *postService) authorizeMutation(
	ctx context.Context,
	identity *auth.Identity,
	postID int64,
) (*models.Post, error) {
	post, err := s.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		log.Printf("[PostService] Ошибка поиска записи %d при авторизации: %v", postID, err)
		return nil, errors.New("внутренняя ошибка сервера при получении записи")
	}

	if !CanModify(post, identity.UserID) {
		log.Printf("[PostService] Пользователь %d пытался изменить чужую запись %d (автор %d)",
			identity.UserID, postID, post.UserID)
		return nil, ErrForbidden
	}
	return post, nil
}

// UpdatePost полностью обновляет запись текущего пользователя и возвращает
// ее новое состояние.
func (s *postService) UpdatePost(
	ctx context.Context,
	identity *auth.Identity,
	postID int64,
	content, tags string,
) (*models.Post, error) {
	if _, err := s.authorizeMutation(ctx, identity, postID); err != nil {
		return nil, err
	}

	// Запись могла быть удалена конкурентным запросом между проверкой
	// и обновлением; в этом случае репозиторий вернет ErrPostNotFound.
	if err := s.postRepo.UpdatePost(ctx, postID, content, tags); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		log.Printf("[PostService] Ошибка обновления записи %d: %v", postID, err)
		return nil, errors.New("внутренняя ошибка сервера при обновлении записи")
	}

	return s.GetPost(ctx, postID)
}

// PatchPost обновляет только переданные поля записи текущего пользователя.
func (s *postService) PatchPost(
	ctx context.Context,
	identity *auth.Identity,
	postID int64,
	content, tags *string,
) (*models.Post, error) {
	if _, err := s.authorizeMutation(ctx, identity, postID); err != nil {
		return nil, err
	}

	if err := s.postRepo.PatchPost(ctx, postID, content, tags); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		log.Printf("[PostService] Ошибка частичного обновления записи %d: %v", postID, err)
		return nil, errors.New("внутренняя ошибка сервера при обновлении записи")
	}

	return s.GetPost(ctx, postID)
}

// DeletePost удаляет запись текущего пользователя.
func (s *postService) DeletePost(ctx context.Context, identity *auth.Identity, postID int64) error {
	if _, err := s.authorizeMutation(ctx, identity, postID); err != nil {
		return err
	}

	if err := s.postRepo.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		log.Printf("[PostService] Ошибка удаления записи %d: %v", postID, err)
		return errors.New("внутренняя ошибка сервера при удалении записи")
	}

	log.Printf("[PostService] Запись %d удалена пользователем %d", postID, identity.UserID)
	return nil
}

// Кастомные ошибки сервиса записей.
var (
	ErrPostNotFound = errors.New("запись не найдена")
	ErrForbidden    = errors.New("нет прав на изменение чужой записи")
)
