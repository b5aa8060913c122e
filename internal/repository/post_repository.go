package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/avkuznetsov/moments/server/internal/models"
)

// PostRepository определяет методы для работы с записями в хранилище.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) (int64, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPostByID(ctx context.Context, postID int64) (*models.Post, error)
	UpdatePost(ctx context.Context, postID int64, content, tags string) error
	PatchPost(ctx context.Context, postID int64, content, tags *string) error
	DeletePost(ctx context.Context, postID int64) error
}

// postgresPostRepository реализует PostRepository для PostgreSQL.
type postgresPostRepository struct {
	db *sqlx.DB
}

// NewPostgresPostRepository создает новый экземпляр репозитория записей для PostgreSQL.
func NewPostgresPostRepository(db *sqlx.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

// CreatePost создает новую запись. Имя автора фиксируется как снимок
// на момент публикации и далее не обновляется.
func (r *postgresPostRepository) CreatePost(ctx context.Context, post *models.Post) (int64, error) {
	query := `INSERT INTO posts (user_id, username, content, tags, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id`
	var postID int64

	err := r.db.QueryRowxContext(ctx, query, post.UserID, post.Username, post.Content, post.Tags).Scan(&postID)
	if err != nil {
		log.Printf("[Repo] Ошибка при создании записи пользователя %d: %v", post.UserID, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание записи: %w", err)
	}

	log.Printf("[Repo] Запись %d пользователя %d успешно создана", postID, post.UserID)
	return postID, nil
}

// ListPosts возвращает все записи, новые первыми.
func (r *postgresPostRepository) ListPosts(ctx context.Context) ([]models.Post, error) {
	query := `SELECT id, user_id, username, content, tags, created_at, updated_at
	          FROM posts ORDER BY created_at DESC`
	posts := []models.Post{}

	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		log.Printf("[Repo] Ошибка при получении списка записей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка записей: %w", err)
	}

	return posts, nil
}

// GetPostByID находит запись по ее ID.
func (r *postgresPostRepository) GetPostByID(ctx context.Context, postID int64) (*models.Post, error) {
	query := `SELECT id, user_id, username, content, tags, created_at, updated_at
	          FROM posts WHERE id = $1`
	var post models.Post

	err := r.db.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Repo] Запись %d не найдена", postID)
			return nil, ErrPostNotFound
		}
		log.Printf("[Repo] Ошибка при поиске записи %d: %v", postID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записи: %w", err)
	}

	return &post, nil
}

// UpdatePost полностью обновляет содержимое и тэги записи.
// Если запись успела исчезнуть между проверкой прав и обновлением,
// возвращается ErrPostNotFound (RowsAffected == 0), а не тихий no-op.
func (r *postgresPostRepository) UpdatePost(ctx context.Context, postID int64, content, tags string) error {
	query := `UPDATE posts SET content = $1, tags = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, content, tags, postID)
	if err != nil {
		log.Printf("[Repo] Ошибка при обновлении записи %d: %v", postID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление записи: %w", err)
	}
	return checkAffected(result, postID)
}

// PatchPost обновляет только переданные (не nil) поля записи.
// updated_at обновляется в любом случае.
func (r *postgresPostRepository) PatchPost(ctx context.Context, postID int64, content, tags *string) error {
	// Собираем запрос динамически из переданных полей
	query := `UPDATE posts SET updated_at = NOW()`
	args := []any{}

	if content != nil {
		args = append(args, *content)
		query += `, content = $` + strconv.Itoa(len(args))
	}
	if tags != nil {
		args = append(args, *tags)
		query += `, tags = $` + strconv.Itoa(len(args))
	}

	args = append(args, postID)
	query += ` WHERE id = $` + strconv.Itoa(len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Printf("[Repo] Ошибка при частичном обновлении записи %d: %v", postID, err)
		return fmt.Errorf("ошибка выполнения запроса на частичное обновление записи: %w", err)
	}
	return checkAffected(result, postID)
}

// DeletePost удаляет запись по ее ID.
func (r *postgresPostRepository) DeletePost(ctx context.Context, postID int64) error {
	query := `DELETE FROM posts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		log.Printf("[Repo] Ошибка при удалении записи %d: %v", postID, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление записи: %w", err)
	}
	return checkAffected(result, postID)
}

// checkAffected переводит отсутствие затронутых строк в ErrPostNotFound.
func checkAffected(result sql.Result, postID int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rowsAffected == 0 {
		log.Printf("[Repo] Запись %d не найдена при изменении", postID)
		return ErrPostNotFound
	}
	return nil
}

// Кастомная ошибка репозитория записей.
var ErrPostNotFound = errors.New("запись не найдена")
