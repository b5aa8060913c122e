package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/avkuznetsov/moments/server/internal/models"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByCredentials(ctx context.Context, account, password string) (*models.User, error)
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, newPassword string) error
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser создает нового пользователя в базе данных.
// Уникальность username и phone гарантируется ограничениями БД, а не
// предварительной проверкой: два конкурентных запроса с одинаковым именем
// разрешаются на уровне хранилища, и нарушение ограничения транслируется
// в ErrUsernameTaken / ErrPhoneTaken.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, phone, password, created_at, updated_at)
	          VALUES ($1, $2, $3, NOW(), NOW()) RETURNING id`
	var userID int64

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.Phone, user.Password).Scan(&userID)
	if err != nil {
		// Проверяем на ошибку нарушения уникальности (duplicate key)
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			if strings.Contains(pgErr.Constraint, "phone") {
				log.Printf("[Repo] Ошибка создания пользователя: телефон '%s' уже зарегистрирован", user.Phone)
				return 0, ErrPhoneTaken
			}
			log.Printf("[Repo] Ошибка создания пользователя: имя '%s' уже занято", user.Username)
			return 0, ErrUsernameTaken
		}
		log.Printf("[Repo] Непредвиденная ошибка при создании пользователя '%s': %v", user.Username, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	log.Printf("[Repo] Пользователь '%s' успешно создан с ID %d", user.Username, userID)
	return userID, nil
}

// GetUserByCredentials находит пользователя по аккаунту (имя пользователя или
// телефон) и паролю одним запросом. Возвращает ErrUserNotFound, если ни одна
// строка не удовлетворяет условию: несуществующий аккаунт и неверный пароль
// неразличимы для вызывающего кода.
func (r *postgresUserRepository) GetUserByCredentials(
	ctx context.Context,
	account, password string,
) (*models.User, error) {
	query := `SELECT id, username, phone, password, created_at, updated_at
	          FROM users WHERE (username = $1 OR phone = $1) AND password = $2`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, account, password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Repo] Не найден пользователь по аккаунту '%s' с указанным паролем", account)
			return nil, ErrUserNotFound
		}
		log.Printf("[Repo] Ошибка при поиске пользователя по аккаунту '%s': %v", account, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на поиск пользователя: %w", err)
	}

	return &user, nil
}

// GetUserByID находит пользователя по его ID.
func (r *postgresUserRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT id, username, phone, password, created_at, updated_at FROM users WHERE id = $1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Repo] Пользователь с ID %d не найден", userID)
			return nil, ErrUserNotFound
		}
		log.Printf("[Repo] Ошибка при поиске пользователя с ID %d: %v", userID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}

// UpdatePassword обновляет пароль пользователя.
func (r *postgresUserRepository) UpdatePassword(ctx context.Context, userID int64, newPassword string) error {
	query := `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, newPassword, userID)
	if err != nil {
		log.Printf("[Repo] Ошибка при обновлении пароля пользователя %d: %v", userID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление пароля: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества обновленных строк: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	log.Printf("[Repo] Пароль пользователя %d успешно обновлен", userID)
	return nil
}

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound  = errors.New("пользователь не найден")
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
	ErrPhoneTaken    = errors.New("номер телефона уже зарегистрирован")
)
