package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/repository"
)

func TestNewPostgresUserRepository(t *testing.T) {
	repo := repository.NewPostgresUserRepository(nil)
	assert.NotNil(t, repo)
}

// Вспомогательная функция для создания мока БД и репозитория.
func setupUserRepoMock(t *testing.T) (repository.UserRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := repository.NewPostgresUserRepository(sqlxDB)
	return repo, mock
}

func userColumns() []string {
	return []string{"id", "username", "phone", "password", "created_at", "updated_at"}
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		user        *models.User
		mockSetup   func(mock sqlmock.Sqlmock, user *models.User)
		expectedID  int64
		expectedErr error
	}{
		{
			name: "Успешное создание",
			user: &models.User{Username: "alice", Phone: "13800000001", Password: "pw1"},
			mockSetup: func(mock sqlmock.Sqlmock, user *models.User) {
				rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.Username, user.Phone, user.Password).
					WillReturnRows(rows)
			},
			expectedID:  1,
			expectedErr: nil,
		},
		{
			name: "Имя пользователя занято",
			user: &models.User{Username: "alice", Phone: "13800000002", Password: "pw2"},
			mockSetup: func(mock sqlmock.Sqlmock, user *models.User) {
				// Нарушение ограничения уникальности по имени
				pqErr := &pq.Error{Code: "23505", Constraint: "users_username_key"}
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.Username, user.Phone, user.Password).
					WillReturnError(pqErr)
			},
			expectedID:  0,
			expectedErr: repository.ErrUsernameTaken,
		},
		{
			name: "Телефон уже зарегистрирован",
			user: &models.User{Username: "bob", Phone: "13800000001", Password: "pw3"},
			mockSetup: func(mock sqlmock.Sqlmock, user *models.User) {
				pqErr := &pq.Error{Code: "23505", Constraint: "users_phone_key"}
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.Username, user.Phone, user.Password).
					WillReturnError(pqErr)
			},
			expectedID:  0,
			expectedErr: repository.ErrPhoneTaken,
		},
		{
			name: "Ошибка базы данных",
			user: &models.User{Username: "erroruser", Phone: "13800000003", Password: "pw4"},
			mockSetup: func(mock sqlmock.Sqlmock, user *models.User) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(user.Username, user.Phone, user.Password).
					WillReturnError(errors.New("database error"))
			},
			expectedID:  0,
			expectedErr: errors.New("ошибка выполнения запроса на создание пользователя: database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupUserRepoMock(t)
			tt.mockSetup(mock, tt.user)

			userID, err := repo.CreateUser(ctx, tt.user)

			assert.Equal(t, tt.expectedID, userID)
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.EqualError(t, err, tt.expectedErr.Error())
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetUserByCredentials(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name         string
		account      string
		password     string
		mockSetup    func(mock sqlmock.Sqlmock)
		expectedUser *models.User
		expectedErr  error
	}{
		{
			name:     "Вход по имени пользователя",
			account:  "alice",
			password: "pw1",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userColumns()).
					AddRow(int64(1), "alice", "13800000001", "pw1", now, now)
				mock.ExpectQuery(`FROM users WHERE \(username = \$1 OR phone = \$1\) AND password = \$2`).
					WithArgs("alice", "pw1").
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "alice", Phone: "13800000001", Password: "pw1"},
		},
		{
			name:     "Вход по телефону",
			account:  "13800000001",
			password: "pw1",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userColumns()).
					AddRow(int64(1), "alice", "13800000001", "pw1", now, now)
				mock.ExpectQuery(`FROM users`).
					WithArgs("13800000001", "pw1").
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "alice", Phone: "13800000001", Password: "pw1"},
		},
		{
			name:     "Неверный пароль или несуществующий аккаунт",
			account:  "alice",
			password: "wrong",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).
					WithArgs("alice", "wrong").
					WillReturnRows(sqlmock.NewRows(userColumns()))
			},
			expectedErr: repository.ErrUserNotFound,
		},
		{
			name:     "Ошибка базы данных",
			account:  "alice",
			password: "pw1",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).
					WithArgs("alice", "pw1").
					WillReturnError(errors.New("database error"))
			},
			expectedErr: errors.New("ошибка выполнения запроса на поиск пользователя: database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupUserRepoMock(t)
			tt.mockSetup(mock)

			user, err := repo.GetUserByCredentials(ctx, tt.account, tt.password)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.EqualError(t, err, tt.expectedErr.Error())
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, tt.expectedUser.ID, user.ID)
				assert.Equal(t, tt.expectedUser.Username, user.Username)
				assert.Equal(t, tt.expectedUser.Phone, user.Phone)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("Пользователь найден", func(t *testing.T) {
		repo, mock := setupUserRepoMock(t)
		rows := sqlmock.NewRows(userColumns()).
			AddRow(int64(5), "carol", "13800000005", "pw5", now, now)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(rows)

		user, err := repo.GetUserByID(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "carol", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пользователь не найден", func(t *testing.T) {
		repo, mock := setupUserRepoMock(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(userColumns()))

		user, err := repo.GetUserByID(ctx, 99)
		require.ErrorIs(t, err, repository.ErrUserNotFound)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Успешное обновление", func(t *testing.T) {
		repo, mock := setupUserRepoMock(t)
		mock.ExpectExec(`UPDATE users SET password = \$1`).
			WithArgs("newpw", int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePassword(ctx, 1, "newpw")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Пользователь исчез", func(t *testing.T) {
		repo, mock := setupUserRepoMock(t)
		mock.ExpectExec(`UPDATE users SET password = \$1`).
			WithArgs("newpw", int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePassword(ctx, 99, "newpw")
		require.ErrorIs(t, err, repository.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
