package services

import (
	"context"
	"errors"
	"log"

	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/repository"
)

// UserService определяет интерфейс для сервиса профиля пользователя.
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserInfo, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// Убедимся, что userService удовлетворяет интерфейсу UserService.
var _ UserService = (*userService)(nil)

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService создает новый экземпляр сервиса профиля.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetProfile возвращает профиль пользователя по его ID.
// Токен не сверяется с БД при проверке, поэтому пользователь мог быть
// удален после выпуска токена - тогда возвращается ErrUserNotFound.
func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.UserInfo, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		log.Printf("[UserService] Ошибка получения профиля пользователя %d: %v", userID, err)
		return nil, errors.New("внутренняя ошибка сервера при получении профиля")
	}

	return &models.UserInfo{UserID: user.ID, Username: user.Username, Phone: user.Phone}, nil
}

// ChangePassword меняет пароль пользователя после проверки старого.
// Новый пароль, совпадающий со старым, отклоняется.
func (s *userService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		log.Printf("[UserService] Ошибка поиска пользователя %d при смене пароля: %v", userID, err)
		return errors.New("внутренняя ошибка сервера при смене пароля")
	}

	if user.Password != oldPassword {
		log.Printf("[UserService] Неверный старый пароль у пользователя %d", userID)
		return ErrWrongOldPassword
	}
	if oldPassword == newPassword {
		return ErrPasswordUnchanged
	}

	if err = s.userRepo.UpdatePassword(ctx, userID, newPassword); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		log.Printf("[UserService] Ошибка обновления пароля пользователя %d: %v", userID, err)
		return errors.New("внутренняя ошибка сервера при смене пароля")
	}

	log.Printf("[UserService] Пароль пользователя %d успешно изменен", userID)
	return nil
}

// Кастомные ошибки сервиса профиля.
var (
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrWrongOldPassword  = errors.New("старый пароль неверен")
	ErrPasswordUnchanged = errors.New("новый пароль не должен совпадать со старым")
)
