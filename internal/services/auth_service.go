package services

import (
	"context"
	"errors"
	"log"

	"github.com/avkuznetsov/moments/server/internal/auth"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/repository"
)

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	Register(ctx context.Context, username, phone, password string) (*models.RegisterResponse, error)
	Login(ctx context.Context, account, password string) (*models.LoginResponse, error)
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo     repository.UserRepository
	tokenManager *auth.Manager
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(userRepo repository.UserRepository, tm *auth.Manager) AuthService {
	return &authService{userRepo: userRepo, tokenManager: tm}
}

// Register регистрирует нового пользователя.
//
// Пароль сохраняется в том виде, в котором пришел от клиента: хранилище
// паролей в открытом виде - известная слабость исходной системы, сознательно
// не исправляемая здесь, так как вход выполняется одним SQL-запросом по
// точному совпадению пароля.
func (s *authService) Register(
	ctx context.Context,
	username, phone, password string,
) (*models.RegisterResponse, error) {
	user := &models.User{
		Username: username,
		Phone:    phone,
		Password: password,
	}

	// Уникальность имени и телефона гарантируют ограничения БД:
	// предварительных SELECT-проверок нет, поэтому конкурентные
	// регистрации с одинаковым именем не создают гонку в приложении.
	userID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			log.Printf("[AuthService] Попытка регистрации с занятым именем: %s", username)
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrPhoneTaken):
			log.Printf("[AuthService] Попытка регистрации с занятым телефоном: %s", phone)
			return nil, ErrPhoneTaken
		default:
			log.Printf("[AuthService] Непредвиденная ошибка репозитория при регистрации '%s': %v", username, err)
			return nil, errors.New("внутренняя ошибка сервера при создании пользователя")
		}
	}

	log.Printf("[AuthService] Пользователь '%s' успешно зарегистрирован с ID %d", username, userID)
	return &models.RegisterResponse{UserID: userID, Username: username, Phone: phone}, nil
}

// Login аутентифицирует пользователя по аккаунту (имя пользователя или
// телефон) и паролю и возвращает токен сессии вместе с краткой информацией
// о пользователе. Несуществующий аккаунт и неверный пароль дают одну и ту же
// ошибку ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, account, password string) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByCredentials(ctx, account, password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("[AuthService] Неудачная попытка входа по аккаунту: %s", account)
			return nil, ErrInvalidCredentials
		}
		log.Printf("[AuthService] Ошибка репозитория при входе по аккаунту '%s': %v", account, err)
		return nil, errors.New("внутренняя ошибка сервера при поиске пользователя")
	}

	// Выпускаем токен сессии с вшитыми {userId, username}
	token, err := s.tokenManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		log.Printf("[AuthService] Ошибка генерации токена для '%s': %v", user.Username, err)
		return nil, errors.New("внутренняя ошибка сервера при генерации токена")
	}

	log.Printf("[AuthService] Пользователь '%s' (ID %d) успешно аутентифицирован", user.Username, user.ID)
	return &models.LoginResponse{
		Token: token,
		UserInfo: models.UserInfo{
			UserID:   user.ID,
			Username: user.Username,
			Phone:    user.Phone,
		},
	}, nil
}

// Кастомные ошибки сервиса.
var (
	ErrInvalidCredentials = errors.New("аккаунт не существует или пароль неверен")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrPhoneTaken         = errors.New("номер телефона уже зарегистрирован")
)
