// Package auth реализует выпуск и проверку токенов сессии.
//
// Токен - самодостаточный JWT (HS256) с утверждениями {userId, username}.
// Проверка не обращается к БД: удаленный или переименованный пользователь
// продолжает аутентифицироваться по ранее выданному токену до его истечения.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL - время жизни токена по умолчанию (7 дней).
const DefaultTokenTTL = 7 * 24 * time.Hour

// Ошибки проверки токена.
var (
	ErrTokenExpired = errors.New("срок действия токена истек")
	ErrTokenInvalid = errors.New("невалидный токен")
)

// Identity - подтвержденная личность владельца токена.
type Identity struct {
	UserID   int64
	Username string
}

// Claims - утверждения токена: идентификатор и имя пользователя
// плюс стандартные утверждения (exp, iat, nbf, iss).
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены одним процессным секретом.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager создает менеджер токенов с заданным секретом и временем жизни.
// При ttl <= 0 используется DefaultTokenTTL.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken выпускает подписанный токен для пользователя.
func (m *Manager) GenerateToken(userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "moments-server",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signedToken, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает
// вшитую в него личность. Любое искажение подписи или утверждений
// дает ErrTokenInvalid, истекший токен - ErrTokenExpired.
func (m *Manager) ParseToken(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Принимаем только HMAC, чтобы исключить подмену алгоритма
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
