package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/auth"
)

// Тип для ключа контекста.
type contextKey string

// Ключ для хранения личности пользователя в контексте.
const identityKey contextKey = "identity"

// Authenticator возвращает middleware, проверяющее токен из заголовка
// Authorization (схема "Bearer <token>"). Отказ в доступе всегда отдается
// конвертом {code: 401, data: null} с транспортным статусом 200:
// отсутствие заголовка и невалидный токен неразличимы для клиента по форме.
// Middleware не изменяет состояние хранилища.
func Authenticator(tm *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Println("[AuthMiddleware] Заголовок Authorization отсутствует")
				api.Fail(w, api.CodeUnauthorized, "Доступ запрещен, требуется вход")
				return
			}

			// Проверяем формат "Bearer <token>"
			headerParts := strings.SplitN(authHeader, " ", 2)
			if len(headerParts) != 2 || headerParts[0] != "Bearer" {
				log.Printf("[AuthMiddleware] Неверный формат заголовка Authorization: %s", authHeader)
				api.Fail(w, api.CodeUnauthorized, "Доступ запрещен, требуется вход")
				return
			}

			identity, err := tm.ParseToken(headerParts[1])
			if err != nil {
				log.Printf("[AuthMiddleware] Ошибка проверки токена: %v", err)
				api.Fail(w, api.CodeUnauthorized, "Токен невалиден или истек")
				return
			}

			// Добавляем личность пользователя в контекст запроса
			ctx := context.WithValue(r.Context(), identityKey, identity)

			log.Printf("[AuthMiddleware] Пользователь %d (%s) успешно аутентифицирован",
				identity.UserID, identity.Username)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext извлекает личность пользователя из контекста запроса.
// Возвращает личность и true, если она найдена, иначе nil и false.
func IdentityFromContext(ctx context.Context) (*auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*auth.Identity)
	return identity, ok
}
