package middleware_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/auth"
	"github.com/avkuznetsov/moments/server/internal/middleware"
)

const jwtSecretKey = "test-secret-key"

func TestIdentityFromContext(t *testing.T) {
	t.Run("Пустой контекст", func(t *testing.T) {
		identity, ok := middleware.IdentityFromContext(context.Background())
		assert.Nil(t, identity)
		assert.False(t, ok)
	})
}

func TestAuthenticator(t *testing.T) {
	tm := auth.NewManager(jwtSecretKey, time.Hour)
	expiredTM := auth.NewManager(jwtSecretKey, time.Nanosecond)
	foreignTM := auth.NewManager("another-secret", time.Hour)

	// Обработчик, который будет вызван после middleware
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		require.True(t, ok, "Личность должна быть в контексте")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf("OK for user %d (%s)", identity.UserID, identity.Username)))
	})

	authMiddleware := middleware.Authenticator(tm)(nextHandler)

	server := httptest.NewServer(authMiddleware)
	defer server.Close()

	validToken, err := tm.GenerateToken(123, "alice")
	require.NoError(t, err)

	expiredToken, err := expiredTM.GenerateToken(123, "alice")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	foreignToken, err := foreignTM.GenerateToken(123, "alice")
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string // Содержимое заголовка Authorization
		expectedCode int    // Код в конверте ответа (или 0 для успешного прохода)
		expectedBody string // Подстрока в теле ответа
	}{
		{
			name:         "Успешная аутентификация",
			header:       "Bearer " + validToken,
			expectedBody: "OK for user 123 (alice)",
		},
		{
			name:         "Нет заголовка Authorization",
			header:       "",
			expectedCode: api.CodeUnauthorized,
		},
		{
			name:         "Неверная схема",
			header:       "Basic " + validToken,
			expectedCode: api.CodeUnauthorized,
		},
		{
			name:         "Bearer без токена",
			header:       "Bearer",
			expectedCode: api.CodeUnauthorized,
		},
		{
			name:         "Невалидный токен",
			header:       "Bearer not-a-token",
			expectedCode: api.CodeUnauthorized,
		},
		{
			name:         "Истекший токен",
			header:       "Bearer " + expiredToken,
			expectedCode: api.CodeUnauthorized,
		},
		{
			name:         "Токен с чужой подписью",
			header:       "Bearer " + foreignToken,
			expectedCode: api.CodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, reqErr := http.NewRequestWithContext(
				context.Background(), http.MethodGet, server.URL, http.NoBody)
			require.NoError(t, reqErr)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, doErr := server.Client().Do(req)
			require.NoError(t, doErr)
			defer func() { _ = resp.Body.Close() }()

			// Транспортный статус всегда 200: и отказ, и успех
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)

			if tt.expectedCode == 0 {
				assert.Contains(t, string(body), tt.expectedBody)
				return
			}

			// Отказ: единый конверт {code: 401, data: null}
			var envelope api.Envelope
			require.NoError(t, json.Unmarshal(body, &envelope))
			assert.Equal(t, tt.expectedCode, envelope.Code)
			assert.Nil(t, envelope.Data)
		})
	}
}
