package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/handlers"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/services"
)

// --- Mock AuthService --- //

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(
	ctx context.Context,
	username, phone, password string,
) (*models.RegisterResponse, error) {
	args := m.Called(ctx, username, phone, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegisterResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, account, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, account, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

// --- Helpers --- //

// doRequest выполняет запрос к роутеру и декодирует конверт ответа.
func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, api.Envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope api.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func setupAuthRouter(h *handlers.AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	return r
}

// --- Tests --- //

func TestNewAuthHandler(t *testing.T) {
	h := handlers.NewAuthHandler(new(MockAuthService))
	assert.NotNil(t, h)
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		mockSetup    func(m *MockAuthService)
		expectedCode int
	}{
		{
			name: "Успешная регистрация",
			body: `{"username": "alice", "phone": "13800000001", "password": "pw1"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice", "13800000001", "pw1").
					Return(&models.RegisterResponse{UserID: 1, Username: "alice", Phone: "13800000001"}, nil).Once()
			},
			expectedCode: api.CodeOK,
		},
		{
			name:         "Невалидный JSON",
			body:         `{"username": "alice"`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name:         "Пустое имя пользователя",
			body:         `{"username": "", "phone": "13800000001", "password": "pw1"}`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name:         "Нет телефона",
			body:         `{"username": "alice", "password": "pw1"}`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name:         "Пустой пароль",
			body:         `{"username": "alice", "phone": "13800000001", "password": ""}`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name: "Имя пользователя занято",
			body: `{"username": "alice", "phone": "13800000002", "password": "pw2"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice", "13800000002", "pw2").
					Return(nil, services.ErrUsernameTaken).Once()
			},
			expectedCode: api.CodeBadRequest,
		},
		{
			name: "Телефон уже зарегистрирован",
			body: `{"username": "bob", "phone": "13800000001", "password": "pw3"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "bob", "13800000001", "pw3").
					Return(nil, services.ErrPhoneTaken).Once()
			},
			expectedCode: api.CodeBadRequest,
		},
		{
			name: "Внутренняя ошибка сервера",
			body: `{"username": "erroruser", "phone": "13800000009", "password": "pw"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "erroruser", "13800000009", "pw").
					Return(nil, errors.New("db down")).Once()
			},
			expectedCode: api.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}
			router := setupAuthRouter(handlers.NewAuthHandler(mockService))

			w, envelope := doRequest(t, router, http.MethodPost, "/register", tt.body, nil)

			// Транспортный статус всегда 200, код операции - в конверте
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expectedCode, envelope.Code)

			if tt.expectedCode == api.CodeOK {
				data, ok := envelope.Data.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, float64(1), data["userId"])
				assert.Equal(t, "alice", data["username"])
				assert.Equal(t, "13800000001", data["phone"])
			} else {
				assert.Nil(t, envelope.Data)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	successResp := &models.LoginResponse{
		Token: "signed.jwt.token",
		UserInfo: models.UserInfo{
			UserID:   1,
			Username: "alice",
			Phone:    "13800000001",
		},
	}

	tests := []struct {
		name         string
		body         string
		mockSetup    func(m *MockAuthService)
		expectedCode int
	}{
		{
			name: "Успешный вход",
			body: `{"account": "alice", "password": "pw1"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice", "pw1").Return(successResp, nil).Once()
			},
			expectedCode: api.CodeOK,
		},
		{
			name:         "Невалидный JSON",
			body:         `{"account": }`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name:         "Нет аккаунта",
			body:         `{"password": "pw1"}`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name:         "Нет пароля",
			body:         `{"account": "alice"}`,
			expectedCode: api.CodeBadRequest,
		},
		{
			name: "Несуществующий аккаунт или неверный пароль",
			body: `{"account": "ghost", "password": "pw1"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "ghost", "pw1").
					Return(nil, services.ErrInvalidCredentials).Once()
			},
			expectedCode: api.CodeUnauthorized,
		},
		{
			name: "Внутренняя ошибка сервера",
			body: `{"account": "alice", "password": "pw1"}`,
			mockSetup: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice", "pw1").
					Return(nil, errors.New("db down")).Once()
			},
			expectedCode: api.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}
			router := setupAuthRouter(handlers.NewAuthHandler(mockService))

			w, envelope := doRequest(t, router, http.MethodPost, "/login", tt.body, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expectedCode, envelope.Code)

			if tt.expectedCode == api.CodeOK {
				data, ok := envelope.Data.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "signed.jwt.token", data["token"])
				userInfo, ok := data["userInfo"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, float64(1), userInfo["userId"])
				assert.Equal(t, "alice", userInfo["username"])
			} else {
				// Ошибка входа: data = null независимо от причины
				assert.Nil(t, envelope.Data)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	router := setupAuthRouter(handlers.NewAuthHandler(new(MockAuthService)))

	w, envelope := doRequest(t, router, http.MethodPost, "/logout", "", nil)

	// Выход - пустая операция без состояния на сервере
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.CodeOK, envelope.Code)
	assert.Nil(t, envelope.Data)
}
