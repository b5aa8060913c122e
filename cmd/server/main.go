package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // Драйвер PostgreSQL

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/auth"
	"github.com/avkuznetsov/moments/server/internal/handlers"
	appmiddleware "github.com/avkuznetsov/moments/server/internal/middleware"
	"github.com/avkuznetsov/moments/server/internal/repository"
	"github.com/avkuznetsov/moments/server/internal/services"
	"github.com/avkuznetsov/moments/server/internal/storage"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 30 * time.Second
	defaultServerPort   = "3000"
	envServerPort       = "SERVER_PORT"

	// Переменные окружения для JWT.
	// Секрет по умолчанию годится только для разработки.
	envJWTSecret     = "JWT_SECRET"
	defaultJWTSecret = "fallback-dev-secret-key-2025"

	// Переменные окружения для БД.
	envDBUser     = "POSTGRES_USER"
	envDBPass     = "POSTGRES_PASSWORD" //nolint:gosec // Имя переменной окружения, не секрет
	envDBName     = "POSTGRES_DB"
	envDBHost     = "POSTGRES_HOST"
	envDBPort     = "POSTGRES_PORT"
	defaultDBUser = "moments"
	defaultDBPass = "secret"
	defaultDBName = "moments"
	defaultDBHost = "localhost"
	defaultDBPort = "5432"

	// Переменные окружения для MinIO.
	envMinioEndpoint     = "MINIO_ENDPOINT"
	envMinioUser         = "MINIO_USER"
	envMinioPassword     = "MINIO_PASSWORD"
	envMinioBucket       = "MINIO_BUCKET"
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "moments-uploads"
	minioUseSSL          = false // Для локальной разработки

	// Предел размера загружаемого файла.
	envUploadMaxSize = "UPLOAD_MAX_SIZE"
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db            *sqlx.DB
	tokenManager  *auth.Manager
	authHandler   *handlers.AuthHandler
	postHandler   *handlers.PostHandler
	userHandler   *handlers.UserHandler
	uploadHandler *handlers.UploadHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера Moments...")

	// Загружаем переменные окружения из .env, если файл есть
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используются переменные окружения")
	}

	// Инициализация зависимостей
	deps, err := setupDependencies()
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer func() {
		if deps.db != nil {
			if closeErr := deps.db.Close(); closeErr != nil {
				log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
			}
		}
	}()

	// Настройка роутера
	r := setupRouter(deps)

	port := getEnv(envServerPort, defaultServerPort)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	log.Printf("Запуск HTTP-сервера на порту %s...", port)
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска HTTP-сервера: %w", err)
	}
	return nil
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies() (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и применение миграций
	dsn := getDSNFromEnv()
	deps.db, err = repository.NewPostgresDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	if err = repository.RunMigrations(context.Background(), deps.db); err != nil {
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			log.Printf("Ошибка закрытия соединения с БД при ошибке миграций: %v", dbCloseErr)
		}
		return nil, fmt.Errorf("ошибка миграций БД: %w", err)
	}

	// 2. Инициализация клиента MinIO
	minioCfg := storage.MinioConfig{
		Endpoint:        getEnv(envMinioEndpoint, defaultMinioEndpoint),
		AccessKeyID:     getEnv(envMinioUser, defaultMinioUser),
		SecretAccessKey: getEnv(envMinioPassword, defaultMinioPassword),
		UseSSL:          minioUseSSL,
		BucketName:      getEnv(envMinioBucket, defaultMinioBucket),
	}
	fileStorage, err := storage.NewMinioClient(minioCfg)
	if err != nil {
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			log.Printf("Ошибка закрытия соединения с БД при ошибке MinIO: %v", dbCloseErr)
		}
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	// 3. Менеджер токенов с единым процессным секретом
	secret := getEnv(envJWTSecret, defaultJWTSecret)
	if secret == defaultJWTSecret {
		log.Println("ВНИМАНИЕ: используется JWT-секрет по умолчанию, задайте JWT_SECRET для продакшена")
	}
	deps.tokenManager = auth.NewManager(secret, auth.DefaultTokenTTL)

	// 4. Создание репозиториев
	userRepo := repository.NewPostgresUserRepository(deps.db)
	postRepo := repository.NewPostgresPostRepository(deps.db)

	// 5. Создание сервисов
	authService := services.NewAuthService(userRepo, deps.tokenManager)
	postService := services.NewPostService(postRepo)
	userService := services.NewUserService(userRepo)

	// 6. Создание обработчиков
	maxUploadSize, _ := strconv.ParseInt(getEnv(envUploadMaxSize, ""), 10, 64)
	deps.authHandler = handlers.NewAuthHandler(authService)
	deps.postHandler = handlers.NewPostHandler(postService)
	deps.userHandler = handlers.NewUserHandler(userService)
	deps.uploadHandler = handlers.NewUploadHandler(fileStorage, maxUploadSize)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	authenticator := appmiddleware.Authenticator(deps.tokenManager)

	// Раздача загруженных файлов
	r.Get("/uploads/{object}", deps.uploadHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		// Проверка работоспособности
		r.Get("/hello", func(w http.ResponseWriter, _ *http.Request) {
			api.OK(w, "Сервис работает", map[string]string{
				"service": "moments-server",
				"version": "1.0",
			})
		})

		// Публичные маршруты аутентификации
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.authHandler.Register)
			r.Post("/login", deps.authHandler.Login)
			r.Post("/logout", deps.authHandler.Logout)
		})

		// Записи: чтение публично, изменение требует входа
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", deps.postHandler.List)
			r.Get("/{id}", deps.postHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authenticator)
				r.Post("/", deps.postHandler.Create)
				r.Put("/{id}", deps.postHandler.Update)
				r.Patch("/{id}", deps.postHandler.Patch)
				r.Delete("/{id}", deps.postHandler.Delete)
			})
		})

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Route("/user", func(r chi.Router) {
				r.Get("/profile", deps.userHandler.Profile)
				r.Put("/password", deps.userHandler.ChangePassword)
			})

			r.Route("/upload", func(r chi.Router) {
				r.Post("/file", deps.uploadHandler.UploadFile)
				r.Post("/avatar", deps.uploadHandler.UploadAvatar)
			})
		})
	})
	return r
}

// getDSNFromEnv формирует строку подключения к БД из переменных окружения.
func getDSNFromEnv() string {
	user := getEnv(envDBUser, defaultDBUser)
	password := getEnv(envDBPass, defaultDBPass)
	host := getEnv(envDBHost, defaultDBHost)
	port := getEnv(envDBPort, defaultDBPort)
	dbname := getEnv(envDBName, defaultDBName)

	// sslmode=disable - небезопасно для продакшена, но удобно для локальной разработки с Docker
	//nolint:nosprintfhostport // DSN - это URL, а не просто host:port
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
