package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avkuznetsov/moments/server/internal/api"
	"github.com/avkuznetsov/moments/server/internal/models"
	"github.com/avkuznetsov/moments/server/internal/storage"
)

// DefaultUploadMaxSize - предел размера загружаемого файла по умолчанию (10 МиБ).
const DefaultUploadMaxSize = 10 << 20

// UploadHandler обрабатывает загрузку медиафайлов и их раздачу.
type UploadHandler struct {
	fileStorage storage.FileStorage
	maxSize     int64
}

// NewUploadHandler создает новый экземпляр UploadHandler.
// При maxSize <= 0 используется DefaultUploadMaxSize.
func NewUploadHandler(fs storage.FileStorage, maxSize int64) *UploadHandler {
	if maxSize <= 0 {
		maxSize = DefaultUploadMaxSize
	}
	return &UploadHandler{fileStorage: fs, maxSize: maxSize}
}

// receiveFile читает multipart-поле "file", проверяет размер и тип
// и сохраняет файл в объектное хранилище под ключом uuid+расширение.
// Возвращает ключ объекта, content-type и размер.
func (h *UploadHandler) receiveFile(r *http.Request) (objectKey, contentType string, size int64, err error) {
	// Ограничиваем объем, который уйдет в память при разборе формы
	if err = r.ParseMultipartForm(h.maxSize); err != nil {
		return "", "", 0, errFileTooLarge
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", 0, errNoFile
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("[UploadHandler] Ошибка закрытия загруженного файла: %v", closeErr)
		}
	}()

	if header.Size > h.maxSize {
		return "", "", 0, errFileTooLarge
	}

	contentType = header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return "", "", 0, errUnsupportedType
	}

	objectKey = uuid.NewString() + filepath.Ext(header.Filename)

	if err = h.fileStorage.UploadFile(r.Context(), objectKey, file, header.Size, contentType); err != nil {
		log.Printf("[UploadHandler] Ошибка сохранения файла '%s': %v", objectKey, err)
		return "", "", 0, err
	}

	return objectKey, contentType, header.Size, nil
}

// failUpload переводит ошибки приема файла в конверт ответа.
func failUpload(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoFile):
		api.Fail(w, api.CodeBadRequest, "Выберите файл")
	case errors.Is(err, errFileTooLarge):
		api.Fail(w, api.CodeBadRequest, "Файл слишком большой")
	case errors.Is(err, errUnsupportedType):
		api.Fail(w, api.CodeBadRequest, "Поддерживаются только изображения и видео")
	default:
		api.Fail(w, api.CodeInternal, "Загрузка не удалась")
	}
}

// UploadFile обрабатывает загрузку медиафайла для записи.
func (h *UploadHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	objectKey, contentType, size, err := h.receiveFile(r)
	if err != nil {
		failUpload(w, err)
		return
	}

	fileType := "video"
	if strings.HasPrefix(contentType, "image/") {
		fileType = "image"
	}

	api.OK(w, "Загрузка успешна", models.UploadFileResponse{
		URL:      "/uploads/" + objectKey,
		Type:     fileType,
		Size:     size,
		Duration: 0,
	})
}

// UploadAvatar обрабатывает загрузку аватара пользователя.
func (h *UploadHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	objectKey, _, _, err := h.receiveFile(r)
	if err != nil {
		failUpload(w, err)
		return
	}

	api.OK(w, "Загрузка успешна", models.UploadAvatarResponse{
		AvatarURL: "/uploads/" + objectKey,
	})
}

// Serve отдает ранее загруженный файл из объектного хранилища.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	objectKey := chi.URLParam(r, "object")

	reader, contentType, err := h.fileStorage.DownloadFile(r.Context(), objectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			api.Fail(w, api.CodeNotFound, "Файл не найден")
			return
		}
		log.Printf("[UploadHandler:Serve] Ошибка получения файла '%s': %v", objectKey, err)
		api.Fail(w, api.CodeInternal, "Не удалось получить файл")
		return
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			log.Printf("[UploadHandler:Serve] Ошибка закрытия файла '%s': %v", objectKey, closeErr)
		}
	}()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err = io.Copy(w, reader); err != nil {
		log.Printf("[UploadHandler:Serve] Ошибка отправки файла '%s': %v", objectKey, err)
	}
}

// Ошибки приема загружаемого файла.
var (
	errNoFile          = errors.New("файл не выбран")
	errFileTooLarge    = errors.New("файл превышает допустимый размер")
	errUnsupportedType = errors.New("неподдерживаемый тип файла")
)
