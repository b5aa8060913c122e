package models

// UploadFileResponse представляет данные ответа при загрузке медиафайла.
// Width/Height/Duration сервер не вычисляет: размеры отдаются как null,
// длительность - как 0 (клиент при необходимости определяет их сам).
type UploadFileResponse struct {
	URL      string `json:"url"`
	Type     string `json:"type"` // "image" или "video"
	Size     int64  `json:"size"`
	Width    *int   `json:"width"`
	Height   *int   `json:"height"`
	Duration int    `json:"duration"`
}

// UploadAvatarResponse представляет данные ответа при загрузке аватара.
type UploadAvatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
}
