package models

import "time"

// Post представляет опубликованную пользователем запись ("момент").
// Поле Username - денормализованный снимок имени автора на момент публикации.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Username  string    `db:"username" json:"username"`
	Content   string    `db:"content" json:"content"`
	Tags      string    `db:"tags" json:"tags"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CreatePostRequest представляет тело запроса на публикацию записи.
type CreatePostRequest struct {
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

// UpdatePostRequest представляет тело запроса на полное обновление записи.
type UpdatePostRequest struct {
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

// PatchPostRequest представляет тело запроса на частичное обновление.
// Указатели позволяют отличить отсутствующее поле от пустого значения.
type PatchPostRequest struct {
	Content *string `json:"content,omitempty"`
	Tags    *string `json:"tags,omitempty"`
}

// PostList представляет данные ответа со списком записей.
type PostList struct {
	List  []Post `json:"list"`
	Total int    `json:"total"`
}
