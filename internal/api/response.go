// Package api содержит единый формат ответа сервиса.
//
// Все ответы, включая ошибки, возвращаются с HTTP-статусом 200;
// фактический результат операции передается в поле Code конверта.
package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Коды результата операции, передаваемые в поле Code конверта.
const (
	CodeOK           = 200
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeInternal     = 500
)

// Envelope - единый конверт ответа: {code, message, data}.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Write сериализует конверт в ответ. Транспортный статус всегда 200 OK.
func Write(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Envelope{Code: code, Message: message, Data: data}); err != nil {
		log.Printf("[API] Ошибка кодирования ответа: %v", err)
	}
}

// OK отправляет успешный ответ с данными.
func OK(w http.ResponseWriter, message string, data any) {
	Write(w, CodeOK, message, data)
}

// Fail отправляет ответ об ошибке с data = null.
func Fail(w http.ResponseWriter, code int, message string) {
	Write(w, code, message, nil)
}
