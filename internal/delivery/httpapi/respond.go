// internal/delivery/httpapi/respond.go
package httpapi

import (
	"encoding/json"
	"net/http"

	"meteovip-backend/pkg/logger"
)

// errorResponse - единый формат ошибок API
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON сериализует ответ; ошибки сериализации только логируются,
// статус к этому моменту уже отправлен
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("❌ [HTTP] Не удалось сериализовать ответ: %v", err)
	}
}

// writeError отправляет ошибку в едином формате
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON разбирает тело запроса с ограничением размера
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid json")
		return false
	}
	return true
}
