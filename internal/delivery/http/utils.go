package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// maxBodySize - ограничение на размер тела запроса
const maxBodySize = 1 << 20

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondSuccess отправляет успешный ответ в общем конверте
func respondSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	respondJSON(w, code, map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// errorStatus связывает доменные ошибки с HTTP статусом и сообщением для клиента
var errorStatus = []struct {
	err     error
	code    int
	message string
}{
	{domain.ErrTripNotFound, http.StatusNotFound, "Trip not found"},
	{domain.ErrTripNotFoundOrForbidden, http.StatusNotFound, "Trip not found or unauthorized"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{domain.ErrVehicleNotFound, http.StatusNotFound, "Vehicle not found in host's profile"},
	{domain.ErrAlreadyJoined, http.StatusConflict, "User already joined this trip"},
	{domain.ErrNoSeatsAvailable, http.StatusConflict, "No seats available"},
	{domain.ErrHostCannotLeave, http.StatusUnauthorized, "Host cannot leave the trip"},
	{domain.ErrNotParticipant, http.StatusUnauthorized, "User is not a participant of this trip"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{domain.ErrNotTripHost, http.StatusForbidden, "Only the host can perform this action"},
	{domain.ErrInvalidTripStatus, http.StatusBadRequest, "Invalid trip status"},
	{domain.ErrInvalidLocation, http.StatusBadRequest, "Invalid location"},
	{domain.ErrInvalidRadius, http.StatusBadRequest, "Radius must be positive"},
	{domain.ErrInvalidDateRange, http.StatusBadRequest, "End date must not precede start date"},
	{domain.ErrInvalidTripData, http.StatusBadRequest, "Invalid trip data"},
}

// respondServiceError переводит ошибку сервиса в HTTP ответ
// Возвращает true, если ошибка неизвестна и была отдана как 500
func respondServiceError(w http.ResponseWriter, err error) bool {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondError(w, e.code, e.message)
			return false
		}
	}
	respondError(w, http.StatusInternalServerError, "Internal server error")
	return true
}

// readBody читает тело запроса с ограничением размера
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}

// decodeJSON разбирает тело запроса в v
func decodeJSON(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}

// getPathUUID извлекает UUID параметр из пути URL
func getPathUUID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}
