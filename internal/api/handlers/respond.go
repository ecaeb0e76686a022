package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/St1cky1/service-tasks/internal/api/middleware"
	"github.com/St1cky1/service-tasks/internal/entity"
)

// StatusFor - HTTP код для ошибки usecase слоя
func StatusFor(err error) int {
	var se *entity.StoreError
	switch {
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrUnauthorized), errors.Is(err, entity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrAccountExists):
		return http.StatusConflict
	case errors.As(err, &se):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Ошибка записи ответа: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Printf("❌ Внутренняя ошибка: %v", err)
		msg = "internal server error"
	case http.StatusServiceUnavailable:
		log.Printf("❌ Хранилище недоступно: %v", err)
		msg = "storage unavailable, try again later"
	case http.StatusUnauthorized:
		if errors.Is(err, entity.ErrInvalidCredentials) {
			msg = entity.ErrInvalidCredentials.Error()
		} else {
			msg = entity.ErrUnauthorized.Error()
		}
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &entity.ValidationError{Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// actor - личность из middleware.RequireAuth
func actor(r *http.Request) entity.Identity {
	id, _ := middleware.IdentityFrom(r.Context())
	return id
}
