package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/jwt"
	"github.com/google/uuid"
)

// contextKey - тип для ключей контекста
type contextKey string

const (
	// UserIDKey - ключ для сохранения ID пользователя в контексте
	UserIDKey contextKey = "user_id"
)

// TokenValidator проверяет токен и возвращает claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware проверяет наличие и валидность JWT токена
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			userID, err := authenticate(tokens, authHeader)
			if err != nil {
				respondError(w, http.StatusUnauthorized, authErrorMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth кладет пользователя в контекст, если передан валидный токен
// Без заголовка запрос проходит анонимно, с невалидным токеном отклоняется
func OptionalAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authenticate(tokens, authHeader)
			if err != nil {
				respondError(w, http.StatusUnauthorized, authErrorMessage(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// authenticate разбирает заголовок "Bearer <token>" и извлекает ID пользователя
func authenticate(tokens TokenValidator, authHeader string) (uuid.UUID, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return uuid.Nil, errInvalidHeader
	}

	claims, err := tokens.ValidateToken(parts[1])
	if err != nil {
		return uuid.Nil, err
	}

	return claims.UserID()
}

var errInvalidHeader = errors.New("invalid authorization header format")

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, errInvalidHeader):
		return "Invalid authorization header format"
	case errors.Is(err, domain.ErrTokenExpired):
		return "Token expired"
	default:
		return "Invalid token"
	}
}

// WithUserID кладет ID пользователя в контекст
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"success":false,"error":"` + message + `"}`))
}
