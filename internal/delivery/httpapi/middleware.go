// internal/delivery/httpapi/middleware.go
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"meteovip-backend/internal/delivery/telegram"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
	"meteovip-backend/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "meteovip.user"

// userFromContext достает пользователя, положенного authMiddleware
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// corsMiddleware разрешает запросы из Mini App.
// Пустой список origin'ов означает "разрешить всем".
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data, X-Jobs-Secret")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.CorsOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.CorsOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// authMiddleware проверяет initData Mini App и кладет пользователя в
// контекст запроса. Пользователь создается при первом обращении.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initData := extractInitData(r)
		if initData == "" {
			writeError(w, http.StatusUnauthorized, "init data is required")
			return
		}

		var parsed *telegram.InitData
		var err error
		if s.cfg.TelegramTestMode {
			// Локальная разработка без подписи
			parsed, err = telegram.ParseInitData(initData)
		} else {
			parsed, err = telegram.ValidateInitData(initData, s.cfg.BotToken, time.Now())
		}
		if err != nil {
			if errors.Is(err, telegram.ErrInitDataExpired) {
				writeError(w, http.StatusUnauthorized, "init data is expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "init data is invalid")
			return
		}

		user, err := s.userRepo.EnsureByTelegramID(r.Context(),
			parsed.User.ID, parsed.User.Username, parsed.User.FirstName, parsed.User.LanguageCode)
		if err != nil {
			logger.Error("❌ [HTTP] Не удалось загрузить пользователя tg=%d: %v", parsed.User.ID, err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractInitData принимает initData из Authorization: tma <raw>
// или из заголовка X-Telegram-Init-Data
func extractInitData(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "tma ") {
		return strings.TrimPrefix(auth, "tma ")
	}
	return r.Header.Get("X-Telegram-Init-Data")
}

// jobsMiddleware защищает внешний триггер тика общим секретом и
// ограничением частоты
func (s *Server) jobsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.JobsSecret == "" {
			writeError(w, http.StatusForbidden, "external tick trigger is disabled")
			return
		}

		secret := r.Header.Get("X-Jobs-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.JobsSecret)) != 1 {
			writeError(w, http.StatusForbidden, "invalid jobs secret")
			return
		}

		if s.cache != nil {
			allowed, _, err := s.cache.CheckRateLimit(r.Context(), "jobs:tick", 2, time.Minute)
			if err != nil {
				logger.Warn("⚠️ [HTTP] Rate limit недоступен, пропускаем запрос: %v", err)
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "tick is rate limited")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
