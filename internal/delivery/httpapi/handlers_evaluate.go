// internal/delivery/httpapi/handlers_evaluate.go
package httpapi

import (
	"errors"
	"net/http"

	"meteovip-backend/application/services/evaluate"
	"meteovip-backend/internal/infrastructure/weather/openmeteo"
	"meteovip-backend/pkg/logger"
)

// handleEvaluate - синхронная оценка активной локации: опасности плюс
// результаты всех включённых планов
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	resp, err := s.evaluateSvc.Evaluate(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, evaluate.ErrNoActiveLocation):
			writeError(w, http.StatusBadRequest, "active location is not set")
		case errors.Is(err, openmeteo.ErrUpstreamUnavailable):
			writeError(w, http.StatusBadGateway, "weather provider is unavailable")
		default:
			logger.Error("❌ [HTTP] Оценка для пользователя %d не удалась: %v", user.ID, err)
			writeError(w, http.StatusInternalServerError, "evaluation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleWeatherSummary возвращает сводку по активной локации для
// главного экрана Mini App
func (s *Server) handleWeatherSummary(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	state, err := s.locationRepo.GetState(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user state")
		return
	}
	if state == nil || state.ActiveLocationID == nil {
		writeError(w, http.StatusBadRequest, "active location is not set")
		return
	}

	loc, err := s.locationRepo.FindConfirmedByID(r.Context(), user.ID, *state.ActiveLocationID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return
	}
	if loc == nil {
		writeError(w, http.StatusBadRequest, "active location is not set")
		return
	}

	summary, err := s.provider.GetDailySummary(r.Context(), loc.Lat, loc.Lon, loc.Timezone)
	if err != nil {
		if errors.Is(err, openmeteo.ErrUpstreamUnavailable) {
			writeError(w, http.StatusBadGateway, "weather provider is unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleTick запускает один проход оркестратора по внешнему триггеру
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	summary, err := s.tickSvc.Run(r.Context())
	if err != nil {
		logger.Error("❌ [HTTP] Внешний тик не удался: %v", err)
		writeError(w, http.StatusInternalServerError, "tick failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
