// internal/delivery/httpapi/handlers_alerts.go
package httpapi

import (
	"net/http"
	"strconv"

	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

const (
	defaultAlertsLimit = 20
	maxAlertsLimit     = 100
)

// listAlertsResponse - журнал уведомлений пользователя
type listAlertsResponse struct {
	Alerts []models.AlertEvent `json:"alerts"`
}

// handleListAlerts возвращает историю отправленных уведомлений
// пользователя, новые сверху
func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	limit := defaultAlertsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = parsed
	}
	if limit > maxAlertsLimit {
		limit = maxAlertsLimit
	}

	list, err := s.alertRepo.ListRecentByUser(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	if list == nil {
		list = []models.AlertEvent{}
	}

	writeJSON(w, http.StatusOK, listAlertsResponse{Alerts: list})
}
