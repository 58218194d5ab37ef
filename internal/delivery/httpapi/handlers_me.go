// internal/delivery/httpapi/handlers_me.go
package httpapi

import (
	"net/http"

	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

// meResponse - профиль вместе с активной локацией
type meResponse struct {
	*models.User
	ActiveLocationID *int `json:"activeLocationId"`
}

// handleGetMe возвращает профиль и настройки пользователя
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	resp := meResponse{User: user}
	if state, err := s.locationRepo.GetState(r.Context(), user.ID); err == nil && state != nil {
		resp.ActiveLocationID = state.ActiveLocationID
	}

	writeJSON(w, http.StatusOK, resp)
}

// patchMeRequest - частичное обновление настроек; nil означает
// "поле не менять"
type patchMeRequest struct {
	PresenceMode   *string `json:"presenceMode"`
	SummaryEnabled *bool   `json:"summaryEnabled"`
	HazardsEnabled *bool   `json:"hazardsEnabled"`
	WorkStart      *int    `json:"workStart"`
	WorkEnd        *int    `json:"workEnd"`
	LanguageCode   *string `json:"languageCode"`
}

// handlePatchMe обновляет настройки пользователя
func (s *Server) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req patchMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.PresenceMode != nil {
		switch *req.PresenceMode {
		case models.PresenceAuto, models.PresenceHome, models.PresenceOffice:
			user.PresenceMode = *req.PresenceMode
		default:
			writeError(w, http.StatusBadRequest, "presenceMode must be auto, home or office")
			return
		}
	}
	if req.SummaryEnabled != nil {
		user.SummaryEnabled = *req.SummaryEnabled
	}
	if req.HazardsEnabled != nil {
		user.HazardsEnabled = *req.HazardsEnabled
	}
	if req.WorkStart != nil {
		if *req.WorkStart < 0 || *req.WorkStart > 23 {
			writeError(w, http.StatusBadRequest, "workStart must be between 0 and 23")
			return
		}
		user.WorkStart = *req.WorkStart
	}
	if req.WorkEnd != nil {
		if *req.WorkEnd < 0 || *req.WorkEnd > 23 {
			writeError(w, http.StatusBadRequest, "workEnd must be between 0 and 23")
			return
		}
		user.WorkEnd = *req.WorkEnd
	}
	if req.LanguageCode != nil {
		user.LanguageCode = *req.LanguageCode
	}

	if err := s.userRepo.UpdateSettings(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
