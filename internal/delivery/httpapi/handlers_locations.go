// internal/delivery/httpapi/handlers_locations.go
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
	"meteovip-backend/pkg/logger"
)

// listLocationsResponse - локации плюс текущая активная
type listLocationsResponse struct {
	Locations        []models.UserLocation `json:"locations"`
	ActiveLocationID *int                  `json:"activeLocationId"`
}

// handleListLocations возвращает подтверждённые локации пользователя
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	list, err := s.locationRepo.ListConfirmed(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}

	state, err := s.locationRepo.GetState(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user state")
		return
	}

	resp := listLocationsResponse{Locations: list}
	if list == nil {
		resp.Locations = []models.UserLocation{}
	}
	if state != nil {
		resp.ActiveLocationID = state.ActiveLocationID
	}

	writeJSON(w, http.StatusOK, resp)
}

// createLocationRequest - новая именованная точка
type createLocationRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// handleCreateLocation создает именованную локацию. Первая локация
// пользователя сразу становится активной.
func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validCoordinates(req.Lat, req.Lon) {
		writeError(w, http.StatusBadRequest, "coordinates are out of range")
		return
	}

	loc := &models.UserLocation{
		UserID:   user.ID,
		Type:     models.LocationTypePoint,
		Name:     req.Name,
		Lat:      req.Lat,
		Lon:      req.Lon,
		Timezone: s.provider.ResolveTimezone(r.Context(), req.Lat, req.Lon),
	}

	if err := s.locationRepo.Create(r.Context(), loc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	state, err := s.locationRepo.GetState(r.Context(), user.ID)
	if err == nil && (state == nil || state.ActiveLocationID == nil) {
		if err := s.locationRepo.SetActive(r.Context(), user.ID, loc); err != nil {
			logger.Warn("⚠️ [HTTP] Не удалось сделать локацию %d активной: %v", loc.ID, err)
		}
	}

	writeJSON(w, http.StatusCreated, loc)
}

// handleActivateLocation делает подтверждённую локацию активной
func (s *Server) handleActivateLocation(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "location id is invalid")
		return
	}

	loc, err := s.locationRepo.FindConfirmedByID(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load location")
		return
	}
	if loc == nil {
		writeError(w, http.StatusNotFound, "location not found")
		return
	}

	if err := s.locationRepo.SetActive(r.Context(), user.ID, loc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to activate location")
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// updateCurrentLocationRequest - свежие координаты устройства
type updateCurrentLocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// handleUpdateCurrentLocation сохраняет координаты устройства как
// pending локацию. Рабочей она станет только после подтверждения.
func (s *Server) handleUpdateCurrentLocation(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req updateCurrentLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validCoordinates(req.Lat, req.Lon) {
		writeError(w, http.StatusBadRequest, "coordinates are out of range")
		return
	}

	loc := &models.UserLocation{
		UserID:   user.ID,
		Type:     models.LocationTypeCurrent,
		Name:     "Текущее местоположение",
		Lat:      req.Lat,
		Lon:      req.Lon,
		Timezone: s.provider.ResolveTimezone(r.Context(), req.Lat, req.Lon),
	}

	if err := s.locationRepo.ReplacePendingCurrent(r.Context(), loc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save current location")
		return
	}

	writeJSON(w, http.StatusOK, loc)
}

// handleConfirmCurrentLocation подтверждает pending локацию и делает
// её активной
func (s *Server) handleConfirmCurrentLocation(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	pending, err := s.locationRepo.FindPendingCurrent(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load pending location")
		return
	}
	if pending == nil {
		writeError(w, http.StatusNotFound, "no pending location to confirm")
		return
	}

	confirmed, err := s.locationRepo.ConfirmPending(r.Context(), pending.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm location")
		return
	}

	if err := s.locationRepo.SetActive(r.Context(), user.ID, confirmed); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to activate location")
		return
	}

	writeJSON(w, http.StatusOK, confirmed)
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
