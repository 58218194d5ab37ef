// internal/delivery/httpapi/handlers_plans.go
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"meteovip-backend/internal/core/domain/plans"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

// listPlansResponse - планы пользователя вместе с доступными шаблонами
type listPlansResponse struct {
	Plans     []models.UserPlan `json:"plans"`
	Templates []plans.Template  `json:"templates"`
}

// handleListPlans возвращает все планы пользователя и шаблоны
func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	list, err := s.planRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}
	if list == nil {
		list = []models.UserPlan{}
	}

	writeJSON(w, http.StatusOK, listPlansResponse{
		Plans:     list,
		Templates: plans.DefaultTemplates(),
	})
}

// handleListTemplates возвращает стандартные шаблоны планов
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, plans.DefaultTemplates())
}

// createFromTemplateRequest - создание плана из шаблона
type createFromTemplateRequest struct {
	TemplateID string `json:"templateId"`
}

// handleCreatePlanFromTemplate создает план из стандартного шаблона
func (s *Server) handleCreatePlanFromTemplate(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createFromTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tpl, ok := plans.FindTemplate(req.TemplateID)
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	configJSON, err := json.Marshal(tpl.DefaultConfig)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to serialize template config")
		return
	}

	plan := &models.UserPlan{
		UserID:           user.ID,
		Name:             tpl.Name,
		Enabled:          true,
		MinWindowMinutes: tpl.MinWindowMinutes,
		ConfigJSON:       configJSON,
	}

	if err := s.planRepo.Create(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create plan")
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

// patchPlanRequest - частичное обновление плана
type patchPlanRequest struct {
	Name             *string          `json:"name"`
	Enabled          *bool            `json:"enabled"`
	MinWindowMinutes *int             `json:"minWindowMinutes"`
	ConfigJSON       *json.RawMessage `json:"configJson"`
}

// handlePatchPlan обновляет план; новая конфигурация проверяется на
// разбор до сохранения
func (s *Server) handlePatchPlan(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "plan id is invalid")
		return
	}

	plan, err := s.planRepo.FindByID(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	var req patchPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			writeError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		plan.Name = *req.Name
	}
	if req.Enabled != nil {
		plan.Enabled = *req.Enabled
	}
	if req.MinWindowMinutes != nil {
		if *req.MinWindowMinutes < 0 {
			writeError(w, http.StatusBadRequest, "minWindowMinutes must not be negative")
			return
		}
		plan.MinWindowMinutes = *req.MinWindowMinutes
	}
	if req.ConfigJSON != nil {
		if _, err := plans.ParseConfig(*req.ConfigJSON); err != nil {
			writeError(w, http.StatusBadRequest, "configJson is invalid")
			return
		}
		plan.ConfigJSON = *req.ConfigJSON
	}

	if err := s.planRepo.Update(r.Context(), plan); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update plan")
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// handleDeletePlan удаляет план пользователя
func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "plan id is invalid")
		return
	}

	deleted, err := s.planRepo.Delete(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete plan")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
