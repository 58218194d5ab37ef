// application/services/evaluate/service.go
package evaluate

import (
	"context"
	"errors"
	"fmt"

	"meteovip-backend/internal/core/domain/forecast"
	"meteovip-backend/internal/core/domain/hazards"
	"meteovip-backend/internal/core/domain/plans"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
	"meteovip-backend/pkg/logger"
)

// ErrNoActiveLocation возвращается, когда у пользователя нет
// подтверждённой активной локации
var ErrNoActiveLocation = errors.New("active location is not set")

// ForecastProvider отдает почасовой ряд для координат
type ForecastProvider interface {
	GetHourlySeries(ctx context.Context, lat, lon float64) ([]forecast.ObservationPoint, error)
}

// LocationStore отдает состояние пользователя и его локации
type LocationStore interface {
	GetState(ctx context.Context, userID int) (*models.UserState, error)
	FindConfirmedByID(ctx context.Context, userID, id int) (*models.UserLocation, error)
}

// PlanStore отдает включённые планы пользователя
type PlanStore interface {
	ListEnabled(ctx context.Context, userID int) ([]models.UserPlan, error)
}

// LocationInfo - активная локация в ответе оценки
type LocationInfo struct {
	ID   int     `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Response - синхронная оценка активной локации пользователя
type Response struct {
	Location LocationInfo     `json:"location"`
	Hazards  []hazards.Hazard `json:"hazards"`
	Plans    []plans.Result   `json:"plans"`
}

// Service выполняет оценку по запросу из Mini App
type Service struct {
	locationStore LocationStore
	planStore     PlanStore
	provider      ForecastProvider
	opts          hazards.Options
}

// NewService создает сервис оценки
func NewService(locationStore LocationStore, planStore PlanStore, provider ForecastProvider, opts hazards.Options) *Service {
	return &Service{
		locationStore: locationStore,
		planStore:     planStore,
		provider:      provider,
		opts:          opts,
	}
}

// Evaluate считает опасности и оценки всех включённых планов для
// активной локации пользователя
func (s *Service) Evaluate(ctx context.Context, userID int) (*Response, error) {
	state, err := s.locationStore.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil || state.ActiveLocationID == nil {
		return nil, ErrNoActiveLocation
	}

	loc, err := s.locationStore.FindConfirmedByID(ctx, userID, *state.ActiveLocationID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNoActiveLocation
	}

	points, err := s.provider.GetHourlySeries(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hourly series: %w", err)
	}

	userPlans, err := s.planStore.ListEnabled(ctx, userID)
	if err != nil {
		return nil, err
	}

	response := &Response{
		Location: LocationInfo{ID: loc.ID, Name: loc.Name, Lat: loc.Lat, Lon: loc.Lon},
		Hazards:  hazards.Detect(points, s.opts),
		Plans:    make([]plans.Result, 0, len(userPlans)),
	}

	for _, p := range userPlans {
		response.Plans = append(response.Plans, evaluatePlan(p, points))
	}

	return response, nil
}

// evaluatePlan оценивает один план; битая конфигурация закрывает план
// вместо того, чтобы ронять весь ответ
func evaluatePlan(p models.UserPlan, points []forecast.ObservationPoint) plans.Result {
	cfg, err := plans.ParseConfig(p.ConfigJSON)
	if err != nil {
		logger.Warn("⚠️ [Evaluate] План %d: конфигурация не разобрана: %v", p.ID, err)
		return plans.Result{
			PlanID:           p.ID,
			Name:             p.Name,
			StatusNow:        "bad",
			ReasonsNow:       []string{"plan config is invalid"},
			MinWindowMinutes: p.MinWindowMinutes,
			Windows:          []plans.Window{},
		}
	}

	return plans.Evaluate(plans.Plan{
		ID:               p.ID,
		Name:             p.Name,
		MinWindowMinutes: p.MinWindowMinutes,
		Config:           cfg,
	}, points)
}
