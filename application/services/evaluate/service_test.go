// application/services/evaluate/service_test.go
package evaluate

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteovip-backend/internal/core/domain/forecast"
	"meteovip-backend/internal/core/domain/hazards"
	"meteovip-backend/internal/core/domain/plans"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

type fakeLocationStore struct {
	state    *models.UserState
	location *models.UserLocation
}

func (f *fakeLocationStore) GetState(_ context.Context, _ int) (*models.UserState, error) {
	return f.state, nil
}

func (f *fakeLocationStore) FindConfirmedByID(_ context.Context, _, _ int) (*models.UserLocation, error) {
	return f.location, nil
}

type fakePlanStore struct {
	plans []models.UserPlan
}

func (f *fakePlanStore) ListEnabled(_ context.Context, _ int) ([]models.UserPlan, error) {
	return f.plans, nil
}

type fakeProvider struct {
	points []forecast.ObservationPoint
}

func (f *fakeProvider) GetHourlySeries(_ context.Context, _, _ float64) ([]forecast.ObservationPoint, error) {
	return f.points, nil
}

func intPtr(v int) *int { return &v }

func calmSeries(n int) []forecast.ObservationPoint {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	points := make([]forecast.ObservationPoint, n)
	for i := range points {
		points[i] = forecast.ObservationPoint{
			Time:         base.Add(time.Duration(i) * time.Hour),
			WindMs:       forecast.Float(2),
			GustMs:       forecast.Float(20),
			TemperatureC: forecast.Float(10),
		}
	}
	return points
}

func TestEvaluateNoActiveLocation(t *testing.T) {
	svc := NewService(&fakeLocationStore{}, &fakePlanStore{}, &fakeProvider{}, hazards.DefaultOptions())

	_, err := svc.Evaluate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoActiveLocation)

	// Состояние есть, но локация удалена
	svc = NewService(&fakeLocationStore{
		state: &models.UserState{UserID: 1, ActiveLocationID: intPtr(7)},
	}, &fakePlanStore{}, &fakeProvider{}, hazards.DefaultOptions())

	_, err = svc.Evaluate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoActiveLocation)
}

func TestEvaluateCombinesHazardsAndPlans(t *testing.T) {
	plans.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	defer plans.SetClock(nil)

	locationStore := &fakeLocationStore{
		state:    &models.UserState{UserID: 1, ActiveLocationID: intPtr(7)},
		location: &models.UserLocation{ID: 7, UserID: 1, Name: "Дом", Lat: 55.75, Lon: 37.62},
	}
	planStore := &fakePlanStore{plans: []models.UserPlan{
		{
			ID:               3,
			UserID:           1,
			Name:             "Прогулка",
			MinWindowMinutes: 60,
			ConfigJSON:       []byte(`{"modules":[{"type":"wind_max_ms","max":8}]}`),
		},
	}}
	provider := &fakeProvider{points: calmSeries(4)}

	svc := NewService(locationStore, planStore, provider, hazards.DefaultOptions())
	resp, err := svc.Evaluate(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 7, resp.Location.ID)
	assert.Equal(t, "Дом", resp.Location.Name)

	// Порывы 20 м/с все 4 часа - один интервал WIND_GUST
	require.Len(t, resp.Hazards, 1)
	assert.Equal(t, hazards.TypeWindGust, resp.Hazards[0].Type)

	// Ветер 2 м/с проходит план, порывы план не ограничивает
	require.Len(t, resp.Plans, 1)
	assert.Equal(t, 3, resp.Plans[0].PlanID)
	assert.Equal(t, "good", resp.Plans[0].StatusNow)
	require.Len(t, resp.Plans[0].Windows, 1)
	assert.Equal(t, 240, resp.Plans[0].Windows[0].DurationMin)
}

func TestEvaluateBrokenPlanConfigFailsClosed(t *testing.T) {
	plans.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	defer plans.SetClock(nil)

	locationStore := &fakeLocationStore{
		state:    &models.UserState{UserID: 1, ActiveLocationID: intPtr(7)},
		location: &models.UserLocation{ID: 7, UserID: 1, Name: "Дом"},
	}
	planStore := &fakePlanStore{plans: []models.UserPlan{
		{ID: 5, UserID: 1, Name: "Битый", ConfigJSON: []byte(`{"modules":`)},
	}}

	svc := NewService(locationStore, planStore, &fakeProvider{points: calmSeries(2)}, hazards.DefaultOptions())
	resp, err := svc.Evaluate(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, resp.Plans, 1)
	assert.Equal(t, "bad", resp.Plans[0].StatusNow)
	assert.Equal(t, []string{"plan config is invalid"}, resp.Plans[0].ReasonsNow)
	assert.Empty(t, resp.Plans[0].Windows)
}
