// application/services/tick/service_test.go
package tick

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteovip-backend/internal/core/domain/forecast"
	"meteovip-backend/internal/core/domain/hazards"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/users"
	"meteovip-backend/internal/observability"
)

type fakeUserStore struct {
	list []users.UserWithState
	err  error
}

func (f *fakeUserStore) ListAllWithState(_ context.Context) ([]users.UserWithState, error) {
	return f.list, f.err
}

type fakeLocationStore struct {
	locations map[int]*models.UserLocation
}

func (f *fakeLocationStore) FindConfirmedByID(_ context.Context, _, id int) (*models.UserLocation, error) {
	return f.locations[id], nil
}

type fakeAlertStore struct {
	events map[string]*models.AlertEvent
	err    error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{events: make(map[string]*models.AlertEvent)}
}

func (f *fakeAlertStore) Upsert(_ context.Context, event *models.AlertEvent) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, exists := f.events[event.DedupeKey]; exists {
		return false, nil
	}
	f.events[event.DedupeKey] = event
	return true, nil
}

type fakeProvider struct {
	points map[float64][]forecast.ObservationPoint
	err    map[float64]error
}

func (f *fakeProvider) GetHourlySeries(_ context.Context, lat, _ float64) ([]forecast.ObservationPoint, error) {
	if err := f.err[lat]; err != nil {
		return nil, err
	}
	return f.points[lat], nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func gustSeries() []forecast.ObservationPoint {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	points := make([]forecast.ObservationPoint, 8)
	for i := range points {
		points[i] = forecast.ObservationPoint{Time: base.Add(time.Duration(i) * time.Hour)}
		points[i].GustMs = forecast.Float(5)
	}
	// Часы 3..5 выше порога предупреждения
	for i := 3; i <= 5; i++ {
		points[i].GustMs = forecast.Float(18)
	}
	return points
}

// mixedSeries содержит два раздельных интервала: порывы в часы 0..1 и
// сильный дождь в часы 4..5
func mixedSeries() []forecast.ObservationPoint {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	points := make([]forecast.ObservationPoint, 8)
	for i := range points {
		points[i] = forecast.ObservationPoint{Time: base.Add(time.Duration(i) * time.Hour)}
		points[i].GustMs = forecast.Float(5)
		points[i].PrecipMm = forecast.Float(0)
	}
	points[0].GustMs = forecast.Float(18)
	points[1].GustMs = forecast.Float(18)
	points[4].PrecipMm = forecast.Float(6)
	points[5].PrecipMm = forecast.Float(6)
	return points
}

func intPtr(v int) *int { return &v }

func testUser(id int, telegramID int64, locID *int, hazardsEnabled bool) users.UserWithState {
	u := users.UserWithState{ActiveLocationID: locID}
	u.ID = id
	u.TelegramID = telegramID
	u.HazardsEnabled = hazardsEnabled
	return u
}

func TestRunSendsNewHazardOnce(t *testing.T) {
	userStore := &fakeUserStore{list: []users.UserWithState{
		testUser(1, 100500, intPtr(7), true),
	}}
	locationStore := &fakeLocationStore{locations: map[int]*models.UserLocation{
		7: {ID: 7, UserID: 1, Name: "Дом", Lat: 55.75, Lon: 37.62},
	}}
	alertStore := newFakeAlertStore()
	provider := &fakeProvider{points: map[float64][]forecast.ObservationPoint{55.75: gustSeries()}}
	sender := &fakeSender{}

	svc := NewService(userStore, locationStore, alertStore, provider, sender,
		hazards.DefaultOptions(), observability.NewMetricsForTesting())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.UsersProcessed)
	assert.Equal(t, 1, summary.HazardsSent)
	assert.Equal(t, 0, summary.UserErrors)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(100500), sender.sent[0].chatID)
	assert.Contains(t, sender.sent[0].text, "Опасность: WIND_GUST")
	assert.Contains(t, sender.sent[0].text, "Уровень: warning")
	assert.Contains(t, sender.sent[0].text, "Локация: Дом")

	// Повторный проход: тот же интервал уже уведомлён
	summary, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersProcessed)
	assert.Equal(t, 0, summary.HazardsSent)
	require.Len(t, sender.sent, 1)
}

func TestRunIsolatesUserErrors(t *testing.T) {
	userStore := &fakeUserStore{list: []users.UserWithState{
		testUser(1, 111, intPtr(1), true),
		testUser(2, 222, intPtr(2), true),
	}}
	locationStore := &fakeLocationStore{locations: map[int]*models.UserLocation{
		1: {ID: 1, UserID: 1, Name: "Сломанная", Lat: 10},
		2: {ID: 2, UserID: 2, Name: "Рабочая", Lat: 20},
	}}
	provider := &fakeProvider{
		points: map[float64][]forecast.ObservationPoint{20: gustSeries()},
		err:    map[float64]error{10: errors.New("boom")},
	}
	sender := &fakeSender{}

	svc := NewService(userStore, locationStore, newFakeAlertStore(), provider, sender,
		hazards.DefaultOptions(), observability.NewMetricsForTesting())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UserErrors)
	assert.Equal(t, 1, summary.UsersProcessed)
	assert.Equal(t, 1, summary.HazardsSent)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(222), sender.sent[0].chatID)
}

func TestRunSendFailureIsolatedPerHazard(t *testing.T) {
	userStore := &fakeUserStore{list: []users.UserWithState{
		testUser(1, 111, intPtr(7), true),
	}}
	locationStore := &fakeLocationStore{locations: map[int]*models.UserLocation{
		7: {ID: 7, UserID: 1, Name: "Дом", Lat: 55.75},
	}}
	alertStore := newFakeAlertStore()
	provider := &fakeProvider{points: map[float64][]forecast.ObservationPoint{55.75: mixedSeries()}}
	sender := &fakeSender{err: errors.New("telegram down")}

	svc := NewService(userStore, locationStore, alertStore, provider, sender,
		hazards.DefaultOptions(), observability.NewMetricsForTesting())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	// Сбой доставки не считается ошибкой пользователя и не прерывает
	// обработку остальных опасностей
	assert.Equal(t, 0, summary.UserErrors)
	assert.Equal(t, 1, summary.UsersProcessed)
	assert.Equal(t, 0, summary.HazardsSent)
	assert.Equal(t, 2, summary.SendFailures)
	// Оба события записаны до попыток доставки и остаются в журнале
	assert.Len(t, alertStore.events, 2)

	// После восстановления доставки повторной отправки нет - ключи заняты
	sender.err = nil
	summary, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.HazardsSent)
	assert.Equal(t, 0, summary.SendFailures)
	assert.Empty(t, sender.sent)
}

func TestRunSkipsIneligibleUsers(t *testing.T) {
	userStore := &fakeUserStore{list: []users.UserWithState{
		testUser(1, 111, intPtr(7), false), // уведомления выключены
		testUser(2, 222, nil, true),        // нет активной локации
		testUser(3, 333, intPtr(99), true), // локация удалена
	}}
	locationStore := &fakeLocationStore{locations: map[int]*models.UserLocation{}}
	provider := &fakeProvider{}
	sender := &fakeSender{}

	svc := NewService(userStore, locationStore, newFakeAlertStore(), provider, sender,
		hazards.DefaultOptions(), observability.NewMetricsForTesting())

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UsersProcessed) // только пользователь 3 дошёл до обработки
	assert.Equal(t, 0, summary.HazardsSent)
	assert.Equal(t, 0, summary.UserErrors)
	assert.Empty(t, sender.sent)
}

func TestDedupeKeyIsStable(t *testing.T) {
	from := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	hazard := hazards.Hazard{
		Type:     hazards.TypeWindGust,
		Severity: hazards.SeverityWarning,
		From:     from,
		To:       to,
	}

	key := DedupeKey(1, 7, hazard)
	assert.Equal(t, "hazard:1:7:WIND_GUST:2026-03-10T03:00:00Z:2026-03-10T05:00:00Z:warning", key)

	// Сдвиг границы интервала - это новое событие
	hazard.To = to.Add(time.Hour)
	assert.NotEqual(t, key, DedupeKey(1, 7, hazard))
}
