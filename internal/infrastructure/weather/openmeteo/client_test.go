// internal/infrastructure/weather/openmeteo/client_test.go
package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hourlyBody = `{
	"hourly": {
		"time": ["2026-03-10T00:00", "2026-03-10T01:00", "2026-03-10T02:00"],
		"temperature_2m": [1.5, null, -3.0],
		"apparent_temperature": [0.0, null, -7.0],
		"precipitation_probability": [10, 20, null],
		"precipitation": [0.0, 6.5, null],
		"windspeed_10m": [36, null, 18],
		"windgusts_10m": [72, 90, null],
		"weathercode": [3, 95, null],
		"visibility": [10000, null, 500]
	}
}`

func TestGetHourlySeriesConvertsUnits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("forecast_days"))
		assert.Equal(t, "UTC", r.URL.Query().Get("timezone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hourlyBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	points, err := client.GetHourlySeries(context.Background(), 55.75, 37.62)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// 72 км/ч -> 20 м/с, 36 км/ч -> 10 м/с
	require.NotNil(t, points[0].GustMs)
	assert.InDelta(t, 20.0, *points[0].GustMs, 1e-9)
	require.NotNil(t, points[0].WindMs)
	assert.InDelta(t, 10.0, *points[0].WindMs, 1e-9)

	// null провайдера остаётся nil, не нулём
	assert.Nil(t, points[1].TemperatureC)
	assert.Nil(t, points[1].WindMs)
	assert.Nil(t, points[2].GustMs)

	// Код 95 поднимает флаг грозы
	assert.False(t, points[0].Thunderstorm)
	assert.True(t, points[1].Thunderstorm)
	assert.False(t, points[2].Thunderstorm)

	// Видимость из метров в километры
	require.NotNil(t, points[0].VisibilityKm)
	assert.InDelta(t, 10.0, *points[0].VisibilityKm, 1e-9)
	require.NotNil(t, points[2].VisibilityKm)
	assert.InDelta(t, 0.5, *points[2].VisibilityKm, 1e-9)

	// Метки времени разобраны как UTC по часу
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), points[0].Time)
	assert.Equal(t, time.Hour, points[1].Time.Sub(points[0].Time))
}

func TestGetHourlySeriesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.GetHourlySeries(context.Background(), 0, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestGetHourlySeriesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // соединение будет отклонено

	client := NewClient(server.URL, time.Second)
	_, err := client.GetHourlySeries(context.Background(), 0, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestGetDailySummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("forecast_days"))
		assert.Equal(t, "Europe/Moscow", r.URL.Query().Get("timezone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"timezone": "Europe/Moscow",
			"current": {"temperature_2m": 4.2, "weather_code": 61},
			"daily": {
				"time": ["2026-03-10", "2026-03-11", "2026-03-12"],
				"temperature_2m_max": [5.0, 6.1, 3.9],
				"temperature_2m_min": [-1.0, 0.2, -2.5],
				"precipitation_sum": [0.4, 0.0, 2.1],
				"weather_code": [61, 3, 71]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	summary, err := client.GetDailySummary(context.Background(), 55.75, 37.62, "Europe/Moscow")
	require.NoError(t, err)

	require.NotNil(t, summary.Current.TemperatureC)
	assert.InDelta(t, 4.2, *summary.Current.TemperatureC, 1e-9)
	require.Len(t, summary.Daily.Time, 3)
	assert.Equal(t, "Europe/Moscow", summary.Timezone)
}

func TestResolveTimezoneFallsBackToUTC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	assert.Equal(t, "UTC", client.ResolveTimezone(context.Background(), 0, 0))
}

func TestResolveTimezone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timezone": "Asia/Tokyo"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	assert.Equal(t, "Asia/Tokyo", client.ResolveTimezone(context.Background(), 35.68, 139.69))
}
