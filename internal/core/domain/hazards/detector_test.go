// internal/core/domain/hazards/detector_test.go
package hazards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meteovip-backend/internal/core/domain/forecast"
)

func hourlyPoints(n int) []forecast.ObservationPoint {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	points := make([]forecast.ObservationPoint, n)
	for i := range points {
		points[i] = forecast.ObservationPoint{Time: base.Add(time.Duration(i) * time.Hour)}
	}
	return points
}

func TestDetectGroupsMaximalRuns(t *testing.T) {
	// Порывы: [нет, да, да, нет, да] -> два интервала [1..2] и [4..4]
	points := hourlyPoints(5)
	points[1].GustMs = forecast.Float(18)
	points[2].GustMs = forecast.Float(19)
	points[3].GustMs = forecast.Float(5)
	points[4].GustMs = forecast.Float(17)

	result := Detect(points, DefaultOptions())

	require.Len(t, result, 2)
	assert.Equal(t, TypeWindGust, result[0].Type)
	assert.Equal(t, points[1].Time, result[0].From)
	assert.Equal(t, points[2].Time, result[0].To)
	assert.Equal(t, points[4].Time, result[1].From)
	assert.Equal(t, points[4].Time, result[1].To)
}

func TestDetectSeverityFromPeakValue(t *testing.T) {
	// Один час >= 22 м/с поднимает весь интервал до critical
	points := hourlyPoints(3)
	points[0].GustMs = forecast.Float(18)
	points[1].GustMs = forecast.Float(23)
	points[2].GustMs = forecast.Float(19)

	result := Detect(points, DefaultOptions())

	require.Len(t, result, 1)
	assert.Equal(t, SeverityCritical, result[0].Severity)
	require.NotNil(t, result[0].Payload.MaxGustMs)
	assert.Equal(t, 23.0, *result[0].Payload.MaxGustMs)
}

func TestDetectHeavyRainThresholds(t *testing.T) {
	points := hourlyPoints(2)
	points[0].PrecipMm = forecast.Float(6)
	points[1].PrecipMm = forecast.Float(4.9)

	result := Detect(points, DefaultOptions())

	require.Len(t, result, 1)
	assert.Equal(t, TypeHeavyRain, result[0].Type)
	assert.Equal(t, SeverityWarning, result[0].Severity)
	assert.Equal(t, points[0].Time, result[0].From)
	assert.Equal(t, points[0].Time, result[0].To)
}

func TestDetectThunderstormFromFlag(t *testing.T) {
	points := hourlyPoints(4)
	points[1].Thunderstorm = true
	points[2].Thunderstorm = true

	result := Detect(points, DefaultOptions())

	require.Len(t, result, 1)
	assert.Equal(t, TypeThunderstorm, result[0].Type)
	assert.Equal(t, points[1].Time, result[0].From)
	assert.Equal(t, points[2].Time, result[0].To)
}

func TestDetectExtremeTempPayload(t *testing.T) {
	points := hourlyPoints(3)
	points[0].TemperatureC = forecast.Float(-21)
	points[1].TemperatureC = forecast.Float(-25)
	points[2].TemperatureC = forecast.Float(-10)

	result := Detect(points, DefaultOptions())

	require.Len(t, result, 1)
	assert.Equal(t, TypeExtremeTemp, result[0].Type)
	require.NotNil(t, result[0].Payload.MinC)
	require.NotNil(t, result[0].Payload.MaxC)
	assert.Equal(t, -25.0, *result[0].Payload.MinC)
	assert.Equal(t, -21.0, *result[0].Payload.MaxC)
}

func TestDetectMissingValuePolicy(t *testing.T) {
	points := hourlyPoints(3)
	points[0].GustMs = forecast.Float(18)
	// points[1].GustMs == nil
	points[2].GustMs = forecast.Float(18)

	// MissingAsZero=true: nil считается нулём и разрывает интервал
	result := Detect(points, DefaultOptions())
	require.Len(t, result, 2)

	// MissingAsZero=false: nil тоже не проходит предикат, итог тот же,
	// но уже потому, что значение непригодно для сравнения
	result = Detect(points, Options{MissingAsZero: false})
	require.Len(t, result, 2)
}

func TestDetectIsIdempotent(t *testing.T) {
	points := hourlyPoints(6)
	points[1].GustMs = forecast.Float(20)
	points[2].GustMs = forecast.Float(25)
	points[4].PrecipMm = forecast.Float(12)
	points[5].Thunderstorm = true

	first := Detect(points, DefaultOptions())
	second := Detect(points, DefaultOptions())

	assert.Equal(t, first, second)
}

func TestDetectEmptySeries(t *testing.T) {
	assert.Empty(t, Detect(nil, DefaultOptions()))
}
