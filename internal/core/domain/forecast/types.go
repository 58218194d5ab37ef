// internal/core/domain/forecast/types.go
package forecast

import "time"

// ObservationPoint - один час прогноза в нормализованных единицах.
// Скорости ветра и порывов всегда в м/с, осадки в мм/ч, температура в °C.
// Отсутствующие у провайдера значения остаются nil, а не превращаются в ноль.
type ObservationPoint struct {
	Time         time.Time `json:"time"`
	TemperatureC *float64  `json:"temperatureC"`
	ApparentC    *float64  `json:"apparentC"`
	PrecipMm     *float64  `json:"precipMm"`
	PrecipProb   *float64  `json:"precipProb"`
	WindMs       *float64  `json:"windMs"`
	GustMs       *float64  `json:"gustMs"`
	WeatherCode  *int      `json:"weathercode"`
	Thunderstorm bool      `json:"thunderstorm"`
	VisibilityKm *float64  `json:"visibilityKm"`
}

// Коды Open-Meteo, соответствующие грозе
var thunderstormCodes = map[int]bool{95: true, 96: true, 99: true}

// IsThunderstormCode сообщает, относится ли weathercode к грозовым
func IsThunderstormCode(code int) bool {
	return thunderstormCodes[code]
}

// Float указатель на float64, удобно для построения точек в тестах
func Float(v float64) *float64 { return &v }

// Int указатель на int
func Int(v int) *int { return &v }
