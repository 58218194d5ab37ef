// internal/core/domain/hazards/detector.go
package hazards

import (
	"time"

	"meteovip-backend/internal/core/domain/forecast"
)

// Тип опасности
type HazardType string

const (
	TypeWindGust     HazardType = "WIND_GUST"
	TypeHeavyRain    HazardType = "HEAVY_RAIN"
	TypeThunderstorm HazardType = "THUNDERSTORM"
	TypeExtremeTemp  HazardType = "EXTREME_TEMP"
)

// Уровень опасности
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Пороги детектора (м/с, мм/ч, °C)
const (
	gustWarningMs   = 17.0
	gustCriticalMs  = 22.0
	rainWarningMmH  = 5.0
	rainCriticalMmH = 10.0
	tempLowC        = -20.0
	tempHighC       = 35.0
)

// Payload - сводная статистика по интервалу опасности
type Payload struct {
	MaxGustMs *float64 `json:"maxGustMs,omitempty"`
	MaxMmPerH *float64 `json:"maxMmPerH,omitempty"`
	MinC      *float64 `json:"minC,omitempty"`
	MaxC      *float64 `json:"maxC,omitempty"`
}

// Hazard - максимальный непрерывный интервал часов, где выполняется
// предикат опасности. To включает последний подходящий час.
type Hazard struct {
	Type     HazardType `json:"type"`
	Severity Severity   `json:"severity"`
	From     time.Time  `json:"from"`
	To       time.Time  `json:"to"`
	Payload  Payload    `json:"values"`
}

// Options - политика детектора для отсутствующих значений.
// Источник молча считал отсутствующее значение нулём; здесь это
// явный переключатель: MissingAsZero=false означает, что точка без
// значения не может удовлетворить предикат.
type Options struct {
	MissingAsZero bool
}

// DefaultOptions воспроизводит поведение источника
func DefaultOptions() Options {
	return Options{MissingAsZero: true}
}

// numValue возвращает значение и флаг его пригодности для сравнения
func (o Options) numValue(v *float64) (float64, bool) {
	if v != nil {
		return *v, true
	}
	if o.MissingAsZero {
		return 0, true
	}
	return 0, false
}

// groupRuns находит максимальные непрерывные отрезки индексов [s..e],
// на которых предикат истинен. Отрезок закрывается на первой точке,
// где предикат перестаёт выполняться.
func groupRuns(n int, pred func(i int) bool) [][2]int {
	var runs [][2]int
	start := -1

	for i := 0; i < n; i++ {
		ok := pred(i)
		if ok && start < 0 {
			start = i
		}
		if !ok && start >= 0 {
			runs = append(runs, [2]int{start, i - 1})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, n - 1})
	}
	return runs
}

// Detect сканирует почасовой ряд и возвращает интервалы опасностей
// по четырём независимым предикатам. Списки разных типов могут
// пересекаться во времени - глобального слияния нет.
func Detect(points []forecast.ObservationPoint, opts Options) []Hazard {
	var hazards []Hazard

	// Порывы ветра
	for _, r := range groupRuns(len(points), func(i int) bool {
		v, ok := opts.numValue(points[i].GustMs)
		return ok && v >= gustWarningMs
	}) {
		peak := 0.0
		for i := r[0]; i <= r[1]; i++ {
			if v, ok := opts.numValue(points[i].GustMs); ok && v > peak {
				peak = v
			}
		}
		severity := SeverityWarning
		if peak >= gustCriticalMs {
			severity = SeverityCritical
		}
		hazards = append(hazards, Hazard{
			Type:     TypeWindGust,
			Severity: severity,
			From:     points[r[0]].Time,
			To:       points[r[1]].Time,
			Payload:  Payload{MaxGustMs: forecast.Float(peak)},
		})
	}

	// Сильный дождь
	for _, r := range groupRuns(len(points), func(i int) bool {
		v, ok := opts.numValue(points[i].PrecipMm)
		return ok && v >= rainWarningMmH
	}) {
		peak := 0.0
		for i := r[0]; i <= r[1]; i++ {
			if v, ok := opts.numValue(points[i].PrecipMm); ok && v > peak {
				peak = v
			}
		}
		severity := SeverityWarning
		if peak >= rainCriticalMmH {
			severity = SeverityCritical
		}
		hazards = append(hazards, Hazard{
			Type:     TypeHeavyRain,
			Severity: severity,
			From:     points[r[0]].Time,
			To:       points[r[1]].Time,
			Payload:  Payload{MaxMmPerH: forecast.Float(peak)},
		})
	}

	// Гроза
	for _, r := range groupRuns(len(points), func(i int) bool {
		return points[i].Thunderstorm
	}) {
		hazards = append(hazards, Hazard{
			Type:     TypeThunderstorm,
			Severity: SeverityWarning,
			From:     points[r[0]].Time,
			To:       points[r[1]].Time,
		})
	}

	// Экстремальная температура
	for _, r := range groupRuns(len(points), func(i int) bool {
		v, ok := opts.numValue(points[i].TemperatureC)
		return ok && (v <= tempLowC || v >= tempHighC)
	}) {
		minC, maxC := 0.0, 0.0
		first := true
		for i := r[0]; i <= r[1]; i++ {
			v, ok := opts.numValue(points[i].TemperatureC)
			if !ok {
				continue
			}
			if first {
				minC, maxC = v, v
				first = false
				continue
			}
			if v < minC {
				minC = v
			}
			if v > maxC {
				maxC = v
			}
		}
		hazards = append(hazards, Hazard{
			Type:     TypeExtremeTemp,
			Severity: SeverityWarning,
			From:     points[r[0]].Time,
			To:       points[r[1]].Time,
			Payload:  Payload{MinC: forecast.Float(minC), MaxC: forecast.Float(maxC)},
		})
	}

	return hazards
}
