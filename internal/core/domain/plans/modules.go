// internal/core/domain/plans/modules.go
package plans

import (
	"encoding/json"
	"fmt"

	"meteovip-backend/internal/core/domain/forecast"
)

// Вид модуля-ограничения. Закрытый набор: неизвестный тег - это
// ошибка конфигурации, и точка с таким модулем не проходит план.
type ModuleKind string

const (
	KindWindMax        ModuleKind = "wind_max_ms"
	KindGustMax        ModuleKind = "gust_max_ms"
	KindPrecipMax      ModuleKind = "precip_max_mmh"
	KindTempRange      ModuleKind = "temp_range_c"
	KindNoThunderstorm ModuleKind = "no_thunderstorm"
)

// Module - одно ограничение плана. Max/Min имеют смысл в зависимости
// от вида модуля; для no_thunderstorm границы не нужны.
type Module struct {
	Kind ModuleKind `json:"type"`
	Max  *float64   `json:"max,omitempty"`
	Min  *float64   `json:"min,omitempty"`
}

// Config - упорядоченный список модулей плана (хранится в config_json)
type Config struct {
	Modules []Module `json:"modules"`
}

// ParseConfig разбирает config_json из БД
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse plan config: %w", err)
	}
	return cfg, nil
}

// checkPoint проверяет точку по всем модулям плана. Первый не
// прошедший модуль определяет причину (first-match-wins). Модуль с
// отсутствующей обязательной границей сам считается не прошедшим.
func checkPoint(cfg Config, p forecast.ObservationPoint) (bool, string) {
	for _, m := range cfg.Modules {
		switch m.Kind {
		case KindWindMax:
			v := numOrZero(p.WindMs)
			if m.Max == nil {
				return false, "wind limit is not set"
			}
			if v > *m.Max {
				return false, fmt.Sprintf("wind %.1f>%g", v, *m.Max)
			}
		case KindGustMax:
			v := numOrZero(p.GustMs)
			if m.Max == nil {
				return false, "gust limit is not set"
			}
			if v > *m.Max {
				return false, fmt.Sprintf("gust %.1f>%g", v, *m.Max)
			}
		case KindPrecipMax:
			v := numOrZero(p.PrecipMm)
			if m.Max == nil {
				return false, "precip limit is not set"
			}
			if v > *m.Max {
				return false, fmt.Sprintf("precip %.1f>%g", v, *m.Max)
			}
		case KindTempRange:
			v := numOrZero(p.TemperatureC)
			if m.Min != nil && v < *m.Min {
				return false, fmt.Sprintf("temp %.1f<%g", v, *m.Min)
			}
			if m.Max != nil && v > *m.Max {
				return false, fmt.Sprintf("temp %.1f>%g", v, *m.Max)
			}
		case KindNoThunderstorm:
			if p.Thunderstorm {
				return false, "thunderstorm"
			}
		default:
			return false, fmt.Sprintf("unknown module %q", string(m.Kind))
		}
	}
	return true, ""
}

// numOrZero - унаследованная от источника политика для планов:
// отсутствующее значение сравнивается как ноль
func numOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
