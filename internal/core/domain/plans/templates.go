// internal/core/domain/plans/templates.go
package plans

import "meteovip-backend/internal/core/domain/forecast"

// Template - заготовка плана для быстрого создания из Mini App
type Template struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	MinWindowMinutes int    `json:"minWindowMinutes"`
	DefaultConfig    Config `json:"defaultConfigJson"`
}

// DefaultTemplates возвращает стандартный набор шаблонов
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:               "walk_basic",
			Name:             "Прогулка (базовый)",
			MinWindowMinutes: 60,
			DefaultConfig: Config{
				Modules: []Module{
					{Kind: KindWindMax, Max: forecast.Float(8)},
					{Kind: KindGustMax, Max: forecast.Float(12)},
					{Kind: KindPrecipMax, Max: forecast.Float(1.5)},
					{Kind: KindTempRange, Min: forecast.Float(-15), Max: forecast.Float(30)},
					{Kind: KindNoThunderstorm},
				},
			},
		},
	}
}

// FindTemplate ищет шаблон по идентификатору
func FindTemplate(id string) (Template, bool) {
	for _, tpl := range DefaultTemplates() {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return Template{}, false
}
