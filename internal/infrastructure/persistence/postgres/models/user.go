// internal/infrastructure/persistence/postgres/models/user.go
package models

import "time"

// User - пользователь Mini App
type User struct {
	ID         int    `db:"id" json:"id"`
	TelegramID int64  `db:"telegram_id" json:"telegramId"`
	Username   string `db:"username" json:"username"`
	FirstName  string `db:"first_name" json:"firstName"`

	// Настройки
	LanguageCode   string `db:"language_code" json:"languageCode"`
	PresenceMode   string `db:"presence_mode" json:"presenceMode"`
	SummaryEnabled bool   `db:"summary_enabled" json:"summaryEnabled"`
	HazardsEnabled bool   `db:"hazards_enabled" json:"hazardsEnabled"`
	WorkStart      int    `db:"work_start" json:"workStart"`
	WorkEnd        int    `db:"work_end" json:"workEnd"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Режимы присутствия
const (
	PresenceAuto   = "auto"
	PresenceHome   = "home"
	PresenceOffice = "office"
)

// UserState - активная локация пользователя
type UserState struct {
	UserID           int        `db:"user_id" json:"userId"`
	ActiveLocationID *int       `db:"active_location_id" json:"activeLocationId"`
	ActiveLat        *float64   `db:"active_lat" json:"activeLat"`
	ActiveLon        *float64   `db:"active_lon" json:"activeLon"`
	ActiveName       *string    `db:"active_name" json:"activeName"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updatedAt"`
}
