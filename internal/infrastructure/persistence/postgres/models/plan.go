// internal/infrastructure/persistence/postgres/models/plan.go
package models

import (
	"encoding/json"
	"time"
)

// UserPlan - план пользователя; конфигурация модулей хранится в
// config_json и разбирается доменным пакетом plans
type UserPlan struct {
	ID               int             `db:"id" json:"id"`
	UserID           int             `db:"user_id" json:"userId"`
	Name             string          `db:"name" json:"name"`
	Enabled          bool            `db:"enabled" json:"enabled"`
	MinWindowMinutes int             `db:"min_window_minutes" json:"minWindowMinutes"`
	ConfigJSON       json.RawMessage `db:"config_json" json:"configJson"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}
