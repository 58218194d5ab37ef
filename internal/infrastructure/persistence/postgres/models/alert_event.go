// internal/infrastructure/persistence/postgres/models/alert_event.go
package models

import (
	"encoding/json"
	"time"
)

// Виды событий
const (
	AlertKindHazard = "hazard"
)

// AlertEvent - запись об уже отправленном уведомлении. DedupeKey
// уникален в пределах всей таблицы: повторная вставка того же ключа
// является no-op, что и защищает от повторных уведомлений.
type AlertEvent struct {
	ID         int             `db:"id" json:"id"`
	UserID     int             `db:"user_id" json:"userId"`
	LocationID int             `db:"location_id" json:"locationId"`
	Kind       string          `db:"kind" json:"kind"`
	Subtype    string          `db:"subtype" json:"subtype"`
	Severity   string          `db:"severity" json:"severity"`
	DedupeKey  string          `db:"dedupe_key" json:"dedupeKey"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
