// internal/infrastructure/persistence/postgres/models/location.go
package models

import "time"

// Типы локаций
const (
	LocationTypePoint   = "point"
	LocationTypeCurrent = "current"
)

// UserLocation - сохранённая локация пользователя. Локация типа
// current появляется как pending и становится рабочей только после
// подтверждения из Mini App.
type UserLocation struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"userId"`
	Type      string    `db:"type" json:"type"`
	Name      string    `db:"name" json:"name"`
	Lat       float64   `db:"lat" json:"lat"`
	Lon       float64   `db:"lon" json:"lon"`
	Timezone  string    `db:"timezone" json:"timezone"`
	IsPending bool      `db:"is_pending" json:"isPending"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
