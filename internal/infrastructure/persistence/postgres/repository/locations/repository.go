// internal/infrastructure/persistence/postgres/repository/locations/repository.go
package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

// LocationRepository интерфейс для работы с локациями и активной
// локацией пользователя (user_state)
type LocationRepository interface {
	ListConfirmed(ctx context.Context, userID int) ([]models.UserLocation, error)
	FindByID(ctx context.Context, userID, id int) (*models.UserLocation, error)
	FindConfirmedByID(ctx context.Context, userID, id int) (*models.UserLocation, error)
	Create(ctx context.Context, loc *models.UserLocation) error
	ReplacePendingCurrent(ctx context.Context, loc *models.UserLocation) error
	FindPendingCurrent(ctx context.Context, userID int) (*models.UserLocation, error)
	ConfirmPending(ctx context.Context, id int) (*models.UserLocation, error)
	GetState(ctx context.Context, userID int) (*models.UserState, error)
	SetActive(ctx context.Context, userID int, loc *models.UserLocation) error
}

// LocationRepositoryImpl реализация репозитория локаций
type LocationRepositoryImpl struct {
	db *sqlx.DB
}

// NewLocationRepository создает новый репозиторий локаций
func NewLocationRepository(db *sqlx.DB) *LocationRepositoryImpl {
	return &LocationRepositoryImpl{db: db}
}

const locationColumns = `
	id, user_id, type, name, lat, lon, timezone, is_pending, created_at, updated_at
`

// ListConfirmed возвращает подтверждённые локации, свежие первыми
func (r *LocationRepositoryImpl) ListConfirmed(ctx context.Context, userID int) ([]models.UserLocation, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM user_locations
		WHERE user_id = $1 AND is_pending = FALSE
		ORDER BY updated_at DESC
	`

	var list []models.UserLocation
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return list, nil
}

// FindByID находит локацию пользователя; nil без ошибки, если её нет
func (r *LocationRepositoryImpl) FindByID(ctx context.Context, userID, id int) (*models.UserLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM user_locations WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, query, id, userID)
}

// FindConfirmedByID находит только подтверждённую локацию
func (r *LocationRepositoryImpl) FindConfirmedByID(ctx context.Context, userID, id int) (*models.UserLocation, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM user_locations
		WHERE id = $1 AND user_id = $2 AND is_pending = FALSE
	`
	return r.getOne(ctx, query, id, userID)
}

// Create создает новую локацию
func (r *LocationRepositoryImpl) Create(ctx context.Context, loc *models.UserLocation) error {
	query := `
		INSERT INTO user_locations (user_id, type, name, lat, lon, timezone, is_pending)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		loc.UserID, loc.Type, loc.Name, loc.Lat, loc.Lon, loc.Timezone, loc.IsPending,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// ReplacePendingCurrent удаляет прежнюю pending локацию типа current
// и создает новую - у пользователя не больше одной неподтверждённой
func (r *LocationRepositoryImpl) ReplacePendingCurrent(ctx context.Context, loc *models.UserLocation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := `
		DELETE FROM user_locations
		WHERE user_id = $1 AND is_pending = TRUE AND type = $2
	`
	if _, err := tx.ExecContext(ctx, deleteQuery, loc.UserID, models.LocationTypeCurrent); err != nil {
		return fmt.Errorf("failed to delete pending location: %w", err)
	}

	insertQuery := `
		INSERT INTO user_locations (user_id, type, name, lat, lon, timezone, is_pending)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, insertQuery,
		loc.UserID, loc.Type, loc.Name, loc.Lat, loc.Lon, loc.Timezone,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pending location: %w", err)
	}
	loc.IsPending = true

	return tx.Commit()
}

// FindPendingCurrent находит последнюю неподтверждённую current локацию
func (r *LocationRepositoryImpl) FindPendingCurrent(ctx context.Context, userID int) (*models.UserLocation, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM user_locations
		WHERE user_id = $1 AND is_pending = TRUE AND type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, userID, models.LocationTypeCurrent)
}

// ConfirmPending снимает флаг pending и возвращает обновлённую локацию
func (r *LocationRepositoryImpl) ConfirmPending(ctx context.Context, id int) (*models.UserLocation, error) {
	query := `
		UPDATE user_locations
		SET is_pending = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + locationColumns

	var loc models.UserLocation
	if err := r.db.GetContext(ctx, &loc, query, id); err != nil {
		return nil, fmt.Errorf("failed to confirm location: %w", err)
	}
	return &loc, nil
}

// GetState возвращает состояние пользователя; nil, если его ещё нет
func (r *LocationRepositoryImpl) GetState(ctx context.Context, userID int) (*models.UserState, error) {
	query := `
		SELECT user_id, active_location_id, active_lat, active_lon, active_name, updated_at
		FROM user_state
		WHERE user_id = $1
	`

	var state models.UserState
	if err := r.db.GetContext(ctx, &state, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return &state, nil
}

// SetActive делает локацию активной (upsert user_state)
func (r *LocationRepositoryImpl) SetActive(ctx context.Context, userID int, loc *models.UserLocation) error {
	query := `
		INSERT INTO user_state (user_id, active_location_id, active_lat, active_lon, active_name, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			active_location_id = EXCLUDED.active_location_id,
			active_lat = EXCLUDED.active_lat,
			active_lon = EXCLUDED.active_lon,
			active_name = EXCLUDED.active_name,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, loc.ID, loc.Lat, loc.Lon, loc.Name); err != nil {
		return fmt.Errorf("failed to set active location: %w", err)
	}
	return nil
}

func (r *LocationRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (*models.UserLocation, error) {
	var loc models.UserLocation
	if err := r.db.GetContext(ctx, &loc, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query location: %w", err)
	}
	return &loc, nil
}
