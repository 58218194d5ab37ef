// internal/infrastructure/persistence/postgres/repository/users/repository.go
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	rediscache "meteovip-backend/internal/infrastructure/cache/redis"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

// UserWithState - пользователь вместе с активной локацией для обхода
// в тике (один запрос вместо N+1)
type UserWithState struct {
	models.User
	ActiveLocationID *int `db:"active_location_id"`
}

// UserRepository интерфейс для работы с данными пользователей
type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	EnsureByTelegramID(ctx context.Context, telegramID int64, username, firstName, languageCode string) (*models.User, error)
	UpdateSettings(ctx context.Context, user *models.User) error
	ListAllWithState(ctx context.Context) ([]UserWithState, error)
}

// UserRepositoryImpl реализация репозитория пользователей
type UserRepositoryImpl struct {
	db    *sqlx.DB
	cache *rediscache.Cache
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *sqlx.DB, cache *rediscache.Cache) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db, cache: cache}
}

const userColumns = `
	id, telegram_id, username, first_name, language_code,
	presence_mode, summary_enabled, hazards_enabled,
	work_start, work_end, created_at, updated_at
`

// FindByTelegramID находит пользователя по Telegram ID.
// Возвращает nil без ошибки, если пользователя нет.
func (r *UserRepositoryImpl) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	if r.cache != nil {
		var cached models.User
		if err := r.cache.GetUserByTelegramID(ctx, telegramID, &cached); err == nil && cached.ID != 0 {
			return &cached, nil
		}
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, telegramID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by telegram id: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.SetUserByTelegramID(ctx, user, telegramID, 5*time.Minute)
	}

	return &user, nil
}

// EnsureByTelegramID находит пользователя или создает его при первом
// обращении из Mini App. Профильные поля обновляются из initData.
func (r *UserRepositoryImpl) EnsureByTelegramID(ctx context.Context, telegramID int64, username, firstName, languageCode string) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, username, first_name, language_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = NOW()
		RETURNING ` + userColumns

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, telegramID, username, firstName, languageCode); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	// Инвалидируем кэш: профиль мог обновиться
	if r.cache != nil {
		_ = r.cache.DeleteUserByTelegramID(ctx, telegramID)
	}

	return &user, nil
}

// UpdateSettings обновляет настраиваемые поля пользователя
func (r *UserRepositoryImpl) UpdateSettings(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			presence_mode = $1,
			summary_enabled = $2,
			hazards_enabled = $3,
			work_start = $4,
			work_end = $5,
			language_code = $6,
			updated_at = NOW()
		WHERE id = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		user.PresenceMode, user.SummaryEnabled, user.HazardsEnabled,
		user.WorkStart, user.WorkEnd, user.LanguageCode, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	if r.cache != nil {
		_ = r.cache.DeleteUserByTelegramID(ctx, user.TelegramID)
	}

	return nil
}

// ListAllWithState возвращает всех пользователей вместе с
// идентификатором активной локации (для обхода в тике)
func (r *UserRepositoryImpl) ListAllWithState(ctx context.Context) ([]UserWithState, error) {
	query := `
		SELECT
			u.id, u.telegram_id, u.username, u.first_name, u.language_code,
			u.presence_mode, u.summary_enabled, u.hazards_enabled,
			u.work_start, u.work_end, u.created_at, u.updated_at,
			s.active_location_id
		FROM users u
		LEFT JOIN user_state s ON s.user_id = u.id
		ORDER BY u.id
	`

	var list []UserWithState
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list users with state: %w", err)
	}
	return list, nil
}
