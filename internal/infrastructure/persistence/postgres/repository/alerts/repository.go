// internal/infrastructure/persistence/postgres/repository/alerts/repository.go
package alerts

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

// AlertRepository интерфейс журнала отправленных уведомлений
type AlertRepository interface {
	Upsert(ctx context.Context, event *models.AlertEvent) (bool, error)
	ListRecentByUser(ctx context.Context, userID, limit int) ([]models.AlertEvent, error)
}

// AlertRepositoryImpl реализация журнала уведомлений
type AlertRepositoryImpl struct {
	db *sqlx.DB
}

// NewAlertRepository создает новый репозиторий уведомлений
func NewAlertRepository(db *sqlx.DB) *AlertRepositoryImpl {
	return &AlertRepositoryImpl{db: db}
}

// Upsert записывает событие уведомления. Уникальный dedupe_key служит
// блокировкой: при конкурентных тиках вставится ровно одна запись.
// Возвращает true, если запись создана этим вызовом.
func (r *AlertRepositoryImpl) Upsert(ctx context.Context, event *models.AlertEvent) (bool, error) {
	query := `
		INSERT INTO alert_events (user_id, location_id, kind, subtype, severity, dedupe_key, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (dedupe_key) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		event.UserID, event.LocationID, event.Kind, event.Subtype,
		event.Severity, event.DedupeKey, event.Payload,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert alert event: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected == 1, nil
}

// ListRecentByUser возвращает последние события пользователя
func (r *AlertRepositoryImpl) ListRecentByUser(ctx context.Context, userID, limit int) ([]models.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, location_id, kind, subtype, severity, dedupe_key, payload, created_at
		FROM alert_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var list []models.AlertEvent
	if err := r.db.SelectContext(ctx, &list, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list alert events: %w", err)
	}
	return list, nil
}
