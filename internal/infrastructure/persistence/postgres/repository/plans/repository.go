// internal/infrastructure/persistence/postgres/repository/plans/repository.go
package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
)

// PlanRepository интерфейс для работы с планами пользователей
type PlanRepository interface {
	ListByUser(ctx context.Context, userID int) ([]models.UserPlan, error)
	ListEnabled(ctx context.Context, userID int) ([]models.UserPlan, error)
	FindByID(ctx context.Context, userID, id int) (*models.UserPlan, error)
	Create(ctx context.Context, plan *models.UserPlan) error
	Update(ctx context.Context, plan *models.UserPlan) error
	Delete(ctx context.Context, userID, id int) (bool, error)
}

// PlanRepositoryImpl реализация репозитория планов
type PlanRepositoryImpl struct {
	db *sqlx.DB
}

// NewPlanRepository создает новый репозиторий планов
func NewPlanRepository(db *sqlx.DB) *PlanRepositoryImpl {
	return &PlanRepositoryImpl{db: db}
}

const planColumns = `
	id, user_id, name, enabled, min_window_minutes, config_json, created_at, updated_at
`

// ListByUser возвращает все планы пользователя, свежие первыми
func (r *PlanRepositoryImpl) ListByUser(ctx context.Context, userID int) ([]models.UserPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM user_plans
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	var list []models.UserPlan
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return list, nil
}

// ListEnabled возвращает только включённые планы (для оценки)
func (r *PlanRepositoryImpl) ListEnabled(ctx context.Context, userID int) ([]models.UserPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM user_plans
		WHERE user_id = $1 AND enabled = TRUE
		ORDER BY updated_at DESC
	`

	var list []models.UserPlan
	if err := r.db.SelectContext(ctx, &list, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list enabled plans: %w", err)
	}
	return list, nil
}

// FindByID находит план пользователя; nil без ошибки, если плана нет
func (r *PlanRepositoryImpl) FindByID(ctx context.Context, userID, id int) (*models.UserPlan, error) {
	query := `SELECT ` + planColumns + ` FROM user_plans WHERE id = $1 AND user_id = $2`

	var plan models.UserPlan
	if err := r.db.GetContext(ctx, &plan, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return &plan, nil
}

// Create создает новый план
func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *models.UserPlan) error {
	query := `
		INSERT INTO user_plans (user_id, name, enabled, min_window_minutes, config_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		plan.UserID, plan.Name, plan.Enabled, plan.MinWindowMinutes, plan.ConfigJSON,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// Update сохраняет изменённый план целиком
func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *models.UserPlan) error {
	query := `
		UPDATE user_plans SET
			name = $1,
			enabled = $2,
			min_window_minutes = $3,
			config_json = $4,
			updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		plan.Name, plan.Enabled, plan.MinWindowMinutes, plan.ConfigJSON,
		plan.ID, plan.UserID,
	).Scan(&plan.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

// Delete удаляет план; false, если плана не было
func (r *PlanRepositoryImpl) Delete(ctx context.Context, userID, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete plan: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}
