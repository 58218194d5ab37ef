// application/services/tick/service.go
package tick

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meteovip-backend/internal/core/domain/forecast"
	"meteovip-backend/internal/core/domain/hazards"
	"meteovip-backend/internal/infrastructure/persistence/postgres/models"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/users"
	"meteovip-backend/internal/observability"
	"meteovip-backend/pkg/logger"
)

// ForecastProvider отдает почасовой ряд для координат
type ForecastProvider interface {
	GetHourlySeries(ctx context.Context, lat, lon float64) ([]forecast.ObservationPoint, error)
}

// NotificationSender доставляет текст пользователю
type NotificationSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// UserStore перечисляет пользователей вместе с активной локацией
type UserStore interface {
	ListAllWithState(ctx context.Context) ([]users.UserWithState, error)
}

// LocationStore отдает подтверждённую локацию пользователя
type LocationStore interface {
	FindConfirmedByID(ctx context.Context, userID, id int) (*models.UserLocation, error)
}

// AlertStore записывает событие уведомления; created=false означает,
// что такое событие уже отправлялось
type AlertStore interface {
	Upsert(ctx context.Context, event *models.AlertEvent) (bool, error)
}

// Summary - итог одного прохода по пользователям
type Summary struct {
	RunID          string `json:"runId"`
	UsersProcessed int    `json:"usersProcessed"`
	HazardsSent    int    `json:"hazardsSent"`
	SendFailures   int    `json:"sendFailures"`
	UserErrors     int    `json:"userErrors"`
}

// Service - оркестратор тика: обходит пользователей с активной
// локацией, детектирует опасности и рассылает новые уведомления
type Service struct {
	userStore     UserStore
	locationStore LocationStore
	alertStore    AlertStore
	provider      ForecastProvider
	sender        NotificationSender
	opts          hazards.Options
	metrics       *observability.Metrics
}

// NewService создает оркестратор тика
func NewService(
	userStore UserStore,
	locationStore LocationStore,
	alertStore AlertStore,
	provider ForecastProvider,
	sender NotificationSender,
	opts hazards.Options,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		userStore:     userStore,
		locationStore: locationStore,
		alertStore:    alertStore,
		provider:      provider,
		sender:        sender,
		opts:          opts,
		metrics:       metrics,
	}
}

// Run выполняет один проход. Ошибка одного пользователя изолируется:
// она попадает в счётчик UserErrors и не прерывает обход остальных.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.New().String()}
	start := time.Now()

	s.metrics.TickRuns.Inc()
	defer func() {
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()

	logger.Info("🌀 [Tick] Запуск прохода run=%s", summary.RunID)

	list, err := s.userStore.ListAllWithState(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range list {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if !user.HazardsEnabled || user.ActiveLocationID == nil {
			continue
		}

		sent, failed, err := s.processUser(ctx, user)
		if err != nil {
			summary.UserErrors++
			s.metrics.TickUserErrors.Inc()
			logger.Error("❌ [Tick] run=%s user=%d: %v", summary.RunID, user.ID, err)
			continue
		}

		summary.UsersProcessed++
		summary.HazardsSent += sent
		summary.SendFailures += failed
	}

	logger.Info("🏁 [Tick] Проход run=%s завершён: пользователей=%d, отправлено=%d, сбоев доставки=%d, ошибок=%d",
		summary.RunID, summary.UsersProcessed, summary.HazardsSent, summary.SendFailures, summary.UserErrors)

	return summary, nil
}

// processUser обрабатывает одного пользователя и возвращает число
// отправленных уведомлений и сбоев доставки
func (s *Service) processUser(ctx context.Context, user users.UserWithState) (int, int, error) {
	loc, err := s.locationStore.FindConfirmedByID(ctx, user.ID, *user.ActiveLocationID)
	if err != nil {
		return 0, 0, err
	}
	if loc == nil {
		// Активная локация удалена или ещё не подтверждена
		return 0, 0, nil
	}

	points, err := s.provider.GetHourlySeries(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return 0, 0, err
	}

	sent := 0
	failed := 0
	for _, hazard := range hazards.Detect(points, s.opts) {
		s.metrics.HazardsDetected.WithLabelValues(string(hazard.Type)).Inc()

		created, err := s.recordEvent(ctx, user.ID, loc.ID, hazard)
		if err != nil {
			return sent, failed, err
		}
		if !created {
			continue
		}

		// Событие уже записано: при сбое доставки повторной отправки
		// не будет, это осознанный выбор против дублей. Сбой одной
		// доставки не прерывает обработку остальных опасностей.
		if err := s.sender.SendMessage(ctx, user.TelegramID, formatHazardMessage(hazard, loc.Name)); err != nil {
			failed++
			s.metrics.SendFailures.Inc()
			logger.Error("❌ [Tick] user=%d hazard=%s: доставка не удалась: %v", user.ID, hazard.Type, err)
			continue
		}

		logger.Hazard(string(hazard.Type), string(hazard.Severity), hazard.From, hazard.To)
		s.metrics.HazardsSent.Inc()
		sent++
	}

	return sent, failed, nil
}

// recordEvent вставляет событие с уникальным ключом дедупликации
func (s *Service) recordEvent(ctx context.Context, userID, locationID int, hazard hazards.Hazard) (bool, error) {
	payload, err := json.Marshal(hazard)
	if err != nil {
		return false, fmt.Errorf("failed to marshal hazard payload: %w", err)
	}

	event := &models.AlertEvent{
		UserID:     userID,
		LocationID: locationID,
		Kind:       models.AlertKindHazard,
		Subtype:    string(hazard.Type),
		Severity:   string(hazard.Severity),
		DedupeKey:  DedupeKey(userID, locationID, hazard),
		Payload:    payload,
	}

	return s.alertStore.Upsert(ctx, event)
}

// DedupeKey строит ключ дедупликации: тот же тип опасности с теми же
// границами интервала и уровнем второй раз не уведомляется
func DedupeKey(userID, locationID int, hazard hazards.Hazard) string {
	return fmt.Sprintf("hazard:%d:%d:%s:%s:%s:%s",
		userID, locationID, hazard.Type,
		hazard.From.UTC().Format(time.RFC3339),
		hazard.To.UTC().Format(time.RFC3339),
		hazard.Severity,
	)
}

// formatHazardMessage собирает текст уведомления
func formatHazardMessage(hazard hazards.Hazard, locationName string) string {
	return fmt.Sprintf("[!] Опасность: %s\nУровень: %s\nПериод: %s — %s\nЛокация: %s",
		hazard.Type, hazard.Severity,
		hazard.From.UTC().Format("02.01 15:04"),
		hazard.To.UTC().Format("02.01 15:04"),
		locationName,
	)
}
