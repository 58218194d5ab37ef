// internal/infrastructure/weather/openmeteo/cache.go
package openmeteo

import (
	"context"
	"time"

	"meteovip-backend/internal/core/domain/forecast"
	rediscache "meteovip-backend/internal/infrastructure/cache/redis"
	"meteovip-backend/internal/observability"
	"meteovip-backend/pkg/logger"
)

// CachedProvider оборачивает клиент Open-Meteo кэшем в Redis.
// Тик и синхронная оценка ходят за одним и тем же прогнозом - кэш
// снимает повторные обращения к провайдеру в пределах TTL.
type CachedProvider struct {
	client  *Client
	cache   *rediscache.Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedProvider создает кэширующую обёртку. cache может быть nil -
// тогда провайдер работает напрямую.
func NewCachedProvider(client *Client, cache *rediscache.Cache, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{client: client, cache: cache, ttl: ttl, metrics: metrics}
}

// GetHourlySeries возвращает почасовой ряд, по возможности из кэша.
// Ошибки кэша не фатальны: промах или недоступный Redis ведут к
// обычному запросу к провайдеру.
func (p *CachedProvider) GetHourlySeries(ctx context.Context, lat, lon float64) ([]forecast.ObservationPoint, error) {
	key := rediscache.ForecastKey(lat, lon)

	if p.cache != nil {
		var cached []forecast.ObservationPoint
		err := p.cache.Get(ctx, key, &cached)
		if err == nil && len(cached) > 0 {
			if p.metrics != nil {
				p.metrics.ForecastCache.WithLabelValues("hit").Inc()
			}
			return cached, nil
		}
		if err != nil && !rediscache.IsMiss(err) {
			logger.Warn("⚠️ [Weather] Кэш прогноза недоступен: %v", err)
		}
		if p.metrics != nil {
			p.metrics.ForecastCache.WithLabelValues("miss").Inc()
		}
	}

	points, err := p.client.GetHourlySeries(ctx, lat, lon)
	if err != nil {
		if p.metrics != nil {
			p.metrics.UpstreamErrors.Inc()
		}
		return nil, err
	}

	if p.cache != nil && len(points) > 0 {
		if err := p.cache.Set(ctx, key, points, p.ttl); err != nil {
			logger.Warn("⚠️ [Weather] Не удалось записать прогноз в кэш: %v", err)
		}
	}

	return points, nil
}

// GetDailySummary проксирует дневную сводку без кэширования
func (p *CachedProvider) GetDailySummary(ctx context.Context, lat, lon float64, timezone string) (*DailySummary, error) {
	summary, err := p.client.GetDailySummary(ctx, lat, lon, timezone)
	if err != nil && p.metrics != nil {
		p.metrics.UpstreamErrors.Inc()
	}
	return summary, err
}

// ResolveTimezone проксирует определение таймзоны
func (p *CachedProvider) ResolveTimezone(ctx context.Context, lat, lon float64) string {
	return p.client.ResolveTimezone(ctx, lat, lon)
}
