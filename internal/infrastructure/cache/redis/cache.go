// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss - ключа нет в кэше
var ErrCacheMiss = redis.Nil

type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(addr, password string, db int) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "meteovip:",
	}
}

// Ping проверяет доступность Redis
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set устанавливает значение в Redis с TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	fullKey := c.prefix + key

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, fullKey, data, ttl).Err()
}

// Get получает значение из Redis
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := c.prefix + key

	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// IsMiss сообщает, означает ли ошибка отсутствие ключа
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Delete удаляет ключ из Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	fullKey := c.prefix + key
	return c.client.Del(ctx, fullKey).Err()
}

// DeleteMulti удаляет несколько ключей из Redis
func (c *Cache) DeleteMulti(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = c.prefix + key
	}

	return c.client.Del(ctx, fullKeys...).Err()
}

// ForecastKey строит ключ кэша почасового прогноза по координатам.
// Координаты округляются до ~100 м, чтобы соседние запросы
// переиспользовали один ответ провайдера.
func ForecastKey(lat, lon float64) string {
	return fmt.Sprintf("forecast:hourly:%.3f:%.3f", lat, lon)
}

// SetUserByTelegramID устанавливает пользователя по Telegram ID
func (c *Cache) SetUserByTelegramID(ctx context.Context, user interface{}, telegramID int64, ttl time.Duration) error {
	key := fmt.Sprintf("user:telegram:%d", telegramID)
	return c.Set(ctx, key, user, ttl)
}

// GetUserByTelegramID получает пользователя по Telegram ID
func (c *Cache) GetUserByTelegramID(ctx context.Context, telegramID int64, dest interface{}) error {
	key := fmt.Sprintf("user:telegram:%d", telegramID)
	return c.Get(ctx, key, dest)
}

// DeleteUserByTelegramID инвалидирует кэш пользователя
func (c *Cache) DeleteUserByTelegramID(ctx context.Context, telegramID int64) error {
	key := fmt.Sprintf("user:telegram:%d", telegramID)
	return c.Delete(ctx, key)
}

// CheckRateLimit атомарно учитывает запрос и проверяет лимит в окне
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	fullKey := c.prefix + "ratelimit:" + key

	// Используем Redis pipeline для атомарности
	pipe := c.client.Pipeline()

	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	return count <= limit, count, nil
}
