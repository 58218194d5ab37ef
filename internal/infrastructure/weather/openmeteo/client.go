// internal/infrastructure/weather/openmeteo/client.go
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"meteovip-backend/internal/core/domain/forecast"
)

// ErrUpstreamUnavailable - провайдер погоды вернул не-успех.
// Вызывающий код не должен трактовать эту ошибку как "опасностей нет".
var ErrUpstreamUnavailable = errors.New("weather upstream unavailable")

const (
	// Горизонт почасового прогноза для опасностей и планов
	hazardForecastDays = 2
	// Горизонт дневной сводки
	summaryForecastDays = 3

	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"
	kmhToMs        = 3.6
)

// Client - клиент Open-Meteo forecast API
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый клиент Open-Meteo
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// hourlyResponse - сырой ответ Open-Meteo. Указатели сохраняют null
// провайдера: отсутствующее значение не должно стать нулём на точке.
type hourlyResponse struct {
	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature2m            []*float64 `json:"temperature_2m"`
		ApparentTemperature      []*float64 `json:"apparent_temperature"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		Precipitation            []*float64 `json:"precipitation"`
		Windspeed10m             []*float64 `json:"windspeed_10m"`
		Windgusts10m             []*float64 `json:"windgusts_10m"`
		Weathercode              []*int     `json:"weathercode"`
		Visibility               []*float64 `json:"visibility"`
	} `json:"hourly"`
}

// GetHourlySeries возвращает упорядоченный почасовой ряд наблюдений
// на 48 часов вперёд. Скорости ветра приходят в км/ч и приводятся к
// м/с (÷3.6) - все пороги системы выражены в м/с.
func (c *Client) GetHourlySeries(ctx context.Context, lat, lon float64) ([]forecast.ObservationPoint, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", strings.Join([]string{
		"temperature_2m",
		"apparent_temperature",
		"precipitation_probability",
		"precipitation",
		"windspeed_10m",
		"windgusts_10m",
		"weathercode",
		"visibility",
	}, ","))
	q.Set("forecast_days", strconv.Itoa(hazardForecastDays))
	q.Set("timezone", "UTC")

	var resp hourlyResponse
	if err := c.getJSON(ctx, q, &resp); err != nil {
		return nil, err
	}

	h := resp.Hourly
	points := make([]forecast.ObservationPoint, 0, len(h.Time))
	for i, raw := range h.Time {
		ts, err := parseHourlyTime(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse hourly time %q: %w", raw, err)
		}

		p := forecast.ObservationPoint{
			Time:         ts,
			TemperatureC: at(h.Temperature2m, i),
			ApparentC:    at(h.ApparentTemperature, i),
			PrecipMm:     at(h.Precipitation, i),
			PrecipProb:   at(h.PrecipitationProbability, i),
			WindMs:       divide(at(h.Windspeed10m, i), kmhToMs),
			GustMs:       divide(at(h.Windgusts10m, i), kmhToMs),
		}
		if code := atInt(h.Weathercode, i); code != nil {
			p.WeatherCode = code
			p.Thunderstorm = forecast.IsThunderstormCode(*code)
		}
		if vis := at(h.Visibility, i); vis != nil {
			// Видимость приходит в метрах
			p.VisibilityKm = forecast.Float(*vis / 1000)
		}
		points = append(points, p)
	}

	return points, nil
}

// DailySummary - грубая трёхдневная сводка для Mini App
type DailySummary struct {
	Current struct {
		TemperatureC *float64 `json:"temperature_2m"`
		ApparentC    *float64 `json:"apparent_temperature"`
		PrecipMm     *float64 `json:"precipitation"`
		WeatherCode  *int     `json:"weather_code"`
		WindSpeed    *float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		WeatherCode      []*int     `json:"weather_code"`
	} `json:"daily"`
	Timezone string `json:"timezone"`
}

// GetDailySummary возвращает текущую погоду и дневной прогноз на 3 дня
func (c *Client) GetDailySummary(ctx context.Context, lat, lon float64, timezone string) (*DailySummary, error) {
	if timezone == "" {
		timezone = "auto"
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("timezone", timezone)
	q.Set("current", "temperature_2m,apparent_temperature,precipitation,weather_code,wind_speed_10m")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	q.Set("forecast_days", strconv.Itoa(summaryForecastDays))

	var summary DailySummary
	if err := c.getJSON(ctx, q, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ResolveTimezone определяет таймзону координат через Open-Meteo.
// При любой ошибке возвращается "UTC" - локация важнее таймзоны.
func (c *Client) ResolveTimezone(ctx context.Context, lat, lon float64) string {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m")
	q.Set("timezone", "auto")

	var resp struct {
		Timezone string `json:"timezone"`
	}
	if err := c.getJSON(ctx, q, &resp); err != nil || resp.Timezone == "" {
		return "UTC"
	}
	return resp.Timezone
}

// getJSON выполняет GET запрос и декодирует JSON ответ
func (c *Client) getJSON(ctx context.Context, q url.Values, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseHourlyTime разбирает метку времени "2006-01-02T15:04" как UTC
func parseHourlyTime(raw string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04", raw)
}

// at безопасно извлекает указатель из массива значений
func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func atInt(values []*int, i int) *int {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// divide делит значение на коэффициент, сохраняя nil
func divide(v *float64, by float64) *float64 {
	if v == nil {
		return nil
	}
	return forecast.Float(*v / by)
}
