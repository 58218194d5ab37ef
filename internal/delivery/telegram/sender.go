// internal/delivery/telegram/sender.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"meteovip-backend/pkg/logger"
)

// MessageSender отправляет уведомления пользователям через Bot API
type MessageSender struct {
	httpClient *http.Client
	baseURL    string
	enabled    bool
	testMode   bool
}

// sendMessageRequest - тело запроса sendMessage
type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// NewMessageSender создает отправителя уведомлений.
// В тестовом режиме сообщения только логируются.
func NewMessageSender(botToken string, enabled, testMode bool) *MessageSender {
	if enabled && !testMode && botToken == "" {
		logger.Warn("⚠️ [Telegram] BOT_TOKEN не указан, отправка уведомлений отключена")
		enabled = false
	}

	return &MessageSender{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    fmt.Sprintf("https://api.telegram.org/bot%s/", botToken),
		enabled:    enabled,
		testMode:   testMode,
	}
}

// IsEnabled возвращает статус отправителя
func (s *MessageSender) IsEnabled() bool {
	return s.enabled
}

// SendMessage отправляет текстовое сообщение в личный чат пользователя
func (s *MessageSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if !s.enabled {
		return nil
	}

	if s.testMode {
		logger.Info("📨 [Telegram] (тестовый режим) chat=%d:\n%s", chatID, text)
		return nil
	}

	jsonData, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"sendMessage", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var telegramResp struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code,omitempty"`
		Description string `json:"description,omitempty"`
	}
	if err := json.Unmarshal(body, &telegramResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !telegramResp.OK {
		return fmt.Errorf("telegram API error %d: %s", telegramResp.ErrorCode, telegramResp.Description)
	}

	return nil
}
