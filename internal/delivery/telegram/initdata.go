// internal/delivery/telegram/initdata.go
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ошибки валидации initData
var (
	ErrInitDataInvalid = errors.New("init data is invalid")
	ErrInitDataExpired = errors.New("init data is expired")
)

// Максимальный возраст initData. Старые строки могли утечь из логов
// или истории браузера, поэтому не принимаем их.
const maxInitDataAge = 24 * time.Hour

// InitDataUser - профиль пользователя из initData Mini App
type InitDataUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

// InitData - разобранная и проверенная строка initData
type InitData struct {
	User     InitDataUser
	AuthDate time.Time
	QueryID  string
}

// ValidateInitData проверяет подпись initData по схеме Telegram Mini Apps:
// секрет = HMAC-SHA256("WebAppData", botToken), подпись считается по
// отсортированным парам key=value без поля hash.
func ValidateInitData(initData, botToken string, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed query string", ErrInitDataInvalid)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: hash is missing", ErrInitDataInvalid)
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(dataCheckString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(wantHash), []byte(gotHash)) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInitDataInvalid)
	}

	authDateUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: auth_date is missing", ErrInitDataInvalid)
	}
	authDate := time.Unix(authDateUnix, 0)

	if now.Sub(authDate) > maxInitDataAge {
		return nil, ErrInitDataExpired
	}

	var user InitDataUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("%w: user field is not valid json", ErrInitDataInvalid)
		}
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user id is missing", ErrInitDataInvalid)
	}

	return &InitData{
		User:     user,
		AuthDate: authDate,
		QueryID:  values.Get("query_id"),
	}, nil
}

// ParseInitData разбирает initData без проверки подписи.
// Только для тестового режима - в бою всегда ValidateInitData.
func ParseInitData(initData string) (*InitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed query string", ErrInitDataInvalid)
	}

	var user InitDataUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("%w: user field is not valid json", ErrInitDataInvalid)
		}
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%w: user id is missing", ErrInitDataInvalid)
	}

	authDateUnix, _ := strconv.ParseInt(values.Get("auth_date"), 10, 64)

	return &InitData{
		User:     user,
		AuthDate: time.Unix(authDateUnix, 0),
		QueryID:  values.Get("query_id"),
	}, nil
}

// SignInitData собирает подписанную строку initData из готовых полей.
// Используется в тестах и в тестовом режиме.
func SignInitData(values url.Values, botToken string) string {
	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}
