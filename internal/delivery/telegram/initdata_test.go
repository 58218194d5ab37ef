// internal/delivery/telegram/initdata_test.go
package telegram

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-TOKEN"

func signedInitData(t *testing.T, authDate time.Time) string {
	t.Helper()
	values := url.Values{}
	values.Set("user", `{"id":100500,"first_name":"Иван","username":"ivan","language_code":"ru"}`)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAF_test")
	return SignInitData(values, testBotToken)
}

func TestValidateInitData(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, now.Add(-time.Hour))

	parsed, err := ValidateInitData(raw, testBotToken, now)
	require.NoError(t, err)
	assert.Equal(t, int64(100500), parsed.User.ID)
	assert.Equal(t, "Иван", parsed.User.FirstName)
	assert.Equal(t, "ivan", parsed.User.Username)
	assert.Equal(t, "ru", parsed.User.LanguageCode)
	assert.Equal(t, "AAF_test", parsed.QueryID)
}

func TestValidateInitDataRejectsWrongToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, now.Add(-time.Hour))

	_, err := ValidateInitData(raw, "another:token", now)
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}

func TestValidateInitDataRejectsTampering(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, now.Add(-time.Hour))

	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	values.Set("user", `{"id":999,"first_name":"Evil"}`)

	_, err = ValidateInitData(values.Encode(), testBotToken, now)
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}

func TestValidateInitDataRejectsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	raw := signedInitData(t, now.Add(-25*time.Hour))

	_, err := ValidateInitData(raw, testBotToken, now)
	assert.ErrorIs(t, err, ErrInitDataExpired)
}

func TestValidateInitDataRejectsMissingHash(t *testing.T) {
	_, err := ValidateInitData("user=%7B%22id%22%3A1%7D&auth_date=1", testBotToken, time.Now())
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}

func TestParseInitDataWithoutSignature(t *testing.T) {
	values := url.Values{}
	values.Set("user", `{"id":42,"first_name":"Dev"}`)
	values.Set("auth_date", "1767225600")

	parsed, err := ParseInitData(values.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(42), parsed.User.ID)

	_, err = ParseInitData("user=%7B%7D")
	assert.ErrorIs(t, err, ErrInitDataInvalid)
}
