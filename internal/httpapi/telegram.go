package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TelegramUser is the user block carried inside signed initData.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Language  string `json:"language_code"`
}

// ValidateInitData verifies the initData signature against the bot token and
// returns the embedded user. Proxies sometimes turn '+' into spaces in the
// raw query string, so a repaired variant is tried as well; both the WebApp
// secret and the legacy sha256 secret are accepted.
func ValidateInitData(initData string, botToken string) (TelegramUser, error) {
	if initData == "" {
		return TelegramUser{}, fmt.Errorf("initData is empty")
	}
	if botToken == "" {
		return TelegramUser{}, fmt.Errorf("botToken is empty")
	}

	inputs := []string{
		initData,
		strings.ReplaceAll(initData, " ", "+"),
	}
	secrets := [][]byte{
		webAppSecret(botToken),
		legacySecret(botToken),
	}

	var lastErr error
	for _, input := range inputs {
		for _, secret := range secrets {
			user, err := verifyAndParse(input, secret)
			if err == nil {
				return user, nil
			}
			lastErr = err
		}
	}
	return TelegramUser{}, fmt.Errorf("initData validation failed: %w", lastErr)
}

func verifyAndParse(initData string, secretKey []byte) (TelegramUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return TelegramUser{}, fmt.Errorf("parse query: %w", err)
	}

	receivedHash := values.Get("hash")
	if receivedHash == "" {
		return TelegramUser{}, fmt.Errorf("hash is missing")
	}
	values.Del("hash")

	// data-check-string: remaining pairs sorted by key, newline-joined.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values.Get(k))
	}

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(strings.Join(parts, "\n")))
	calculated := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(calculated), []byte(receivedHash)) {
		return TelegramUser{}, fmt.Errorf("signature mismatch")
	}

	if err := checkAuthDate(values.Get("auth_date")); err != nil {
		return TelegramUser{}, err
	}

	return parseUser(values.Get("user"))
}

func checkAuthDate(raw string) error {
	if raw == "" {
		return nil
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}

	authTime := time.Unix(ts, 0)
	now := time.Now()
	if now.Sub(authTime) > 24*time.Hour {
		return fmt.Errorf("initData expired (older than 24h)")
	}
	// Allow a small clock skew, nothing more.
	if authTime.Sub(now) > 5*time.Minute {
		return fmt.Errorf("initData is from the future (check server time)")
	}
	return nil
}

func parseUser(userJSON string) (TelegramUser, error) {
	if userJSON == "" {
		return TelegramUser{}, fmt.Errorf("user field is empty")
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return TelegramUser{}, fmt.Errorf("unmarshal user: %w", err)
	}
	if user.ID == 0 {
		return TelegramUser{}, fmt.Errorf("user id is 0")
	}
	return user, nil
}

func webAppSecret(token string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

func legacySecret(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}
