package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	maxInitDataAge = time.Hour
	maxClockSkew   = 5 * time.Minute
)

// secretKey derives the WebApp signing key from the bot token.
func secretKey(botToken string) []byte {
	h := hmac.New(sha256.New, []byte("WebAppData"))
	h.Write([]byte(botToken))
	return h.Sum(nil)
}

// dataCheckString joins all fields except hash as sorted key=value lines.
func dataCheckString(values url.Values) string {
	var dataCheck []string
	for k, v := range values {
		if k == "hash" {
			continue
		}
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}
	sort.Strings(dataCheck)
	return strings.Join(dataCheck, "\n")
}

// Sign computes the hash Telegram would attach to values.
func Sign(values url.Values, botToken string) string {
	h := hmac.New(sha256.New, secretKey(botToken))
	h.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateInitData verifies the WebApp init_data HMAC and checks that
// auth_date is within the last hour, to mitigate replay.
func ValidateInitData(initData, botToken string, now time.Time) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}
	expected, _ := hex.DecodeString(Sign(values, botToken))
	if !hmac.Equal(expected, provided) {
		return nil, false
	}
	values.Del("hash")

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, false
	}
	signedAt := time.Unix(authDate, 0)
	if now.Sub(signedAt) > maxInitDataAge || signedAt.Sub(now) > maxClockSkew {
		return nil, false
	}

	return values, true
}
