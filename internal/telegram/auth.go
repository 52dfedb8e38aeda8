package telegram

import (
	"encoding/json"
	"errors"
	"net/url"
)

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	IsPremium bool   `json:"is_premium"`
}

var ErrNoUser = errors.New("init data has no user")

// ParseUser decodes the user field of validated init data.
func ParseUser(values url.Values) (*WebAppUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, ErrNoUser
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, ErrNoUser
	}
	return &user, nil
}
