package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateJWT(77)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := ParseJWT(token)
	if err != nil || id != 77 {
		t.Fatalf("parse = %d, %v; want 77", id, err)
	}
}

func TestParseJWT_Rejects(t *testing.T) {
	InitJWT("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, _ := expired.SignedString([]byte("test-secret"))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	foreignStr, _ := foreign.SignedString([]byte("other-secret"))

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noUserStr, _ := noUser.SignedString([]byte("test-secret"))

	for name, tok := range map[string]string{
		"garbage": "not-a-token",
		"expired": expiredStr,
		"foreign": foreignStr,
		"no user": noUserStr,
		"empty":   "",
	} {
		if _, err := ParseJWT(tok); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
