package config

import (
	"testing"
	"time"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(lookup(map[string]string{
		"JWT_SECRET":   "s",
		"BOT_TOKEN":    "b",
		"DATABASE_URL": "postgres://localhost/clicker",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AppPort != "8080" || cfg.Storage != StoragePostgres {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	rules := cfg.Rules()
	if rules.Offline.MaxDuration != 6*time.Hour || !rules.Offline.RequiresUnlock || rules.Offline.SessionGap != 2*time.Minute {
		t.Fatalf("unexpected offline policy: %+v", rules.Offline)
	}
	if rules.RefillsPerDay != 5 || rules.Boost.Cost != 2000 || rules.Boost.Duration != 30*time.Second {
		t.Fatalf("unexpected rules: %+v", rules)
	}
	if cfg.MaxSaveRetries != 3 {
		t.Fatalf("max save retries = %d", cfg.MaxSaveRetries)
	}
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse(lookup(map[string]string{
		"JWT_SECRET":              "s",
		"DEV_MODE":                "true",
		"STORAGE":                 "memory",
		"OFFLINE_CAP_HOURS":       "3",
		"OFFLINE_REQUIRES_UNLOCK": "false",
		"STARTING_BALANCE":        "500",
		"TAP_RATE_LIMIT":          "7",
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.OfflineCap != 3*time.Hour || cfg.OfflineUnlock || cfg.StartingBalance != 500 || cfg.TapRateLimit != 7 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"BOT_TOKEN": "b", "STORAGE": "memory"}},
		{"missing bot token", map[string]string{"JWT_SECRET": "s", "STORAGE": "memory"}},
		{"missing database url", map[string]string{"JWT_SECRET": "s", "BOT_TOKEN": "b"}},
		{"unknown storage", map[string]string{"JWT_SECRET": "s", "BOT_TOKEN": "b", "STORAGE": "mongo"}},
		{"bad number", map[string]string{"JWT_SECRET": "s", "BOT_TOKEN": "b", "STORAGE": "memory", "REFILLS_PER_DAY": "many"}},
		{"bad bool", map[string]string{"JWT_SECRET": "s", "BOT_TOKEN": "b", "STORAGE": "memory", "OFFLINE_REQUIRES_UNLOCK": "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(lookup(tc.env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
