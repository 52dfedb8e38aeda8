package economy

import (
	"time"

	"clicker_empire/internal/domain"
)

// NewPlayer is the record created at first contact.
func NewPlayer(tgID int64, username, firstName string, cat *Catalog, rules Rules, now time.Time) domain.Player {
	p := domain.Player{
		TgID:         tgID,
		Username:     username,
		FirstName:    firstName,
		Balance:      rules.StartingBalance,
		Level:        1,
		ItemLevels:   map[string]int{},
		LastEnergyAt: now,
		LastActiveAt: now,
		LastSeenAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.MaxEnergy = MaxEnergy(1, 0)
	p.Energy = p.MaxEnergy
	p, _ = ApplyProgression(p, cat)
	return p
}

// State is everything the game screen renders.
type State struct {
	Balance         int64          `json:"balance"`
	TotalEarned     int64          `json:"total_earned"`
	Level           int            `json:"level"`
	ProgressPercent float64        `json:"progress_percent"`
	NextThreshold   int64          `json:"next_threshold,omitempty"`
	Energy          int64          `json:"energy"`
	MaxEnergy       int64          `json:"max_energy"`
	HourlyIncome    int64          `json:"hourly_income"`
	TapValuePreview int64          `json:"tap_value_preview"`
	IsPremium       bool           `json:"is_premium"`
	BoostEndsAt     *time.Time     `json:"boost_ends_at,omitempty"`
	OfflinePending  int64          `json:"offline_pending"`
	OfflineUnlocked bool           `json:"offline_unlocked"`
	RefillsLeft     int            `json:"refills_left"`
	ItemLevels      map[string]int `json:"item_levels"`
	TapsTotal       int64          `json:"taps_total"`
	ServerTime      time.Time      `json:"server_time"`
}

// Snapshot renders the presentation view of a player at now.
func Snapshot(p domain.Player, cat *Catalog, rules Rules, now time.Time) State {
	prog := CalculateProgress(p.TotalEarned, p.Level, cat.thresholds)
	s := State{
		Balance:         p.Balance,
		TotalEarned:     p.TotalEarned,
		Level:           prog.EffectiveLevel,
		ProgressPercent: prog.ProgressPercent,
		NextThreshold:   prog.NextThreshold,
		Energy:          p.Energy,
		MaxEnergy:       p.MaxEnergy,
		HourlyIncome:    HourlyIncome(p, cat),
		TapValuePreview: TapValuePreview(p, cat, now),
		IsPremium:       p.IsPremium,
		OfflinePending:  p.OfflinePending,
		OfflineUnlocked: !rules.Offline.RequiresUnlock || OfflineUnlocked(p, cat),
		RefillsLeft:     RefillsLeft(p, now, rules.RefillsPerDay),
		ItemLevels:      p.Clone().ItemLevels,
		TapsTotal:       p.TapsTotal,
		ServerTime:      now,
	}
	if p.BoostActive(now) {
		t := *p.BoostEndsAt
		s.BoostEndsAt = &t
	}
	if s.ItemLevels == nil {
		s.ItemLevels = map[string]int{}
	}
	return s
}
