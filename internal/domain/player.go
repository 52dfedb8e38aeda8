package domain

import "time"

// Player is the economy record of a single account.
type Player struct {
	ID        int64  `db:"id" json:"id"`
	TgID      int64  `db:"tg_id" json:"tg_id"`
	Username  string `db:"username" json:"username"`
	FirstName string `db:"first_name" json:"first_name"`

	Balance     int64 `db:"balance" json:"balance"`
	TotalEarned int64 `db:"total_earned" json:"total_earned"` // never decreases
	Level       int   `db:"level" json:"level"`               // never decreases

	Energy       int64     `db:"energy" json:"energy"`
	MaxEnergy    int64     `db:"max_energy" json:"max_energy"`
	LastEnergyAt time.Time `db:"last_energy_at" json:"last_energy_at"`

	IsPremium   bool           `db:"is_premium" json:"is_premium"`
	ItemLevels  map[string]int `db:"item_levels" json:"item_levels"`
	BoostEndsAt *time.Time     `db:"boost_ends_at" json:"boost_ends_at,omitempty"`

	// LastActiveAt is the passive income cursor, LastSeenAt the session heartbeat.
	LastActiveAt   time.Time `db:"last_active_at" json:"last_active_at"`
	LastSeenAt     time.Time `db:"last_seen_at" json:"last_seen_at"`
	OfflinePending int64     `db:"offline_pending" json:"offline_pending"`

	ComboCount int        `db:"combo_count" json:"combo_count"`
	LastTapAt  *time.Time `db:"last_tap_at" json:"last_tap_at,omitempty"`
	TapsTotal  int64      `db:"taps_total" json:"taps_total"`

	RefillDay   string `db:"refill_day" json:"refill_day"`
	RefillsUsed int    `db:"refills_used" json:"refills_used"`

	Version   int64     `db:"version" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ItemLevel returns the owned level of an item, zero when not owned.
func (p *Player) ItemLevel(id string) int {
	if p.ItemLevels == nil {
		return 0
	}
	return p.ItemLevels[id]
}

// Clone returns a deep copy so calculators never alias the caller's maps or pointers.
func (p Player) Clone() Player {
	out := p
	if p.ItemLevels != nil {
		out.ItemLevels = make(map[string]int, len(p.ItemLevels))
		for k, v := range p.ItemLevels {
			out.ItemLevels[k] = v
		}
	}
	if p.BoostEndsAt != nil {
		t := *p.BoostEndsAt
		out.BoostEndsAt = &t
	}
	if p.LastTapAt != nil {
		t := *p.LastTapAt
		out.LastTapAt = &t
	}
	return out
}

// BoostActive reports whether the tap boost window is open at now.
func (p *Player) BoostActive(now time.Time) bool {
	return p.BoostEndsAt != nil && now.Before(*p.BoostEndsAt)
}
