package economy

import (
	"time"

	"clicker_empire/internal/domain"
)

const (
	ComboWindow = 200 * time.Millisecond
	MaxCombo    = 10

	BoostMultiplier   = 2
	PremiumMultiplier = 1.5

	// premium x1.5 and combo steps of 0.1 are applied as exact fractions.
	premiumNum = 3
	premiumDen = 2
	comboDen   = 10
	comboCap   = 20
)

// Tap rejection reasons.
const (
	TapOK       = "ok"
	TapNoEnergy = "no_energy"
)

// TapResult is what a single tap produced.
type TapResult struct {
	Accepted        bool    `json:"accepted"`
	Reason          string  `json:"reason"`
	Value           int64   `json:"value"`
	EnergyCost      int64   `json:"energy_cost"`
	ComboCount      int     `json:"combo_count"`
	ComboMultiplier float64 `json:"combo_multiplier"`
	BoostActive     bool    `json:"boost_active"`
	LeveledUp       bool    `json:"leveled_up"`
	Level           int     `json:"level"`
}

// BaseTapPower is the level plus every owned tap power upgrade level.
func BaseTapPower(p domain.Player, cat *Catalog) int64 {
	level := p.Level
	if level < 1 {
		level = 1
	}
	return int64(level + cat.tapPowerLevels(p.ItemLevels))
}

// ComboMultiplier is 1 + 0.1 per streak step beyond the first, capped at 2.
func ComboMultiplier(combo int) float64 {
	return float64(comboTenths(combo)) / comboDen
}

func comboTenths(combo int) int64 {
	if combo < 1 {
		combo = 1
	}
	t := int64(comboDen + combo - 1)
	if t > comboCap {
		t = comboCap
	}
	return t
}

// tapValue computes floor(base * boost * premium * combo) in integers.
func tapValue(base int64, boost, premium bool, combo int) int64 {
	num := base * comboTenths(combo)
	den := int64(comboDen)
	if boost {
		num *= BoostMultiplier
	}
	if premium {
		num *= premiumNum
		den *= premiumDen
	}
	return num / den
}

// nextCombo is the streak a tap at now would produce.
func nextCombo(p domain.Player, now time.Time) int {
	if p.LastTapAt == nil {
		return 1
	}
	gap := now.Sub(*p.LastTapAt)
	if gap < 0 || gap >= ComboWindow {
		return 1
	}
	combo := p.ComboCount + 1
	if combo > MaxCombo {
		combo = MaxCombo
	}
	if combo < 1 {
		combo = 1
	}
	return combo
}

// TapValuePreview is the value of a tap at now with no combo bonus.
func TapValuePreview(p domain.Player, cat *Catalog, now time.Time) int64 {
	return tapValue(BaseTapPower(p, cat), p.BoostActive(now), p.IsPremium, 1)
}

// ResolveTap applies one tap. Energy cost equals the tap value; when the tank
// cannot cover it the tap is rejected and the player is returned unchanged.
func ResolveTap(p domain.Player, cat *Catalog, now time.Time) (domain.Player, TapResult) {
	combo := nextCombo(p, now)
	boost := p.BoostActive(now)
	value := tapValue(BaseTapPower(p, cat), boost, p.IsPremium, combo)

	res := TapResult{
		Value:           value,
		EnergyCost:      value,
		ComboCount:      combo,
		ComboMultiplier: ComboMultiplier(combo),
		BoostActive:     boost,
		Level:           p.Level,
	}
	if p.Energy < value {
		res.Reason = TapNoEnergy
		return p, res
	}

	p = p.Clone()
	p.Balance += value
	p.TotalEarned += value
	p.Energy -= value
	if p.Energy < 0 {
		p.Energy = 0
	}
	p.TapsTotal++
	p.ComboCount = combo
	t := now
	p.LastTapAt = &t

	p, prog := ApplyProgression(p, cat)
	res.Accepted = true
	res.Reason = TapOK
	res.LeveledUp = prog.LeveledUp
	res.Level = p.Level
	return p, res
}
