package economy

import (
	"errors"
	"time"

	"clicker_empire/internal/domain"
)

const (
	BaseEnergy         = 500
	EnergyPerLevel     = 500
	EnergyPerItemLevel = 500
)

// DayLayout keys per-day counters.
const DayLayout = "2006-01-02"

var ErrRefillLimitReached = errors.New("daily energy refill limit reached")

// MaxEnergy is the tank size for a level and owned energy upgrades.
func MaxEnergy(level, energyItemLevels int) int64 {
	if level < 1 {
		level = 1
	}
	if energyItemLevels < 0 {
		energyItemLevels = 0
	}
	return BaseEnergy + int64(level-1)*EnergyPerLevel + int64(energyItemLevels)*EnergyPerItemLevel
}

// RegenEnergy credits perMinute energy for every whole minute since LastEnergyAt.
// The cursor only advances by the minutes consumed so partial minutes carry over.
func RegenEnergy(p domain.Player, now time.Time, perMinute int64) domain.Player {
	if p.LastEnergyAt.IsZero() || p.LastEnergyAt.After(now) {
		p.LastEnergyAt = now
		return p
	}
	if p.Energy < 0 {
		p.Energy = 0
	}
	if p.Energy >= p.MaxEnergy || perMinute <= 0 {
		if p.Energy > p.MaxEnergy {
			p.Energy = p.MaxEnergy
		}
		p.LastEnergyAt = now
		return p
	}

	minutes := int64(now.Sub(p.LastEnergyAt) / time.Minute)
	if minutes == 0 {
		return p
	}

	missing := p.MaxEnergy - p.Energy
	if minutes >= (missing+perMinute-1)/perMinute {
		p.Energy = p.MaxEnergy
		p.LastEnergyAt = now
		return p
	}
	p.Energy += minutes * perMinute
	p.LastEnergyAt = p.LastEnergyAt.Add(time.Duration(minutes) * time.Minute)
	return p
}

// RefillEnergy fills the tank, at most perDay times per UTC calendar day.
func RefillEnergy(p domain.Player, now time.Time, perDay int) (domain.Player, error) {
	day := now.UTC().Format(DayLayout)
	used := p.RefillsUsed
	if p.RefillDay != day {
		used = 0
	}
	if used >= perDay {
		return p, ErrRefillLimitReached
	}
	p.RefillDay = day
	p.RefillsUsed = used + 1
	p.Energy = p.MaxEnergy
	p.LastEnergyAt = now
	return p, nil
}

// RefillsLeft reports how many refills remain for the day containing now.
func RefillsLeft(p domain.Player, now time.Time, perDay int) int {
	used := p.RefillsUsed
	if p.RefillDay != now.UTC().Format(DayLayout) {
		used = 0
	}
	if left := perDay - used; left > 0 {
		return left
	}
	return 0
}
