package economy

import (
	"errors"
	"time"

	"clicker_empire/internal/domain"
)

var ErrBoostActive = errors.New("boost already active")

// BoostRules prices the temporary x2 tap boost.
type BoostRules struct {
	Cost     int64
	Duration time.Duration
}

// ActivateBoost charges Cost and opens a boost window of Duration from now.
func ActivateBoost(p domain.Player, now time.Time, rules BoostRules) (domain.Player, error) {
	if p.BoostActive(now) {
		return p, ErrBoostActive
	}
	if p.Balance < rules.Cost {
		return p, &InsufficientBalanceError{Cost: rules.Cost, Balance: p.Balance}
	}
	p = p.Clone()
	p.Balance -= rules.Cost
	ends := now.Add(rules.Duration)
	p.BoostEndsAt = &ends
	return p, nil
}
