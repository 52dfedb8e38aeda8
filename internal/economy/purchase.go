package economy

import (
	"errors"
	"fmt"
	"math"

	"clicker_empire/internal/domain"
)

var (
	ErrMaxLevel            = errors.New("item is at max level")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// InsufficientBalanceError carries the shortfall so the UI can show it.
type InsufficientBalanceError struct {
	Cost    int64
	Balance int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: need %d more", e.Shortfall())
}

// Shortfall is how many coins are missing.
func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Cost - e.Balance
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// ItemCost is floor(BaseCost * CostMultiplier^level) for the next level,
// clamped to MaxInt64 so an unaffordable level can never wrap negative.
func ItemCost(item Item, level int) int64 {
	spec := item.Spec()
	mult := spec.CostMultiplier
	if mult == 0 {
		mult = DefaultCostMultiplier
	}
	if level < 0 {
		level = 0
	}
	cost := math.Floor(float64(spec.BaseCost) * math.Pow(mult, float64(level)))
	if cost >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(cost)
}

// PurchaseResult describes a completed purchase.
type PurchaseResult struct {
	ItemID   string `json:"item_id"`
	Kind     Kind   `json:"type"`
	NewLevel int    `json:"new_level"`
	Cost     int64  `json:"cost"`
	NextCost int64  `json:"next_cost,omitempty"`
}

// PurchaseItem buys the next level of an item. Validation happens before any
// mutation so a failed purchase returns the player untouched.
func PurchaseItem(p domain.Player, cat *Catalog, itemID string) (domain.Player, PurchaseResult, error) {
	item, ok := cat.Item(itemID)
	if !ok {
		return p, PurchaseResult{}, fmt.Errorf("%w: %q", ErrUnknownItem, itemID)
	}
	spec := item.Spec()
	level := p.ItemLevel(itemID)
	if level >= spec.MaxLevel {
		return p, PurchaseResult{}, ErrMaxLevel
	}
	cost := ItemCost(item, level)
	if p.Balance < cost {
		return p, PurchaseResult{}, &InsufficientBalanceError{Cost: cost, Balance: p.Balance}
	}

	p = p.Clone()
	if p.ItemLevels == nil {
		p.ItemLevels = make(map[string]int)
	}
	p.Balance -= cost
	p.ItemLevels[itemID] = level + 1

	p, _ = ApplyProgression(p, cat)

	res := PurchaseResult{
		ItemID:   itemID,
		Kind:     KindOf(item),
		NewLevel: level + 1,
		Cost:     cost,
	}
	if level+1 < spec.MaxLevel {
		res.NextCost = ItemCost(item, level+1)
	}
	return p, res, nil
}
