package economy

import "clicker_empire/internal/domain"

// itemIncome is the hourly income of one level of an item.
func itemIncome(item Item) int64 {
	switch it := item.(type) {
	case IncomeItem:
		return it.BaseIncome
	case CosmeticItem:
		return it.Income
	case EnergyLimitItem, TapPowerItem, StatusItem, RobotItem:
		return 0
	default:
		panic("economy: unhandled item variant")
	}
}

// HourlyIncome sums income over owned items and applies the premium bonus.
func HourlyIncome(p domain.Player, cat *Catalog) int64 {
	var total int64
	for id, lvl := range p.ItemLevels {
		if lvl <= 0 {
			continue
		}
		item, ok := cat.Item(id)
		if !ok {
			continue
		}
		total = satAdd(total, satMul(itemIncome(item), int64(lvl)))
	}
	if p.IsPremium {
		// floor(total*3/2) without the intermediate product
		q, r := total/premiumDen, total%premiumDen
		total = satAdd(satMul(q, premiumNum), r*premiumNum/premiumDen)
	}
	return total
}
