package economy

import "time"

// Well-known item ids of the built-in catalog.
const (
	ItemMultitap   = "multitap"
	ItemEnergyTank = "energy_tank"
	ItemAutoRobot  = "auto_robot"
)

// DefaultThresholds is the cumulative-earnings table of the built-in catalog.
var DefaultThresholds = []int64{
	5_000,
	25_000,
	100_000,
	1_000_000,
	2_000_000,
	10_000_000,
	50_000_000,
	100_000_000,
	1_000_000_000,
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	items := []Item{
		TapPowerItem{ItemSpec{ID: ItemMultitap, Name: "Multitap", Category: CategoryPersonal, BaseCost: 500, MaxLevel: 50}},
		EnergyLimitItem{ItemSpec{ID: ItemEnergyTank, Name: "Energy Tank", Category: CategoryPersonal, BaseCost: 1000, MaxLevel: 20}},

		IncomeItem{ItemSpec: ItemSpec{ID: "coffee_stand", Name: "Coffee Stand", Category: CategoryBusiness, BaseCost: 1_000, MaxLevel: 25}, BaseIncome: 100},
		IncomeItem{ItemSpec: ItemSpec{ID: "food_truck", Name: "Food Truck", Category: CategoryBusiness, BaseCost: 5_000, MaxLevel: 25}, BaseIncome: 600},
		IncomeItem{ItemSpec: ItemSpec{ID: "car_wash", Name: "Car Wash", Category: CategoryBusiness, BaseCost: 25_000, MaxLevel: 25}, BaseIncome: 3_500},
		IncomeItem{ItemSpec: ItemSpec{ID: "hotel", Name: "Hotel", Category: CategoryBusiness, BaseCost: 150_000, MaxLevel: 25}, BaseIncome: 22_000},
		IncomeItem{ItemSpec: ItemSpec{ID: "crypto_farm", Name: "Crypto Farm", Category: CategoryBusiness, BaseCost: 1_000_000, MaxLevel: 25}, BaseIncome: 160_000},
		RobotItem{ItemSpec{ID: ItemAutoRobot, Name: "Auto Robot", Category: CategoryBusiness, BaseCost: 200_000, MaxLevel: 1}},

		CosmeticItem{ItemSpec: ItemSpec{ID: "gold_avatar", Name: "Gold Avatar", Category: CategoryCosmetic, BaseCost: 10_000, MaxLevel: 1}, Slot: "avatar"},
		CosmeticItem{ItemSpec: ItemSpec{ID: "sports_car", Name: "Sports Car", Category: CategoryCosmetic, BaseCost: 250_000, MaxLevel: 1}, Slot: "vehicle"},
		CosmeticItem{ItemSpec: ItemSpec{ID: "villa", Name: "Villa", Category: CategoryCosmetic, BaseCost: 500_000, MaxLevel: 1}, Slot: "building", Income: 5_000},

		StatusItem{ItemSpec{ID: "vip_badge", Name: "VIP Badge", Category: CategoryPremium, BaseCost: 1_000_000, MaxLevel: 1}},
	}
	c, err := NewCatalog(items, DefaultThresholds)
	if err != nil {
		panic(err)
	}
	return c
}

// Rules are the tunable knobs of the engine that are not part of the catalog.
type Rules struct {
	StartingBalance int64
	RegenPerMinute  int64
	RefillsPerDay   int
	Offline         OfflinePolicy
	Boost           BoostRules
}

// DefaultRules mirrors the live game: 1 energy per minute, 5 refills a day,
// a 6 hour offline cap gated behind the auto robot, and a 30 second x2 boost.
func DefaultRules() Rules {
	return Rules{
		StartingBalance: 0,
		RegenPerMinute:  1,
		RefillsPerDay:   5,
		Offline: OfflinePolicy{
			MaxDuration:    6 * time.Hour,
			RequiresUnlock: true,
			SessionGap:     2 * time.Minute,
		},
		Boost: BoostRules{
			Cost:     2_000,
			Duration: 30 * time.Second,
		},
	}
}
