package economy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// Category groups items in the shop UI. It has no effect on the formulas.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryBusiness Category = "business"
	CategoryCosmetic Category = "cosmetic"
	CategoryPremium  Category = "premium"
)

// Kind is the wire tag of an item variant.
type Kind string

const (
	KindEnergyLimit Kind = "energy_limit"
	KindTapPower    Kind = "tap_power"
	KindIncome      Kind = "income"
	KindStatus      Kind = "status"
	KindCosmetic    Kind = "cosmetic"
	KindRobot       Kind = "robot"
)

// DefaultCostMultiplier is the geometric price growth per owned level.
const DefaultCostMultiplier = 1.5

// ItemSpec holds the fields shared by every catalog entry.
type ItemSpec struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	BaseCost       int64    `json:"base_cost"`
	MaxLevel       int      `json:"max_level"`
	CostMultiplier float64  `json:"cost_multiplier"`
}

// Spec returns the shared fields of an item.
func (s ItemSpec) Spec() ItemSpec { return s }

// Item is a closed set of catalog variants; only this package can add one.
type Item interface {
	Spec() ItemSpec
	isItem()
}

// EnergyLimitItem raises max energy by EnergyPerItemLevel per level.
type EnergyLimitItem struct{ ItemSpec }

// TapPowerItem adds one coin of base tap power per level.
type TapPowerItem struct{ ItemSpec }

// IncomeItem earns BaseIncome coins per hour per level.
type IncomeItem struct {
	ItemSpec
	BaseIncome int64 `json:"base_income"`
}

// StatusItem is a prestige purchase with no formula effect.
type StatusItem struct{ ItemSpec }

// CosmeticItem is an avatar, vehicle or building. Some of them also earn income.
type CosmeticItem struct {
	ItemSpec
	Slot   string `json:"slot"`
	Income int64  `json:"base_income"`
}

// RobotItem unlocks offline accrual when the offline policy requires it.
type RobotItem struct{ ItemSpec }

func (EnergyLimitItem) isItem() {}
func (TapPowerItem) isItem()    {}
func (IncomeItem) isItem()      {}
func (StatusItem) isItem()      {}
func (CosmeticItem) isItem()    {}
func (RobotItem) isItem()       {}

// KindOf returns the wire tag for an item.
func KindOf(item Item) Kind {
	switch item.(type) {
	case EnergyLimitItem:
		return KindEnergyLimit
	case TapPowerItem:
		return KindTapPower
	case IncomeItem:
		return KindIncome
	case StatusItem:
		return KindStatus
	case CosmeticItem:
		return KindCosmetic
	case RobotItem:
		return KindRobot
	default:
		panic(fmt.Sprintf("economy: unhandled item variant %T", item))
	}
}

var (
	ErrUnknownItem       = errors.New("unknown item")
	ErrDuplicateItem     = errors.New("duplicate item id")
	ErrInvalidItem       = errors.New("invalid item")
	ErrInvalidThresholds = errors.New("level thresholds must be strictly increasing")
)

// Catalog is the immutable set of purchasable items plus the level threshold table.
type Catalog struct {
	items      map[string]Item
	order      []string
	thresholds []int64
}

// NewCatalog validates items and thresholds. A zero cost multiplier means DefaultCostMultiplier.
func NewCatalog(items []Item, thresholds []int64) (*Catalog, error) {
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, ErrInvalidThresholds
		}
	}
	if len(thresholds) > 0 && thresholds[0] < 0 {
		return nil, ErrInvalidThresholds
	}

	c := &Catalog{
		items:      make(map[string]Item, len(items)),
		thresholds: append([]int64(nil), thresholds...),
	}
	for _, item := range items {
		item = withDefaults(item)
		spec := item.Spec()
		if spec.ID == "" || spec.BaseCost < 0 || spec.MaxLevel <= 0 || spec.CostMultiplier < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidItem, spec.ID)
		}
		if itemIncome(item) < 0 {
			return nil, fmt.Errorf("%w: %q has negative income", ErrInvalidItem, spec.ID)
		}
		if ItemCost(item, spec.MaxLevel-1) == math.MaxInt64 {
			return nil, fmt.Errorf("%w: %q costs overflow before max level", ErrInvalidItem, spec.ID)
		}
		if _, ok := c.items[spec.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, spec.ID)
		}
		c.items[spec.ID] = item
		c.order = append(c.order, spec.ID)
	}
	return c, nil
}

func withDefaults(item Item) Item {
	fix := func(s ItemSpec) ItemSpec {
		if s.CostMultiplier == 0 {
			s.CostMultiplier = DefaultCostMultiplier
		}
		return s
	}
	switch it := item.(type) {
	case EnergyLimitItem:
		it.ItemSpec = fix(it.ItemSpec)
		return it
	case TapPowerItem:
		it.ItemSpec = fix(it.ItemSpec)
		return it
	case IncomeItem:
		it.ItemSpec = fix(it.ItemSpec)
		return it
	case StatusItem:
		it.ItemSpec = fix(it.ItemSpec)
		return it
	case CosmeticItem:
		it.ItemSpec = fix(it.ItemSpec)
		return it
	case RobotItem:
		it.ItemSpec = fix(it.ItemSpec)
		return it
	default:
		panic(fmt.Sprintf("economy: unhandled item variant %T", item))
	}
}

// Item looks up an item by id.
func (c *Catalog) Item(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items returns the catalog in declaration order.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Thresholds returns a copy of the level threshold table.
func (c *Catalog) Thresholds() []int64 {
	return append([]int64(nil), c.thresholds...)
}

// MaxLevel is the highest level reachable through the threshold table.
func (c *Catalog) MaxLevel() int {
	return len(c.thresholds) + 1
}

// levelsOf sums owned levels over every item accepted by match.
func (c *Catalog) levelsOf(itemLevels map[string]int, match func(Item) bool) int {
	total := 0
	for id, lvl := range itemLevels {
		if lvl <= 0 {
			continue
		}
		item, ok := c.items[id]
		if !ok || !match(item) {
			continue
		}
		total += lvl
	}
	return total
}

func (c *Catalog) tapPowerLevels(itemLevels map[string]int) int {
	return c.levelsOf(itemLevels, func(it Item) bool {
		_, ok := it.(TapPowerItem)
		return ok
	})
}

func (c *Catalog) energyLevels(itemLevels map[string]int) int {
	return c.levelsOf(itemLevels, func(it Item) bool {
		_, ok := it.(EnergyLimitItem)
		return ok
	})
}

func (c *Catalog) robotLevels(itemLevels map[string]int) int {
	return c.levelsOf(itemLevels, func(it Item) bool {
		_, ok := it.(RobotItem)
		return ok
	})
}

// catalogFile is the on-disk shape of a catalog: a threshold table and tagged items.
type catalogFile struct {
	Thresholds []int64    `json:"thresholds"`
	Items      []itemJSON `json:"items"`
}

type itemJSON struct {
	Type Kind `json:"type"`
	ItemSpec
	BaseIncome int64  `json:"base_income"`
	Slot       string `json:"slot"`
}

func (j itemJSON) toItem() (Item, error) {
	switch j.Type {
	case KindEnergyLimit:
		return EnergyLimitItem{j.ItemSpec}, nil
	case KindTapPower:
		return TapPowerItem{j.ItemSpec}, nil
	case KindIncome:
		return IncomeItem{ItemSpec: j.ItemSpec, BaseIncome: j.BaseIncome}, nil
	case KindStatus:
		return StatusItem{j.ItemSpec}, nil
	case KindCosmetic:
		return CosmeticItem{ItemSpec: j.ItemSpec, Slot: j.Slot, Income: j.BaseIncome}, nil
	case KindRobot:
		return RobotItem{j.ItemSpec}, nil
	default:
		return nil, fmt.Errorf("%w: %q has unknown type %q", ErrInvalidItem, j.ID, j.Type)
	}
}

// ParseCatalog decodes a JSON catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	items := make([]Item, 0, len(f.Items))
	for _, raw := range f.Items {
		item, err := raw.toItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return NewCatalog(items, f.Thresholds)
}

// LoadCatalog reads a JSON catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ItemView is the presentation shape of a catalog item.
type ItemView struct {
	Type Kind `json:"type"`
	ItemSpec
	BaseIncome int64  `json:"base_income,omitempty"`
	Slot       string `json:"slot,omitempty"`
}

func itemView(item Item) ItemView {
	v := ItemView{Type: KindOf(item), ItemSpec: item.Spec()}
	switch it := item.(type) {
	case IncomeItem:
		v.BaseIncome = it.BaseIncome
	case CosmeticItem:
		v.BaseIncome = it.Income
		v.Slot = it.Slot
	}
	return v
}

// Views lists the catalog for the shop UI, sorted by category then cost.
func (c *Catalog) Views() []ItemView {
	out := make([]ItemView, 0, len(c.order))
	for _, item := range c.Items() {
		out = append(out, itemView(item))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].BaseCost < out[j].BaseCost
	})
	return out
}
