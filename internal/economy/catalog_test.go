package economy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `{
  "thresholds": [100, 1000],
  "items": [
    {"type": "tap_power", "id": "glove", "name": "Glove", "category": "personal", "base_cost": 50, "max_level": 5},
    {"type": "income", "id": "stall", "name": "Stall", "category": "business", "base_cost": 200, "max_level": 10, "base_income": 40, "cost_multiplier": 2},
    {"type": "cosmetic", "id": "yacht", "name": "Yacht", "category": "cosmetic", "base_cost": 900, "max_level": 1, "slot": "vehicle", "base_income": 10},
    {"type": "robot", "id": "bot", "name": "Bot", "category": "business", "base_cost": 500, "max_level": 1}
  ]
}`

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cat.MaxLevel() != 3 {
		t.Fatalf("max level = %d; want 3", cat.MaxLevel())
	}

	glove, ok := cat.Item("glove")
	if !ok {
		t.Fatalf("glove missing")
	}
	if _, isTap := glove.(TapPowerItem); !isTap {
		t.Fatalf("glove decoded as %T", glove)
	}
	if glove.Spec().CostMultiplier != DefaultCostMultiplier {
		t.Fatalf("default multiplier not applied: %v", glove.Spec().CostMultiplier)
	}

	stall, _ := cat.Item("stall")
	if ItemCost(stall, 2) != 800 {
		t.Fatalf("stall cost at level 2 = %d; want 800", ItemCost(stall, 2))
	}

	yacht, _ := cat.Item("yacht")
	if c, ok := yacht.(CosmeticItem); !ok || c.Slot != "vehicle" || c.Income != 10 {
		t.Fatalf("yacht decoded as %#v", yacht)
	}

	ids := []string{}
	for _, it := range cat.Items() {
		ids = append(ids, it.Spec().ID)
	}
	if len(ids) != 4 || ids[0] != "glove" || ids[3] != "bot" {
		t.Fatalf("declaration order lost: %v", ids)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"decreasing thresholds", `{"thresholds":[10,5],"items":[]}`, ErrInvalidThresholds},
		{"equal thresholds", `{"thresholds":[10,10],"items":[]}`, ErrInvalidThresholds},
		{"unknown type", `{"items":[{"type":"spaceship","id":"x","base_cost":1,"max_level":1}]}`, ErrInvalidItem},
		{"zero max level", `{"items":[{"type":"status","id":"x","base_cost":1,"max_level":0}]}`, ErrInvalidItem},
		{"missing id", `{"items":[{"type":"status","base_cost":1,"max_level":1}]}`, ErrInvalidItem},
		{"shrinking price", `{"items":[{"type":"status","id":"x","base_cost":1,"max_level":1,"cost_multiplier":0.5}]}`, ErrInvalidItem},
		{"cost overflows before max level", `{"items":[{"type":"tap_power","id":"mt","base_cost":500,"max_level":200}]}`, ErrInvalidItem},
		{"negative income", `{"items":[{"type":"income","id":"x","base_cost":1,"max_level":1,"base_income":-5}]}`, ErrInvalidItem},
		{"duplicate id", `{"items":[{"type":"status","id":"x","base_cost":1,"max_level":1},{"type":"robot","id":"x","base_cost":1,"max_level":1}]}`, ErrDuplicateItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tc.doc))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
		})
	}

	if _, err := ParseCatalog([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Items()) != 4 {
		t.Fatalf("items = %d; want 4", len(cat.Items()))
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestViews_SortedByCategoryThenCost(t *testing.T) {
	views := DefaultCatalog().Views()
	for i := 1; i < len(views); i++ {
		a, b := views[i-1], views[i]
		if a.Category > b.Category || (a.Category == b.Category && a.BaseCost > b.BaseCost) {
			t.Fatalf("views out of order at %d: %s/%d before %s/%d", i, a.ID, a.BaseCost, b.ID, b.BaseCost)
		}
	}
	for _, v := range views {
		if v.ID == "villa" && (v.Type != KindCosmetic || v.BaseIncome != 5000 || v.Slot != "building") {
			t.Fatalf("villa view = %+v", v)
		}
	}
}

func TestDefaultCatalog_Valid(t *testing.T) {
	cat := DefaultCatalog()
	for _, item := range cat.Items() {
		_ = KindOf(item)
		if ItemCost(item, 0) != item.Spec().BaseCost {
			t.Fatalf("%s: first level should cost base cost", item.Spec().ID)
		}
	}
	if len(cat.Thresholds()) != len(DefaultThresholds) {
		t.Fatalf("thresholds not copied")
	}
}
