package economy

import (
	"math"
	"testing"
	"time"

	"clicker_empire/internal/domain"
)

var openPolicy = OfflinePolicy{MaxDuration: 6 * time.Hour, SessionGap: 2 * time.Minute}

func offlinePlayer(since time.Duration, items map[string]int) domain.Player {
	return domain.Player{
		Level:        1,
		MaxEnergy:    500,
		ItemLevels:   items,
		LastActiveAt: t0.Add(-since),
		LastSeenAt:   t0.Add(-since),
	}
}

func TestClaimOffline_ScenarioE(t *testing.T) {
	cat := DefaultCatalog()
	p := offlinePlayer(2*time.Hour, map[string]int{"coffee_stand": 10})

	p, credited, _ := ClaimOffline(p, cat, t0, openPolicy)
	if credited != 2000 {
		t.Fatalf("credited = %d; want 2000", credited)
	}
	if p.Balance != 2000 || p.TotalEarned != 2000 {
		t.Fatalf("balance=%d total=%d; want 2000/2000", p.Balance, p.TotalEarned)
	}
	if p.OfflinePending != 0 {
		t.Fatalf("pending = %d; want 0", p.OfflinePending)
	}

	p, credited, _ = ClaimOffline(p, cat, t0, openPolicy)
	if credited != 0 || p.Balance != 2000 {
		t.Fatalf("second claim credited %d, balance %d", credited, p.Balance)
	}
}

func TestOfflineEarnings(t *testing.T) {
	cases := []struct {
		name     string
		hourly   int64
		elapsed  time.Duration
		policy   OfflinePolicy
		unlocked bool
		want     int64
	}{
		{"two hours", 1000, 2 * time.Hour, openPolicy, false, 2000},
		{"capped at six hours", 1000, 48 * time.Hour, openPolicy, false, 6000},
		{"floors partial coins", 100, 35 * time.Second, openPolicy, false, 0},
		{"negative elapsed", 1000, -time.Hour, openPolicy, false, 0},
		{"locked without robot", 1000, time.Hour, OfflinePolicy{MaxDuration: 6 * time.Hour, RequiresUnlock: true}, false, 0},
		{"unlocked with robot", 1000, time.Hour, OfflinePolicy{MaxDuration: 6 * time.Hour, RequiresUnlock: true}, true, 1000},
		{"no income", 0, time.Hour, openPolicy, true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OfflineEarnings(tc.hourly, tc.elapsed, tc.policy, tc.unlocked); got != tc.want {
				t.Fatalf("OfflineEarnings = %d; want %d", got, tc.want)
			}
		})
	}
}

func TestSettle_StagesWhenAway(t *testing.T) {
	cat := DefaultCatalog()
	p := offlinePlayer(10*time.Hour, map[string]int{"coffee_stand": 1})

	p, s := Settle(p, cat, t0, openPolicy)
	if s.Online != 0 || s.Staged != 600 {
		t.Fatalf("settlement = %+v; want 600 staged", s)
	}
	if p.Balance != 0 || p.OfflinePending != 600 {
		t.Fatalf("balance=%d pending=%d", p.Balance, p.OfflinePending)
	}
	if !p.LastActiveAt.Equal(t0) || !p.LastSeenAt.Equal(t0) {
		t.Fatalf("cursors not moved to now: %v %v", p.LastActiveAt, p.LastSeenAt)
	}

	// Staging again without elapsed time adds nothing.
	p, s = Settle(p, cat, t0, openPolicy)
	if s.Staged != 0 || p.OfflinePending != 600 {
		t.Fatalf("re-settle staged %d, pending %d", s.Staged, p.OfflinePending)
	}
}

func TestSettle_RobotGate(t *testing.T) {
	cat := DefaultCatalog()
	gated := DefaultRules().Offline

	p := offlinePlayer(time.Hour, map[string]int{"coffee_stand": 10})
	p, s := Settle(p, cat, t0, gated)
	if s.Staged != 0 {
		t.Fatalf("staged %d without robot", s.Staged)
	}

	p = offlinePlayer(time.Hour, map[string]int{"coffee_stand": 10, ItemAutoRobot: 1})
	_, s = Settle(p, cat, t0, gated)
	if s.Staged != 1000 {
		t.Fatalf("staged %d with robot; want 1000", s.Staged)
	}
}

func TestSettle_OnlineCarriesRemainder(t *testing.T) {
	cat := DefaultCatalog()
	p := domain.Player{
		Level:        1,
		MaxEnergy:    500,
		ItemLevels:   map[string]int{"coffee_stand": 1},
		LastActiveAt: t0,
		LastSeenAt:   t0,
	}

	// 100 coins per hour is one coin every 36 seconds.
	p, s := Settle(p, cat, t0.Add(20*time.Second), openPolicy)
	if s.Online != 0 || p.Balance != 0 {
		t.Fatalf("20s credited %d", s.Online)
	}
	if !p.LastActiveAt.Equal(t0) {
		t.Fatalf("cursor moved without a whole coin: %v", p.LastActiveAt)
	}

	p, s = Settle(p, cat, t0.Add(40*time.Second), openPolicy)
	if s.Online != 1 || p.Balance != 1 || p.TotalEarned != 1 {
		t.Fatalf("40s credited %d, balance %d", s.Online, p.Balance)
	}
	if !p.LastActiveAt.Equal(t0.Add(36 * time.Second)) {
		t.Fatalf("cursor = %v; want t0+36s", p.LastActiveAt)
	}
	if p.OfflinePending != 0 {
		t.Fatalf("online accrual staged %d", p.OfflinePending)
	}
}

func TestSettle_FutureCursor(t *testing.T) {
	cat := DefaultCatalog()
	p := offlinePlayer(-time.Hour, map[string]int{"coffee_stand": 10})

	p, s := Settle(p, cat, t0, openPolicy)
	if s.Online != 0 || s.Staged != 0 {
		t.Fatalf("future cursor produced %+v", s)
	}
	if !p.LastActiveAt.Equal(t0) {
		t.Fatalf("cursor = %v; want now", p.LastActiveAt)
	}
}

func TestSettle_DoesNotMutateInput(t *testing.T) {
	cat := DefaultCatalog()
	in := offlinePlayer(time.Hour, map[string]int{"coffee_stand": 1})
	before := in.LastActiveAt

	_, _ = Settle(in, cat, t0, openPolicy)
	if !in.LastActiveAt.Equal(before) || in.OfflinePending != 0 {
		t.Fatalf("input player was modified")
	}
}

func TestSettle_LargeIncomeDoesNotWrap(t *testing.T) {
	cat, err := NewCatalog([]Item{
		IncomeItem{ItemSpec: ItemSpec{ID: "bank", BaseCost: 1, MaxLevel: 1}, BaseIncome: 1_000_000_000_000},
		IncomeItem{ItemSpec: ItemSpec{ID: "mint", BaseCost: 1, MaxLevel: 1}, BaseIncome: math.MaxInt64},
	}, nil)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	p := offlinePlayer(6*time.Hour, map[string]int{"bank": 1})
	_, s := Settle(p, cat, t0, openPolicy)
	if s.Staged != 6_000_000_000_000 {
		t.Fatalf("staged %d; want 6e12", s.Staged)
	}

	p = offlinePlayer(90*time.Minute, map[string]int{"bank": 1})
	_, s = Settle(p, cat, t0, openPolicy)
	if s.Staged != 1_500_000_000_000 {
		t.Fatalf("staged %d; want 1.5e12", s.Staged)
	}

	p = offlinePlayer(6*time.Hour, map[string]int{"mint": 1})
	p.OfflinePending = 10
	p.Balance = 10
	p, credited, _ := ClaimOffline(p, cat, t0, openPolicy)
	if credited != math.MaxInt64 || p.Balance != math.MaxInt64 || p.TotalEarned != math.MaxInt64 {
		t.Fatalf("credited=%d balance=%d total=%d; want MaxInt64", credited, p.Balance, p.TotalEarned)
	}
}

func TestAccrue_ConsumesOnlyWhatWasPaid(t *testing.T) {
	cases := []struct {
		hourly    int64
		elapsed   time.Duration
		wantCoins int64
		wantUsed  time.Duration
	}{
		{100, 40 * time.Second, 1, 36 * time.Second},
		{3, time.Hour + time.Minute, 3, time.Hour},
		{1_000_000_000_000, time.Millisecond, 277_777, time.Millisecond},
		{math.MaxInt64, time.Hour, math.MaxInt64, time.Hour},
	}
	for _, tc := range cases {
		coins, used := accrue(tc.hourly, tc.elapsed)
		if coins != tc.wantCoins || used != tc.wantUsed {
			t.Fatalf("accrue(%d, %v) = %d, %v; want %d, %v", tc.hourly, tc.elapsed, coins, used, tc.wantCoins, tc.wantUsed)
		}
	}
}

func TestClaimOffline_KeepsOnlineCarry(t *testing.T) {
	cat := DefaultCatalog()
	p := domain.Player{
		Level:        1,
		MaxEnergy:    500,
		ItemLevels:   map[string]int{"coffee_stand": 1},
		LastActiveAt: t0,
		LastSeenAt:   t0,
	}

	// online heartbeat inside the session gap: one coin paid for 36s of the 40s
	p, credited, _ := ClaimOffline(p, cat, t0.Add(40*time.Second), openPolicy)
	if credited != 0 || p.Balance != 1 {
		t.Fatalf("credited=%d balance=%d", credited, p.Balance)
	}
	if !p.LastActiveAt.Equal(t0.Add(36 * time.Second)) {
		t.Fatalf("cursor = %v; want t0+36s", p.LastActiveAt)
	}

	// 4s carried + 32s more completes the next coin
	p, _ = Settle(p, cat, t0.Add(72*time.Second), openPolicy)
	if p.Balance != 2 {
		t.Fatalf("balance = %d; carried remainder lost", p.Balance)
	}
}

func TestSettle_OnlineIncomeIsNotRobotGated(t *testing.T) {
	cat := DefaultCatalog()
	gated := DefaultRules().Offline
	items := map[string]int{"coffee_stand": 10}

	// seen a minute ago: active session, income is paid without the robot
	p := offlinePlayer(time.Minute, items)
	_, s := Settle(p, cat, t0, gated)
	if s.Online != 16 || s.Staged != 0 {
		t.Fatalf("online=%d staged=%d; want 16/0", s.Online, s.Staged)
	}

	// away longer than the session gap: the robot gate applies
	p = offlinePlayer(gated.SessionGap+time.Second, items)
	_, s = Settle(p, cat, t0, gated)
	if s.Online != 0 || s.Staged != 0 {
		t.Fatalf("online=%d staged=%d; want nothing without robot", s.Online, s.Staged)
	}
}
