package economy

import (
	"math"
	"math/bits"
	"time"

	"clicker_empire/internal/domain"
)

const msPerHour = int64(time.Hour / time.Millisecond)

// OfflinePolicy bounds offline accrual. The cap always applies; RequiresUnlock
// additionally zeroes offline accrual until a robot item is owned.
type OfflinePolicy struct {
	MaxDuration    time.Duration
	RequiresUnlock bool
	// SessionGap is the longest silence still treated as being online.
	SessionGap time.Duration
}

// Settlement reports what Settle did.
type Settlement struct {
	Online int64 `json:"online"`
	Staged int64 `json:"staged"`
}

// OfflineUnlocked reports whether the player owns an item that unlocks offline accrual.
func OfflineUnlocked(p domain.Player, cat *Catalog) bool {
	return cat.robotLevels(p.ItemLevels) > 0
}

// accrue converts elapsed time into whole coins and returns how much of the
// elapsed time those coins used up. The remainder is left for the next call.
func accrue(hourly int64, elapsed time.Duration) (int64, time.Duration) {
	if elapsed <= 0 {
		return 0, 0
	}
	if hourly <= 0 {
		return 0, elapsed
	}
	ms := elapsed.Milliseconds()
	coins := mulDiv(hourly, ms, msPerHour)
	if coins == 0 {
		return 0, 0
	}
	if coins == math.MaxInt64 {
		return coins, elapsed
	}
	// ceil(coins*msPerHour/hourly) never exceeds ms
	hi, lo := bits.Mul64(uint64(coins), uint64(msPerHour))
	lo, carry := bits.Add64(lo, uint64(hourly-1), 0)
	usedMs, _ := bits.Div64(hi+carry, lo, uint64(hourly))
	return coins, time.Duration(usedMs) * time.Millisecond
}

// OfflineEarnings is floor(hourly * elapsed / 1h) with elapsed clamped to [0, MaxDuration].
func OfflineEarnings(hourly int64, elapsed time.Duration, policy OfflinePolicy, unlocked bool) int64 {
	if policy.RequiresUnlock && !unlocked {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if policy.MaxDuration > 0 && elapsed > policy.MaxDuration {
		elapsed = policy.MaxDuration
	}
	coins, _ := accrue(hourly, elapsed)
	return coins
}

// Settle brings passive income up to now. A player seen within SessionGap is
// online and is credited directly; otherwise the capped offline amount is
// staged in OfflinePending until claimed.
func Settle(p domain.Player, cat *Catalog, now time.Time, policy OfflinePolicy) (domain.Player, Settlement) {
	var s Settlement
	p = p.Clone()
	if p.LastActiveAt.IsZero() || p.LastActiveAt.After(now) {
		p.LastActiveAt = now
		p.LastSeenAt = now
		return p, s
	}

	hourly := HourlyIncome(p, cat)
	elapsed := now.Sub(p.LastActiveAt)
	online := !p.LastSeenAt.IsZero() && !p.LastSeenAt.After(now) && now.Sub(p.LastSeenAt) <= policy.SessionGap

	if online {
		coins, used := accrue(hourly, elapsed)
		p.Balance = satAdd(p.Balance, coins)
		p.TotalEarned = satAdd(p.TotalEarned, coins)
		p.LastActiveAt = p.LastActiveAt.Add(used)
		s.Online = coins
	} else {
		s.Staged = OfflineEarnings(hourly, elapsed, policy, OfflineUnlocked(p, cat))
		p.OfflinePending = satAdd(p.OfflinePending, s.Staged)
		p.LastActiveAt = now
	}
	p.LastSeenAt = now

	if s.Online > 0 {
		p, _ = ApplyProgression(p, cat)
	}
	return p, s
}

// ClaimOffline settles and then moves the staged reward into the balance.
// Claiming twice without elapsed time credits nothing the second time. The
// income cursor stays where Settle left it so an online carry survives.
func ClaimOffline(p domain.Player, cat *Catalog, now time.Time, policy OfflinePolicy) (domain.Player, int64, Progress) {
	p, _ = Settle(p, cat, now, policy)
	credited := p.OfflinePending
	p.Balance = satAdd(p.Balance, credited)
	p.TotalEarned = satAdd(p.TotalEarned, credited)
	p.OfflinePending = 0
	p, prog := ApplyProgression(p, cat)
	return p, credited, prog
}
