package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clicker_empire/internal/domain"
	"clicker_empire/internal/economy"
	"clicker_empire/internal/logger"
	"clicker_empire/internal/repository"
)

var ErrConcurrentUpdate = errors.New("player is being updated concurrently, retry")

// Clock is the authoritative time source. Client timestamps are never used.
type Clock func() time.Time

// PlayerService runs engine operations against stored players. Mutations of one
// player are serialized in-process by a keyed mutex and across processes by the
// store's version check, with bounded retries on conflict.
type PlayerService struct {
	store      repository.PlayerStore
	catalog    *economy.Catalog
	rules      economy.Rules
	now        Clock
	maxRetries int
	locks      *keyedMutex
}

type Option func(*PlayerService)

func WithClock(c Clock) Option {
	return func(s *PlayerService) { s.now = c }
}

func WithMaxRetries(n int) Option {
	return func(s *PlayerService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func NewPlayerService(store repository.PlayerStore, cat *economy.Catalog, rules economy.Rules, opts ...Option) *PlayerService {
	s := &PlayerService{
		store:      store,
		catalog:    cat,
		rules:      rules,
		now:        func() time.Time { return time.Now().UTC() },
		maxRetries: 3,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PlayerService) Catalog() *economy.Catalog { return s.catalog }
func (s *PlayerService) Rules() economy.Rules      { return s.rules }

// TapOutcome is a tap result plus the state after it.
type TapOutcome struct {
	economy.TapResult
	State economy.State `json:"state"`
}

// SyncOutcome reports the passive income settled by a heartbeat.
type SyncOutcome struct {
	Settlement economy.Settlement `json:"settled"`
	State      economy.State      `json:"state"`
}

// OfflineInfo previews the claimable offline reward.
type OfflineInfo struct {
	Pending      int64 `json:"pending"`
	HourlyIncome int64 `json:"hourly_income"`
	Unlocked     bool  `json:"unlocked"`
	CapSeconds   int64 `json:"cap_seconds"`
	AwaySeconds  int64 `json:"away_seconds"`
}

// ClaimOutcome is the result of claiming offline earnings.
type ClaimOutcome struct {
	Credited int64            `json:"credited"`
	Progress economy.Progress `json:"progress"`
	State    economy.State    `json:"state"`
}

// PurchaseOutcome is a completed purchase plus the state after it.
type PurchaseOutcome struct {
	economy.PurchaseResult
	State economy.State `json:"state"`
}

// Profile is the identity Telegram reports at login.
type Profile struct {
	TgID      int64
	Username  string
	FirstName string
	IsPremium bool
}

// EnsurePlayer returns the player for a Telegram account, creating it on first
// contact and refreshing the profile fields when they changed.
func (s *PlayerService) EnsurePlayer(ctx context.Context, prof Profile) (*domain.Player, bool, error) {
	p, err := s.store.GetByTgID(ctx, prof.TgID)
	if err == nil {
		if p.Username == prof.Username && p.FirstName == prof.FirstName && p.IsPremium == prof.IsPremium {
			return p, false, nil
		}
		updated, _, err := s.mutate(ctx, p.ID, func(p domain.Player, _ time.Time) (domain.Player, []domain.Transaction, error) {
			p.Username = prof.Username
			p.FirstName = prof.FirstName
			p.IsPremium = prof.IsPremium
			return p, nil, nil
		})
		if err != nil {
			return nil, false, err
		}
		return &updated, false, nil
	}
	if !errors.Is(err, repository.ErrPlayerNotFound) {
		return nil, false, fmt.Errorf("load player: %w", err)
	}

	np := economy.NewPlayer(prof.TgID, prof.Username, prof.FirstName, s.catalog, s.rules, s.now())
	np.IsPremium = prof.IsPremium
	if err := s.store.Create(ctx, &np); err != nil {
		if errors.Is(err, repository.ErrPlayerExists) {
			p, err := s.store.GetByTgID(ctx, prof.TgID)
			if err != nil {
				return nil, false, fmt.Errorf("load player: %w", err)
			}
			return p, false, nil
		}
		return nil, false, fmt.Errorf("create player: %w", err)
	}
	logger.FromContext(ctx).Info("player created", "player_id", np.ID, "tg_id", prof.TgID)
	return &np, true, nil
}

// prepare brings time-driven fields up to now: passive income and energy regen.
func (s *PlayerService) prepare(p domain.Player, now time.Time) (domain.Player, economy.Settlement) {
	p, settled := economy.Settle(p, s.catalog, now, s.rules.Offline)
	p = economy.RegenEnergy(p, now, s.rules.RegenPerMinute)
	return p, settled
}

func (s *PlayerService) snapshot(p domain.Player, now time.Time) economy.State {
	return economy.Snapshot(p, s.catalog, s.rules, now)
}

// mutateFunc computes the next player value and the ledger entries to store with it.
type mutateFunc func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error)

// mutate loads, transforms and saves a player, reloading on version conflicts.
// Errors returned by fn are final and nothing is saved.
func (s *PlayerService) mutate(ctx context.Context, playerID int64, fn mutateFunc) (domain.Player, time.Time, error) {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	log := logger.FromContext(ctx)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cur, err := s.store.GetByID(ctx, playerID)
		if err != nil {
			if errors.Is(err, repository.ErrPlayerNotFound) {
				return domain.Player{}, time.Time{}, err
			}
			return domain.Player{}, time.Time{}, fmt.Errorf("load player: %w", err)
		}

		now := s.now()
		next, entries, err := fn(*cur, now)
		if err != nil {
			return *cur, now, err
		}
		next.UpdatedAt = now

		err = s.store.Save(ctx, &next, entries...)
		if err == nil {
			if next.Level > cur.Level {
				LevelUps.Add(float64(next.Level - cur.Level))
			}
			return next, now, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return domain.Player{}, time.Time{}, fmt.Errorf("save player: %w", err)
		}
		SaveConflicts.Inc()
		log.Debug("version conflict, retrying", "player_id", playerID, "attempt", attempt)
	}

	log.Warn("giving up after version conflicts", "player_id", playerID, "attempts", s.maxRetries)
	return domain.Player{}, time.Time{}, ErrConcurrentUpdate
}

// GetState renders the player as of now without writing anything.
func (s *PlayerService) GetState(ctx context.Context, playerID int64) (economy.State, error) {
	p, err := s.store.GetByID(ctx, playerID)
	if err != nil {
		return economy.State{}, err
	}
	now := s.now()
	preview, _ := s.prepare(*p, now)
	return s.snapshot(preview, now), nil
}

// Sync is the session heartbeat: it settles passive income and regen and stores the result.
func (s *PlayerService) Sync(ctx context.Context, playerID int64) (SyncOutcome, error) {
	var settled economy.Settlement
	p, now, err := s.mutate(ctx, playerID, func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error) {
		p, settled = s.prepare(p, now)
		return p, nil, nil
	})
	if err != nil {
		return SyncOutcome{}, err
	}
	if settled.Online > 0 {
		CoinsEarned.WithLabelValues("passive").Add(float64(settled.Online))
	}
	return SyncOutcome{Settlement: settled, State: s.snapshot(p, now)}, nil
}

// Tap resolves one tap. A tap without enough energy is a soft denial, not an error.
func (s *PlayerService) Tap(ctx context.Context, playerID int64) (TapOutcome, error) {
	var res economy.TapResult
	p, now, err := s.mutate(ctx, playerID, func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error) {
		p, _ = s.prepare(p, now)
		p, res = economy.ResolveTap(p, s.catalog, now)
		return p, nil, nil
	})
	if err != nil {
		return TapOutcome{}, err
	}

	TapsTotal.WithLabelValues(res.Reason).Inc()
	if res.Accepted {
		CoinsEarned.WithLabelValues("tap").Add(float64(res.Value))
	}
	return TapOutcome{TapResult: res, State: s.snapshot(p, now)}, nil
}

// OfflinePreview reports what a claim would credit right now.
func (s *PlayerService) OfflinePreview(ctx context.Context, playerID int64) (OfflineInfo, error) {
	p, err := s.store.GetByID(ctx, playerID)
	if err != nil {
		return OfflineInfo{}, err
	}
	now := s.now()
	away := now.Sub(p.LastSeenAt)
	if away < 0 {
		away = 0
	}
	preview, _ := s.prepare(*p, now)
	return OfflineInfo{
		Pending:      preview.OfflinePending,
		HourlyIncome: economy.HourlyIncome(preview, s.catalog),
		Unlocked:     !s.rules.Offline.RequiresUnlock || economy.OfflineUnlocked(preview, s.catalog),
		CapSeconds:   int64(s.rules.Offline.MaxDuration / time.Second),
		AwaySeconds:  int64(away / time.Second),
	}, nil
}

// ClaimOffline credits the staged offline reward. A second claim with no time
// elapsed credits zero.
func (s *PlayerService) ClaimOffline(ctx context.Context, playerID int64) (ClaimOutcome, error) {
	var (
		credited int64
		prog     economy.Progress
	)
	p, now, err := s.mutate(ctx, playerID, func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error) {
		p = economy.RegenEnergy(p, now, s.rules.RegenPerMinute)
		p, credited, prog = economy.ClaimOffline(p, s.catalog, now, s.rules.Offline)
		var entries []domain.Transaction
		if credited > 0 {
			entries = append(entries, domain.Transaction{
				Type:   domain.TxOfflineClaim,
				Amount: credited,
			})
		}
		return p, entries, nil
	})
	if err != nil {
		return ClaimOutcome{}, err
	}
	if credited > 0 {
		CoinsEarned.WithLabelValues("offline").Add(float64(credited))
		logger.FromContext(ctx).Info("offline earnings claimed", "player_id", playerID, "amount", credited)
	}
	return ClaimOutcome{Credited: credited, Progress: prog, State: s.snapshot(p, now)}, nil
}

// Purchase buys the next level of an item.
func (s *PlayerService) Purchase(ctx context.Context, playerID int64, itemID string) (PurchaseOutcome, error) {
	var res economy.PurchaseResult
	p, now, err := s.mutate(ctx, playerID, func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error) {
		p, _ = s.prepare(p, now)
		p, r, err := economy.PurchaseItem(p, s.catalog, itemID)
		if err != nil {
			return p, nil, err
		}
		res = r
		return p, []domain.Transaction{{
			Type:   domain.TxPurchase,
			Amount: -r.Cost,
			Meta: map[string]interface{}{
				"item_id": r.ItemID,
				"level":   r.NewLevel,
			},
		}}, nil
	})
	if err != nil {
		return PurchaseOutcome{}, err
	}
	CoinsSpent.WithLabelValues("purchase").Add(float64(res.Cost))
	return PurchaseOutcome{PurchaseResult: res, State: s.snapshot(p, now)}, nil
}

// RefillEnergy fills the tank, limited per UTC day.
func (s *PlayerService) RefillEnergy(ctx context.Context, playerID int64) (economy.State, error) {
	p, now, err := s.mutate(ctx, playerID, func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error) {
		p, _ = s.prepare(p, now)
		p, err := economy.RefillEnergy(p, now, s.rules.RefillsPerDay)
		if err != nil {
			return p, nil, err
		}
		return p, []domain.Transaction{{
			Type: domain.TxEnergyRefill,
			Meta: map[string]interface{}{"refills_used": p.RefillsUsed},
		}}, nil
	})
	if err != nil {
		return economy.State{}, err
	}
	return s.snapshot(p, now), nil
}

// ActivateBoost buys the temporary tap boost.
func (s *PlayerService) ActivateBoost(ctx context.Context, playerID int64) (economy.State, error) {
	p, now, err := s.mutate(ctx, playerID, func(p domain.Player, now time.Time) (domain.Player, []domain.Transaction, error) {
		p, _ = s.prepare(p, now)
		p, err := economy.ActivateBoost(p, now, s.rules.Boost)
		if err != nil {
			return p, nil, err
		}
		return p, []domain.Transaction{{
			Type:   domain.TxBoost,
			Amount: -s.rules.Boost.Cost,
			Meta:   map[string]interface{}{"ends_at": p.BoostEndsAt.Format(time.RFC3339)},
		}}, nil
	})
	if err != nil {
		return economy.State{}, err
	}
	CoinsSpent.WithLabelValues("boost").Add(float64(s.rules.Boost.Cost))
	return s.snapshot(p, now), nil
}

// Transactions returns the newest ledger entries of a player.
func (s *PlayerService) Transactions(ctx context.Context, playerID int64, limit int) ([]domain.Transaction, error) {
	return s.store.Transactions(ctx, playerID, limit)
}
