package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clicker_empire/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `id, tg_id, username, first_name, balance, total_earned, level,
	energy, max_energy, last_energy_at, is_premium, item_levels, boost_ends_at,
	last_active_at, last_seen_at, offline_pending, combo_count, last_tap_at,
	taps_total, refill_day, refills_used, version, created_at, updated_at`

// PlayerRepository is the Postgres PlayerStore.
type PlayerRepository struct {
	db  *pgxpool.Pool
	txs *TransactionRepository
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db, txs: NewTransactionRepository(db)}
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	return scanPlayer(row)
}

func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE tg_id = $1`, tgID)
	return scanPlayer(row)
}

func (r *PlayerRepository) Create(ctx context.Context, p *domain.Player) error {
	levels, err := marshalLevels(p.ItemLevels)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO players (tg_id, username, first_name, balance, total_earned, level,
			energy, max_energy, last_energy_at, is_premium, item_levels, boost_ends_at,
			last_active_at, last_seen_at, offline_pending, combo_count, last_tap_at,
			taps_total, refill_day, refills_used, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1, $21, $21)
		 RETURNING id, version`,
		p.TgID, p.Username, p.FirstName, p.Balance, p.TotalEarned, p.Level,
		p.Energy, p.MaxEnergy, p.LastEnergyAt, p.IsPremium, levels, p.BoostEndsAt,
		p.LastActiveAt, p.LastSeenAt, p.OfflinePending, p.ComboCount, p.LastTapAt,
		p.TapsTotal, p.RefillDay, p.RefillsUsed, p.CreatedAt,
	).Scan(&p.ID, &p.Version)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPlayerExists
		}
		return fmt.Errorf("insert player: %w", err)
	}
	p.UpdatedAt = p.CreatedAt
	return nil
}

// Save is an optimistic compare-and-swap on version plus the ledger insert, in one transaction.
func (r *PlayerRepository) Save(ctx context.Context, p *domain.Player, entries ...domain.Transaction) error {
	levels, err := marshalLevels(p.ItemLevels)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var version int64
	err = tx.QueryRow(ctx,
		`UPDATE players SET
			username = $3, first_name = $4, balance = $5, total_earned = $6, level = $7,
			energy = $8, max_energy = $9, last_energy_at = $10, is_premium = $11,
			item_levels = $12, boost_ends_at = $13, last_active_at = $14, last_seen_at = $15,
			offline_pending = $16, combo_count = $17, last_tap_at = $18, taps_total = $19,
			refill_day = $20, refills_used = $21, updated_at = $22, version = version + 1
		 WHERE id = $1 AND version = $2
		 RETURNING version`,
		p.ID, p.Version, p.Username, p.FirstName, p.Balance, p.TotalEarned, p.Level,
		p.Energy, p.MaxEnergy, p.LastEnergyAt, p.IsPremium,
		levels, p.BoostEndsAt, p.LastActiveAt, p.LastSeenAt,
		p.OfflinePending, p.ComboCount, p.LastTapAt, p.TapsTotal,
		p.RefillDay, p.RefillsUsed, p.UpdatedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)`, p.ID).Scan(&exists)
			if !exists {
				return ErrPlayerNotFound
			}
			return ErrVersionConflict
		}
		return fmt.Errorf("update player: %w", err)
	}

	for i := range entries {
		entries[i].UserID = p.ID
		if err := r.txs.CreateWithTx(ctx, tx, &entries[i]); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.Version = version
	return nil
}

func (r *PlayerRepository) Transactions(ctx context.Context, playerID int64, limit int) ([]domain.Transaction, error) {
	return r.txs.GetByUserID(ctx, playerID, limit)
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var (
		p      domain.Player
		levels []byte
	)
	err := row.Scan(
		&p.ID, &p.TgID, &p.Username, &p.FirstName, &p.Balance, &p.TotalEarned, &p.Level,
		&p.Energy, &p.MaxEnergy, &p.LastEnergyAt, &p.IsPremium, &levels, &p.BoostEndsAt,
		&p.LastActiveAt, &p.LastSeenAt, &p.OfflinePending, &p.ComboCount, &p.LastTapAt,
		&p.TapsTotal, &p.RefillDay, &p.RefillsUsed, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("scan player: %w", err)
	}
	if p.ItemLevels, err = unmarshalLevels(levels); err != nil {
		return nil, err
	}
	return &p, nil
}

func marshalLevels(levels map[string]int) ([]byte, error) {
	if levels == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(levels)
	if err != nil {
		return nil, fmt.Errorf("encode item levels: %w", err)
	}
	return b, nil
}

func unmarshalLevels(b []byte) (map[string]int, error) {
	levels := map[string]int{}
	if len(b) == 0 {
		return levels, nil
	}
	if err := json.Unmarshal(b, &levels); err != nil {
		return nil, fmt.Errorf("decode item levels: %w", err)
	}
	return levels, nil
}
