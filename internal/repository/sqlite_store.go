package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"clicker_empire/internal/domain"

	"github.com/jmoiron/sqlx"
)

// SQLiteStore is a PlayerStore over database/sql with sqlx struct scanning.
// Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type sqlitePlayer struct {
	ID             int64         `db:"id"`
	TgID           int64         `db:"tg_id"`
	Username       string        `db:"username"`
	FirstName      string        `db:"first_name"`
	Balance        int64         `db:"balance"`
	TotalEarned    int64         `db:"total_earned"`
	Level          int           `db:"level"`
	Energy         int64         `db:"energy"`
	MaxEnergy      int64         `db:"max_energy"`
	LastEnergyAt   int64         `db:"last_energy_at"`
	IsPremium      bool          `db:"is_premium"`
	ItemLevels     string        `db:"item_levels"`
	BoostEndsAt    sql.NullInt64 `db:"boost_ends_at"`
	LastActiveAt   int64         `db:"last_active_at"`
	LastSeenAt     int64         `db:"last_seen_at"`
	OfflinePending int64         `db:"offline_pending"`
	ComboCount     int           `db:"combo_count"`
	LastTapAt      sql.NullInt64 `db:"last_tap_at"`
	TapsTotal      int64         `db:"taps_total"`
	RefillDay      string        `db:"refill_day"`
	RefillsUsed    int           `db:"refills_used"`
	Version        int64         `db:"version"`
	CreatedAt      int64         `db:"created_at"`
	UpdatedAt      int64         `db:"updated_at"`
}

type sqliteTransaction struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Type      string `db:"type"`
	Amount    int64  `db:"amount"`
	Meta      string `db:"meta"`
	CreatedAt int64  `db:"created_at"`
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func toSQLitePlayer(p *domain.Player) (sqlitePlayer, error) {
	levels, err := marshalLevels(p.ItemLevels)
	if err != nil {
		return sqlitePlayer{}, err
	}
	return sqlitePlayer{
		ID:             p.ID,
		TgID:           p.TgID,
		Username:       p.Username,
		FirstName:      p.FirstName,
		Balance:        p.Balance,
		TotalEarned:    p.TotalEarned,
		Level:          p.Level,
		Energy:         p.Energy,
		MaxEnergy:      p.MaxEnergy,
		LastEnergyAt:   toMillis(p.LastEnergyAt),
		IsPremium:      p.IsPremium,
		ItemLevels:     string(levels),
		BoostEndsAt:    toNullMillis(p.BoostEndsAt),
		LastActiveAt:   toMillis(p.LastActiveAt),
		LastSeenAt:     toMillis(p.LastSeenAt),
		OfflinePending: p.OfflinePending,
		ComboCount:     p.ComboCount,
		LastTapAt:      toNullMillis(p.LastTapAt),
		TapsTotal:      p.TapsTotal,
		RefillDay:      p.RefillDay,
		RefillsUsed:    p.RefillsUsed,
		Version:        p.Version,
		CreatedAt:      toMillis(p.CreatedAt),
		UpdatedAt:      toMillis(p.UpdatedAt),
	}, nil
}

func (row sqlitePlayer) player() (*domain.Player, error) {
	levels, err := unmarshalLevels([]byte(row.ItemLevels))
	if err != nil {
		return nil, err
	}
	return &domain.Player{
		ID:             row.ID,
		TgID:           row.TgID,
		Username:       row.Username,
		FirstName:      row.FirstName,
		Balance:        row.Balance,
		TotalEarned:    row.TotalEarned,
		Level:          row.Level,
		Energy:         row.Energy,
		MaxEnergy:      row.MaxEnergy,
		LastEnergyAt:   fromMillis(row.LastEnergyAt),
		IsPremium:      row.IsPremium,
		ItemLevels:     levels,
		BoostEndsAt:    fromNullMillis(row.BoostEndsAt),
		LastActiveAt:   fromMillis(row.LastActiveAt),
		LastSeenAt:     fromMillis(row.LastSeenAt),
		OfflinePending: row.OfflinePending,
		ComboCount:     row.ComboCount,
		LastTapAt:      fromNullMillis(row.LastTapAt),
		TapsTotal:      row.TapsTotal,
		RefillDay:      row.RefillDay,
		RefillsUsed:    row.RefillsUsed,
		Version:        row.Version,
		CreatedAt:      fromMillis(row.CreatedAt),
		UpdatedAt:      fromMillis(row.UpdatedAt),
	}, nil
}

func (s *SQLiteStore) get(ctx context.Context, where string, arg int64) (*domain.Player, error) {
	var row sqlitePlayer
	err := s.db.GetContext(ctx, &row, `SELECT * FROM players WHERE `+where+` = ?`, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("select player: %w", err)
	}
	return row.player()
}

func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	return s.get(ctx, "id", id)
}

func (s *SQLiteStore) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return s.get(ctx, "tg_id", tgID)
}

func (s *SQLiteStore) Create(ctx context.Context, p *domain.Player) error {
	row, err := toSQLitePlayer(p)
	if err != nil {
		return err
	}
	row.Version = 1
	row.UpdatedAt = row.CreatedAt

	res, err := s.db.NamedExecContext(ctx,
		`INSERT INTO players (tg_id, username, first_name, balance, total_earned, level,
			energy, max_energy, last_energy_at, is_premium, item_levels, boost_ends_at,
			last_active_at, last_seen_at, offline_pending, combo_count, last_tap_at,
			taps_total, refill_day, refills_used, version, created_at, updated_at)
		 VALUES (:tg_id, :username, :first_name, :balance, :total_earned, :level,
			:energy, :max_energy, :last_energy_at, :is_premium, :item_levels, :boost_ends_at,
			:last_active_at, :last_seen_at, :offline_pending, :combo_count, :last_tap_at,
			:taps_total, :refill_day, :refills_used, :version, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrPlayerExists
		}
		return fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert player id: %w", err)
	}
	p.ID = id
	p.Version = 1
	p.UpdatedAt = p.CreatedAt
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, p *domain.Player, entries ...domain.Transaction) error {
	row, err := toSQLitePlayer(p)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.NamedExecContext(ctx,
		`UPDATE players SET
			username = :username, first_name = :first_name, balance = :balance,
			total_earned = :total_earned, level = :level, energy = :energy,
			max_energy = :max_energy, last_energy_at = :last_energy_at, is_premium = :is_premium,
			item_levels = :item_levels, boost_ends_at = :boost_ends_at,
			last_active_at = :last_active_at, last_seen_at = :last_seen_at,
			offline_pending = :offline_pending, combo_count = :combo_count,
			last_tap_at = :last_tap_at, taps_total = :taps_total, refill_day = :refill_day,
			refills_used = :refills_used, updated_at = :updated_at, version = version + 1
		 WHERE id = :id AND version = :version`,
		row,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM players WHERE id = ?)`, p.ID); err == nil && !exists {
			return ErrPlayerNotFound
		}
		return ErrVersionConflict
	}

	for i := range entries {
		e := &entries[i]
		e.UserID = p.ID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = p.UpdatedAt
		}
		meta := "{}"
		if e.Meta != nil {
			if b, err := json.Marshal(e.Meta); err == nil {
				meta = string(b)
			}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, type, amount, meta, created_at) VALUES (?, ?, ?, ?, ?)`,
			e.UserID, e.Type, e.Amount, meta, toMillis(e.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert transaction id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.Version++
	return nil
}

func (s *SQLiteStore) Transactions(ctx context.Context, playerID int64, limit int) ([]domain.Transaction, error) {
	var rows []sqliteTransaction
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, type, amount, meta, created_at
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		playerID, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		tx := domain.Transaction{
			ID:        r.ID,
			UserID:    r.UserID,
			Type:      r.Type,
			Amount:    r.Amount,
			CreatedAt: fromMillis(r.CreatedAt),
		}
		if r.Meta != "" && r.Meta != "{}" {
			_ = json.Unmarshal([]byte(r.Meta), &tx.Meta)
		}
		out = append(out, tx)
	}
	return out, nil
}
