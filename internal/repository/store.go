package repository

import (
	"context"
	"errors"

	"clicker_empire/internal/domain"
)

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrPlayerExists    = errors.New("player already exists")
	ErrVersionConflict = errors.New("player was modified concurrently")
)

const defaultTxLimit = 100

// PlayerStore persists players and their ledger.
//
// Save writes p only if the stored version still equals p.Version, and
// records entries in the same atomic write. On success p.Version is advanced.
type PlayerStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Player, error)
	GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
	Create(ctx context.Context, p *domain.Player) error
	Save(ctx context.Context, p *domain.Player, entries ...domain.Transaction) error
	Transactions(ctx context.Context, playerID int64, limit int) ([]domain.Transaction, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultTxLimit {
		return defaultTxLimit
	}
	return limit
}
