package repository

import (
	"context"
	"sync"

	"clicker_empire/internal/domain"
)

// MemoryStore is an in-process PlayerStore for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	nextTx  int64
	players map[int64]domain.Player
	byTg    map[int64]int64
	ledger  map[int64][]domain.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players: make(map[int64]domain.Player),
		byTg:    make(map[int64]int64),
		ledger:  make(map[int64][]domain.Transaction),
	}
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (s *MemoryStore) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	s.mu.RLock()
	id, ok := s.byTg[tgID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryStore) Create(_ context.Context, p *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byTg[p.TgID]; ok {
		return ErrPlayerExists
	}
	s.nextID++
	p.ID = s.nextID
	p.Version = 1
	p.UpdatedAt = p.CreatedAt
	s.players[p.ID] = p.Clone()
	s.byTg[p.TgID] = p.ID
	return nil
}

func (s *MemoryStore) Save(_ context.Context, p *domain.Player, entries ...domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.players[p.ID]
	if !ok {
		return ErrPlayerNotFound
	}
	if cur.Version != p.Version {
		return ErrVersionConflict
	}

	p.Version++
	s.players[p.ID] = p.Clone()
	for i := range entries {
		s.nextTx++
		entries[i].ID = s.nextTx
		entries[i].UserID = p.ID
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = p.UpdatedAt
		}
		s.ledger[p.ID] = append(s.ledger[p.ID], entries[i])
	}
	return nil
}

// Transactions returns the newest entries first.
func (s *MemoryStore) Transactions(_ context.Context, playerID int64, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.ledger[playerID]
	limit = clampLimit(limit)
	out := make([]domain.Transaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
