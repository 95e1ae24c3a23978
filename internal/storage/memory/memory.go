// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"financeai/internal/core"
	"financeai/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	users   map[string]storage.UserRecord
	byEmail map[string]string
	txs     map[string]core.Transaction
}

func New() *Store {
	return &Store{
		users:   make(map[string]storage.UserRecord),
		byEmail: make(map[string]string),
		txs:     make(map[string]core.Transaction),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, u storage.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return storage.ErrDuplicateEmail
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (storage.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return storage.UserRecord{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UserByID(_ context.Context, id string) (storage.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return storage.UserRecord{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[tx.UserID]; !ok {
		return storage.ErrNotFound
	}
	s.txs[tx.ID] = tx
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.txs[tx.ID]
	if !ok || old.UserID != tx.UserID {
		return storage.ErrNotFound
	}
	tx.CreatedAt = old.CreatedAt
	s.txs[tx.ID] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

// ListTransactions filters with storage.Matches and orders like the SQL
// backends: date desc, then creation desc, then id.
func (s *Store) ListTransactions(_ context.Context, userID string, f core.Filter) (core.Page, error) {
	s.mu.RLock()
	matched := make([]core.Transaction, 0)
	for _, tx := range s.txs {
		if tx.UserID == userID && storage.Matches(tx, f) {
			matched = append(matched, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	limit, offset := storage.Paginate(f)
	page := core.Page{Data: []core.Transaction{}, Total: len(matched)}
	if offset < len(matched) {
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		page.Data = matched[offset:end]
	}
	return page, nil
}
